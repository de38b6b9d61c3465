// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets provides shader and model files to the renderer,
// either from a directory or from a kar archive.
package assets

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/devblok/lumen/utility/kar"
	"github.com/gobuffalo/packr"
)

// ErrNotFound is returned when a source does not hold the file.
var ErrNotFound = errors.New("asset not found")

// Source provides asset files by their slash separated name.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

// Open opens a directory or, when location ends with .kar, an archive.
// The returned Closer has to be called when the Source is no longer needed.
func Open(location string) (Source, io.Closer, error) {
	if strings.HasSuffix(location, ".kar") {
		ar, err := OpenArchive(location)
		if err != nil {
			return nil, nil, err
		}
		return ar, ar, nil
	}
	dir, err := NewDir(location)
	if err != nil {
		return nil, nil, err
	}
	return dir, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewDir creates a Source backed by a packr box rooted at dir.
func NewDir(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Dir{
		box: packr.NewBox(abs),
	}, nil
}

// Dir reads assets from a directory, or from the packed
// box data when the binary was built with packr.
type Dir struct {
	box packr.Box
}

// ReadFile implements Source
func (d *Dir) ReadFile(name string) ([]byte, error) {
	if !d.box.Has(name) {
		return nil, ErrNotFound
	}
	return d.box.Find(name)
}

// OpenArchive memory maps a kar archive.
func OpenArchive(path string) (*Archive, error) {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &Archive{archive: ar}, nil
}

// Archive reads assets out of a kar archive.
type Archive struct {
	archive *kar.Archive
}

// ReadFile implements Source
func (a *Archive) ReadFile(name string) ([]byte, error) {
	data, err := a.archive.ReadAll(name)
	if err == kar.ErrNotFound {
		return nil, ErrNotFound
	}
	return data, err
}

// Files lists the archived file names.
func (a *Archive) Files() []string {
	return a.archive.Files()
}

// Close unmaps the archive.
func (a *Archive) Close() error {
	return a.archive.Close()
}
