// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the SDL and GLFW windows frames are presented into.
package window

import (
	"fmt"
	"unsafe"

	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/gfx"
)

// Config describes the window to open.
type Config struct {
	Title  string
	Width  uint32
	Height uint32
}

// Window is a resizable window with a Vulkan surface.
// All methods must be called from the main thread.
type Window interface {
	gfx.Window

	// ProcAddr returns the vkGetInstanceProcAddr of the window system.
	ProcAddr() unsafe.Pointer

	// InstanceExtensions returns the instance extensions the
	// window system requires.
	InstanceExtensions() []string

	// CreateSurface creates a surface for the given vk.Instance.
	CreateSurface(instance interface{}) (uintptr, error)

	// Close destroys the window and shuts the backend down.
	Close()
}

// New opens a window with one of the core.Backend* backends.
func New(backend string, cfg Config) (Window, error) {
	switch backend {
	case core.BackendSDL:
		return NewSDL(cfg)
	case core.BackendGLFW:
		return NewGLFW(cfg)
	}
	return nil, fmt.Errorf("unknown window backend %q", backend)
}

// state tracks the flags both backends report.
type state struct {
	resized     bool
	shouldClose bool
}

func (s *state) WasResized() bool  { return s.resized }
func (s *state) ResetResized()     { s.resized = false }
func (s *state) ShouldClose() bool { return s.shouldClose }
