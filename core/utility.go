package core

import (
	"fmt"

	"github.com/devblok/lumen/model"
)

// loadModels creates the model the renderer draws. Explicit vertices
// win over the configured model path, the default is a triangle.
func (r *Renderer) loadModels() error {
	vertices := r.vertices
	if vertices == nil {
		var err error
		if vertices, err = r.readModel(); err != nil {
			return fmt.Errorf("%w: model: %s", ErrResourceCreation, err)
		}
	}

	m, err := r.device.CreateModel(vertices)
	if err != nil {
		return fmt.Errorf("%w: model: %s", ErrResourceCreation, err)
	}
	r.model = m
	return nil
}

func (r *Renderer) readModel() ([]model.Vertex, error) {
	path := r.configuration.Renderer.ModelPath
	if path == "" {
		return model.Triangle(), nil
	}
	if r.assets == nil {
		return nil, fmt.Errorf("no asset source to read %s from", path)
	}
	data, err := r.assets.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return model.ImportCollada(data)
}
