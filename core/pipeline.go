package core

import (
	"fmt"

	"github.com/devblok/lumen/gfx"
)

func (r *Renderer) createPipelineLayout() error {
	layout, err := r.device.CreatePipelineLayout(gfx.PipelineLayoutInfo{})
	if err != nil {
		return fmt.Errorf("%w: pipeline layout: %s", ErrResourceCreation, err)
	}
	r.pipelineLayout = layout
	return nil
}

// createPipeline replaces the pipeline with one built against the
// render pass of the current swapchain. The old pipeline is released
// only once the new one exists.
func (r *Renderer) createPipeline() error {
	if r.swapchain == nil {
		panic("core: pipeline created before swapchain")
	}
	if r.pipelineLayout == nil {
		panic("core: pipeline created before pipeline layout")
	}

	cfg := gfx.DefaultPipelineConfig()
	cfg.RenderPass = r.swapchain.RenderPass()
	cfg.Layout = r.pipelineLayout

	pipeline, err := r.device.CreatePipeline(r.configuration.Renderer.Shaders, cfg)
	if err != nil {
		return fmt.Errorf("%w: pipeline: %s", ErrResourceCreation, err)
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	r.pipeline = pipeline
	return nil
}
