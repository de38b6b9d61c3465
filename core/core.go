// Package core drives the frame presentation lifecycle: it owns the
// swapchain, the graphics pipeline and the command buffers, and keeps
// them consistent with the window as it is resized or minimized.
package core

import (
	"sync/atomic"

	"github.com/devblok/lumen/assets"
	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/model"
	log "github.com/sirupsen/logrus"
)

// Option configures a Renderer
type Option func(*Renderer)

// WithLogger sets the logger the renderer reports to.
func WithLogger(logger log.FieldLogger) Option {
	return func(r *Renderer) {
		r.log = logger
	}
}

// WithAssets sets the source models are read from.
func WithAssets(src assets.Source) Option {
	return func(r *Renderer) {
		r.assets = src
	}
}

// WithVertices makes the renderer draw the given vertices
// instead of loading a model.
func WithVertices(vertices []model.Vertex) Option {
	return func(r *Renderer) {
		r.vertices = vertices
	}
}

// Stats are counters of the renderer's work so far.
type Stats struct {
	// Frames is the number of submitted frames.
	Frames int64

	// Skipped is the number of frames dropped on a stale swapchain.
	Skipped int64

	// Recreations is the number of swapchains built.
	Recreations int64
}

// Renderer presents frames into a window. It is not safe for
// concurrent use, all methods must be called from the thread
// that owns the window.
type Renderer struct {
	configuration Configuration
	device        gfx.Device
	window        gfx.Window
	assets        assets.Source
	vertices      []model.Vertex
	log           log.FieldLogger

	model          gfx.Model
	pipelineLayout gfx.PipelineLayout
	pipeline       gfx.Pipeline
	swapchain      gfx.Swapchain
	commandBuffers []gfx.CommandBuffer

	frames      int64
	skipped     int64
	recreations int64

	destroyed bool
}

// NewRenderer builds everything needed to draw the first frame:
// the model, the pipeline layout, the swapchain with its pipeline
// and one command buffer per swapchain image.
func NewRenderer(device gfx.Device, window gfx.Window, cfg Configuration, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		configuration: cfg,
		device:        device,
		window:        window,
		log:           log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.loadModels(); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.createPipelineLayout(); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.RecreateSwapchain(); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.createCommandBuffers(); err != nil {
		r.Destroy()
		return nil, err
	}

	r.log.WithFields(log.Fields{
		"extent":   r.swapchain.Extent(),
		"images":   r.swapchain.ImageCount(),
		"vertices": r.model.VertexCount(),
	}).Info("renderer ready")
	return r, nil
}

// Stats returns the renderer counters. Safe to call from any goroutine.
func (r *Renderer) Stats() Stats {
	return Stats{
		Frames:      atomic.LoadInt64(&r.frames),
		Skipped:     atomic.LoadInt64(&r.skipped),
		Recreations: atomic.LoadInt64(&r.recreations),
	}
}

// ImageCount returns the image count of the current swapchain.
func (r *Renderer) ImageCount() int {
	if r.swapchain == nil {
		return 0
	}
	return r.swapchain.ImageCount()
}

// CommandBufferCount returns the number of allocated command buffers.
func (r *Renderer) CommandBufferCount() int {
	return len(r.commandBuffers)
}

// Destroy waits for the device and releases everything the
// renderer owns. Calling it more than once does nothing.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	if err := r.device.WaitIdle(); err != nil {
		r.log.WithError(err).Warn("device did not go idle before teardown")
	}

	r.freeCommandBuffers()
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.swapchain != nil {
		r.swapchain.Release()
		r.swapchain = nil
	}
	if r.pipelineLayout != nil {
		r.pipelineLayout.Release()
		r.pipelineLayout = nil
	}
	if r.model != nil {
		r.model.Release()
		r.model = nil
	}
	r.log.Debug("renderer destroyed")
}
