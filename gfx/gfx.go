// Package gfx defines rendering related features that renderers must implement.
package gfx

import "github.com/devblok/lumen/model"

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Device is the rendering device context. It owns the logical device,
// the command pool, the execution queue and the synchronisation
// primitives. Renderers depend on it but never own it.
type Device interface {

	// WaitIdle blocks until no work is in flight on the device.
	WaitIdle() error

	// AllocateCommandBuffers allocates count primary command
	// buffers from the device's command pool.
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)

	// FreeCommandBuffers returns buffers to the command pool.
	FreeCommandBuffers(buffers []CommandBuffer)

	// CreatePipelineLayout creates a resource binding layout.
	CreatePipelineLayout(info PipelineLayoutInfo) (PipelineLayout, error)

	// CreateSwapchain creates a swapchain of the given extent. When
	// previous is not nil, its reusable state is handed over to the new
	// swapchain and previous is released. On failure previous stays
	// with the caller.
	CreateSwapchain(extent Extent, previous Swapchain) (Swapchain, error)

	// CreatePipeline compiles a graphics pipeline from the shader set
	// and the configuration.
	CreatePipeline(shaders ShaderSet, cfg PipelineConfig) (Pipeline, error)

	// CreateModel uploads vertices into a device resident buffer.
	CreateModel(vertices []model.Vertex) (Model, error)
}

// Swapchain is an ordered collection of presentable images together
// with the render target they are drawn through. The number of images
// never changes for the lifetime of a Swapchain.
type Swapchain interface {
	Releasable

	// AcquireNextImage returns the index of the next image free for rendering.
	AcquireNextImage() (uint32, Result)

	// Submit queues the command buffer for execution and presents
	// the image at index once it's done. A failed submission is returned
	// as an error, the Result is the status of the presentation.
	Submit(buffer CommandBuffer, index uint32) (Result, error)

	// ImageCount is the number of presentable images.
	ImageCount() int

	// Extent is the size of the images.
	Extent() Extent

	// Formats returns color and depth attachment formats.
	Formats() (color, depth Format)

	// RenderPass returns the render pass images are drawn with.
	RenderPass() RenderPass

	// Framebuffer returns the framebuffer of the image at index.
	Framebuffer(index uint32) Framebuffer
}

// Pipeline is a compiled graphics pipeline bound to a render pass layout.
type Pipeline interface {
	Releasable

	// Bind binds the pipeline for subsequent draws.
	Bind(buffer CommandBuffer)
}

// PipelineLayout describes the resource binding shape of pipelines.
type PipelineLayout interface {
	Releasable

	// Inner returns the handle of the underlying API.
	Inner() interface{}
}

// Model is static vertex data living in a device buffer.
type Model interface {
	Releasable

	// Bind binds the vertex buffer.
	Bind(buffer CommandBuffer)

	// Draw issues the draw call for all vertices.
	Draw(buffer CommandBuffer)

	// VertexCount returns the number of vertices drawn.
	VertexCount() uint32
}

// RenderPass is a render pass owned by a Swapchain.
type RenderPass interface {
	Inner() interface{}
}

// Framebuffer is a render target of a single swapchain image.
type Framebuffer interface {
	Inner() interface{}
}

// CommandBuffer records commands for later execution by the device.
type CommandBuffer interface {

	// Begin starts recording, discarding anything recorded before.
	Begin() error

	// BeginRenderPass starts the render pass described by info.
	BeginRenderPass(info RenderPassBegin)

	// SetViewport sets the dynamic viewport.
	SetViewport(viewport Viewport)

	// SetScissor sets the dynamic scissor rectangle.
	SetScissor(scissor Rect)

	// EndRenderPass ends the current render pass.
	EndRenderPass()

	// End finishes recording.
	End() error

	// Inner returns the handle of the underlying API.
	Inner() interface{}
}

// Window is the windowing layer the renderer presents into.
type Window interface {

	// Extent returns the current drawable size in pixels.
	Extent() Extent

	// WasResized reports an outstanding resize notification.
	WasResized() bool

	// ResetResized clears the resize notification.
	ResetResized()

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// PollEvents processes pending events without blocking.
	PollEvents()

	// WaitEvents blocks until at least one event is processed.
	WaitEvents()
}
