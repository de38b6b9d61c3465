package core

import (
	"fmt"
	"sync/atomic"

	"github.com/devblok/lumen/gfx"
)

// DrawFrame acquires the next swapchain image, records its command
// buffer and submits it for presentation. A stale swapchain is rebuilt
// and the frame is dropped, that is not an error.
func (r *Renderer) DrawFrame() error {
	imageIndex, result := r.swapchain.AcquireNextImage()
	if result == gfx.ErrorOutOfDate {
		atomic.AddInt64(&r.skipped, 1)
		r.log.Debug("swapchain out of date on acquire")
		return r.RecreateSwapchain()
	}
	if result != gfx.Success && result != gfx.Suboptimal {
		return fmt.Errorf("%w: %s", ErrAcquire, result)
	}

	if err := r.recordCommandBuffer(imageIndex); err != nil {
		return err
	}

	result, err := r.swapchain.Submit(r.commandBuffers[imageIndex], imageIndex)
	if err != nil {
		return fmt.Errorf("%w: submit: %s", ErrPresent, err)
	}
	if !result.Failed() {
		atomic.AddInt64(&r.frames, 1)
	}
	if result == gfx.ErrorOutOfDate || result == gfx.Suboptimal || r.window.WasResized() {
		r.window.ResetResized()
		r.log.WithField("result", result).Debug("swapchain stale after present")
		return r.RecreateSwapchain()
	}
	if result.Failed() {
		return fmt.Errorf("%w: %s", ErrPresent, result)
	}
	return nil
}

func (r *Renderer) recordCommandBuffer(imageIndex uint32) error {
	if int(imageIndex) >= len(r.commandBuffers) {
		return fmt.Errorf("%w: image %d of %d command buffers", ErrRecord, imageIndex, len(r.commandBuffers))
	}
	buffer := r.commandBuffers[imageIndex]

	if err := buffer.Begin(); err != nil {
		return fmt.Errorf("%w: begin: %s", ErrRecord, err)
	}

	extent := r.swapchain.Extent()
	area := gfx.Rect{Extent: extent}
	buffer.BeginRenderPass(gfx.RenderPassBegin{
		RenderPass:  r.swapchain.RenderPass(),
		Framebuffer: r.swapchain.Framebuffer(imageIndex),
		Area:        area,
		Clear:       gfx.DefaultClearValues,
	})
	buffer.SetViewport(gfx.FullViewport(extent))
	buffer.SetScissor(area)

	r.pipeline.Bind(buffer)
	r.model.Bind(buffer)
	r.model.Draw(buffer)

	buffer.EndRenderPass()
	if err := buffer.End(); err != nil {
		return fmt.Errorf("%w: end: %s", ErrRecord, err)
	}
	return nil
}
