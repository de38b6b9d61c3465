package core

import "fmt"

// createCommandBuffers allocates one command buffer per swapchain image.
func (r *Renderer) createCommandBuffers() error {
	count := r.swapchain.ImageCount()
	buffers, err := r.device.AllocateCommandBuffers(count)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAllocation, err)
	}
	if len(buffers) != count {
		r.device.FreeCommandBuffers(buffers)
		return fmt.Errorf("%w: got %d buffers, want %d", ErrAllocation, len(buffers), count)
	}
	r.commandBuffers = buffers
	return nil
}

func (r *Renderer) freeCommandBuffers() {
	if len(r.commandBuffers) == 0 {
		return
	}
	r.device.FreeCommandBuffers(r.commandBuffers)
	r.commandBuffers = nil
}
