package core

import (
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// RecreateSwapchain rebuilds the swapchain for the current window size
// and the pipeline on top of it. While the window is minimized it blocks
// on window events. Command buffers are reallocated only when the image
// count changes.
func (r *Renderer) RecreateSwapchain() error {
	extent := r.window.Extent()
	for extent.Empty() {
		r.window.WaitEvents()
		extent = r.window.Extent()
	}

	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("%w: wait idle: %s", ErrResourceCreation, err)
	}

	if r.swapchain == nil {
		swapchain, err := r.device.CreateSwapchain(extent, nil)
		if err != nil {
			return fmt.Errorf("%w: swapchain: %s", ErrResourceCreation, err)
		}
		r.swapchain = swapchain
	} else {
		swapchain, err := r.device.CreateSwapchain(extent, r.swapchain)
		if err != nil {
			return fmt.Errorf("%w: swapchain: %s", ErrResourceCreation, err)
		}
		r.swapchain = swapchain

		if swapchain.ImageCount() != len(r.commandBuffers) {
			r.freeCommandBuffers()
			if err := r.createCommandBuffers(); err != nil {
				return err
			}
		}
	}

	if err := r.createPipeline(); err != nil {
		return err
	}

	atomic.AddInt64(&r.recreations, 1)
	r.log.WithFields(log.Fields{
		"extent": extent,
		"images": r.swapchain.ImageCount(),
	}).Debug("swapchain recreated")
	return nil
}
