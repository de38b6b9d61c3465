// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

// frameSync holds the per frame synchronisation primitives. They
// outlive swapchains and are handed over on recreation.
type frameSync struct {
	device vk.Device

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []vk.Fence

	// imagesInFlight maps swapchain images to the fence of
	// the frame that last used them.
	imagesInFlight []vk.Fence
	current        int
}

func newFrameSync(device vk.Device, imageCount int) (*frameSync, error) {
	s := &frameSync{device: device}
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := 0; i < maxFramesInFlight; i++ {
		var (
			imageAvailable vk.Semaphore
			renderFinished vk.Semaphore
			fence          vk.Fence
		)
		if err := vk.Error(vk.CreateSemaphore(device, &sci, nil, &imageAvailable)); err != nil {
			s.release()
			return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		s.imageAvailable = append(s.imageAvailable, imageAvailable)
		if err := vk.Error(vk.CreateSemaphore(device, &sci, nil, &renderFinished)); err != nil {
			s.release()
			return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		s.renderFinished = append(s.renderFinished, renderFinished)
		if err := vk.Error(vk.CreateFence(device, &fci, nil, &fence)); err != nil {
			s.release()
			return nil, errors.New("vk.CreateFence(): " + err.Error())
		}
		s.inFlight = append(s.inFlight, fence)
	}
	s.resize(imageCount)
	return s, nil
}

// resize forgets image ownership, the device must be idle.
func (s *frameSync) resize(imageCount int) {
	s.imagesInFlight = make([]vk.Fence, imageCount)
}

func (s *frameSync) advance() {
	s.current = (s.current + 1) % maxFramesInFlight
}

func (s *frameSync) release() {
	for _, sem := range s.imageAvailable {
		vk.DestroySemaphore(s.device, sem, nil)
	}
	for _, sem := range s.renderFinished {
		vk.DestroySemaphore(s.device, sem, nil)
	}
	for _, fence := range s.inFlight {
		vk.DestroyFence(s.device, fence, nil)
	}
	s.imageAvailable, s.renderFinished, s.inFlight, s.imagesInFlight = nil, nil, nil, nil
}
