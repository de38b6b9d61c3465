package core

import "errors"

// Fatal renderer errors. Returned errors wrap one of these, test with errors.Is.
// Stale swapchains are recovered by the renderer and never returned.
var (
	ErrAcquire          = errors.New("failed to acquire swapchain image")
	ErrRecord           = errors.New("failed to record command buffer")
	ErrAllocation       = errors.New("failed to allocate command buffers")
	ErrPresent          = errors.New("failed to present swapchain image")
	ErrResourceCreation = errors.New("failed to create rendering resource")
)
