// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/devblok/lumen/gfx"
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// NewGLFW initialises GLFW and opens a window without a client API.
func NewGLFW(cfg Config) (*GLFWWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}

	w := &GLFWWindow{window: window}
	window.SetFramebufferSizeCallback(w.onFramebufferSize)
	window.SetKeyCallback(w.onKey)
	return w, nil
}

// GLFWWindow is a window backed by GLFW
type GLFWWindow struct {
	state
	window *glfw.Window
}

func (w *GLFWWindow) onFramebufferSize(_ *glfw.Window, width, height int) {
	w.resized = true
}

func (w *GLFWWindow) onKey(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.shouldClose = true
	}
}

// Extent implements gfx.Window
func (w *GLFWWindow) Extent() gfx.Extent {
	width, height := w.window.GetFramebufferSize()
	return gfx.Extent{Width: uint32(width), Height: uint32(height)}
}

// ShouldClose implements gfx.Window
func (w *GLFWWindow) ShouldClose() bool {
	return w.shouldClose || w.window.ShouldClose()
}

// PollEvents implements gfx.Window
func (w *GLFWWindow) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents implements gfx.Window
func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

// ProcAddr implements Window
func (w *GLFWWindow) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// InstanceExtensions implements Window
func (w *GLFWWindow) InstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements Window
func (w *GLFWWindow) CreateSurface(instance interface{}) (uintptr, error) {
	return w.window.CreateWindowSurface(instance, nil)
}

// Close implements Window
func (w *GLFWWindow) Close() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	glfw.Terminate()
}
