// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	"github.com/devblok/lumen/gfx"
	vk "github.com/devblok/vulkan"
)

// CommandBuffer is a primary command buffer from the device command pool.
type CommandBuffer struct {
	buffer vk.CommandBuffer
}

// Begin resets the buffer and starts recording.
func (c *CommandBuffer) Begin() error {
	if err := vk.Error(vk.ResetCommandBuffer(c.buffer, 0)); err != nil {
		return fmt.Errorf("vk.ResetCommandBuffer(): %s", err.Error())
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(c.buffer, &cbbi)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}
	return nil
}

// BeginRenderPass implements gfx.CommandBuffer
func (c *CommandBuffer) BeginRenderPass(info gfx.RenderPassBegin) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(info.Clear.Color[:])
	clearValues[1].SetDepthStencil(info.Clear.Depth, info.Clear.Stencil)

	rpbi := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      info.RenderPass.Inner().(vk.RenderPass),
		Framebuffer:     info.Framebuffer.Inner().(vk.Framebuffer),
		RenderArea:      toRect2D(info.Area),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.buffer, &rpbi, vk.SubpassContentsInline)
}

// SetViewport implements gfx.CommandBuffer
func (c *CommandBuffer) SetViewport(viewport gfx.Viewport) {
	vk.CmdSetViewport(c.buffer, 0, 1, []vk.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

// SetScissor implements gfx.CommandBuffer
func (c *CommandBuffer) SetScissor(scissor gfx.Rect) {
	vk.CmdSetScissor(c.buffer, 0, 1, []vk.Rect2D{toRect2D(scissor)})
}

// EndRenderPass implements gfx.CommandBuffer
func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.buffer)
}

// End implements gfx.CommandBuffer
func (c *CommandBuffer) End() error {
	if err := vk.Error(vk.EndCommandBuffer(c.buffer)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}
	return nil
}

// Inner returns the vk.CommandBuffer handle
func (c *CommandBuffer) Inner() interface{} {
	return c.buffer
}

func toRect2D(rect gfx.Rect) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: rect.X, Y: rect.Y},
		Extent: vk.Extent2D{Width: rect.Extent.Width, Height: rect.Extent.Height},
	}
}

func commandBufferOf(buffer gfx.CommandBuffer) vk.CommandBuffer {
	return buffer.Inner().(vk.CommandBuffer)
}
