// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"unsafe"

	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/model"
	vk "github.com/devblok/vulkan"
)

// Model is a vertex buffer drawn in a single call
type Model struct {
	device      vk.Device
	buffer      vk.Buffer
	memory      Memory
	vertexCount uint32
}

// CreateModel implements gfx.Device
func (d *Device) CreateModel(vertices []model.Vertex) (gfx.Model, error) {
	if len(vertices) == 0 {
		return nil, errors.New("vkr: model without vertices")
	}

	m := &Model{
		device:      d.logical,
		vertexCount: uint32(len(vertices)),
	}
	if err := d.uploadVertices(m, vertexBytes(vertices)); err != nil {
		return nil, err
	}
	return m, nil
}

// uploadVertices creates a host visible vertex buffer for the model,
// binds memory to it and copies data in. Nothing is left allocated
// on failure.
func (d *Device) uploadVertices(m *Model, data []byte) error {
	bci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(len(data)),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	if err := vk.Error(vk.CreateBuffer(d.logical, &bci, nil, &m.buffer)); err != nil {
		return errors.New("vk.CreateBuffer(): " + err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.logical, m.buffer, &req)
	req.Deref()

	var err error
	if m.memory, err = d.allocator.Malloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit); err != nil {
		vk.DestroyBuffer(d.logical, m.buffer, nil)
		return err
	}
	if err := vk.Error(vk.BindBufferMemory(d.logical, m.buffer, m.memory.Get(), vk.DeviceSize(m.memory.Offset()))); err != nil {
		m.Release()
		return errors.New("vk.BindBufferMemory(): " + err.Error())
	}
	if err := m.memory.Write(data); err != nil {
		m.Release()
		return err
	}
	return nil
}

// vertexBytes views the vertices as raw bytes.
func vertexBytes(vertices []model.Vertex) []byte {
	size := len(vertices) * model.VertexSize
	return *(*[]byte)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(unsafe.Pointer(&vertices[0])),
		Len:  size,
		Cap:  size,
	}))
}

// Bind implements gfx.Model
func (m *Model) Bind(buffer gfx.CommandBuffer) {
	vk.CmdBindVertexBuffers(commandBufferOf(buffer), 0, 1, []vk.Buffer{m.buffer}, []vk.DeviceSize{0})
}

// Draw implements gfx.Model
func (m *Model) Draw(buffer gfx.CommandBuffer) {
	vk.CmdDraw(commandBufferOf(buffer), m.vertexCount, 1, 0, 0)
}

// VertexCount implements gfx.Model
func (m *Model) VertexCount() uint32 {
	return m.vertexCount
}

// Release destroys the vertex buffer and frees its memory
func (m *Model) Release() {
	vk.DestroyBuffer(m.device, m.buffer, nil)
	m.memory.Release()
}
