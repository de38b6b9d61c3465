// Package model holds the vertex data the renderer draws.
package model

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec2
	Color glm.Vec3
}

// VertexSize is the size of a single vertex in bytes.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// Triangle returns the default model, a single triangle
// with red, green and blue corners.
func Triangle() []Vertex {
	return []Vertex{
		{Pos: glm.Vec2{0.0, -0.5}, Color: glm.Vec3{1.0, 0.0, 0.0}},
		{Pos: glm.Vec2{0.5, 0.5}, Color: glm.Vec3{0.0, 1.0, 0.0}},
		{Pos: glm.Vec2{-0.5, 0.5}, Color: glm.Vec3{0.0, 0.0, 1.0}},
	}
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(VertexSize),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}
