package gfx

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Extent is a two dimensional size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero,
// as with a minimized window.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Result is a status code returned by presentation operations.
// Values match the Vulkan result codes.
type Result int32

// Results the renderer tells apart. Any other negative value is a failure.
const (
	Success                Result = 0
	NotReady               Result = 1
	Timeout                Result = 2
	Suboptimal             Result = 1000001003
	ErrorOutOfHostMemory   Result = -1
	ErrorOutOfDeviceMemory Result = -2
	ErrorDeviceLost        Result = -4
	ErrorSurfaceLost       Result = -1000000000
	ErrorOutOfDate         Result = -1000001004
)

// Failed reports whether the result is an error code.
func (r Result) Failed() bool {
	return r < 0
}

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case NotReady:
		return "not ready"
	case Timeout:
		return "timeout"
	case Suboptimal:
		return "suboptimal"
	case ErrorOutOfHostMemory:
		return "out of host memory"
	case ErrorOutOfDeviceMemory:
		return "out of device memory"
	case ErrorDeviceLost:
		return "device lost"
	case ErrorSurfaceLost:
		return "surface lost"
	case ErrorOutOfDate:
		return "out of date"
	}
	return fmt.Sprintf("result %d", int32(r))
}

// Format is an image format. Values match the Vulkan formats.
type Format int32

// Formats used by presentation surfaces.
const (
	FormatUndefined     Format = 0
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
	FormatD16Unorm      Format = 124
	FormatD32Sfloat     Format = 126
	FormatD24UnormS8    Format = 129
)

// Viewport describes the viewport transform.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport covers the whole extent with the standard depth range.
func FullViewport(extent Extent) Viewport {
	return Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

// Rect is an integer rectangle.
type Rect struct {
	X, Y   int32
	Extent Extent
}

// ClearValues are the attachment clear values of a render pass.
type ClearValues struct {
	Color   glm.Vec4
	Depth   float32
	Stencil uint32
}

// DefaultClearValues clears color to an opaque dark gray
// and depth/stencil to the far plane.
var DefaultClearValues = ClearValues{
	Color:   glm.Vec4{0.1, 0.1, 0.1, 1.0},
	Depth:   1.0,
	Stencil: 0,
}

// RenderPassBegin describes a render pass instance.
type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Rect
	Clear       ClearValues
}
