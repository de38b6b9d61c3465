package gfx_test

import (
	"testing"

	"github.com/devblok/lumen/gfx"
	"github.com/stretchr/testify/assert"
)

func TestExtentEmpty(t *testing.T) {
	assert.True(t, gfx.Extent{}.Empty())
	assert.True(t, gfx.Extent{Width: 800}.Empty())
	assert.True(t, gfx.Extent{Height: 600}.Empty())
	assert.False(t, gfx.Extent{Width: 800, Height: 600}.Empty())
}

func TestExtentString(t *testing.T) {
	assert.Equal(t, "1280x720", gfx.Extent{Width: 1280, Height: 720}.String())
}

func TestResult(t *testing.T) {
	assert.False(t, gfx.Success.Failed())
	assert.False(t, gfx.Suboptimal.Failed())
	assert.True(t, gfx.ErrorOutOfDate.Failed())
	assert.True(t, gfx.ErrorDeviceLost.Failed())
	assert.Equal(t, "out of date", gfx.ErrorOutOfDate.String())
	assert.Equal(t, "result -13", gfx.Result(-13).String())
}

func TestFullViewport(t *testing.T) {
	vp := gfx.FullViewport(gfx.Extent{Width: 640, Height: 480})
	assert.Equal(t, gfx.Viewport{Width: 640, Height: 480, MinDepth: 0, MaxDepth: 1}, vp)
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := gfx.DefaultPipelineConfig()
	assert.Equal(t, gfx.TriangleList, cfg.Topology)
	assert.True(t, cfg.DynamicViewport)
	assert.Nil(t, cfg.RenderPass)
	assert.Nil(t, cfg.Layout)
	assert.Equal(t, 1, cfg.Samples)
}
