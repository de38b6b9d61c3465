package core

import (
	"context"
	"errors"
	"testing"

	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/model"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, device *fakeDevice, window *fakeWindow, opts ...Option) *Renderer {
	t.Helper()
	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	r, err := NewRenderer(device, window, DefaultConfiguration(), opts...)
	require.NoError(t, err)
	return r
}

func bufferOf(t *testing.T, r *Renderer, index int) *fakeCommandBuffer {
	t.Helper()
	require.True(t, index < len(r.commandBuffers))
	return r.commandBuffers[index].(*fakeCommandBuffer)
}

func TestNewRendererBoot(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	logger, hook := test.NewNullLogger()

	r, err := NewRenderer(device, window, DefaultConfiguration(), WithLogger(logger))
	require.NoError(t, err)

	require.Len(t, device.swapchains, 1)
	sc := device.swapchains[0]
	assert.Nil(t, sc.previous)
	assert.Equal(t, gfx.Extent{Width: 640, Height: 480}, sc.extent)
	assert.Equal(t, 3, r.CommandBufferCount())
	assert.Equal(t, 3, r.ImageCount())
	require.Len(t, device.allocations, 1)
	assert.Len(t, device.allocations[0], 3)

	assert.Equal(t, []string{
		"create-model",
		"create-layout",
		"wait-idle",
		"create-swapchain 640x480",
		"create-pipeline",
		"allocate 3",
	}, device.j.calls)

	require.Len(t, device.pipelines, 1)
	assert.Equal(t, gfx.DefaultShaderSet, device.pipelines[0].shaders)
	assert.Equal(t, sc.renderPass, device.pipelines[0].cfg.RenderPass)
	assert.Equal(t, device.layout, device.pipelines[0].cfg.Layout)
	assert.Equal(t, model.Triangle(), device.model.vertices)

	assert.Equal(t, int64(1), r.Stats().Recreations)
	assert.Equal(t, log.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "renderer ready", hook.LastEntry().Message)
}

func TestDrawFrameRecordsAndSubmits(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	require.NoError(t, r.DrawFrame())

	assert.Equal(t, []string{
		"begin",
		"begin-render-pass 640x480",
		"viewport 640x480",
		"scissor 640x480",
		"bind-pipeline",
		"bind-model",
		"draw 3",
		"end-render-pass",
		"end",
	}, bufferOf(t, r, 0).commands)
	assert.Empty(t, bufferOf(t, r, 1).commands)
	assert.Equal(t, []uint32{0}, device.swapchains[0].submitted)
	assert.Len(t, device.swapchains, 1)
	assert.Equal(t, int64(1), r.Stats().Frames)
}

func TestDrawFrameCyclesImages(t *testing.T) {
	device := newFakeDevice(2)
	window := &fakeWindow{extent: gfx.Extent{Width: 800, Height: 600}}
	r := newTestRenderer(t, device, window)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.DrawFrame())
	}
	assert.Equal(t, []uint32{0, 1, 0, 1, 0}, device.swapchains[0].submitted)
	assert.Len(t, device.swapchains, 1)
	assert.Len(t, device.allocations, 1)
}

func TestRecreateSwapchainWaitsWhileMinimized(t *testing.T) {
	const waits = 4
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 800, Height: 600}, zeroWaits: waits}
	newTestRenderer(t, device, window)

	assert.Equal(t, waits+1, window.reads)
	assert.Equal(t, waits, window.waits)
	require.Len(t, device.swapchains, 1)
	assert.Equal(t, gfx.Extent{Width: 800, Height: 600}, device.swapchains[0].extent)
	assert.Equal(t, 1, device.j.count("create-swapchain 800x600"))
}

func TestRecreateSwapchainExtentChange(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)
	buffers := r.commandBuffers
	oldSwapchain := device.swapchains[0]
	oldPipeline := device.pipelines[0]

	window.extent = gfx.Extent{Width: 1280, Height: 720}
	require.NoError(t, r.RecreateSwapchain())

	require.Len(t, device.swapchains, 2)
	sc := device.swapchains[1]
	assert.Equal(t, gfx.Extent{Width: 1280, Height: 720}, sc.extent)
	assert.Equal(t, gfx.Swapchain(oldSwapchain), sc.previous)
	assert.True(t, oldSwapchain.released)

	require.Len(t, device.pipelines, 2)
	assert.True(t, oldPipeline.released)
	assert.False(t, device.pipelines[1].released)
	assert.Equal(t, sc.renderPass, device.pipelines[1].cfg.RenderPass)
	assert.True(t, device.j.lastIndex("create-pipeline") < device.j.index("release pipeline 1"))

	assert.Len(t, device.allocations, 1)
	assert.Empty(t, device.frees)
	assert.Equal(t, buffers, r.commandBuffers)

	require.NoError(t, r.DrawFrame())
	assert.Contains(t, bufferOf(t, r, 0).commands, "viewport 1280x720")
}

func TestRecreateSwapchainImageCountChange(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	device.imageCount = 2
	require.NoError(t, r.RecreateSwapchain())

	require.Len(t, device.frees, 1)
	assert.Len(t, device.frees[0], 3)
	require.Len(t, device.allocations, 2)
	assert.Len(t, device.allocations[1], 2)
	assert.Equal(t, 2, r.CommandBufferCount())
	assert.True(t, device.j.index("free 3") < device.j.index("allocate 2"))
}

func TestCommandBuffersMatchImageCount(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	for _, count := range []int{3, 2, 4, 4, 1, 3} {
		device.imageCount = count
		require.NoError(t, r.RecreateSwapchain())
		assert.Equal(t, count, r.ImageCount())
		assert.Equal(t, r.ImageCount(), r.CommandBufferCount())
		require.NoError(t, r.DrawFrame())
	}
}

func TestFreeCommandBuffersTwice(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	r.freeCommandBuffers()
	assert.NotPanics(t, r.freeCommandBuffers)
	assert.Len(t, device.frees, 1)
	assert.Zero(t, r.CommandBufferCount())
}

func TestDrawFrameAcquireOutOfDate(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)
	old := device.swapchains[0]
	old.acquireResults = []gfx.Result{gfx.ErrorOutOfDate}

	require.NoError(t, r.DrawFrame())

	for i := 0; i < 3; i++ {
		assert.Empty(t, bufferOf(t, r, i).commands)
	}
	assert.Empty(t, old.submitted)
	require.Len(t, device.swapchains, 2)
	assert.Equal(t, gfx.Swapchain(old), device.swapchains[1].previous)
	assert.Equal(t, int64(1), r.Stats().Skipped)
	assert.Zero(t, r.Stats().Frames)
}

func TestDrawFrameAcquireSuboptimal(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)
	device.swapchains[0].acquireResults = []gfx.Result{gfx.Suboptimal}

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, []uint32{0}, device.swapchains[0].submitted)
	assert.Len(t, device.swapchains, 1)
}

func TestDrawFrameSubmitStale(t *testing.T) {
	for _, result := range []gfx.Result{gfx.Suboptimal, gfx.ErrorOutOfDate} {
		t.Run(result.String(), func(t *testing.T) {
			device := newFakeDevice(3)
			window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
			r := newTestRenderer(t, device, window)
			device.swapchains[0].submitResults = []gfx.Result{result}

			require.NoError(t, r.DrawFrame())

			assert.Equal(t, []uint32{0}, device.swapchains[0].submitted)
			require.Len(t, device.swapchains, 2)
			assert.True(t, device.j.index("submit 0") < device.j.lastIndex("create-swapchain 640x480"))
			assert.Equal(t, 1, device.j.count("submit 0"))
			assert.Equal(t, int64(2), r.Stats().Recreations)
		})
	}
}

func TestDrawFrameResizeFlag(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	window.resized = true
	window.extent = gfx.Extent{Width: 1024, Height: 768}
	require.NoError(t, r.DrawFrame())

	assert.False(t, window.resized)
	require.Len(t, device.swapchains, 2)
	assert.Equal(t, gfx.Extent{Width: 1024, Height: 768}, device.swapchains[1].extent)
	assert.Equal(t, []uint32{0}, device.swapchains[0].submitted)

	require.NoError(t, r.DrawFrame())
	assert.Len(t, device.swapchains, 2)
}

func TestDrawFrameSubmitFailureWithPendingResize(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	device.swapchains[0].submitErr = errFake
	window.resized = true

	err := r.DrawFrame()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPresent), err.Error())
	assert.Len(t, device.swapchains, 1)
	assert.Equal(t, int64(1), r.Stats().Recreations)
	assert.Zero(t, r.Stats().Frames)
	assert.True(t, window.resized)
}

func TestDrawFrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(d *fakeDevice, r *Renderer)
		want    error
	}{
		{
			name: "acquire device lost",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().acquireResults = []gfx.Result{gfx.ErrorDeviceLost}
			},
			want: ErrAcquire,
		},
		{
			name: "acquire not ready",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().acquireResults = []gfx.Result{gfx.NotReady}
			},
			want: ErrAcquire,
		},
		{
			name: "submit device lost",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().submitResults = []gfx.Result{gfx.ErrorDeviceLost}
			},
			want: ErrPresent,
		},
		{
			name: "submit failed",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().submitErr = errFake
			},
			want: ErrPresent,
		},
		{
			name: "begin",
			prepare: func(d *fakeDevice, r *Renderer) {
				r.commandBuffers[0].(*fakeCommandBuffer).beginErr = errFake
			},
			want: ErrRecord,
		},
		{
			name: "end",
			prepare: func(d *fakeDevice, r *Renderer) {
				r.commandBuffers[0].(*fakeCommandBuffer).endErr = errFake
			},
			want: ErrRecord,
		},
		{
			name: "recreate swapchain",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().acquireResults = []gfx.Result{gfx.ErrorOutOfDate}
				d.swapchainErr = errFake
			},
			want: ErrResourceCreation,
		},
		{
			name: "recreate pipeline",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().submitResults = []gfx.Result{gfx.Suboptimal}
				d.pipelineErr = errFake
			},
			want: ErrResourceCreation,
		},
		{
			name: "reallocate",
			prepare: func(d *fakeDevice, r *Renderer) {
				d.lastSwapchain().acquireResults = []gfx.Result{gfx.ErrorOutOfDate}
				d.imageCount = 4
				d.allocErr = errFake
			},
			want: ErrAllocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := newFakeDevice(3)
			window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
			r := newTestRenderer(t, device, window)
			tt.prepare(device, r)

			err := r.DrawFrame()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestRecreateSwapchainFailureKeepsPrevious(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)
	device.swapchainErr = errFake

	assert.True(t, errors.Is(r.RecreateSwapchain(), ErrResourceCreation))
	assert.Equal(t, gfx.Swapchain(device.swapchains[0]), r.swapchain)

	r.Destroy()
	assert.True(t, device.swapchains[0].released)
}

func TestNewRendererErrors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(d *fakeDevice)
		want    error
	}{
		{"model", func(d *fakeDevice) { d.modelErr = errFake }, ErrResourceCreation},
		{"layout", func(d *fakeDevice) { d.layoutErr = errFake }, ErrResourceCreation},
		{"swapchain", func(d *fakeDevice) { d.swapchainErr = errFake }, ErrResourceCreation},
		{"pipeline", func(d *fakeDevice) { d.pipelineErr = errFake }, ErrResourceCreation},
		{"allocate", func(d *fakeDevice) { d.allocErr = errFake }, ErrAllocation},
		{"short allocation", func(d *fakeDevice) { d.shortAlloc = true }, ErrAllocation},
		{"wait idle", func(d *fakeDevice) { d.idleErr = errFake }, ErrResourceCreation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := newFakeDevice(3)
			tt.prepare(device)
			logger, _ := test.NewNullLogger()

			r, err := NewRenderer(device, &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}},
				DefaultConfiguration(), WithLogger(logger))
			assert.Nil(t, r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			if device.layout != nil {
				assert.True(t, device.layout.released)
			}
			if device.model != nil {
				assert.True(t, device.model.released)
			}
		})
	}
}

func TestCreatePipelinePreconditions(t *testing.T) {
	device := newFakeDevice(3)
	r := &Renderer{device: device, configuration: DefaultConfiguration()}

	assert.Panics(t, func() { r.createPipeline() })

	r.swapchain = &fakeSwapchain{j: device.j, imageCount: 3}
	assert.Panics(t, func() { r.createPipeline() })

	r.pipelineLayout = &fakeLayout{}
	assert.NotPanics(t, func() { assert.NoError(t, r.createPipeline()) })
}

func TestRendererModelFromAssets(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	cfg := DefaultConfiguration()
	cfg.Renderer.ModelPath = "models/quad.dae"
	logger, _ := test.NewNullLogger()

	src := fakeSource{"models/quad.dae": []byte(quadCollada)}
	_, err := NewRenderer(device, window, cfg, WithLogger(logger), WithAssets(src))
	require.NoError(t, err)
	assert.Len(t, device.model.vertices, 6)

	device = newFakeDevice(3)
	_, err = NewRenderer(device, window, cfg, WithLogger(logger))
	assert.True(t, errors.Is(err, ErrResourceCreation))
}

func TestRendererWithVertices(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	verts := model.Triangle()[:2]

	newTestRenderer(t, device, window, WithVertices(verts))
	assert.Equal(t, verts, device.model.vertices)
}

func TestRendererDestroy(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	r.Destroy()
	r.Destroy()

	assert.Len(t, device.frees, 1)
	assert.True(t, device.pipelines[0].released)
	assert.True(t, device.swapchains[0].released)
	assert.True(t, device.layout.released)
	assert.True(t, device.model.released)
	assert.Equal(t, 1, device.j.count("release swapchain 1"))
	assert.Zero(t, r.ImageCount())
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}, closeAfter: 3}
	r := newTestRenderer(t, device, window)
	idles := device.idles

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, int64(3), r.Stats().Frames)
	assert.Equal(t, 3, window.polls)
	assert.Equal(t, idles+1, device.idles)
	assert.Equal(t, "wait-idle", device.j.calls[len(device.j.calls)-1])
}

func TestRunStopsOnCancel(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}}
	r := newTestRenderer(t, device, window)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))

	assert.Zero(t, r.Stats().Frames)
	assert.Zero(t, window.polls)
	assert.Equal(t, "wait-idle", device.j.calls[len(device.j.calls)-1])
}

func TestRunReturnsFrameError(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}, closeAfter: 10}
	r := newTestRenderer(t, device, window)
	device.swapchains[0].submitResults = []gfx.Result{gfx.Success, gfx.ErrorSurfaceLost}

	err := r.Run(context.Background())
	assert.True(t, errors.Is(err, ErrPresent))
	assert.Equal(t, int64(1), r.Stats().Frames)
	assert.Equal(t, "wait-idle", device.j.calls[len(device.j.calls)-1])
}

func TestRunFinalWaitIdleFailure(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}, closeAfter: 1}
	r := newTestRenderer(t, device, window)
	device.idleErr = errFake

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFake))
	assert.False(t, errors.Is(err, ErrPresent))
	assert.Equal(t, int64(1), r.Stats().Frames)
}

func TestRunPaced(t *testing.T) {
	device := newFakeDevice(3)
	window := &fakeWindow{extent: gfx.Extent{Width: 640, Height: 480}, closeAfter: 2}
	cfg := DefaultConfiguration()
	cfg.Time.FramesPerSecond = 200
	logger, hook := test.NewNullLogger()

	r, err := NewRenderer(device, window, cfg, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, int64(2), r.Stats().Frames)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "render loop stopped", entry.Message)
	assert.Equal(t, 200, entry.Data["fpsCap"])
}

const quadCollada = `<COLLADA>
  <library_geometries>
    <geometry id="Plane-mesh">
      <mesh>
        <source id="Plane-mesh-positions">
          <float_array id="Plane-mesh-positions-array" count="12">-1 -1 0 1 -1 0 -1 1 0 1 1 0</float_array>
          <technique_common>
            <accessor count="4" stride="3"/>
          </technique_common>
        </source>
        <vertices id="Plane-mesh-vertices">
          <input semantic="POSITION" source="#Plane-mesh-positions"/>
        </vertices>
        <triangles count="2">
          <input semantic="VERTEX" source="#Plane-mesh-vertices" offset="0"/>
          <p>1 0 2 1 3 2</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`
