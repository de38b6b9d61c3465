package core

import (
	"errors"
	"fmt"

	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/model"
)

// journal records calls across fakes so tests can check their order.
type journal struct {
	calls []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.calls = append(j.calls, fmt.Sprintf(format, args...))
}

func (j *journal) index(call string) int {
	for i, c := range j.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func (j *journal) lastIndex(call string) int {
	for i := len(j.calls) - 1; i >= 0; i-- {
		if j.calls[i] == call {
			return i
		}
	}
	return -1
}

func (j *journal) count(call string) int {
	var n int
	for _, c := range j.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakeWindow struct {
	extent gfx.Extent

	// zeroWaits is the number of WaitEvents calls during
	// which the window reports an empty extent.
	zeroWaits int

	// closeAfter makes ShouldClose true after that many calls, 0 never.
	closeAfter int

	resized bool

	reads, waits, polls, closeChecks int
}

func (w *fakeWindow) Extent() gfx.Extent {
	w.reads++
	if w.waits < w.zeroWaits {
		return gfx.Extent{}
	}
	return w.extent
}

func (w *fakeWindow) WasResized() bool { return w.resized }
func (w *fakeWindow) ResetResized()    { w.resized = false }
func (w *fakeWindow) PollEvents()      { w.polls++ }
func (w *fakeWindow) WaitEvents()      { w.waits++ }

func (w *fakeWindow) ShouldClose() bool {
	w.closeChecks++
	return w.closeAfter > 0 && w.closeChecks > w.closeAfter
}

type fakeCommandBuffer struct {
	id       int
	commands []string
	beginErr error
	endErr   error
}

func (c *fakeCommandBuffer) record(cmd string) {
	c.commands = append(c.commands, cmd)
}

func (c *fakeCommandBuffer) Begin() error {
	if c.beginErr != nil {
		return c.beginErr
	}
	c.commands = []string{"begin"}
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(info gfx.RenderPassBegin) {
	c.record(fmt.Sprintf("begin-render-pass %s", info.Area.Extent))
}

func (c *fakeCommandBuffer) SetViewport(vp gfx.Viewport) {
	c.record(fmt.Sprintf("viewport %vx%v", vp.Width, vp.Height))
}

func (c *fakeCommandBuffer) SetScissor(rect gfx.Rect) {
	c.record(fmt.Sprintf("scissor %s", rect.Extent))
}

func (c *fakeCommandBuffer) EndRenderPass() { c.record("end-render-pass") }

func (c *fakeCommandBuffer) End() error {
	if c.endErr != nil {
		return c.endErr
	}
	c.record("end")
	return nil
}

func (c *fakeCommandBuffer) Inner() interface{} { return c.id }

type fakeHandle struct{ name string }

func (h *fakeHandle) Inner() interface{} { return h.name }

type fakeSwapchain struct {
	j *journal

	id         int
	extent     gfx.Extent
	imageCount int
	previous   gfx.Swapchain
	renderPass *fakeHandle

	acquireResults []gfx.Result
	submitResults  []gfx.Result
	submitErr      error
	next           uint32
	submitted      []uint32
	released       bool
}

func (s *fakeSwapchain) AcquireNextImage() (uint32, gfx.Result) {
	s.j.add("acquire")
	result := gfx.Success
	if len(s.acquireResults) > 0 {
		result, s.acquireResults = s.acquireResults[0], s.acquireResults[1:]
	}
	index := s.next % uint32(s.imageCount)
	s.next++
	return index, result
}

func (s *fakeSwapchain) Submit(buffer gfx.CommandBuffer, index uint32) (gfx.Result, error) {
	s.j.add("submit %d", index)
	s.submitted = append(s.submitted, index)
	if s.submitErr != nil {
		return gfx.ErrorOutOfHostMemory, s.submitErr
	}
	result := gfx.Success
	if len(s.submitResults) > 0 {
		result, s.submitResults = s.submitResults[0], s.submitResults[1:]
	}
	return result, nil
}

func (s *fakeSwapchain) ImageCount() int                         { return s.imageCount }
func (s *fakeSwapchain) Extent() gfx.Extent                      { return s.extent }
func (s *fakeSwapchain) RenderPass() gfx.RenderPass              { return s.renderPass }
func (s *fakeSwapchain) Framebuffer(index uint32) gfx.Framebuffer { return &fakeHandle{fmt.Sprint(index)} }

func (s *fakeSwapchain) Formats() (gfx.Format, gfx.Format) {
	return gfx.FormatB8G8R8A8Srgb, gfx.FormatD32Sfloat
}

func (s *fakeSwapchain) Release() {
	s.j.add("release swapchain %d", s.id)
	s.released = true
}

type fakePipeline struct {
	j        *journal
	id       int
	shaders  gfx.ShaderSet
	cfg      gfx.PipelineConfig
	released bool
}

func (p *fakePipeline) Bind(buffer gfx.CommandBuffer) {
	buffer.(*fakeCommandBuffer).record("bind-pipeline")
}

func (p *fakePipeline) Release() {
	p.j.add("release pipeline %d", p.id)
	p.released = true
}

type fakeLayout struct{ released bool }

func (l *fakeLayout) Inner() interface{} { return "layout" }
func (l *fakeLayout) Release()           { l.released = true }

type fakeModel struct {
	vertices []model.Vertex
	released bool
}

func (m *fakeModel) Bind(buffer gfx.CommandBuffer) {
	buffer.(*fakeCommandBuffer).record("bind-model")
}

func (m *fakeModel) Draw(buffer gfx.CommandBuffer) {
	buffer.(*fakeCommandBuffer).record(fmt.Sprintf("draw %d", len(m.vertices)))
}

func (m *fakeModel) VertexCount() uint32 { return uint32(len(m.vertices)) }
func (m *fakeModel) Release()            { m.released = true }

var errFake = errors.New("fake failure")

type fakeDevice struct {
	j *journal

	// imageCount is the image count of swapchains created next.
	imageCount int

	swapchains  []*fakeSwapchain
	pipelines   []*fakePipeline
	layout      *fakeLayout
	model       *fakeModel
	allocations [][]gfx.CommandBuffer
	frees       [][]gfx.CommandBuffer
	idles       int
	bufferIDs   int

	allocErr     error
	swapchainErr error
	pipelineErr  error
	layoutErr    error
	modelErr     error
	idleErr      error
	shortAlloc   bool
}

func newFakeDevice(imageCount int) *fakeDevice {
	return &fakeDevice{j: &journal{}, imageCount: imageCount}
}

func (d *fakeDevice) WaitIdle() error {
	d.j.add("wait-idle")
	d.idles++
	return d.idleErr
}

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	d.j.add("allocate %d", count)
	if d.allocErr != nil {
		return nil, d.allocErr
	}
	if d.shortAlloc {
		count--
	}
	buffers := make([]gfx.CommandBuffer, count)
	for i := range buffers {
		d.bufferIDs++
		buffers[i] = &fakeCommandBuffer{id: d.bufferIDs}
	}
	d.allocations = append(d.allocations, buffers)
	return buffers, nil
}

func (d *fakeDevice) FreeCommandBuffers(buffers []gfx.CommandBuffer) {
	d.j.add("free %d", len(buffers))
	d.frees = append(d.frees, buffers)
}

func (d *fakeDevice) CreatePipelineLayout(info gfx.PipelineLayoutInfo) (gfx.PipelineLayout, error) {
	d.j.add("create-layout")
	if d.layoutErr != nil {
		return nil, d.layoutErr
	}
	d.layout = &fakeLayout{}
	return d.layout, nil
}

func (d *fakeDevice) CreateSwapchain(extent gfx.Extent, previous gfx.Swapchain) (gfx.Swapchain, error) {
	d.j.add("create-swapchain %s", extent)
	if d.swapchainErr != nil {
		return nil, d.swapchainErr
	}
	sc := &fakeSwapchain{
		j:          d.j,
		id:         len(d.swapchains) + 1,
		extent:     extent,
		imageCount: d.imageCount,
		previous:   previous,
		renderPass: &fakeHandle{fmt.Sprintf("render-pass-%d", len(d.swapchains)+1)},
	}
	if previous != nil {
		previous.Release()
	}
	d.swapchains = append(d.swapchains, sc)
	return sc, nil
}

func (d *fakeDevice) CreatePipeline(shaders gfx.ShaderSet, cfg gfx.PipelineConfig) (gfx.Pipeline, error) {
	d.j.add("create-pipeline")
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	p := &fakePipeline{j: d.j, id: len(d.pipelines) + 1, shaders: shaders, cfg: cfg}
	d.pipelines = append(d.pipelines, p)
	return p, nil
}

func (d *fakeDevice) CreateModel(vertices []model.Vertex) (gfx.Model, error) {
	d.j.add("create-model")
	if d.modelErr != nil {
		return nil, d.modelErr
	}
	d.model = &fakeModel{vertices: vertices}
	return d.model, nil
}

func (d *fakeDevice) lastSwapchain() *fakeSwapchain {
	return d.swapchains[len(d.swapchains)-1]
}

type fakeSource map[string][]byte

func (s fakeSource) ReadFile(name string) ([]byte, error) {
	data, ok := s[name]
	if !ok {
		return nil, errFake
	}
	return data, nil
}
