package gfx

// ShaderSet names the compiled shader stages of a pipeline.
type ShaderSet struct {
	Vertex   string
	Fragment string
}

// DefaultShaderSet is the shader pair the renderer draws with.
var DefaultShaderSet = ShaderSet{
	Vertex:   "shaders/simple_shader.vert.spv",
	Fragment: "shaders/simple_shader.frag.spv",
}

// ShaderStage is a programmable pipeline stage.
type ShaderStage int

// Identifies shader stages
const (
	VertexStage ShaderStage = 1 << iota
	FragmentStage
)

// PushConstantRange is a push constant block visible to some stages.
type PushConstantRange struct {
	Stages ShaderStage
	Offset uint32
	Size   uint32
}

// PipelineLayoutInfo describes resources bound to pipelines.
// Zero value is a layout without any bindings.
type PipelineLayoutInfo struct {
	PushConstantRanges []PushConstantRange
}

// Topology is the primitive topology.
type Topology int

// Supported topologies
const (
	TriangleList Topology = iota
	TriangleStrip
	LineList
	PointList
)

// CullMode selects faces to cull.
type CullMode int

// Supported cull modes
const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FrontFace selects the front facing winding.
type FrontFace int

// Supported windings
const (
	Clockwise FrontFace = iota
	CounterClockwise
)

// CompareOp is a depth comparison.
type CompareOp int

// Supported comparisons
const (
	CompareLess CompareOp = iota
	CompareLessOrEqual
	CompareAlways
)

// PipelineConfig is the fixed-function configuration of a graphics
// pipeline. RenderPass and Layout must be set before creation.
type PipelineConfig struct {
	Topology         Topology
	PrimitiveRestart bool

	CullMode  CullMode
	FrontFace FrontFace
	LineWidth float32
	Wireframe bool

	Samples int

	BlendEnable bool

	DepthTest    bool
	DepthWrite   bool
	DepthCompare CompareOp

	// DynamicViewport makes viewport and scissor dynamic state,
	// so the pipeline doesn't depend on the surface extent.
	DynamicViewport bool

	RenderPass RenderPass
	Layout     PipelineLayout
	Subpass    uint32
}

// DefaultPipelineConfig returns the default fixed-function state.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Topology:        TriangleList,
		CullMode:        CullNone,
		FrontFace:       Clockwise,
		LineWidth:       1.0,
		Samples:         1,
		DepthTest:       true,
		DepthWrite:      true,
		DepthCompare:    CompareLess,
		DynamicViewport: true,
	}
}
