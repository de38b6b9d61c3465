// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"

	"github.com/devblok/lumen/assets"
	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/model"
	vk "github.com/devblok/vulkan"
)

// PipelineLayout wraps vk.PipelineLayout
type PipelineLayout struct {
	device vk.Device
	layout vk.PipelineLayout
}

// Inner returns the vk.PipelineLayout handle
func (p *PipelineLayout) Inner() interface{} {
	return p.layout
}

// Release destroys the layout
func (p *PipelineLayout) Release() {
	vk.DestroyPipelineLayout(p.device, p.layout, nil)
}

// Pipeline wraps a graphics vk.Pipeline
type Pipeline struct {
	device   vk.Device
	pipeline vk.Pipeline
}

// Bind implements gfx.Pipeline
func (p *Pipeline) Bind(buffer gfx.CommandBuffer) {
	vk.CmdBindPipeline(commandBufferOf(buffer), vk.PipelineBindPointGraphics, p.pipeline)
}

// Release destroys the pipeline
func (p *Pipeline) Release() {
	vk.DestroyPipeline(p.device, p.pipeline, nil)
}

// CreatePipelineLayout implements gfx.Device
func (d *Device) CreatePipelineLayout(info gfx.PipelineLayoutInfo) (gfx.PipelineLayout, error) {
	pcr := make([]vk.PushConstantRange, len(info.PushConstantRanges))
	for i, r := range info.PushConstantRanges {
		pcr[i] = vk.PushConstantRange{
			StageFlags: shaderStageFlags(r.Stages),
			Offset:     r.Offset,
			Size:       r.Size,
		}
	}

	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: uint32(len(pcr)),
		PPushConstantRanges:    pcr,
	}

	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.logical, &plci, nil, &layout)); err != nil {
		return nil, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}
	return &PipelineLayout{device: d.logical, layout: layout}, nil
}

// CreatePipeline implements gfx.Device. Shader modules only live
// for the duration of the call.
func (d *Device) CreatePipeline(shaders gfx.ShaderSet, cfg gfx.PipelineConfig) (gfx.Pipeline, error) {
	if cfg.RenderPass == nil || cfg.Layout == nil {
		return nil, errors.New("vkr: pipeline config without render pass or layout")
	}

	vert, frag, err := assets.ReadShaders(d.configuration.Assets, shaders)
	if err != nil {
		return nil, err
	}
	vertModule, err := d.createShaderModule(vert)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", shaders.Vertex, err)
	}
	defer vk.DestroyShaderModule(d.logical, vertModule, nil)
	fragModule, err := d.createShaderModule(frag)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", shaders.Fragment, err)
	}
	defer vk.DestroyShaderModule(d.logical, fragModule, nil)

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  safeString("main"),
		},
	}

	gpci := []vk.GraphicsPipelineCreateInfo{graphicsPipelineInfo(cfg)}
	gpci[0].StageCount = uint32(len(stages))
	gpci[0].PStages = stages

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(d.logical, d.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return nil, errors.New("vk.CreateGraphicsPipelines(): " + err.Error())
	}
	return &Pipeline{device: d.logical, pipeline: pipelines[0]}, nil
}

func (d *Device) createShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader bytecode of %d bytes is not SPIR-V", len(code))
	}
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.logical, &smci, nil, &shader)); err != nil {
		return nil, errors.New("vk.CreateShaderModule(): " + err.Error())
	}
	return shader, nil
}

// graphicsPipelineInfo translates the fixed-function configuration.
// Shader stages are left for the caller.
func graphicsPipelineInfo(cfg gfx.PipelineConfig) vk.GraphicsPipelineCreateInfo {
	vertexAttributeDescriptions := model.VertexAttributeDescriptions()
	vertexBindingDescriptions := model.VertexBindingDescriptions()

	polygonMode := vk.PolygonModeFill
	if cfg.Wireframe {
		polygonMode = vk.PolygonModeLine
	}

	var dynamicStates []vk.DynamicState
	if cfg.DynamicViewport {
		dynamicStates = []vk.DynamicState{
			vk.DynamicStateViewport,
			vk.DynamicStateScissor,
		}
	}

	stencilOp := vk.StencilOpState{
		FailOp:    vk.StencilOpKeep,
		PassOp:    vk.StencilOpKeep,
		CompareOp: vk.CompareOpAlways,
	}

	blend := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:    toBool32(cfg.BlendEnable),
	}
	if cfg.BlendEnable {
		blend.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blend.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blend.ColorBlendOp = vk.BlendOpAdd
		blend.SrcAlphaBlendFactor = vk.BlendFactorOne
		blend.DstAlphaBlendFactor = vk.BlendFactorZero
		blend.AlphaBlendOp = vk.BlendOpAdd
	}

	return vk.GraphicsPipelineCreateInfo{
		SType: vk.StructureTypeGraphicsPipelineCreateInfo,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexAttributeDescriptionCount: uint32(len(vertexAttributeDescriptions)),
			PVertexAttributeDescriptions:    vertexAttributeDescriptions,
			VertexBindingDescriptionCount:   uint32(len(vertexBindingDescriptions)),
			PVertexBindingDescriptions:      vertexBindingDescriptions,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               topology(cfg.Topology),
			PrimitiveRestartEnable: toBool32(cfg.PrimitiveRestart),
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: polygonMode,
			CullMode:    cullMode(cfg.CullMode),
			FrontFace:   frontFace(cfg.FrontFace),
			LineWidth:   cfg.LineWidth,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: sampleCount(cfg.Samples),
			MinSampleShading:     1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       toBool32(cfg.DepthTest),
			DepthWriteEnable:      toBool32(cfg.DepthWrite),
			DepthCompareOp:        compareOp(cfg.DepthCompare),
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Front:                 stencilOp,
			Back:                  stencilOp,
			MaxDepthBounds:        1.0,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{blend},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		},
		Layout:     cfg.Layout.Inner().(vk.PipelineLayout),
		RenderPass: cfg.RenderPass.Inner().(vk.RenderPass),
		Subpass:    cfg.Subpass,
	}
}

func toBool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func topology(t gfx.Topology) vk.PrimitiveTopology {
	switch t {
	case gfx.TriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case gfx.LineList:
		return vk.PrimitiveTopologyLineList
	case gfx.PointList:
		return vk.PrimitiveTopologyPointList
	}
	return vk.PrimitiveTopologyTriangleList
}

func cullMode(c gfx.CullMode) vk.CullModeFlags {
	switch c {
	case gfx.CullFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case gfx.CullBack:
		return vk.CullModeFlags(vk.CullModeBackBit)
	}
	return vk.CullModeFlags(vk.CullModeNone)
}

func frontFace(f gfx.FrontFace) vk.FrontFace {
	if f == gfx.CounterClockwise {
		return vk.FrontFaceCounterClockwise
	}
	return vk.FrontFaceClockwise
}

func compareOp(c gfx.CompareOp) vk.CompareOp {
	switch c {
	case gfx.CompareLessOrEqual:
		return vk.CompareOpLessOrEqual
	case gfx.CompareAlways:
		return vk.CompareOpAlways
	}
	return vk.CompareOpLess
}

func sampleCount(samples int) vk.SampleCountFlagBits {
	switch samples {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	}
	return vk.SampleCount1Bit
}

func shaderStageFlags(stages gfx.ShaderStage) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	if stages&gfx.VertexStage != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if stages&gfx.FragmentStage != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return flags
}
