// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// PushStages are the stages push constants are visible to.
var PushStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

// Pipeline is a graphics pipeline built from a [render.PipelineConfig],
// implementing [render.Pipeline].
type Pipeline struct {
	Config     render.PipelineConfig         `desc:"the configuration the pipeline was built from"`
	VkLayout   vk.PipelineLayout             `desc:"pipeline layout: one descriptor set and the push range"`
	VkPipeline vk.Pipeline                   `desc:"the vulkan pipeline"`
	VkConfig   vk.GraphicsPipelineCreateInfo `desc:"vulkan pipeline configuration options"`
	Shaders    []*Shader                     `desc:"shader modules, freed once built"`

	dev vk.Device
}

func (pl *Pipeline) Name() string             { return pl.Config.Name }
func (pl *Pipeline) Layout() render.SetLayout { return pl.Config.Layout }
func (pl *Pipeline) PushSize() uint32         { return pl.Config.PushSize }

// Build loads the shaders, makes the layout and the vulkan pipeline.
func (pl *Pipeline) Build(sy *System) error {
	pl.dev = sy.Device.Device
	cfg := &pl.Config
	vert, err := sy.LoadShader(cfg.Shader, VertexShader)
	if err != nil {
		return err
	}
	frag, err := sy.LoadShader(cfg.Shader, FragmentShader)
	if err != nil {
		vert.Destroy()
		return err
	}
	pl.Shaders = []*Shader{vert, frag}
	defer pl.FreeShaders()

	setLayout, err := sy.Desc.SetLayout(cfg.Layout)
	if err != nil {
		return err
	}
	if err := pl.ConfigLayout(setLayout); err != nil {
		return err
	}
	pl.SetGraphicsDefaults()
	pl.SetTopology(cfg.Topology)
	pl.SetColorBlend(cfg.AlphaBlend)
	pl.ConfigStages()
	pl.VkConfig.SType = vk.StructureTypeGraphicsPipelineCreateInfo
	pl.VkConfig.PVertexInputState = VertexInputState(cfg.Vertex)
	pl.VkConfig.Layout = pl.VkLayout
	pl.VkConfig.RenderPass = sy.Surface.RenderPass.VkClearPass
	pl.VkConfig.PMultisampleState = &vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	pl.VkConfig.PViewportState = &vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ScissorCount:  1,
		ViewportCount: 1,
	}

	pipeline := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(pl.dev, sy.PipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pl.VkConfig}, nil, pipeline)
	if err := NewError(ret); err != nil {
		return fmt.Errorf("vgpu: pipeline %s: %w", cfg.Name, err)
	}
	pl.VkPipeline = pipeline[0]
	return nil
}

// ConfigLayout makes the pipeline layout with the one descriptor set
// and a push constant range of PushSize at offset 0, if any.
func (pl *Pipeline) ConfigLayout(setLayout vk.DescriptorSetLayout) error {
	var ranges []vk.PushConstantRange
	if pl.Config.PushSize > 0 {
		ranges = []vk.PushConstantRange{{
			StageFlags: PushStages,
			Offset:     0,
			Size:       pl.Config.PushSize,
		}}
	}
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(pl.dev, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{setLayout},
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}, nil, &layout)
	if err := NewError(ret); err != nil {
		return err
	}
	pl.VkLayout = layout
	return nil
}

// ConfigStages configures the shader stages
func (pl *Pipeline) ConfigStages() {
	ns := len(pl.Shaders)
	pl.VkConfig.StageCount = uint32(ns)
	stgs := make([]vk.PipelineShaderStageCreateInfo, ns)
	for i, sh := range pl.Shaders {
		stgs[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  ShaderStageBits[sh.Type],
			Module: sh.VkModule,
			PName:  "main\x00",
		}
	}
	pl.VkConfig.PStages = stgs
}

// FreeShaders destroys the shader modules, not needed once built.
func (pl *Pipeline) FreeShaders() {
	for _, sh := range pl.Shaders {
		sh.Destroy()
	}
	pl.Shaders = nil
}

func (pl *Pipeline) Destroy() {
	pl.FreeShaders()
	if pl.VkPipeline != nil {
		vk.DestroyPipeline(pl.dev, pl.VkPipeline, nil)
		pl.VkPipeline = nil
	}
	if pl.VkLayout != nil {
		vk.DestroyPipelineLayout(pl.dev, pl.VkLayout, nil)
		pl.VkLayout = nil
	}
}

//////////////////////////////////////////////////////////////
// Set graphics options

// SetGraphicsDefaults configures the settings shared by all 2D pipelines.
// No culling: 2D geometry winds either way.
func (pl *Pipeline) SetGraphicsDefaults() {
	pl.SetDynamicState()
	pl.SetTopology(render.TriangleList)
	pl.SetRasterization(vk.PolygonModeFill, vk.CullModeNone, vk.FrontFaceCounterClockwise, 1.0)
	pl.SetColorBlend(true)
}

// SetDynamicState sets the viewport and scissor as dynamic, so that
// pipelines survive swapchain resizes.
func (pl *Pipeline) SetDynamicState() {
	pl.VkConfig.PDynamicState = &vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates: []vk.DynamicState{
			vk.DynamicStateScissor,
			vk.DynamicStateViewport,
		},
	}
}

// SetTopology sets the topology of vertex position data.
func (pl *Pipeline) SetTopology(topo render.Topologies) {
	pl.VkConfig.PInputAssemblyState = &vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               VulkanTopologies[topo],
		PrimitiveRestartEnable: vk.False,
	}
}

// SetRasterization sets various options for how to rasterize shapes.
func (pl *Pipeline) SetRasterization(polygonMode vk.PolygonMode, cullMode vk.CullModeFlagBits, frontFace vk.FrontFace, lineWidth float32) {
	pl.VkConfig.PRasterizationState = &vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: polygonMode,
		CullMode:    vk.CullModeFlags(cullMode),
		FrontFace:   frontFace,
		LineWidth:   lineWidth,
	}
}

// SetColorBlend sets source-over blending with straight alpha if alphaBlend.
func (pl *Pipeline) SetColorBlend(alphaBlend bool) {
	var cb vk.PipelineColorBlendAttachmentState
	cb.ColorWriteMask = 0xF

	if alphaBlend {
		cb.BlendEnable = vk.True
		cb.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		cb.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		cb.ColorBlendOp = vk.BlendOpAdd
		cb.SrcAlphaBlendFactor = vk.BlendFactorOne
		cb.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		cb.AlphaBlendOp = vk.BlendOpAdd
	} else {
		cb.BlendEnable = vk.False
	}

	pl.VkConfig.PColorBlendState = &vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cb},
	}
}

// VertexInputState converts vertex bindings to vulkan, numbering
// the bindings in order.
func VertexInputState(vbs []render.VertexBinding) *vk.PipelineVertexInputStateCreateInfo {
	binds := make([]vk.VertexInputBindingDescription, len(vbs))
	var attrs []vk.VertexInputAttributeDescription
	for i, vb := range vbs {
		rate := vk.VertexInputRateVertex
		if vb.PerInstance {
			rate = vk.VertexInputRateInstance
		}
		binds[i] = vk.VertexInputBindingDescription{
			Binding:   uint32(i),
			Stride:    uint32(vb.Stride),
			InputRate: rate,
		}
		for _, at := range vb.Attrs {
			attrs = append(attrs, vk.VertexInputAttributeDescription{
				Location: at.Location,
				Binding:  uint32(i),
				Format:   VulkanVertexFormats[at.Format],
				Offset:   at.Offset,
			})
		}
	}
	return &vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(binds)),
		PVertexBindingDescriptions:      binds,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}
}
