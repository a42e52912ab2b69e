// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// VulkanTopologies maps render topologies to vulkan.
var VulkanTopologies = map[render.Topologies]vk.PrimitiveTopology{
	render.LineList:      vk.PrimitiveTopologyLineList,
	render.LineStrip:     vk.PrimitiveTopologyLineStrip,
	render.TriangleList:  vk.PrimitiveTopologyTriangleList,
	render.TriangleStrip: vk.PrimitiveTopologyTriangleStrip,
}

// VulkanVertexFormats maps render vertex formats to vulkan.
var VulkanVertexFormats = map[render.VertexFormats]vk.Format{
	render.Float32:   vk.FormatR32Sfloat,
	render.Float32x2: vk.FormatR32g32Sfloat,
	render.Float32x3: vk.FormatR32g32b32Sfloat,
	render.Float32x4: vk.FormatR32g32b32a32Sfloat,
}

// VulkanSamplerModes maps render sampler modes to vulkan.
var VulkanSamplerModes = map[render.SamplerModes]vk.SamplerAddressMode{
	render.Repeat:            vk.SamplerAddressModeRepeat,
	render.MirroredRepeat:    vk.SamplerAddressModeMirroredRepeat,
	render.ClampToEdge:       vk.SamplerAddressModeClampToEdge,
	render.ClampToBorder:     vk.SamplerAddressModeClampToBorder,
	render.MirrorClampToEdge: vk.SamplerAddressModeMirrorClampToEdge,
}

// VulkanDescriptorTypes maps render descriptor types to vulkan.
var VulkanDescriptorTypes = map[render.DescriptorTypes]vk.DescriptorType{
	render.UniformDescriptor: vk.DescriptorTypeUniformBuffer,
	render.TextureDescriptor: vk.DescriptorTypeCombinedImageSampler,
}

// BufferUsages maps render buffer kinds to vulkan usage flags.
// All buffers can also be written with vkCmdUpdateBuffer.
var BufferUsages = map[render.BufferKinds]vk.BufferUsageFlagBits{
	render.VertexBuffer:  vk.BufferUsageVertexBufferBit | vk.BufferUsageTransferDstBit,
	render.IndexBuffer:   vk.BufferUsageIndexBufferBit | vk.BufferUsageTransferDstBit,
	render.UniformBuffer: vk.BufferUsageUniformBufferBit | vk.BufferUsageTransferDstBit,
}

// ShaderStageFlags returns the vulkan stage flags for the given stages.
func ShaderStageFlags(st render.ShaderStages) vk.ShaderStageFlags {
	var fl vk.ShaderStageFlagBits
	if st&render.VertexStage != 0 {
		fl |= vk.ShaderStageVertexBit
	}
	if st&render.FragmentStage != 0 {
		fl |= vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageFlags(fl)
}
