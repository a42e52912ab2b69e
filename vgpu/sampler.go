// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// Sampler is a linear filtering sampler, implementing [render.Sampler].
type Sampler struct {
	UMode     render.SamplerModes `desc:"for U (horizontal) axis -- what to do when going off the edge"`
	VMode     render.SamplerModes `desc:"for V (vertical) axis -- what to do when going off the edge"`
	Border    vk.BorderColor      `desc:"border color for ClampToBorder"`
	VkSampler vk.Sampler          `desc:"the vulkan sampler"`
}

// Mode returns the addressing mode, the same on both axes.
func (sm *Sampler) Mode() render.SamplerModes {
	return sm.UMode
}

// Defaults sets both axes to mode, with a transparent border.
func (sm *Sampler) Defaults(mode render.SamplerModes) {
	sm.UMode = mode
	sm.VMode = mode
	sm.Border = vk.BorderColorIntTransparentBlack
}

// Config configures sampler on device
func (sm *Sampler) Config(dev vk.Device) error {
	sm.Destroy(dev)
	var samp vk.Sampler
	ret := vk.CreateSampler(dev, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            VulkanSamplerModes[sm.UMode],
		AddressModeV:            VulkanSamplerModes[sm.VMode],
		AddressModeW:            VulkanSamplerModes[sm.UMode],
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             sm.Border,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}, nil, &samp)
	if err := NewError(ret); err != nil {
		return err
	}
	sm.VkSampler = samp
	return nil
}

func (sm *Sampler) Destroy(dev vk.Device) {
	if sm.VkSampler != nil {
		vk.DestroySampler(dev, sm.VkSampler, nil)
		sm.VkSampler = nil
	}
}
