// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	vk "github.com/goki/vulkan"
)

// RenderPass is a single color attachment pass that clears the
// swapchain image and leaves it ready to present.
type RenderPass struct {
	Dev         vk.Device     `desc:"device the pass was made on"`
	Format      vk.Format     `desc:"color attachment format"`
	VkClearPass vk.RenderPass `desc:"the vulkan render pass, clearing on load"`
}

// Config makes the render pass for the given color format.
func (rp *RenderPass) Config(dev vk.Device, format vk.Format) error {
	rp.Destroy()
	rp.Dev = dev
	rp.Format = format
	var pass vk.RenderPass
	ret := vk.CreateRenderPass(dev, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.AttachmentDescription{{
			Format:         format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		}},
		SubpassCount: 1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: 1,
			PColorAttachments: []vk.AttachmentReference{{
				Attachment: 0,
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			}},
		}},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		}},
	}, nil, &pass)
	if err := NewError(ret); err != nil {
		return err
	}
	rp.VkClearPass = pass
	return nil
}

func (rp *RenderPass) Destroy() {
	if rp.VkClearPass == nil {
		return
	}
	vk.DestroyRenderPass(rp.Dev, rp.VkClearPass, nil)
	rp.VkClearPass = nil
}
