// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	vk "github.com/goki/vulkan"
)

// Framebuffer combines a swapchain Image and the RenderPass drawing to it.
type Framebuffer struct {
	Image       Image          `desc:"the image behind the framebuffer, includes the format"`
	RenderPass  *RenderPass    `desc:"pointer to the associated renderpass"`
	Framebuffer vk.Framebuffer `desc:"vulkan framebuffer"`
}

// ConfigSurfaceImage configures the framebuffer for an existing
// swapchain image, making its view and the vulkan framebuffer.
func (fb *Framebuffer) ConfigSurfaceImage(dev vk.Device, fmt ImageFormat, img vk.Image, rp *RenderPass) error {
	fb.Image.Format = fmt
	if err := fb.Image.SetImage(dev, img); err != nil {
		return err
	}
	fb.RenderPass = rp
	return fb.Config()
}

// Destroy destroys everything the framebuffer owns: not the swapchain image.
func (fb *Framebuffer) Destroy() {
	fb.DestroyFrame()
	fb.Image.DestroyView()
	fb.RenderPass = nil
}

// DestroyFrame destroys the framebuffer if non-nil
func (fb *Framebuffer) DestroyFrame() {
	if fb.RenderPass == nil || fb.RenderPass.Dev == nil || fb.Framebuffer == nil {
		return
	}
	vk.DestroyFramebuffer(fb.RenderPass.Dev, fb.Framebuffer, nil)
	fb.Framebuffer = nil
}

// Config configures a new vulkan framebuffer object with current settings,
// destroying any existing
func (fb *Framebuffer) Config() error {
	fb.DestroyFrame()
	ivs := []vk.ImageView{fb.Image.View}
	w, h := fb.Image.Format.Size32()
	var frameBuff vk.Framebuffer
	ret := vk.CreateFramebuffer(fb.RenderPass.Dev, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      fb.RenderPass.VkClearPass,
		AttachmentCount: uint32(len(ivs)),
		PAttachments:    ivs,
		Width:           w,
		Height:          h,
		Layers:          1,
	}, nil, &frameBuff)
	if err := NewError(ret); err != nil {
		return err
	}
	fb.Framebuffer = frameBuff
	return nil
}
