// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import vk "github.com/goki/vulkan"

// CmdPool is a command pool on the device queue family
type CmdPool struct {
	Pool vk.CommandPool
}

// Init initializes the pool
func (cp *CmdPool) Init(dv *Device, flags vk.CommandPoolCreateFlagBits) error {
	var cmdPool vk.CommandPool
	ret := vk.CreateCommandPool(dv.Device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: dv.QueueIndex,
		Flags:            vk.CommandPoolCreateFlags(flags),
	}, nil, &cmdPool)
	if err := NewError(ret); err != nil {
		return err
	}
	cp.Pool = cmdPool
	return nil
}

// NewBuffer allocates a primary command buffer, not yet begun.
func (cp *CmdPool) NewBuffer(dv *Device) (vk.CommandBuffer, error) {
	var cmdBuff = make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(dv.Device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cp.Pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmdBuff)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	return cmdBuff[0], nil
}

// FreeBuffer returns cmd to the pool.
func (cp *CmdPool) FreeBuffer(dv *Device, cmd vk.CommandBuffer) {
	vk.FreeCommandBuffers(dv.Device, cp.Pool, 1, []vk.CommandBuffer{cmd})
}

// RunOnce records with fn into a one-time command buffer, submits it
// and waits for it to complete. Used for uploads outside of frames.
func (cp *CmdPool) RunOnce(dv *Device, fn func(cmd vk.CommandBuffer)) error {
	cmd, err := cp.NewBuffer(dv)
	if err != nil {
		return err
	}
	defer cp.FreeBuffer(dv, cmd)
	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := NewError(ret); err != nil {
		return err
	}
	fn(cmd)
	if err := NewError(vk.EndCommandBuffer(cmd)); err != nil {
		return err
	}

	var fence vk.Fence
	ret = vk.CreateFence(dv.Device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &fence)
	if err := NewError(ret); err != nil {
		return err
	}
	defer vk.DestroyFence(dv.Device, fence, nil)

	ret = vk.QueueSubmit(dv.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}}, fence)
	if err := NewError(ret); err != nil {
		return err
	}
	return NewError(vk.WaitForFences(dv.Device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64))
}

// Destroy
func (cp *CmdPool) Destroy(dv *Device) {
	if cp.Pool == nil {
		return
	}
	vk.DestroyCommandPool(dv.Device, cp.Pool, nil)
	cp.Pool = nil
}
