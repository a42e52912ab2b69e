// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// MaxUpdateSize is the largest vkCmdUpdateBuffer payload.
const MaxUpdateSize = 65536

// ErrInRenderPass is returned by UpdateBuffer inside the render pass.
var ErrInRenderPass = errors.New("vgpu: buffer update inside render pass")

// Cmd records one frame into a command buffer, implementing
// [render.Commands]. Backend objects passed to it must be vgpu ones.
type Cmd struct {
	Cmd   vk.CommandBuffer `desc:"the command buffer being recorded"`
	Frame *Framebuffer     `desc:"framebuffer of the acquired image"`

	inPass bool
}

func (cm *Cmd) BindPipeline(pl render.Pipeline) {
	vk.CmdBindPipeline(cm.Cmd, vk.PipelineBindPointGraphics, pl.(*Pipeline).VkPipeline)
}

func (cm *Cmd) BindDescriptorSet(pl render.Pipeline, set render.DescriptorSet) {
	vk.CmdBindDescriptorSets(cm.Cmd, vk.PipelineBindPointGraphics, pl.(*Pipeline).VkLayout,
		0, 1, []vk.DescriptorSet{set.(*DescriptorSet).Set}, 0, nil)
}

func (cm *Cmd) BindVertexBuffers(first uint32, bufs ...render.Buffer) {
	vbs := make([]vk.Buffer, len(bufs))
	offs := make([]vk.DeviceSize, len(bufs))
	for i, b := range bufs {
		vbs[i] = b.(*Buffer).Buf
	}
	vk.CmdBindVertexBuffers(cm.Cmd, first, uint32(len(vbs)), vbs, offs)
}

func (cm *Cmd) BindIndexBuffer(buf render.Buffer) {
	vk.CmdBindIndexBuffer(cm.Cmd, buf.(*Buffer).Buf, 0, vk.IndexTypeUint32)
}

func (cm *Cmd) PushConstants(pl render.Pipeline, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(cm.Cmd, pl.(*Pipeline).VkLayout, PushStages, offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (cm *Cmd) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cm.Cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (cm *Cmd) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(cm.Cmd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// UpdateBuffer records an inline update of buf between barriers ordering
// it after earlier shader reads and before those of the render pass.
func (cm *Cmd) UpdateBuffer(buf render.Buffer, offset int, data []byte) error {
	if cm.inPass {
		return ErrInRenderPass
	}
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("vgpu: %T is not a vgpu buffer", buf)
	}
	n := len(data)
	if n == 0 || n%4 != 0 || offset%4 != 0 || n > MaxUpdateSize {
		return fmt.Errorf("vgpu: invalid update of %d bytes at %d", n, offset)
	}
	if offset+n > b.Size {
		return fmt.Errorf("vgpu: update of %d bytes at %d past %d: %w", n, offset, b.Size, render.ErrSizeMismatch)
	}
	shaders := vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit | vk.PipelineStageFragmentShaderBit)
	transfer := vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	vk.CmdPipelineBarrier(cm.Cmd, shaders, transfer, 0, 0, nil, 0, nil, 0, nil)
	vk.CmdUpdateBuffer(cm.Cmd, b.Buf, vk.DeviceSize(offset), vk.DeviceSize(n), (*uint32)(unsafe.Pointer(&data[0])))
	vk.CmdPipelineBarrier(cm.Cmd, transfer, shaders, 0, 1, []vk.MemoryBarrier{{
		SType:         vk.StructureTypeMemoryBarrier,
		SrcAccessMask: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask: vk.AccessFlags(vk.AccessUniformReadBit),
	}}, 0, nil, 0, nil)
	return nil
}

// BeginRenderPass begins the clearing pass on the frame's framebuffer
// and sets the viewport and scissor to the whole image.
func (cm *Cmd) BeginRenderPass(clear [4]float32) {
	w, h := cm.Frame.Image.Format.Size32()
	vk.CmdBeginRenderPass(cm.Cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  cm.Frame.RenderPass.VkClearPass,
		Framebuffer: cm.Frame.Framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: w, Height: h},
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	}, vk.SubpassContentsInline)
	cm.inPass = true

	vk.CmdSetViewport(cm.Cmd, 0, 1, []vk.Viewport{{
		Width:    float32(w),
		Height:   float32(h),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cm.Cmd, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: w, Height: h},
	}})
}

func (cm *Cmd) EndRenderPass() {
	vk.CmdEndRenderPass(cm.Cmd)
	cm.inPass = false
}

// End finishes recording.
func (cm *Cmd) End() error {
	return NewError(vk.EndCommandBuffer(cm.Cmd))
}
