// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/events"
	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
)

func v13() uint32 { return vk.MakeVersion(1, 3, 0) }
func v12() uint32 { return vk.MakeVersion(1, 2, 0) }

func TestSelectDeviceRanking(t *testing.T) {
	req := []string{SwapchainExt}
	devs := []DeviceInfo{
		{Index: 0, Name: "llvmpipe", Type: CPUDevice, APIVersion: v13(), Extensions: req, QueueFamily: 0},
		{Index: 1, Name: "Intel UHD", Type: IntegratedGPU, APIVersion: v13(), Extensions: req, QueueFamily: 0},
		{Index: 2, Name: "GeForce", Type: DiscreteGPU, APIVersion: v13(), Extensions: req, QueueFamily: 1},
		{Index: 3, Name: "Radeon", Type: DiscreteGPU, APIVersion: v13(), Extensions: req, QueueFamily: 0},
	}
	i, err := SelectDevice(devs, req, "")
	require.NoError(t, err)
	assert.Equal(t, 2, i, "discrete first, earliest on ties")

	i, err = SelectDevice(devs, req, "intel")
	require.NoError(t, err)
	assert.Equal(t, 1, i, "preferred name wins")

	i, err = SelectDevice(devs, req, "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
}

func TestSelectDeviceFilters(t *testing.T) {
	req := []string{SwapchainExt}
	devs := []DeviceInfo{
		{Name: "old", Type: DiscreteGPU, APIVersion: v12(), Extensions: req, QueueFamily: 0},
		{Name: "noswap", Type: DiscreteGPU, APIVersion: v13(), QueueFamily: 0},
		{Name: "noqueue", Type: DiscreteGPU, APIVersion: v13(), Extensions: req, QueueFamily: -1},
	}
	_, err := SelectDevice(devs, req, "")
	assert.ErrorIs(t, err, ErrNoDevice)

	// dynamic rendering through the extension on 1.2
	devs = append(devs, DeviceInfo{Name: "ext", Type: VirtualGPU, APIVersion: v12(),
		Extensions: []string{SwapchainExt, DynamicRenderingExt}, QueueFamily: 2})
	i, err := SelectDevice(devs, req, "old")
	require.NoError(t, err)
	assert.Equal(t, 3, i, "unsuitable preferred device is not chosen")
}

func TestDeviceTypes(t *testing.T) {
	assert.Equal(t, DiscreteGPU, DeviceTypeOf(vk.PhysicalDeviceTypeDiscreteGpu))
	assert.Equal(t, CPUDevice, DeviceTypeOf(vk.PhysicalDeviceTypeCpu))
	assert.Equal(t, OtherDevice, DeviceTypeOf(vk.PhysicalDeviceTypeOther))
	assert.Less(t, int(DiscreteGPU), int(IntegratedGPU))
	assert.Less(t, int(VirtualGPU), int(CPUDevice))
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "1.3.0", VersionString(v13()))
	assert.Equal(t, "1.2.198", VersionString(vk.MakeVersion(1, 2, 198)))
}

func TestFindMemoryType(t *testing.T) {
	hostVis := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	devLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	all := devLocal | hostVis
	types := []vk.MemoryPropertyFlags{devLocal, hostVis, all}

	i, ok := FindMemoryType(types, 0b111, BufferMemoryPrefs...)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), i, "device local host visible preferred")

	i, ok = FindMemoryType(types, 0b011, BufferMemoryPrefs...)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), i, "falls back to host visible")

	_, ok = FindMemoryType(types, 0b001, BufferMemoryPrefs...)
	assert.False(t, ok, "type bits exclude all host visible types")
}

func TestChoosePresentMode(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(modes, true))
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode(modes, false))
	assert.Equal(t, vk.PresentModeImmediate, ChoosePresentMode(modes[:2], false))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(modes[:1], false))
}

func TestChooseSurfaceFormat(t *testing.T) {
	_, ok := ChooseSurfaceFormat(nil, vk.FormatB8g8r8a8Srgb)
	assert.False(t, ok)

	sf, ok := ChooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}}, vk.FormatB8g8r8a8Srgb)
	assert.True(t, ok)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, sf.Format)

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	sf, _ = ChooseSurfaceFormat(formats, vk.FormatB8g8r8a8Srgb)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, sf.Format)
	sf, _ = ChooseSurfaceFormat(formats[:1], vk.FormatB8g8r8a8Srgb)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, sf.Format)
}

func TestSwapchainExtent(t *testing.T) {
	lo := vk.Extent2D{Width: 1, Height: 1}
	hi := vk.Extent2D{Width: 4096, Height: 4096}
	cur := vk.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, cur, SwapchainExtent(cur, lo, hi, image.Pt(10, 10)))

	free := vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, SwapchainExtent(free, lo, hi, image.Pt(1024, 768)))
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 1}, SwapchainExtent(free, lo, hi, image.Pt(9000, -5)))
}

func TestWriteInfos(t *testing.T) {
	layout := render.NewSetLayout(render.TextureBinding(render.TextureSlot), render.UniformBinding(render.WindowSizeSlot))

	_, err := writeInfos(layout, []render.Write{{Slot: 7, Type: render.UniformDescriptor}})
	assert.ErrorContains(t, err, "not in layout")

	_, err = writeInfos(layout, []render.Write{{Slot: render.WindowSizeSlot, Type: render.TextureDescriptor}})
	assert.ErrorContains(t, err, "of type")

	_, err = writeInfos(layout, []render.Write{{Slot: render.WindowSizeSlot, Type: render.UniformDescriptor, Buffer: &rendertest.Buffer{}}})
	assert.ErrorContains(t, err, "not a vgpu buffer")

	_, err = writeInfos(layout, []render.Write{{Slot: render.TextureSlot, Type: render.TextureDescriptor, Image: &Image{}, Sampler: &rendertest.Sampler{}}})
	assert.ErrorContains(t, err, "not a vgpu sampler")

	wds, err := writeInfos(layout, []render.Write{
		{Slot: render.TextureSlot, Type: render.TextureDescriptor, Image: &Image{}, Sampler: &Sampler{}},
		{Slot: render.WindowSizeSlot, Type: render.UniformDescriptor, Buffer: &Buffer{}},
	})
	require.NoError(t, err)
	require.Len(t, wds, 2)
	assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, wds[0].DescriptorType)
	assert.Equal(t, render.WindowSizeSlot, wds[1].DstBinding)
	assert.Len(t, wds[1].PBufferInfo, 1)
}

func TestVertexInputState(t *testing.T) {
	vi := VertexInputState([]render.VertexBinding{
		{Stride: 8, Attrs: []render.VertexAttr{{Location: 0, Format: render.Float32x2}}},
		{Stride: 36, PerInstance: true, Attrs: []render.VertexAttr{
			{Location: 1, Format: render.Float32x2},
			{Location: 2, Format: render.Float32x4, Offset: 8},
		}},
	})
	require.Len(t, vi.PVertexBindingDescriptions, 2)
	assert.Equal(t, vk.VertexInputRateInstance, vi.PVertexBindingDescriptions[1].InputRate)
	assert.Equal(t, uint32(3), vi.VertexAttributeDescriptionCount)
	assert.Equal(t, uint32(1), vi.PVertexAttributeDescriptions[2].Binding)
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, vi.PVertexAttributeDescriptions[2].Format)
}

func TestOpenCodeSize(t *testing.T) {
	sh := &Shader{Name: "bad"}
	assert.Error(t, sh.OpenCode(nil))
	assert.Error(t, sh.OpenCode([]byte{1, 2, 3}))
}

func TestPackedPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.RGBA{255, 0, 0, 255})
	assert.Equal(t, img.Pix, packedPixels(img))

	sub := img.SubImage(image.Rect(2, 2, 4, 3)).(*image.RGBA)
	pix := packedPixels(sub)
	require.Len(t, pix, 8)
	assert.Equal(t, []byte{255, 0, 0, 255}, pix[:4])
}

func TestGlfwConversions(t *testing.T) {
	assert.Equal(t, events.Shift|events.Meta, GlfwMods(glfw.ModShift|glfw.ModSuper))
	assert.Equal(t, events.KeyUp, KeyType(glfw.Release))
	assert.Equal(t, events.KeyRepeat, KeyType(glfw.Repeat))
	assert.Equal(t, events.KeyDown, KeyType(glfw.Press))
	assert.Equal(t, events.Right, MouseButton(glfw.MouseButtonRight))
	assert.Equal(t, events.NoButton, MouseButton(glfw.MouseButton4))
}
