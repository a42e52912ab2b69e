// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"image"

	vk "github.com/goki/vulkan"
)

// TextureFormat is the format of uploaded textures.
const TextureFormat = vk.FormatR8g8b8a8Srgb

// ImageFormat describes the size and format of an Image
type ImageFormat struct {
	Size   image.Point `desc:"Size of image"`
	Format vk.Format   `desc:"Image format -- FormatR8g8b8a8Srgb is a standard default"`
}

func (im *ImageFormat) Set(w, h int, ft vk.Format) {
	im.Size = image.Point{X: w, Y: h}
	im.Format = ft
}

// Size32 returns size as uint32 values
func (im *ImageFormat) Size32() (width, height uint32) {
	width = uint32(im.Size.X)
	height = uint32(im.Size.Y)
	return
}

// Image represents a vulkan image with an associated ImageView,
// implementing [render.Image]. Images made by [System.NewImage] own
// their memory; swapchain images only own the view.
type Image struct {
	Format ImageFormat     `desc:"format & size of image"`
	Image  vk.Image        `desc:"vulkan image handle"`
	View   vk.ImageView    `desc:"vulkan image view"`
	Mem    vk.DeviceMemory `desc:"memory owned by the image, if any"`
	Dev    vk.Device       `desc:"keep track of device for destroying view"`

	frames FrameTracker
}

// Size returns the image size in pixels.
func (im *Image) Size() image.Point {
	return im.Format.Size
}

// HasView returns true if the image is set and has a view
func (im *Image) HasView() bool {
	return im.View != nil
}

// SetImage sets a new image and generates a default 2D view
// based on existing format information (which must be set properly).
// Any exiting view is destroyed first.  Must pass the relevant device.
func (im *Image) SetImage(dev vk.Device, img vk.Image) error {
	im.DestroyView()
	im.Image = img
	im.Dev = dev
	return im.MakeStdView()
}

// MakeStdView makes a standard 2D image view, for current image,
// format, and device.
func (im *Image) MakeStdView() error {
	var view vk.ImageView
	ret := vk.CreateImageView(im.Dev, &vk.ImageViewCreateInfo{
		SType:  vk.StructureTypeImageViewCreateInfo,
		Format: im.Format.Format,
		Components: vk.ComponentMapping{ // this is the default anyway
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorRange,
		ViewType:         vk.ImageViewType2d,
		Image:            im.Image,
	}, nil, &view)
	if err := NewError(ret); err != nil {
		return err
	}
	im.View = view
	return nil
}

// DestroyView destroys any existing view
func (im *Image) DestroyView() {
	if im.View == nil {
		return
	}
	vk.DestroyImageView(im.Dev, im.View, nil)
	im.View = nil
}

// Destroy releases the view, and the image and memory if owned, once
// in-flight frames no longer use them.
func (im *Image) Destroy() {
	if im.frames != nil {
		im.frames.Defer(im.free)
		return
	}
	im.free()
}

func (im *Image) free() {
	im.DestroyView()
	if im.Mem != vk.NullDeviceMemory {
		vk.DestroyImage(im.Dev, im.Image, nil)
		FreeBuffMem(im.Dev, &im.Mem)
	}
	im.Image = nil
	im.Dev = nil
}

var colorRange = vk.ImageSubresourceRange{
	AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	LevelCount: 1,
	LayerCount: 1,
}

// UploadImage creates a sampled image holding img, copying it through a
// staging buffer with a one-time command, and waits for the copy.
func UploadImage(gp *GPU, dv *Device, cp *CmdPool, img *image.RGBA) (*Image, error) {
	dev := dv.Device
	size := img.Rect.Size()
	pix := packedPixels(img)

	stage, err := NewBuffer(dev, len(pix), vk.BufferUsageTransferSrcBit)
	if err != nil {
		return nil, err
	}
	defer DestroyBuffer(dev, &stage)
	stageMem, err := AllocBuffMem(gp, dev, stage, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, err
	}
	defer FreeBuffMem(dev, &stageMem)
	ptr, err := MapMemory(dev, stageMem, len(pix))
	if err != nil {
		return nil, err
	}
	vk.Memcopy(ptr, pix)
	vk.UnmapMemory(dev, stageMem)

	im := &Image{Dev: dev}
	im.Format.Set(size.X, size.Y, TextureFormat)
	w, h := im.Format.Size32()
	var vkimg vk.Image
	ret := vk.CreateImage(dev, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        TextureFormat,
		Extent:        vk.Extent3D{Width: w, Height: h, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &vkimg)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	im.Image = vkimg

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, vkimg, &memReqs)
	memReqs.Deref()
	memType, ok := FindMemoryType(MemoryTypeFlags(gp.MemoryProps), memReqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit, 0)
	if !ok {
		vk.DestroyImage(dev, vkimg, nil)
		return nil, ErrNoMemoryType
	}
	ret = vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &im.Mem)
	if err := NewError(ret); err != nil {
		vk.DestroyImage(dev, vkimg, nil)
		return nil, err
	}
	if err := NewError(vk.BindImageMemory(dev, vkimg, im.Mem, 0)); err != nil {
		im.free()
		return nil, err
	}

	err = cp.RunOnce(dv, func(cmd vk.CommandBuffer) {
		transitionImage(cmd, vkimg, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		vk.CmdCopyBufferToImage(cmd, stage, vkimg, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			ImageExtent: vk.Extent3D{Width: w, Height: h, Depth: 1},
		}})
		transitionImage(cmd, vkimg, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err == nil {
		err = im.MakeStdView()
	}
	if err != nil {
		im.free()
		return nil, err
	}
	return im, nil
}

// transitionImage records a layout transition barrier for an upload.
func transitionImage(cmd vk.CommandBuffer, img vk.Image, from, to vk.ImageLayout) {
	var srcAccess, dstAccess vk.AccessFlagBits
	var srcStage, dstStage vk.PipelineStageFlagBits
	if from == vk.ImageLayoutUndefined {
		dstAccess = vk.AccessTransferWriteBit
		srcStage = vk.PipelineStageTopOfPipeBit
		dstStage = vk.PipelineStageTransferBit
	} else {
		srcAccess = vk.AccessTransferWriteBit
		dstAccess = vk.AccessShaderReadBit
		srcStage = vk.PipelineStageTransferBit
		dstStage = vk.PipelineStageFragmentShaderBit
	}
	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(srcAccess),
			DstAccessMask:       vk.AccessFlags(dstAccess),
			OldLayout:           from,
			NewLayout:           to,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img,
			SubresourceRange:    colorRange,
		}})
}

// packedPixels returns the pixels of img with no row padding.
func packedPixels(img *image.RGBA) []byte {
	size := img.Rect.Size()
	row := size.X * 4
	if img.Stride == row && len(img.Pix) == row*size.Y {
		return img.Pix
	}
	pix := make([]byte, row*size.Y)
	for y := 0; y < size.Y; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(pix[y*row:(y+1)*row], img.Pix[off:off+row])
	}
	return pix
}
