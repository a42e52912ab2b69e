// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"
	"io/fs"

	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// System ties the device, surface, memory and descriptor pools together,
// implementing [render.Device] for the pipelines drawing to the surface.
type System struct {
	Name          string           `desc:"optional name of this System"`
	GPU           *GPU             `desc:"gpu device"`
	Device        *Device          `desc:"logical device for this System, shared with the Surface"`
	Surface       *Surface         `desc:"the surface rendered to"`
	Mem           Memory           `desc:"buffer allocator"`
	Desc          DescPool         `desc:"descriptor set pools and layouts"`
	CmdPool       CmdPool          `desc:"pool for one-time upload commands"`
	Shaders       fs.FS            `desc:"compiled shaders, named <shader>.vert.spv and <shader>.frag.spv"`
	PipelineCache vk.PipelineCache `desc:"cache shared by all pipelines"`

	pipelines []*Pipeline
	samplers  []*Sampler
}

// NewSystem makes a System drawing to sf on dv, loading shaders from shaders.
func NewSystem(gp *GPU, dv *Device, sf *Surface, shaders fs.FS) (*System, error) {
	sy := &System{GPU: gp, Device: dv, Surface: sf, Shaders: shaders}
	sy.Mem.Init(gp, dv, sf)
	if err := sy.Desc.Init(dv, sf); err != nil {
		return nil, err
	}
	if err := sy.CmdPool.Init(dv, vk.CommandPoolCreateTransientBit); err != nil {
		sy.Desc.Destroy()
		return nil, err
	}
	var cache vk.PipelineCache
	ret := vk.CreatePipelineCache(dv.Device, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if err := NewError(ret); err != nil {
		sy.CmdPool.Destroy(dv)
		sy.Desc.Destroy()
		return nil, err
	}
	sy.PipelineCache = cache
	return sy, nil
}

// AllocBuffer allocates a buffer through Mem.
func (sy *System) AllocBuffer(kind render.BufferKinds, stride, n int, data []byte) (render.Buffer, error) {
	return sy.Mem.AllocBuffer(kind, stride, n, data)
}

// NewDescriptorSet allocates a set through Desc.
func (sy *System) NewDescriptorSet(layout render.SetLayout, writes []render.Write) (render.DescriptorSet, error) {
	return sy.Desc.NewDescriptorSet(layout, writes)
}

// NewPipeline builds a pipeline for the surface render pass.
// It is destroyed with the System.
func (sy *System) NewPipeline(cfg *render.PipelineConfig) (render.Pipeline, error) {
	pl := &Pipeline{Config: *cfg}
	if err := pl.Build(sy); err != nil {
		pl.Destroy()
		return nil, err
	}
	sy.pipelines = append(sy.pipelines, pl)
	return pl, nil
}

// NewSampler makes a sampler, destroyed with the System.
func (sy *System) NewSampler(mode render.SamplerModes) (render.Sampler, error) {
	sm := &Sampler{}
	sm.Defaults(mode)
	if err := sm.Config(sy.Device.Device); err != nil {
		return nil, err
	}
	sy.samplers = append(sy.samplers, sm)
	return sm, nil
}

// NewImage uploads img, waiting for the copy to finish.
func (sy *System) NewImage(img *image.RGBA) (render.Image, error) {
	im, err := UploadImage(sy.GPU, sy.Device, &sy.CmdPool, img)
	if err != nil {
		return nil, err
	}
	im.frames = sy.Surface
	return im, nil
}

// LoadShader opens the named shader of type typ from Shaders.
func (sy *System) LoadShader(name string, typ ShaderTypes) (*Shader, error) {
	return OpenShader(sy.Device.Device, sy.Shaders, name, typ)
}

// Destroy waits for the device and destroys everything the System made.
// The Surface and Device are destroyed separately.
func (sy *System) Destroy() {
	if sy.Device == nil {
		return
	}
	dev := sy.Device.Device
	sy.Surface.releaseAll()
	for _, pl := range sy.pipelines {
		pl.Destroy()
	}
	sy.pipelines = nil
	for _, sm := range sy.samplers {
		sm.Destroy(dev)
	}
	sy.samplers = nil
	sy.Mem.Destroy()
	sy.Desc.Destroy()
	sy.CmdPool.Destroy(sy.Device)
	if sy.PipelineCache != nil {
		vk.DestroyPipelineCache(dev, sy.PipelineCache, nil)
		sy.PipelineCache = nil
	}
	sy.Device = nil
}
