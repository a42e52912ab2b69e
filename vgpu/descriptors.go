// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// DefaultPoolSets is the number of sets each descriptor pool holds.
const DefaultPoolSets = 512

// DescriptorSet is an allocated vulkan descriptor set,
// implementing [render.DescriptorSet].
type DescriptorSet struct {
	Set vk.DescriptorSet `desc:"vulkan descriptor set"`

	layout render.SetLayout
	pool   vk.DescriptorPool
	dp     *DescPool
}

func (ds *DescriptorSet) Layout() render.SetLayout { return ds.layout }

// Destroy returns the set to its pool once in-flight frames are done with it.
func (ds *DescriptorSet) Destroy() {
	if ds.Set == nil {
		return
	}
	set, pool, dp := ds.Set, ds.pool, ds.dp
	ds.Set = nil
	free := func() {
		vk.FreeDescriptorSets(dp.Device.Device, pool, 1, &set)
	}
	if dp.Frames != nil {
		dp.Frames.Defer(free)
		return
	}
	free()
}

// DescPool allocates descriptor sets, growing by adding pools as they
// fill, and caches a vulkan set layout per [render.SetLayout.Key].
type DescPool struct {
	Device   *Device
	Frames   FrameTracker
	PoolSets int `desc:"number of sets per pool"`

	mu      sync.Mutex
	pools   []vk.DescriptorPool
	layouts map[string]vk.DescriptorSetLayout
}

// Init sets the device and makes the first pool.
func (dp *DescPool) Init(dev *Device, frames FrameTracker) error {
	dp.Device = dev
	dp.Frames = frames
	if dp.PoolSets == 0 {
		dp.PoolSets = DefaultPoolSets
	}
	dp.layouts = make(map[string]vk.DescriptorSetLayout)
	_, err := dp.addPool()
	return err
}

func (dp *DescPool) addPool() (vk.DescriptorPool, error) {
	n := uint32(dp.PoolSets)
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(dp.Device.Device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       n,
		PoolSizeCount: 2,
		PPoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: 4 * n},
			{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: n},
		},
	}, nil, &pool)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	dp.pools = append(dp.pools, pool)
	return pool, nil
}

// SetLayout returns the vulkan layout for sl, making it on first use.
func (dp *DescPool) SetLayout(sl render.SetLayout) (vk.DescriptorSetLayout, error) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.setLayout(sl)
}

func (dp *DescPool) setLayout(sl render.SetLayout) (vk.DescriptorSetLayout, error) {
	key := sl.Key()
	if lay, ok := dp.layouts[key]; ok {
		return lay, nil
	}
	binds := make([]vk.DescriptorSetLayoutBinding, len(sl.Bindings))
	for i, b := range sl.Bindings {
		binds[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Slot,
			DescriptorType:  VulkanDescriptorTypes[b.Type],
			DescriptorCount: 1,
			StageFlags:      ShaderStageFlags(b.Stages),
		}
	}
	var lay vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(dp.Device.Device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(binds)),
		PBindings:    binds,
	}, nil, &lay)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	dp.layouts[key] = lay
	return lay, nil
}

// NewDescriptorSet allocates a set for layout and writes it.
func (dp *DescPool) NewDescriptorSet(layout render.SetLayout, writes []render.Write) (render.DescriptorSet, error) {
	wds, err := writeInfos(layout, writes)
	if err != nil {
		return nil, err
	}
	dp.mu.Lock()
	defer dp.mu.Unlock()
	lay, err := dp.setLayout(layout)
	if err != nil {
		return nil, err
	}
	pool := dp.pools[len(dp.pools)-1]
	set, ret := dp.allocate(pool, lay)
	if ret == vk.ErrorOutOfPoolMemory || ret == vk.ErrorFragmentedPool {
		if pool, err = dp.addPool(); err != nil {
			return nil, err
		}
		set, ret = dp.allocate(pool, lay)
	}
	if err := NewError(ret); err != nil {
		return nil, err
	}
	for i := range wds {
		wds[i].DstSet = set
	}
	vk.UpdateDescriptorSets(dp.Device.Device, uint32(len(wds)), wds, 0, nil)
	return &DescriptorSet{Set: set, layout: layout, pool: pool, dp: dp}, nil
}

func (dp *DescPool) allocate(pool vk.DescriptorPool, lay vk.DescriptorSetLayout) (vk.DescriptorSet, vk.Result) {
	sets := make([]vk.DescriptorSet, 1)
	ret := vk.AllocateDescriptorSets(dp.Device.Device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{lay},
	}, &sets[0])
	return sets[0], ret
}

// writeInfos converts writes to vulkan, checking them against layout.
// DstSet is filled in by the caller.
func writeInfos(layout render.SetLayout, writes []render.Write) ([]vk.WriteDescriptorSet, error) {
	wds := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		b, ok := layout.Binding(w.Slot)
		if !ok {
			return nil, fmt.Errorf("vgpu: write to slot %d not in layout %s", w.Slot, layout.Key())
		}
		if b.Type != w.Type {
			return nil, fmt.Errorf("vgpu: write of type %v to slot %d of type %v", w.Type, w.Slot, b.Type)
		}
		wd := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstBinding:      w.Slot,
			DescriptorCount: 1,
			DescriptorType:  VulkanDescriptorTypes[w.Type],
		}
		switch w.Type {
		case render.UniformDescriptor:
			buf, ok := w.Buffer.(*Buffer)
			if !ok {
				return nil, fmt.Errorf("vgpu: slot %d: %T is not a vgpu buffer", w.Slot, w.Buffer)
			}
			wd.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: buf.Buf,
				Range:  vk.DeviceSize(vk.WholeSize),
			}}
		case render.TextureDescriptor:
			img, ok := w.Image.(*Image)
			if !ok {
				return nil, fmt.Errorf("vgpu: slot %d: %T is not a vgpu image", w.Slot, w.Image)
			}
			sm, ok := w.Sampler.(*Sampler)
			if !ok {
				return nil, fmt.Errorf("vgpu: slot %d: %T is not a vgpu sampler", w.Slot, w.Sampler)
			}
			wd.PImageInfo = []vk.DescriptorImageInfo{{
				Sampler:     sm.VkSampler,
				ImageView:   img.View,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}}
		}
		wds = append(wds, wd)
	}
	return wds, nil
}

// Destroy destroys the pools, freeing all sets, and the layouts.
func (dp *DescPool) Destroy() {
	dev := dp.Device.Device
	for _, pool := range dp.pools {
		vk.DestroyDescriptorPool(dev, pool, nil)
	}
	dp.pools = nil
	for _, lay := range dp.layouts {
		vk.DestroyDescriptorSetLayout(dev, lay, nil)
	}
	dp.layouts = nil
}
