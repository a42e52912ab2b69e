// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// ErrNoMemoryType is returned when no memory type fits a buffer.
var ErrNoMemoryType = errors.New("vgpu: no suitable memory type")

// BufferMemoryPrefs are the memory properties tried for buffers, in order.
// Device local host visible memory is used when the device has it
// (resizable BAR, integrated GPUs), otherwise plain host coherent memory.
var BufferMemoryPrefs = []vk.MemoryPropertyFlagBits{
	vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit,
	vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit,
}

// FrameTracker reports whether a frame is being recorded and defers
// releases until the GPU is done with the frame. Implemented by [Surface].
type FrameTracker interface {
	Recording() bool
	Defer(fn func())
}

// Buffer is a host visible vulkan buffer filled at allocation,
// implementing [render.Buffer].
type Buffer struct {
	Buf  vk.Buffer       `desc:"vulkan buffer handle"`
	Mem  vk.DeviceMemory `desc:"memory bound to Buf"`
	Size int             `desc:"size in bytes"`

	kind       render.BufferKinds
	n, stride  int
	persistent bool
	mm         *Memory
}

func (b *Buffer) Kind() render.BufferKinds { return b.kind }
func (b *Buffer) Len() int                 { return b.n }
func (b *Buffer) Stride() int              { return b.stride }

// Persistent returns whether the buffer lives until destroyed,
// rather than until the frame it was made in completes.
func (b *Buffer) Persistent() bool { return b.persistent }

// Destroy releases a persistent buffer once in-flight frames are done
// with it. Transient buffers are released by their frame.
func (b *Buffer) Destroy() {
	if !b.persistent {
		return
	}
	b.persistent = false
	b.mm.forget(b)
	b.mm.release(b)
}

// Memory allocates buffers, implementing [render.Allocator].
// Vertex and index buffers allocated while a frame is recording are
// transient: they are freed when that frame completes. Uniform buffers
// and anything allocated outside a frame persist until destroyed.
type Memory struct {
	GPU    *GPU
	Device *Device
	Frames FrameTracker

	mu         sync.Mutex
	persistent map[*Buffer]struct{}
}

// Init sets the devices the memory allocates on.
func (mm *Memory) Init(gp *GPU, dev *Device, frames FrameTracker) {
	mm.GPU = gp
	mm.Device = dev
	mm.Frames = frames
	mm.persistent = make(map[*Buffer]struct{})
}

// AllocBuffer makes a buffer of n elements of stride bytes holding data.
func (mm *Memory) AllocBuffer(kind render.BufferKinds, stride, n int, data []byte) (render.Buffer, error) {
	size := stride * n
	if size == 0 {
		return nil, render.ErrEmptyBuffer
	}
	if len(data) != size {
		return nil, fmt.Errorf("vgpu: %d bytes for %d x %d: %w", len(data), n, stride, render.ErrSizeMismatch)
	}
	dev := mm.Device.Device
	buf, err := NewBuffer(dev, size, BufferUsages[kind])
	if err != nil {
		return nil, err
	}
	mem, err := AllocBuffMem(mm.GPU, dev, buf, BufferMemoryPrefs...)
	if err != nil {
		vk.DestroyBuffer(dev, buf, nil)
		return nil, err
	}
	ptr, err := MapMemory(dev, mem, size)
	if err != nil {
		FreeBuffMem(dev, &mem)
		vk.DestroyBuffer(dev, buf, nil)
		return nil, err
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(dev, mem)

	b := &Buffer{Buf: buf, Mem: mem, Size: size, kind: kind, n: n, stride: stride, mm: mm}
	if kind != render.UniformBuffer && mm.Frames != nil && mm.Frames.Recording() {
		mm.Frames.Defer(b.free)
		return b, nil
	}
	b.persistent = true
	mm.mu.Lock()
	mm.persistent[b] = struct{}{}
	mm.mu.Unlock()
	return b, nil
}

// NPersistent returns the number of live persistent buffers.
func (mm *Memory) NPersistent() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.persistent)
}

func (mm *Memory) forget(b *Buffer) {
	mm.mu.Lock()
	delete(mm.persistent, b)
	mm.mu.Unlock()
}

func (mm *Memory) release(b *Buffer) {
	if mm.Frames != nil {
		mm.Frames.Defer(b.free)
		return
	}
	b.free()
}

func (b *Buffer) free() {
	dev := b.mm.Device.Device
	if dev == nil {
		return
	}
	FreeBuffMem(dev, &b.Mem)
	DestroyBuffer(dev, &b.Buf)
}

// Destroy frees all persistent buffers. The device must be idle.
func (mm *Memory) Destroy() {
	mm.mu.Lock()
	bufs := mm.persistent
	mm.persistent = make(map[*Buffer]struct{})
	mm.mu.Unlock()
	for b := range bufs {
		b.free()
	}
}

/////////////////////////////////////////////////////////////////////
// Basic memory functions

// NewBuffer makes a buffer of given size, usage
func NewBuffer(dev vk.Device, size int, usage vk.BufferUsageFlagBits) (vk.Buffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	return buffer, NewError(ret)
}

// AllocBuffMem allocates memory for given buffer, using the first of
// prefs the device has a memory type for.
func AllocBuffMem(gp *GPU, dev vk.Device, buffer vk.Buffer, prefs ...vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &memReqs)
	memReqs.Deref()

	memType, ok := FindMemoryType(MemoryTypeFlags(gp.MemoryProps), memReqs.MemoryTypeBits, prefs...)
	if !ok {
		return vk.NullDeviceMemory, ErrNoMemoryType
	}
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := NewError(ret); err != nil {
		return vk.NullDeviceMemory, err
	}
	if err := NewError(vk.BindBufferMemory(dev, buffer, memory, 0)); err != nil {
		vk.FreeMemory(dev, memory, nil)
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

// MapMemory maps the buffer memory, returning a pointer into start of buffer memory
func MapMemory(dev vk.Device, mem vk.DeviceMemory, size int) (unsafe.Pointer, error) {
	var buffPtr unsafe.Pointer
	ret := vk.MapMemory(dev, mem, 0, vk.DeviceSize(size), 0, &buffPtr)
	return buffPtr, NewError(ret)
}

// FreeBuffMem frees given device memory to nil
func FreeBuffMem(dev vk.Device, memory *vk.DeviceMemory) {
	if *memory == vk.NullDeviceMemory {
		return
	}
	vk.FreeMemory(dev, *memory, nil)
	*memory = vk.NullDeviceMemory
}

// DestroyBuffer destroys given buffer and nils the pointer
func DestroyBuffer(dev vk.Device, buff *vk.Buffer) {
	if *buff == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(dev, *buff, nil)
	*buff = vk.NullBuffer
}

// MemoryTypeFlags returns the property flags of each memory type.
func MemoryTypeFlags(props vk.PhysicalDeviceMemoryProperties) []vk.MemoryPropertyFlags {
	n := props.MemoryTypeCount
	if n > vk.MaxMemoryTypes {
		n = vk.MaxMemoryTypes
	}
	flags := make([]vk.MemoryPropertyFlags, n)
	for i := uint32(0); i < n; i++ {
		props.MemoryTypes[i].Deref()
		flags[i] = props.MemoryTypes[i].PropertyFlags
	}
	return flags
}

// FindMemoryType returns the index of the first memory type allowed by
// typeBits having all the flags of a preference, trying prefs in order.
func FindMemoryType(types []vk.MemoryPropertyFlags, typeBits uint32, prefs ...vk.MemoryPropertyFlagBits) (uint32, bool) {
	for _, pref := range prefs {
		want := vk.MemoryPropertyFlags(pref)
		for i, flags := range types {
			if typeBits&(1<<uint(i)) == 0 {
				continue
			}
			if flags&want == want {
				return uint32(i), true
			}
		}
	}
	return 0, false
}
