// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"slices"
	"strings"
)

// DescriptorTypes are the kinds of resources bound in a descriptor set.
type DescriptorTypes int32

const (
	// UniformDescriptor binds a [UniformBuffer].
	UniformDescriptor DescriptorTypes = iota

	// TextureDescriptor binds an [Image] with a [Sampler].
	TextureDescriptor

	DescriptorTypesN
)

func (dt DescriptorTypes) String() string {
	switch dt {
	case UniformDescriptor:
		return "Uniform"
	case TextureDescriptor:
		return "Texture"
	}
	return fmt.Sprintf("DescriptorTypes(%d)", int32(dt))
}

// ShaderStages is a bit set of the shader stages using a binding
// or push constant range.
type ShaderStages int32

const (
	VertexStage ShaderStages = 1 << iota
	FragmentStage

	AllStages = VertexStage | FragmentStage
)

// Binding declares one binding slot of a [SetLayout].
type Binding struct {
	Slot   uint32
	Type   DescriptorTypes
	Stages ShaderStages
}

// UniformBinding returns a uniform buffer binding visible to all stages.
func UniformBinding(slot uint32) Binding {
	return Binding{Slot: slot, Type: UniformDescriptor, Stages: AllStages}
}

// TextureBinding returns a combined image sampler binding for the fragment stage.
func TextureBinding(slot uint32) Binding {
	return Binding{Slot: slot, Type: TextureDescriptor, Stages: FragmentStage}
}

// SetLayout is the layout of the single descriptor set a pipeline uses.
// Bindings are kept sorted by ascending slot.
type SetLayout struct {
	Bindings []Binding
}

// NewSetLayout returns a layout with the given bindings sorted by slot.
// A later binding for an already declared slot replaces the earlier one.
func NewSetLayout(bindings ...Binding) SetLayout {
	bs := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if i := slices.IndexFunc(bs, func(o Binding) bool { return o.Slot == b.Slot }); i >= 0 {
			bs[i] = b
			continue
		}
		bs = append(bs, b)
	}
	slices.SortFunc(bs, func(a, b Binding) int { return int(a.Slot) - int(b.Slot) })
	return SetLayout{Bindings: bs}
}

// Slots returns the declared slots in ascending order.
func (sl SetLayout) Slots() []uint32 {
	ss := make([]uint32, len(sl.Bindings))
	for i, b := range sl.Bindings {
		ss[i] = b.Slot
	}
	return ss
}

// Binding returns the binding declared for slot.
func (sl SetLayout) Binding(slot uint32) (Binding, bool) {
	for _, b := range sl.Bindings {
		if b.Slot == slot {
			return b, true
		}
	}
	return Binding{}, false
}

// Has returns whether the layout declares the given slot.
func (sl SetLayout) Has(slot uint32) bool {
	_, ok := sl.Binding(slot)
	return ok
}

// Key returns a string uniquely identifying the layout,
// for caching backend layout objects.
func (sl SetLayout) Key() string {
	var sb strings.Builder
	for i, b := range sl.Bindings {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d:%d:%d", b.Slot, b.Type, b.Stages)
	}
	return sb.String()
}

// Write is the value written to one slot of a descriptor set:
// a Buffer for uniform slots, or an Image and Sampler for texture slots.
type Write struct {
	Slot    uint32
	Type    DescriptorTypes
	Buffer  Buffer
	Image   Image
	Sampler Sampler
}

// SamplerModes are the modes for sampling a texture
// beyond its edges.
type SamplerModes int32

const (
	// Repeat the texture when going beyond the image dimensions.
	Repeat SamplerModes = iota

	// Like repeat, but inverts the coordinates to mirror the image when going beyond the dimensions.
	MirroredRepeat

	// Take the color of the edge closest to the coordinate beyond the image dimensions.
	ClampToEdge

	// Return a solid (transparent) color when sampling beyond the dimensions of the image.
	ClampToBorder

	// Like clamp to edge, but instead uses the edge opposite to the closest edge.
	MirrorClampToEdge

	SamplerModesN
)

var samplerModeNames = [...]string{"Repeat", "MirroredRepeat", "ClampToEdge", "ClampToBorder", "MirrorClampToEdge"}

func (sm SamplerModes) String() string {
	if sm < 0 || sm >= SamplerModesN {
		return fmt.Sprintf("SamplerModes(%d)", int32(sm))
	}
	return samplerModeNames[sm]
}

// SamplerModeFromString returns the mode with the given name
// as returned by String, case insensitively.
func SamplerModeFromString(s string) (SamplerModes, error) {
	for i, n := range samplerModeNames {
		if strings.EqualFold(n, s) {
			return SamplerModes(i), nil
		}
	}
	return Repeat, fmt.Errorf("render: unknown sampler mode %q", s)
}

// Image is an image resident on the GPU, usable as a texture.
type Image interface {
	Size() image.Point
}

// Sampler is a GPU texture sampler.
type Sampler interface {
	Mode() SamplerModes
}

// DescriptorSet is an immutable GPU descriptor set built for a layout.
type DescriptorSet interface {
	Layout() SetLayout
}
