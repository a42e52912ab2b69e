// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
)

// DescriptorSetFactory builds descriptor sets.
type DescriptorSetFactory interface {

	// NewDescriptorSet returns a new set with the given layout,
	// written with the given values, which must be for declared slots.
	NewDescriptorSet(layout SetLayout, writes []Write) (DescriptorSet, error)
}

// Device is the GPU device as seen by pipelines and texture managers.
type Device interface {
	Allocator
	DescriptorSetFactory

	// NewPipeline builds a graphics pipeline for the current render pass.
	NewPipeline(cfg *PipelineConfig) (Pipeline, error)

	// NewSampler returns a new linear filtering sampler.
	NewSampler(mode SamplerModes) (Sampler, error)

	// NewImage uploads the given image to a new GPU image,
	// which is ready for sampling when NewImage returns.
	NewImage(img *image.RGBA) (Image, error)
}

// Topologies are the primitive topologies of vertex data.
type Topologies int32

const (
	LineList Topologies = iota
	LineStrip
	TriangleList
	TriangleStrip

	TopologiesN
)

var topologyNames = [...]string{"LineList", "LineStrip", "TriangleList", "TriangleStrip"}

func (tp Topologies) String() string {
	if tp < 0 || tp >= TopologiesN {
		return fmt.Sprintf("Topologies(%d)", int32(tp))
	}
	return topologyNames[tp]
}

// VertexFormats are the formats of vertex attributes.
type VertexFormats int32

const (
	Float32 VertexFormats = iota
	Float32x2
	Float32x3
	Float32x4
)

// Size returns the size in bytes of the format.
func (vf VertexFormats) Size() uint32 {
	return 4 * uint32(vf+1)
}

// VertexAttr is one attribute of a vertex binding.
type VertexAttr struct {
	Location uint32
	Format   VertexFormats
	Offset   uint32
}

// VertexBinding describes one bound vertex buffer: its element stride,
// whether it advances per instance rather than per vertex, and its attributes.
type VertexBinding struct {
	Stride      uint32
	PerInstance bool
	Attrs       []VertexAttr
}

// PipelineConfig configures a graphics pipeline. All pipelines use
// dynamic viewport and scissor, and the sample count of the render pass.
type PipelineConfig struct {

	// Name of the pipeline, for logging.
	Name string

	// Shader is the base name of the SPIR-V shaders:
	// Shader.vert.spv and Shader.frag.spv.
	Shader string

	// Topology of the vertex data.
	Topology Topologies

	// Vertex buffer bindings, in binding order.
	Vertex []VertexBinding

	// Layout of the pipeline's single descriptor set.
	Layout SetLayout

	// PushSize is the size in bytes of the push constant range,
	// starting at offset 0 and visible to all stages. 0 for none.
	PushSize uint32

	// AlphaBlend enables source-over alpha blending.
	AlphaBlend bool
}

// Pipeline is a built graphics pipeline.
type Pipeline interface {
	Name() string
	Layout() SetLayout
	PushSize() uint32
}

// Recorder records commands into a command buffer. Commands other than
// UpdateBuffer must be recorded inside the render pass, and UpdateBuffer
// outside of it.
type Recorder interface {
	BindPipeline(pl Pipeline)
	BindDescriptorSet(pl Pipeline, set DescriptorSet)
	BindVertexBuffers(first uint32, bufs ...Buffer)
	BindIndexBuffer(buf Buffer)
	PushConstants(pl Pipeline, offset uint32, data []byte)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)

	// UpdateBuffer overwrites the contents of buf starting at the
	// given byte offset.
	UpdateBuffer(buf Buffer, offset int, data []byte) error
}
