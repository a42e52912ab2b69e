// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"goki.dev/vk2d/render"
)

var (
	quadVertices = []Vertex{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
	quadIndices  = []uint32{0, 1, 2, 2, 3, 0}
)

// Glow draws glowing balls as instances of a unit quad.
type Glow struct {
	Pipeline render.Pipeline
	dev      render.Device
	set      render.DescriptorSet
	quad     render.Buffer
	quadIdx  render.Buffer
}

// GlowLayout is the descriptor layout of the glow pipeline.
func GlowLayout() render.SetLayout {
	return render.NewSetLayout(render.UniformBinding(render.WindowSizeSlot), render.UniformBinding(render.View2DSlot))
}

// NewGlow builds the glow pipeline and its quad buffers. The registry
// must hold [render.WindowSize] and [render.View2D].
func NewGlow(dev render.Device, reg *render.Registry) (*Glow, error) {
	layout := GlowLayout()
	set, err := reg.Persistent(dev, layout)
	if err != nil {
		return nil, err
	}
	gl := &Glow{dev: dev, set: set}
	if gl.quad, err = render.NewVertexBuffer(dev, quadVertices); err != nil {
		gl.Destroy()
		return nil, err
	}
	if gl.quadIdx, err = render.NewIndexBuffer(dev, quadIndices); err != nil {
		gl.Destroy()
		return nil, err
	}
	gl.Pipeline, err = dev.NewPipeline(&render.PipelineConfig{
		Name:       "glow",
		Shader:     "glow",
		Topology:   render.TriangleList,
		Vertex:     []render.VertexBinding{vertexBinding, glowBallBinding},
		Layout:     layout,
		AlphaBlend: true,
	})
	if err != nil {
		gl.Destroy()
		return nil, err
	}
	return gl, nil
}

// Draw records a single instanced draw of all balls.
func (gl *Glow) Draw(cmd render.Recorder, balls []GlowBall) error {
	if len(balls) == 0 {
		return nil
	}
	ib, err := render.NewVertexBuffer(gl.dev, balls)
	if err != nil {
		return err
	}
	cmd.BindPipeline(gl.Pipeline)
	cmd.BindDescriptorSet(gl.Pipeline, gl.set)
	cmd.BindVertexBuffers(0, gl.quad, ib)
	cmd.BindIndexBuffer(gl.quadIdx)
	cmd.DrawIndexed(uint32(len(quadIndices)), uint32(len(balls)), 0, 0, 0)
	return nil
}

// Destroy releases the descriptor set and quad buffers.
func (gl *Glow) Destroy() {
	destroy(gl.set)
	destroy(gl.quad)
	destroy(gl.quadIdx)
}
