// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"goki.dev/vk2d/render"
)

// LineBatch is a line strip through Points in one color.
type LineBatch struct {
	Color  Color
	Points []Vertex
}

// Lines draws line strips with a per-batch color push constant.
type Lines struct {
	Pipeline render.Pipeline
	dev      render.Device
	set      render.DescriptorSet
}

// NewLines builds the lines pipeline. The registry must hold [render.WindowSize].
func NewLines(dev render.Device, reg *render.Registry) (*Lines, error) {
	layout := render.NewSetLayout(render.UniformBinding(render.WindowSizeSlot))
	set, err := reg.Persistent(dev, layout)
	if err != nil {
		return nil, err
	}
	pl, err := dev.NewPipeline(&render.PipelineConfig{
		Name:       "lines",
		Shader:     "lines",
		Topology:   render.LineStrip,
		Vertex:     []render.VertexBinding{vertexBinding},
		Layout:     layout,
		PushSize:   colorPushSize,
		AlphaBlend: true,
	})
	if err != nil {
		destroy(set)
		return nil, err
	}
	return &Lines{Pipeline: pl, dev: dev, set: set}, nil
}

// Draw records one draw per non-empty batch.
func (ln *Lines) Draw(cmd render.Recorder, batches []LineBatch) error {
	var verts []Vertex
	for _, b := range batches {
		verts = append(verts, b.Points...)
	}
	if len(verts) == 0 {
		return nil
	}
	vb, err := render.NewVertexBuffer(ln.dev, verts)
	if err != nil {
		return err
	}
	cmd.BindPipeline(ln.Pipeline)
	cmd.BindDescriptorSet(ln.Pipeline, ln.set)
	cmd.BindVertexBuffers(0, vb)
	off := uint32(0)
	for _, b := range batches {
		n := uint32(len(b.Points))
		if n == 0 {
			continue
		}
		cmd.PushConstants(ln.Pipeline, 0, b.Color.bytes())
		cmd.Draw(n, 1, off, 0)
		off += n
	}
	return nil
}

// Destroy releases the descriptor set.
func (ln *Lines) Destroy() {
	destroy(ln.set)
}
