// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"goki.dev/vk2d/render"
)

// TriangleBatch is a triangle list in one color.
type TriangleBatch struct {
	Color    Color
	Vertices []Vertex
}

// IndexedTriangleBatch is an indexed triangle list in one color.
// Indices refer to the batch's own Vertices.
type IndexedTriangleBatch struct {
	Color    Color
	Vertices []Vertex
	Indices  []uint32
}

// Triangles draws solid triangles with a per-batch color push constant.
type Triangles struct {
	Pipeline render.Pipeline
	dev      render.Device
	set      render.DescriptorSet
}

// NewTriangles builds the triangles pipeline.
// The registry must hold [render.WindowSize].
func NewTriangles(dev render.Device, reg *render.Registry) (*Triangles, error) {
	layout := render.NewSetLayout(render.UniformBinding(render.WindowSizeSlot))
	set, err := reg.Persistent(dev, layout)
	if err != nil {
		return nil, err
	}
	pl, err := dev.NewPipeline(&render.PipelineConfig{
		Name:       "triangles",
		Shader:     "triangles",
		Topology:   render.TriangleList,
		Vertex:     []render.VertexBinding{vertexBinding},
		Layout:     layout,
		PushSize:   colorPushSize,
		AlphaBlend: true,
	})
	if err != nil {
		destroy(set)
		return nil, err
	}
	return &Triangles{Pipeline: pl, dev: dev, set: set}, nil
}

func (tr *Triangles) bind(cmd render.Recorder, vb render.Buffer) {
	cmd.BindPipeline(tr.Pipeline)
	cmd.BindDescriptorSet(tr.Pipeline, tr.set)
	cmd.BindVertexBuffers(0, vb)
}

// Draw records one draw per non-empty batch.
func (tr *Triangles) Draw(cmd render.Recorder, batches []TriangleBatch) error {
	var verts []Vertex
	for _, b := range batches {
		verts = append(verts, b.Vertices...)
	}
	if len(verts) == 0 {
		return nil
	}
	vb, err := render.NewVertexBuffer(tr.dev, verts)
	if err != nil {
		return err
	}
	tr.bind(cmd, vb)
	off := uint32(0)
	for _, b := range batches {
		n := uint32(len(b.Vertices))
		if n == 0 {
			continue
		}
		cmd.PushConstants(tr.Pipeline, 0, b.Color.bytes())
		cmd.Draw(n, 1, off, 0)
		off += n
	}
	return nil
}

// DrawIndexed records one indexed draw per non-empty batch, with the
// vertex and index offsets of each batch tracked separately.
func (tr *Triangles) DrawIndexed(cmd render.Recorder, batches []IndexedTriangleBatch) error {
	var verts []Vertex
	var idxs []uint32
	for _, b := range batches {
		if len(b.Indices) == 0 {
			continue
		}
		verts = append(verts, b.Vertices...)
		idxs = append(idxs, b.Indices...)
	}
	if len(idxs) == 0 {
		return nil
	}
	vb, err := render.NewVertexBuffer(tr.dev, verts)
	if err != nil {
		return err
	}
	ib, err := render.NewIndexBuffer(tr.dev, idxs)
	if err != nil {
		return err
	}
	tr.bind(cmd, vb)
	cmd.BindIndexBuffer(ib)
	voff, ioff := int32(0), uint32(0)
	for _, b := range batches {
		if len(b.Indices) == 0 {
			continue
		}
		cmd.PushConstants(tr.Pipeline, 0, b.Color.bytes())
		cmd.DrawIndexed(uint32(len(b.Indices)), 1, ioff, voff, 0)
		voff += int32(len(b.Vertices))
		ioff += uint32(len(b.Indices))
	}
	return nil
}

// Destroy releases the descriptor set.
func (tr *Triangles) Destroy() {
	destroy(tr.set)
}
