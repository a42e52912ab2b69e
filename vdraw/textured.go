// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"log/slog"

	"goki.dev/vk2d/render"
)

// TexturedBatch is a triangle list sampling one texture.
type TexturedBatch struct {
	Texture  *render.Texture
	Vertices []TexVertex
}

// IndexedTexturedBatch is an indexed triangle list sampling one texture.
// Indices refer to the batch's own Vertices.
type IndexedTexturedBatch struct {
	Texture  *render.Texture
	Vertices []TexVertex
	Indices  []uint32
}

// Textured draws textured triangles, binding the descriptor set of
// each batch's texture. Textures must come from its Textures manager.
type Textured struct {
	Pipeline render.Pipeline

	// Textures prepares textures for this pipeline.
	Textures *render.TextureManager

	// Strict makes a draw with a texture from another manager fail
	// before recording anything. Otherwise such batches are skipped
	// with a warning.
	Strict bool

	dev render.Device
}

// TexturedLayout is the descriptor layout of the textured pipeline.
func TexturedLayout() render.SetLayout {
	return render.NewSetLayout(render.TextureBinding(render.TextureSlot), render.UniformBinding(render.WindowSizeSlot))
}

// NewTextured builds the textured pipeline with its own texture manager
// sampling in the given mode. The registry must hold [render.WindowSize].
func NewTextured(dev render.Device, reg *render.Registry, mode render.SamplerModes) (*Textured, error) {
	layout := TexturedLayout()
	tm, err := render.NewTextureManager(dev, reg, layout, mode)
	if err != nil {
		return nil, err
	}
	pl, err := dev.NewPipeline(&render.PipelineConfig{
		Name:       "textured",
		Shader:     "textured",
		Topology:   render.TriangleList,
		Vertex:     []render.VertexBinding{texVertexBinding},
		Layout:     layout,
		AlphaBlend: true,
	})
	if err != nil {
		tm.Destroy()
		return nil, err
	}
	return &Textured{Pipeline: pl, Textures: tm, dev: dev}, nil
}

// check returns the first mismatching texture error in strict mode.
func (tx *Textured) check(texs []*render.Texture) error {
	if !tx.Strict {
		return nil
	}
	for _, t := range texs {
		if err := tx.Textures.Check(t); err != nil {
			return err
		}
	}
	return nil
}

// bindTexture binds the set of t, returning false when the batch
// must be skipped because t is not from this pipeline's manager.
func (tx *Textured) bindTexture(cmd render.Recorder, t *render.Texture, batch int) bool {
	if !tx.Textures.IsOriginOf(t) {
		slog.Warn("vdraw: skipping textured batch with foreign texture", "batch", batch, "err", tx.Textures.Check(t))
		return false
	}
	cmd.BindDescriptorSet(tx.Pipeline, t.Set())
	return true
}

// Draw records one draw per non-empty batch. Skipped batches still
// advance the vertex offset.
func (tx *Textured) Draw(cmd render.Recorder, batches []TexturedBatch) error {
	var verts []TexVertex
	var texs []*render.Texture
	for _, b := range batches {
		if len(b.Vertices) > 0 {
			verts = append(verts, b.Vertices...)
			texs = append(texs, b.Texture)
		}
	}
	if err := tx.check(texs); err != nil {
		return err
	}
	if len(verts) == 0 {
		return nil
	}
	vb, err := render.NewVertexBuffer(tx.dev, verts)
	if err != nil {
		return err
	}
	cmd.BindPipeline(tx.Pipeline)
	cmd.BindVertexBuffers(0, vb)
	off := uint32(0)
	for i, b := range batches {
		n := uint32(len(b.Vertices))
		if n == 0 {
			continue
		}
		if tx.bindTexture(cmd, b.Texture, i) {
			cmd.Draw(n, 1, off, 0)
		}
		off += n
	}
	return nil
}

// DrawIndexed records one indexed draw per non-empty batch, with the
// vertex and index offsets of each batch tracked separately.
func (tx *Textured) DrawIndexed(cmd render.Recorder, batches []IndexedTexturedBatch) error {
	var verts []TexVertex
	var idxs []uint32
	var texs []*render.Texture
	for _, b := range batches {
		if len(b.Indices) == 0 {
			continue
		}
		verts = append(verts, b.Vertices...)
		idxs = append(idxs, b.Indices...)
		texs = append(texs, b.Texture)
	}
	if err := tx.check(texs); err != nil {
		return err
	}
	if len(idxs) == 0 {
		return nil
	}
	vb, err := render.NewVertexBuffer(tx.dev, verts)
	if err != nil {
		return err
	}
	ib, err := render.NewIndexBuffer(tx.dev, idxs)
	if err != nil {
		return err
	}
	cmd.BindPipeline(tx.Pipeline)
	cmd.BindVertexBuffers(0, vb)
	cmd.BindIndexBuffer(ib)
	voff, ioff := int32(0), uint32(0)
	for i, b := range batches {
		if len(b.Indices) == 0 {
			continue
		}
		if tx.bindTexture(cmd, b.Texture, i) {
			cmd.DrawIndexed(uint32(len(b.Indices)), 1, ioff, voff, 0)
		}
		voff += int32(len(b.Vertices))
		ioff += uint32(len(b.Indices))
	}
	return nil
}

// Destroy destroys the texture manager's sampler.
func (tx *Textured) Destroy() {
	tx.Textures.Destroy()
}
