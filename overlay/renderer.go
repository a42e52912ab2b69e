// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package overlay

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/vdraw"
)

// Renderer draws [Output] through a textured pipeline.
type Renderer struct {
	Textured *vdraw.Textured

	textures map[TextureID]*uiTexture
	frees    []TextureID
}

// uiTexture keeps the pixels of a texture, for partial updates.
type uiTexture struct {
	img *image.RGBA
	tex *render.Texture
}

// NewRenderer returns a renderer drawing through tx.
func NewRenderer(tx *vdraw.Textured) *Renderer {
	return &Renderer{Textured: tx, textures: map[TextureID]*uiTexture{}}
}

// Render prepares or draws out, depending on the phase of fc.
func (rn *Renderer) Render(fc *render.FrameContext, out *Output) error {
	if fc.Phase == render.PreparePhase {
		return rn.Prepare(out)
	}
	return rn.Draw(fc.Cmd, out)
}

// Prepare applies the texture changes of out.
func (rn *Renderer) Prepare(out *Output) error {
	for _, d := range out.Textures {
		if err := rn.apply(d); err != nil {
			return fmt.Errorf("overlay: texture %d: %w", d.ID, err)
		}
	}
	rn.frees = append(rn.frees, out.Frees...)
	return nil
}

func (rn *Renderer) apply(d TextureDelta) error {
	ut := rn.textures[d.ID]
	var img *image.RGBA
	if d.Partial {
		if ut == nil {
			return errors.New("partial update of unknown texture")
		}
		img = ut.img
		r := d.Image.Rect.Sub(d.Image.Rect.Min).Add(d.Pos)
		if !r.In(img.Rect) {
			return fmt.Errorf("partial update %v outside of %v", r, img.Rect)
		}
		draw.Draw(img, r, d.Image, d.Image.Rect.Min, draw.Src)
	} else {
		img = image.NewRGBA(d.Image.Rect.Sub(d.Image.Rect.Min))
		draw.Draw(img, img.Rect, d.Image, d.Image.Rect.Min, draw.Src)
	}
	tex, err := rn.Textured.Textures.NewTexture(img)
	if err != nil {
		return err
	}
	if ut != nil {
		ut.tex.Release()
	}
	rn.textures[d.ID] = &uiTexture{img: img, tex: tex}
	return nil
}

// Draw draws the meshes of out, then frees the textures queued
// for freeing. Meshes with unknown textures are skipped.
func (rn *Renderer) Draw(cmd render.Recorder, out *Output) error {
	batches := make([]vdraw.IndexedTexturedBatch, 0, len(out.Meshes))
	for _, m := range out.Meshes {
		ut, ok := rn.textures[m.Texture]
		if !ok {
			slog.Warn("overlay: mesh with unknown texture", "texture", m.Texture)
			continue
		}
		batches = append(batches, vdraw.IndexedTexturedBatch{Texture: ut.tex, Vertices: m.Vertices, Indices: m.Indices})
	}
	err := rn.Textured.DrawIndexed(cmd, batches)
	rn.free()
	return err
}

func (rn *Renderer) free() {
	for _, id := range rn.frees {
		if ut, ok := rn.textures[id]; ok {
			ut.tex.Release()
			delete(rn.textures, id)
		}
	}
	rn.frees = rn.frees[:0]
}

// Texture returns the texture for id.
func (rn *Renderer) Texture(id TextureID) (*render.Texture, bool) {
	ut, ok := rn.textures[id]
	if !ok {
		return nil, false
	}
	return ut.tex, true
}

// Len returns the number of live textures.
func (rn *Renderer) Len() int {
	return len(rn.textures)
}

// Destroy releases all textures.
func (rn *Renderer) Destroy() {
	rn.frees = rn.frees[:0]
	for id, ut := range rn.textures {
		ut.tex.Release()
		delete(rn.textures, id)
	}
}
