// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package texture manages image assets: one GPU image shared by the
textures of any number of pipelines, sub-views of it in texture
coordinates (for atlases and sprite sheets), and a registry to look
views up by application keys.
*/
package texture

import (
	"image"
	"io/fs"

	"goki.dev/vk2d/imagex"
	"goki.dev/vk2d/render"
	"goki.dev/vk2d/vdraw"
)

// Asset is an uploaded image and the textures prepared for it.
type Asset struct {

	// Name of the asset, usually its file name.
	Name string

	// Image on the GPU, owned by the asset.
	Image render.Image

	textures map[render.Origin]*render.Texture
}

// Load uploads img as a new asset.
func Load(dev render.Device, name string, img *image.RGBA) (*Asset, error) {
	gi, err := dev.NewImage(img)
	if err != nil {
		return nil, err
	}
	return &Asset{Name: name, Image: gi, textures: map[render.Origin]*render.Texture{}}, nil
}

// LoadFile decodes and uploads an image file from fsys, scaled down
// to at most maxSize pixels on each side when maxSize > 0.
func LoadFile(dev render.Device, fsys fs.FS, filename string, maxSize int) (*Asset, error) {
	img, _, err := imagex.OpenFS(fsys, filename)
	if err != nil {
		return nil, err
	}
	return Load(dev, filename, imagex.Fit(img, maxSize))
}

// Size returns the image size in pixels.
func (as *Asset) Size() image.Point {
	return as.Image.Size()
}

// Texture returns the texture of the asset for the given manager,
// preparing it on first use. The asset keeps its reference.
func (as *Asset) Texture(tm *render.TextureManager) (*render.Texture, error) {
	if tx, ok := as.textures[tm.Origin]; ok {
		return tx, nil
	}
	tx, err := tm.PrepareView(as.Image)
	if err != nil {
		return nil, err
	}
	as.textures[tm.Origin] = tx
	return tx, nil
}

// View returns a view of the whole image.
func (as *Asset) View() View {
	return View{Asset: as, UV1: [2]float32{1, 1}}
}

// Destroy releases the textures and destroys the image.
func (as *Asset) Destroy() {
	for org, tx := range as.textures {
		tx.Release()
		delete(as.textures, org)
	}
	if d, ok := as.Image.(render.Destroyer); ok {
		d.Destroy()
	}
	as.Image = nil
}

// View is a rectangle of an asset in texture coordinates,
// from UV0 (top left) to UV1 (bottom right).
type View struct {
	Asset *Asset
	UV0   [2]float32
	UV1   [2]float32
}

// Sub returns the sub-view from uv0 to uv1, given relative to v.
func (v View) Sub(uv0, uv1 [2]float32) View {
	w := v.UV1[0] - v.UV0[0]
	h := v.UV1[1] - v.UV0[1]
	return View{
		Asset: v.Asset,
		UV0:   [2]float32{v.UV0[0] + uv0[0]*w, v.UV0[1] + uv0[1]*h},
		UV1:   [2]float32{v.UV0[0] + uv1[0]*w, v.UV0[1] + uv1[1]*h},
	}
}

// Cell returns the view of cell col, row of a grid of cols by rows
// equal cells covering v.
func (v View) Cell(col, row, cols, rows int) View {
	fc, fr := float32(cols), float32(rows)
	return v.Sub(
		[2]float32{float32(col) / fc, float32(row) / fr},
		[2]float32{float32(col+1) / fc, float32(row+1) / fr})
}

// Width returns the width of the view in image pixels.
func (v View) Width() float32 {
	return float32(v.Asset.Size().X) * (v.UV1[0] - v.UV0[0])
}

// Height returns the height of the view in image pixels.
func (v View) Height() float32 {
	return float32(v.Asset.Size().Y) * (v.UV1[1] - v.UV0[1])
}

// Draw draws the view into the rectangle at x, y of size w, h,
// through the textured pipeline of ps.
func (v View) Draw(ly *vdraw.Layer, ps *vdraw.Pipelines, x, y, w, h float32) error {
	tx, err := v.Asset.Texture(ps.Textured.Textures)
	if err != nil {
		return err
	}
	ly.DrawTexturedRectUV(tx, x, y, w, h, v.UV0[0], v.UV0[1], v.UV1[0], v.UV1[1])
	return nil
}
