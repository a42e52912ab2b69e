// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/vdraw"
)

// FloorTile is the world size of a floor tile.
const FloorTile = 32

// Floor is the checkered ground of the scene, drawn with the terrain
// pipeline from a two texel texture.
type Floor struct {
	Texture *render.Texture
}

// NewFloor prepares the floor texture for the terrain pipeline.
func NewFloor(tm *render.TextureManager) (*Floor, error) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{34, 36, 62, 255})
	img.SetRGBA(1, 0, color.RGBA{24, 26, 46, 255})
	tx, err := tm.NewTexture(img)
	if err != nil {
		return nil, err
	}
	return &Floor{Texture: tx}, nil
}

// Batches returns the tiles covering a box of the given size, as one
// batch per checker color. Tiles darken away from the center.
func (fl *Floor) Batches(size image.Point) []vdraw.TerrainBatch {
	light := vdraw.TerrainBatch{Texture: fl.Texture, UV0: [2]float32{0.25, 0.5}, UV1: [2]float32{0.25, 0.5}, TileSize: [2]float32{FloorTile, FloorTile}}
	dark := light
	dark.UV0, dark.UV1 = [2]float32{0.75, 0.5}, [2]float32{0.75, 0.5}
	cols := (size.X + FloorTile - 1) / FloorTile
	rows := (size.Y + FloorTile - 1) / FloorTile
	cx, cy := float32(size.X)/2, float32(size.Y)/2
	far := math32.Max(math32.Hypot(cx, cy), 1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t := vdraw.Tile{X: (float32(c) + 0.5) * FloorTile, Y: (float32(r) + 0.5) * FloorTile}
			t.Shading = 0.6 * math32.Hypot(t.X-cx, t.Y-cy) / far
			if (r+c)%2 == 0 {
				light.Tiles = append(light.Tiles, t)
			} else {
				dark.Tiles = append(dark.Tiles, t)
			}
		}
	}
	return []vdraw.TerrainBatch{light, dark}
}

// Destroy releases the floor texture.
func (fl *Floor) Destroy() {
	fl.Texture.Release()
}
