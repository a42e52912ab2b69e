// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package overlay draws the output of an immediate mode UI library
on top of a frame. The library is adapted to the [UI] interface,
whose [Output] lists texture changes and textured triangle meshes;
[Renderer] applies the texture changes in the prepare phase and
draws the meshes through the textured pipeline in the render phase.
*/
package overlay

import (
	"image"

	"goki.dev/vk2d/events"
	"goki.dev/vk2d/vdraw"
)

// TextureID identifies a texture of the UI library.
type TextureID uint64

// TextureDelta sets the whole image of a texture, creating it if
// needed, or when Partial is set, a region of it at Pos.
type TextureDelta struct {
	ID      TextureID
	Partial bool
	Pos     image.Point
	Image   *image.RGBA
}

// Mesh is an indexed triangle list drawn with one texture.
type Mesh struct {
	Texture  TextureID
	Vertices []vdraw.TexVertex
	Indices  []uint32
}

// Output is the render output of one UI update.
type Output struct {

	// Textures to set before drawing the meshes.
	Textures []TextureDelta

	// Frees lists textures to free after drawing the meshes.
	Frees []TextureID

	// Meshes to draw, in order.
	Meshes []Mesh
}

// UI is an immediate mode UI library.
type UI interface {

	// Update runs one UI pass for a window of the given size in pixels
	// with the events since the last pass, calling build to declare
	// the widgets, and returns what to draw.
	Update(size image.Point, evs []events.Event, build func()) Output
}
