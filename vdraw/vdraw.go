// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package vdraw draws 2D primitives through a small family of pipelines:
[Lines], [Triangles], [Textured], [Glow], [Entities] and [Terrain].
Each pipeline takes a list of batches, copies all of their vertices
into one buffer, binds itself once and issues one draw per batch at
a running offset.

[Layer] records heterogeneous draw calls, coalescing consecutive calls
of the same kind, and replays them through the pipelines in one pass.

Coordinates are in pixels with the origin at the top left; the shaders
map them to clip space using the [render.WindowSize] uniform. Glow,
entities and terrain are in world coordinates, mapped to pixels by
the [render.View2D] uniform.
*/
package vdraw

import (
	"image/color"

	"goki.dev/vk2d/render"
)

// Vertex is a position in pixels.
type Vertex struct {
	X, Y float32
}

// TexVertex is a position in pixels with texture coordinates.
type TexVertex struct {
	X, Y float32
	U, V float32
}

// GlowBall is one instance of a glowing sprite, in world coordinates
// transformed by the [render.View2D] uniform.
type GlowBall struct {
	X, Y float32

	// Color at the center.
	Color Color

	// Radius of the solid core.
	Radius float32

	// Corona is the extent of the glow beyond the core.
	Corona float32

	// LateAlpha is the alpha at the outer edge of the corona.
	LateAlpha float32
}

// Color is a straight (non-premultiplied) RGBA color with components in [0, 1].
type Color [4]float32

// White is the default draw color.
var White = Color{1, 1, 1, 1}

// ColorOf converts a Go color.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255, float32(n.A) / 255}
}

func (c Color) bytes() []byte {
	return render.AsBytes(c[:])
}

const (
	vertexStride    = 8
	texVertexStride = 16
	glowBallStride  = 36
	colorPushSize   = 16
)

var (
	vertexBinding = render.VertexBinding{Stride: vertexStride, Attrs: []render.VertexAttr{
		{Location: 0, Format: render.Float32x2},
	}}

	texVertexBinding = render.VertexBinding{Stride: texVertexStride, Attrs: []render.VertexAttr{
		{Location: 0, Format: render.Float32x2},
		{Location: 1, Format: render.Float32x2, Offset: 8},
	}}

	glowBallBinding = render.VertexBinding{Stride: glowBallStride, PerInstance: true, Attrs: []render.VertexAttr{
		{Location: 1, Format: render.Float32x2},
		{Location: 2, Format: render.Float32x4, Offset: 8},
		{Location: 3, Format: render.Float32, Offset: 24},
		{Location: 4, Format: render.Float32, Offset: 28},
		{Location: 5, Format: render.Float32, Offset: 32},
	}}
)

// destroy calls Destroy on v if it has one.
func destroy(v any) {
	if d, ok := v.(render.Destroyer); ok {
		d.Destroy()
	}
}
