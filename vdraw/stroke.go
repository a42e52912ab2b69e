// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"github.com/chewxy/math32"
)

// StrokeTriangles returns a triangle list covering a line strip through
// points with the given width in pixels: one quad per segment, with a
// bevel filling the outer side of each joint. Zero length segments are
// skipped. It returns nil for fewer than two distinct points or a
// non-positive width.
func StrokeTriangles(points []Vertex, width float32) []Vertex {
	if width <= 0 {
		return nil
	}
	hw := width / 2
	var tris []Vertex
	var prev Vertex // normal of the previous segment, scaled to hw
	var prevEnd Vertex
	have := false
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math32.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		n := Vertex{-dy / l * hw, dx / l * hw}
		a0, a1 := Vertex{a.X + n.X, a.Y + n.Y}, Vertex{a.X - n.X, a.Y - n.Y}
		b0, b1 := Vertex{b.X + n.X, b.Y + n.Y}, Vertex{b.X - n.X, b.Y - n.Y}
		tris = append(tris, a0, b0, b1, b1, a1, a0)
		if have && prevEnd == a {
			// the outer side is where the two normals open up
			turn := prev.X*n.Y - prev.Y*n.X
			switch {
			case turn > 0:
				tris = append(tris, a, Vertex{a.X - prev.X, a.Y - prev.Y}, a1)
			case turn < 0:
				tris = append(tris, a, Vertex{a.X + prev.X, a.Y + prev.Y}, a0)
			}
		}
		prev, prevEnd, have = n, b, true
	}
	return tris
}
