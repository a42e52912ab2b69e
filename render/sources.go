// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import "image"

// Well known binding slots.
const (
	// TextureSlot is the slot of the per-texture image and sampler.
	TextureSlot uint32 = 0

	// WindowSizeSlot is the slot of [WindowSize].
	WindowSizeSlot uint32 = 101

	// View2DSlot is the slot of [View2D].
	View2DSlot uint32 = 201
)

// WindowSize is the size of the drawable surface in pixels,
// which shaders use to map pixel coordinates to clip space.
type WindowSize struct {
	Width, Height float32
}

// WindowSizeOf returns the WindowSize for the given size.
func WindowSizeOf(sz image.Point) WindowSize {
	return WindowSize{Width: float32(sz.X), Height: float32(sz.Y)}
}

func (ws WindowSize) Binding() uint32 { return WindowSizeSlot }

func (ws WindowSize) Data() []float32 { return []float32{ws.Width, ws.Height} }

// View2D is the pan and zoom of the 2D world view used by
// world-space pipelines such as glow sprites.
type View2D struct {
	PanX, PanY float32
	Zoom       float32
}

// DefaultView2D returns an identity view.
func DefaultView2D() View2D {
	return View2D{Zoom: 1}
}

func (vw View2D) Binding() uint32 { return View2DSlot }

// Data is padded to a vec4.
func (vw View2D) Data() []float32 { return []float32{vw.PanX, vw.PanY, vw.Zoom, 0} }

// WorldToScreen returns the pixel position of the world position x, y
// in a window of size ws.
func (vw View2D) WorldToScreen(x, y float32, ws WindowSize) (float32, float32) {
	return (x-vw.PanX)*vw.Zoom + ws.Width/2, (y-vw.PanY)*vw.Zoom + ws.Height/2
}

// ScreenToWorld is the inverse of [View2D.WorldToScreen].
func (vw View2D) ScreenToWorld(x, y float32, ws WindowSize) (float32, float32) {
	return (x-ws.Width/2)/vw.Zoom + vw.PanX, (y-ws.Height/2)/vw.Zoom + vw.PanY
}

// MoveBy returns the view panned so that the world follows a
// drag of dx, dy pixels.
func (vw View2D) MoveBy(dx, dy float32) View2D {
	vw.PanX -= dx / vw.Zoom
	vw.PanY -= dy / vw.Zoom
	return vw
}

// ZoomAt returns the view with the given zoom, panned so that the
// world position under the pixel x, y stays in place.
// A non-positive zoom leaves the view unchanged.
func (vw View2D) ZoomAt(zoom, x, y float32, ws WindowSize) View2D {
	if zoom <= 0 {
		return vw
	}
	wx, wy := vw.ScreenToWorld(x, y, ws)
	vw.Zoom = zoom
	ax, ay := vw.ScreenToWorld(x, y, ws)
	vw.PanX -= ax - wx
	vw.PanY -= ay - wy
	return vw
}
