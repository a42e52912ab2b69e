// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goki.dev/vk2d/render"
)

func TestView2DMapping(t *testing.T) {
	ws := render.WindowSize{Width: 800, Height: 600}
	vw := render.View2D{PanX: 100, PanY: 50, Zoom: 2}

	x, y := vw.WorldToScreen(100, 50, ws)
	assert.Equal(t, [2]float32{400, 300}, [2]float32{x, y}, "pan is at the window center")
	x, y = vw.WorldToScreen(110, 40, ws)
	assert.Equal(t, [2]float32{420, 280}, [2]float32{x, y})

	wx, wy := vw.ScreenToWorld(420, 280, ws)
	assert.InDelta(t, 110, wx, 1e-4)
	assert.InDelta(t, 40, wy, 1e-4)

	id := render.DefaultView2D()
	x, y = id.WorldToScreen(0, 0, ws)
	assert.Equal(t, [2]float32{400, 300}, [2]float32{x, y})
}

func TestView2DZoomAt(t *testing.T) {
	ws := render.WindowSize{Width: 800, Height: 600}
	vw := render.View2D{PanX: 100, PanY: 50, Zoom: 2}
	wx, wy := vw.ScreenToWorld(600, 100, ws)

	zv := vw.ZoomAt(4, 600, 100, ws)
	assert.Equal(t, float32(4), zv.Zoom)
	x, y := zv.WorldToScreen(wx, wy, ws)
	assert.InDelta(t, 600, x, 1e-3)
	assert.InDelta(t, 100, y, 1e-3)

	// zooming at the center keeps the pan
	cv := vw.ZoomAt(0.5, 400, 300, ws)
	assert.InDelta(t, 100, cv.PanX, 1e-4)
	assert.InDelta(t, 50, cv.PanY, 1e-4)

	assert.Equal(t, vw, vw.ZoomAt(0, 10, 10, ws))
	assert.Equal(t, float32(2), vw.Zoom, "value receiver")
}

func TestView2DMoveBy(t *testing.T) {
	vw := render.View2D{PanX: 100, PanY: 50, Zoom: 2}
	mv := vw.MoveBy(20, -10)
	assert.Equal(t, render.View2D{PanX: 90, PanY: 55, Zoom: 2}, mv)
}
