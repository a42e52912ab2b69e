// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/events"
	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
	"goki.dev/vk2d/vdraw"
)

// fakeUI returns a font atlas on the first update and one
// window mesh per update.
type fakeUI struct {
	updates int
	built   int
}

func (ui *fakeUI) Update(size image.Point, evs []events.Event, build func()) Output {
	ui.updates++
	build()
	var out Output
	if ui.updates == 1 {
		out.Textures = []TextureDelta{{ID: 0, Image: solid(8, 8, color.RGBA{255, 255, 255, 255})}}
	}
	out.Meshes = []Mesh{{Texture: 0, Vertices: quad(), Indices: []uint32{0, 1, 2, 2, 3, 0}}}
	return out
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func quad() []vdraw.TexVertex {
	return []vdraw.TexVertex{
		{X: 0, Y: 0, U: 0, V: 0},
		{X: 10, Y: 0, U: 1, V: 0},
		{X: 10, Y: 10, U: 1, V: 1},
		{X: 0, Y: 10, U: 0, V: 1},
	}
}

func newRenderer(t *testing.T) (*Renderer, *rendertest.Device) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	require.NoError(t, reg.Insert(render.WindowSize{Width: 800, Height: 600}))
	tx, err := vdraw.NewTextured(dev, reg, render.ClampToEdge)
	require.NoError(t, err)
	return NewRenderer(tx), dev
}

func TestRenderFrames(t *testing.T) {
	rn, dev := newRenderer(t)
	ui := &fakeUI{}
	for frame := 0; frame < 2; frame++ {
		out := ui.Update(image.Pt(800, 600), nil, func() { ui.built++ })
		rec := &rendertest.Recorder{}
		fc := &render.FrameContext{Phase: render.PreparePhase, Cmd: rec}
		require.NoError(t, rn.Render(fc, &out))
		fc.Phase = render.RenderPhase
		require.NoError(t, rn.Render(fc, &out))
		draws := rec.CallsOf(rendertest.OpDrawIndexed)
		require.Len(t, draws, 1)
		assert.Equal(t, uint32(6), draws[0].Count)
	}
	assert.Equal(t, 2, ui.built)
	assert.Equal(t, 1, rn.Len())
	assert.Len(t, dev.Images, 1, "texture uploaded once")
}

func TestPartialUpdate(t *testing.T) {
	rn, dev := newRenderer(t)
	require.NoError(t, rn.Prepare(&Output{Textures: []TextureDelta{{ID: 3, Image: solid(4, 4, color.RGBA{0, 0, 0, 255})}}}))
	old, ok := rn.Texture(3)
	require.True(t, ok)

	red := color.RGBA{255, 0, 0, 255}
	require.NoError(t, rn.Prepare(&Output{Textures: []TextureDelta{{ID: 3, Partial: true, Pos: image.Pt(2, 1), Image: solid(2, 2, red)}}}))
	assert.Equal(t, 0, old.Refs(), "replaced texture released")
	require.Len(t, dev.Images, 2)
	img := dev.Images[1].RGBA
	assert.Equal(t, red, img.RGBAAt(2, 1))
	assert.Equal(t, red, img.RGBAAt(3, 2))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(1, 1))

	err := rn.Prepare(&Output{Textures: []TextureDelta{{ID: 3, Partial: true, Pos: image.Pt(3, 3), Image: solid(2, 2, red)}}})
	assert.ErrorContains(t, err, "outside")
	err = rn.Prepare(&Output{Textures: []TextureDelta{{ID: 9, Partial: true, Image: solid(1, 1, red)}}})
	assert.ErrorContains(t, err, "unknown texture")
}

func TestFreeAfterDraw(t *testing.T) {
	rn, _ := newRenderer(t)
	require.NoError(t, rn.Prepare(&Output{Textures: []TextureDelta{
		{ID: 1, Image: solid(2, 2, color.RGBA{})},
		{ID: 2, Image: solid(2, 2, color.RGBA{})},
	}}))
	tex1, _ := rn.Texture(1)

	out := &Output{
		Frees:  []TextureID{1},
		Meshes: []Mesh{{Texture: 1, Vertices: quad(), Indices: []uint32{0, 1, 2}}, {Texture: 7, Vertices: quad(), Indices: []uint32{0, 1, 2}}},
	}
	require.NoError(t, rn.Prepare(out))
	assert.Equal(t, 2, rn.Len(), "frees wait for the draw")

	rec := &rendertest.Recorder{}
	require.NoError(t, rn.Draw(rec, out))
	assert.Len(t, rec.CallsOf(rendertest.OpDrawIndexed), 1, "unknown texture skipped")
	assert.Equal(t, 1, rn.Len())
	assert.Equal(t, 0, tex1.Refs())
	_, ok := rn.Texture(1)
	assert.False(t, ok)

	rn.Destroy()
	assert.Equal(t, 0, rn.Len())
}
