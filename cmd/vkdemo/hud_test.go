// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/events"
	"goki.dev/vk2d/overlay"
	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
	"goki.dev/vk2d/vdraw"
)

func newTestPipelines(t *testing.T) *vdraw.Pipelines {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	require.NoError(t, reg.Insert(render.WindowSize{Width: 640, Height: 480}))
	require.NoError(t, reg.Insert(homeView(image.Pt(640, 480))))
	ps, err := vdraw.NewPipelines(dev, reg, nil)
	require.NoError(t, err)
	return ps
}

func toggle() []events.Event {
	return []events.Event{events.NewKey(events.KeyDown, 72, 35, "h", 0)}
}

func TestHUDToggle(t *testing.T) {
	h, err := NewHUD(nil, 14)
	require.NoError(t, err)
	defer h.Close()
	size := image.Pt(640, 480)
	build := func() {
		h.Label("first line")
		h.Label("second")
	}

	out := h.Update(size, nil, build)
	assert.Empty(t, out.Textures)
	assert.Empty(t, out.Meshes)

	out = h.Update(size, toggle(), build)
	require.Len(t, out.Textures, 1)
	require.Len(t, out.Meshes, 1)
	img := out.Textures[0].Image
	assert.Equal(t, hudTexture, out.Textures[0].ID)
	assert.Greater(t, img.Rect.Dy(), 2*14)
	m := out.Meshes[0]
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, m.Indices)
	assert.Equal(t, float32(640-img.Rect.Dx()-8), m.Vertices[0].X)
	assert.Equal(t, float32(480-8), m.Vertices[2].Y)

	out = h.Update(size, nil, build)
	assert.Empty(t, out.Textures, "unchanged text is not uploaded again")
	assert.Len(t, out.Meshes, 1)

	h.Invalidate()
	out = h.Update(size, nil, build)
	assert.Len(t, out.Textures, 1)

	out = h.Update(size, toggle(), build)
	assert.Empty(t, out.Meshes)
	assert.Equal(t, []overlay.TextureID{hudTexture}, out.Frees)
	out = h.Update(size, nil, build)
	assert.Empty(t, out.Frees)
}

func TestHUDOverlay(t *testing.T) {
	ps := newTestPipelines(t)
	rn := overlay.NewRenderer(ps.Textured)
	defer rn.Destroy()
	h, err := NewHUD(nil, 12)
	require.NoError(t, err)
	defer h.Close()

	out := h.Update(image.Pt(640, 480), toggle(), func() { h.Label("zoom 1.00") })
	require.NoError(t, rn.Prepare(&out))
	_, ok := rn.Texture(hudTexture)
	assert.True(t, ok)

	rec := &rendertest.Recorder{}
	require.NoError(t, rn.Draw(rec, &out))
	draws := rec.CallsOf(rendertest.OpDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(6), draws[0].Count)
}

func TestBlendStraight(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(dst.Pix, []uint8{0, 0, 0, 170, 0, 0, 0, 170})
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(src.Pix, []uint8{255, 255, 255, 255})
	blendStraight(dst, src, image.Pt(1, 0))
	assert.Equal(t, []uint8{0, 0, 0, 170, 255, 255, 255, 255}, dst.Pix)
}

func TestFloorBatches(t *testing.T) {
	ps := newTestPipelines(t)
	fl, err := NewFloor(ps.Terrain.Textures)
	require.NoError(t, err)
	defer fl.Destroy()

	bs := fl.Batches(image.Pt(100, 64))
	require.Len(t, bs, 2)
	assert.Len(t, bs[0].Tiles, 4)
	assert.Len(t, bs[1].Tiles, 4)
	assert.Equal(t, vdraw.Tile{X: 16, Y: 16, Shading: bs[0].Tiles[0].Shading}, bs[0].Tiles[0])
	for _, b := range bs {
		for _, tl := range b.Tiles {
			assert.LessOrEqual(t, tl.Shading, float32(0.6))
		}
	}

	rec := &rendertest.Recorder{}
	require.NoError(t, ps.Terrain.Draw(rec, bs))
	assert.Len(t, rec.CallsOf(rendertest.OpDrawIndexed), 2)
}
