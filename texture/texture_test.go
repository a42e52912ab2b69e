// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texture

import (
	"bytes"
	"image"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/imagex"
	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
	"goki.dev/vk2d/vdraw"
)

func newPipelines(t *testing.T) (*vdraw.Pipelines, *rendertest.Device) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	require.NoError(t, reg.Insert(render.WindowSize{Width: 800, Height: 600}))
	require.NoError(t, reg.Insert(render.DefaultView2D()))
	ps, err := vdraw.NewPipelines(dev, reg, nil)
	require.NoError(t, err)
	return ps, dev
}

func TestAssetTextures(t *testing.T) {
	ps, dev := newPipelines(t)
	as, err := Load(dev, "sheet", image.NewRGBA(image.Rect(0, 0, 64, 32)))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 32), as.Size())

	tx, err := as.Texture(ps.Textured.Textures)
	require.NoError(t, err)
	assert.True(t, ps.Textured.Textures.IsOriginOf(tx))
	again, err := as.Texture(ps.Textured.Textures)
	require.NoError(t, err)
	assert.Same(t, tx, again, "one texture per manager")

	layout := render.NewSetLayout(render.TextureBinding(render.TextureSlot))
	other, err := render.NewTextureManager(dev, render.NewRegistry(dev), layout, render.Repeat)
	require.NoError(t, err)
	tx2, err := as.Texture(other)
	require.NoError(t, err)
	assert.NotEqual(t, tx.Origin(), tx2.Origin())
	assert.Same(t, tx.Image(), tx2.Image())

	img := dev.Images[0]
	as.Destroy()
	assert.True(t, img.Destroyed)
	assert.Equal(t, 0, tx.Refs())
	assert.Equal(t, 0, tx2.Refs())
}

func TestLoadFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imagex.Write(image.NewRGBA(image.Rect(0, 0, 40, 20)), &buf, imagex.PNG))
	fsys := fstest.MapFS{"ball.png": &fstest.MapFile{Data: buf.Bytes()}}

	dev := rendertest.NewDevice()
	as, err := LoadFile(dev, fsys, "ball.png", 10)
	require.NoError(t, err)
	assert.Equal(t, "ball.png", as.Name)
	assert.Equal(t, image.Pt(10, 5), as.Size())

	_, err = LoadFile(dev, fsys, "missing.png", 0)
	assert.Error(t, err)
}

func TestViews(t *testing.T) {
	dev := rendertest.NewDevice()
	as, err := Load(dev, "sheet", image.NewRGBA(image.Rect(0, 0, 64, 32)))
	require.NoError(t, err)

	full := as.View()
	assert.Equal(t, float32(64), full.Width())
	assert.Equal(t, float32(32), full.Height())

	half := full.Sub([2]float32{0.5, 0}, [2]float32{1, 0.5})
	assert.Equal(t, [2]float32{0.5, 0}, half.UV0)
	assert.Equal(t, [2]float32{1, 0.5}, half.UV1)
	assert.Equal(t, float32(32), half.Width())
	assert.Equal(t, float32(16), half.Height())

	quarter := half.Sub([2]float32{0.5, 0.5}, [2]float32{1, 1})
	assert.Equal(t, [2]float32{0.75, 0.25}, quarter.UV0)
	assert.Equal(t, [2]float32{1, 0.5}, quarter.UV1)

	cell := full.Cell(1, 0, 4, 2)
	assert.Equal(t, [2]float32{0.25, 0}, cell.UV0)
	assert.Equal(t, [2]float32{0.5, 0.5}, cell.UV1)
	assert.Equal(t, float32(16), cell.Width())
}

func TestViewDraw(t *testing.T) {
	ps, dev := newPipelines(t)
	as, err := Load(dev, "sheet", image.NewRGBA(image.Rect(0, 0, 64, 32)))
	require.NoError(t, err)

	ly := vdraw.NewLayer()
	v := as.View().Cell(1, 1, 2, 2)
	require.NoError(t, v.Draw(ly, ps, 10, 10, 32, 16))
	acts := ly.Actions()
	require.Len(t, acts, 1)
	require.Len(t, acts[0].Textured, 1)
	vs := acts[0].Textured[0].Vertices
	assert.Equal(t, vdraw.TexVertex{X: 10, Y: 10, U: 0.5, V: 0.5}, vs[0])
	assert.Equal(t, vdraw.TexVertex{X: 42, Y: 26, U: 1, V: 1}, vs[2])
	ly.Discard()
}

func TestRegistry(t *testing.T) {
	type spriteKey string
	type tileKey int
	dev := rendertest.NewDevice()
	as, err := Load(dev, "sheet", image.NewRGBA(image.Rect(0, 0, 8, 8)))
	require.NoError(t, err)

	rg := NewRegistry()
	rg.Register(spriteKey("ball"), as.View())
	rg.Register(tileKey(3), as.View().Cell(1, 0, 2, 1))
	rg.Register("ball", as.View().Cell(0, 0, 2, 1))
	assert.Equal(t, 3, rg.Len())

	v, ok := rg.Get(spriteKey("ball"))
	require.True(t, ok)
	assert.Equal(t, [2]float32{1, 1}, v.UV1)
	v, ok = rg.Get("ball")
	require.True(t, ok)
	assert.Equal(t, [2]float32{0.5, 1}, v.UV1, "same value, different key type")
	_, ok = rg.Get(tileKey(4))
	assert.False(t, ok)

	rg.Remove(tileKey(3))
	assert.Equal(t, 2, rg.Len())
}
