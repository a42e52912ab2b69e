// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
)

func TestLayerCoalescing(t *testing.T) {
	ly := NewLayer()
	ly.DrawLine(0, 0, 1, 1)
	ly.DrawLine(1, 1, 2, 2)
	ly.DrawLine(2, 2, 3, 3)
	ly.FillRect(0, 0, 10, 10)
	ly.DrawLine(3, 3, 4, 4)

	acs := ly.Actions()
	require.Len(t, acs, 3)
	assert.Equal(t, LinesAction, acs[0].Kind)
	assert.Len(t, acs[0].Lines, 3)
	assert.Equal(t, TrianglesAction, acs[1].Kind)
	assert.Len(t, acs[1].Triangles, 1)
	assert.Equal(t, LinesAction, acs[2].Kind)
	assert.Equal(t, 1, acs[2].Len())
}

func TestLayerShapes(t *testing.T) {
	ly := NewLayer()
	blue := Color{0, 0, 1, 1}
	ly.SetDrawColor(blue)
	ly.DrawRect(10, 20, 30, 40)
	ly.FillRect(0, 0, 2, 3)

	rect := ly.Actions()[0].Lines[0]
	assert.Equal(t, blue, rect.Color)
	assert.Equal(t, []Vertex{{10, 20}, {40, 20}, {40, 60}, {10, 60}, {10, 20}}, rect.Points)

	fill := ly.Actions()[1].Triangles[0]
	assert.Equal(t, []Vertex{{0, 0}, {2, 0}, {2, 3}, {2, 3}, {0, 3}, {0, 0}}, fill.Vertices)

	ly.SetDrawColor(White)
	ly.DrawCircle(0, 0, 1, 8)
	circ := ly.Actions()[2].Lines[0]
	assert.Len(t, circ.Points, 9)
	assert.Equal(t, circ.Points[0], circ.Points[8])
	assert.InDelta(t, 1, circ.Points[0].X, 1e-6)

	ly.FillCircle(0, 0, 1, 6)
	assert.Len(t, ly.Actions()[3].Triangles[0].Vertices, 18)
}

func TestLayerStrokePath(t *testing.T) {
	ly := NewLayer()
	red := Color{1, 0, 0, 1}
	ly.SetDrawColor(red)
	ly.StrokePath([]Vertex{{0, 0}, {10, 0}, {10, 10}}, 4)
	ly.StrokePath([]Vertex{{0, 0}}, 4)

	acs := ly.Actions()
	require.Len(t, acs, 1)
	assert.Equal(t, TrianglesAction, acs[0].Kind)
	require.Len(t, acs[0].Triangles, 1)
	assert.Equal(t, red, acs[0].Triangles[0].Color)
	assert.Len(t, acs[0].Triangles[0].Vertices, 15)
}

func TestLayerTexturedRect(t *testing.T) {
	ps, _, _ := newTestPipelines(t, true)
	tx := newTexture(t, ps.Textured.Textures)

	ly := NewLayer()
	ly.DrawTexturedRect(tx, 5, 5, 10, 20)
	assert.Equal(t, 2, tx.Refs())
	b := ly.Actions()[0].Textured[0]
	var uvs [][2]float32
	for _, v := range b.Vertices {
		uvs = append(uvs, [2]float32{v.U, v.V})
	}
	assert.Equal(t, [][2]float32{{0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 1}, {0, 0}}, uvs)
	assert.Equal(t, TexVertex{15, 25, 1, 1}, b.Vertices[2])

	rec := &rendertest.Recorder{}
	require.NoError(t, ly.Flush(rec, ps))
	assert.Equal(t, 1, tx.Refs())
	assert.Len(t, rec.CallsOf(rendertest.OpDraw), 1)
}

func TestLayerFlush(t *testing.T) {
	ps, _, _ := newTestPipelines(t, true)
	ly := NewLayer()
	ly.DrawLine(0, 0, 1, 1)
	ly.FillRect(0, 0, 1, 1)

	rec := &rendertest.Recorder{}
	require.NoError(t, ly.Flush(rec, ps))
	binds := rec.CallsOf(rendertest.OpBindPipeline)
	require.Len(t, binds, 2)
	assert.Equal(t, "lines", binds[0].Pipeline)
	assert.Equal(t, "triangles", binds[1].Pipeline)
	assert.True(t, ly.Flushed())
	assert.Equal(t, 0, ly.Len())

	assert.ErrorIs(t, ly.Flush(rec, ps), ErrFlushed)
}

func TestLayerFlushContinuesOnError(t *testing.T) {
	ps, dev, reg := newTestPipelines(t, true)
	other, err := render.NewTextureManager(dev, reg, TexturedLayout(), render.Repeat)
	require.NoError(t, err)
	bad := newTexture(t, other)

	ly := NewLayer()
	ly.DrawTexturedRect(bad, 0, 0, 1, 1)
	ly.DrawLine(0, 0, 1, 1)

	rec := &rendertest.Recorder{}
	require.NoError(t, ly.Flush(rec, ps))
	binds := rec.CallsOf(rendertest.OpBindPipeline)
	require.Len(t, binds, 1)
	assert.Equal(t, "lines", binds[0].Pipeline)
	assert.Equal(t, 1, bad.Refs())
}

func TestLayerIgnoresDegenerate(t *testing.T) {
	ly := NewLayer()
	ly.DrawPath([]Vertex{{0, 0}})
	ly.FillTriangles([]Vertex{{0, 0}, {1, 1}})
	ly.DrawTexturedTriangles(nil, nil)
	assert.Equal(t, 0, ly.Len())
}

func TestLayerIgnoresDrawsAfterFlush(t *testing.T) {
	ps, _, _ := newTestPipelines(t, true)
	tx := newTexture(t, ps.Textured.Textures)

	ly := NewLayer()
	rec := &rendertest.Recorder{}
	require.NoError(t, ly.Flush(rec, ps))

	ly.DrawTexturedRect(tx, 0, 0, 4, 4)
	ly.DrawLine(0, 0, 1, 1)
	ly.FillRect(0, 0, 1, 1)
	assert.Equal(t, 0, ly.Len())
	assert.Equal(t, 1, tx.Refs(), "no reference is taken after flush")
	assert.ErrorIs(t, ly.Flush(rec, ps), ErrFlushed)
}
