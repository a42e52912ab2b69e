// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/vdraw"
)

func TestSceneBounce(t *testing.T) {
	sc := NewScene(image.Pt(200, 100))
	assert.Len(t, sc.Balls, 8)
	for i := 0; i < 500; i++ {
		sc.Update(0.05, sc.Size)
		for _, b := range sc.Balls {
			assert.GreaterOrEqual(t, b.X, b.Radius)
			assert.LessOrEqual(t, b.X, 200-b.Radius)
			assert.GreaterOrEqual(t, b.Y, b.Radius)
			assert.LessOrEqual(t, b.Y, 100-b.Radius)
		}
	}
}

func TestSceneSpawnLimit(t *testing.T) {
	sc := NewScene(image.Pt(100, 100))
	for i := 0; i < MaxBalls+10; i++ {
		sc.Spawn(image.Pt(50, 50))
	}
	assert.Len(t, sc.Balls, MaxBalls)
	assert.Len(t, sc.Vel, MaxBalls)
}

func TestSceneDraw(t *testing.T) {
	sc := NewScene(image.Pt(100, 100))
	ly := vdraw.NewLayer()
	sc.Draw(ly, homeView(sc.Size), render.WindowSize{Width: 100, Height: 100})
	acs := ly.Actions()
	require.Len(t, acs, 2)
	assert.Equal(t, vdraw.TrianglesAction, acs[0].Kind)
	require.Len(t, acs[1].Lines, len(sc.Balls))
	// the home view maps world to pixels one to one
	b := sc.Balls[0]
	assert.Equal(t, []vdraw.Vertex{{X: 50, Y: 50}, {X: b.X, Y: b.Y}}, acs[1].Lines[0].Points)
	assert.False(t, ly.Flushed())
	ly.Discard()
}

func TestSceneEntities(t *testing.T) {
	sc := NewScene(image.Pt(100, 100))
	ents := sc.Entities()
	require.Len(t, ents, len(sc.Balls))
	assert.Equal(t, sc.Balls[3].X, ents[3].X)
	assert.Equal(t, 2*sc.Balls[3].Radius, ents[3].Size)
	assert.Equal(t, float32(1), ents[3].U1)
}

func TestHueColor(t *testing.T) {
	assert.Equal(t, vdraw.Color{1, 0, 0, 1}, hueColor(0))
	c := hueColor(0.5)
	assert.Equal(t, float32(0), c[0])
	assert.Equal(t, float32(1), c[1])
}
