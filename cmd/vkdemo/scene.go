// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"math/rand"

	"github.com/chewxy/math32"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/vdraw"
)

// MaxBalls bounds the number of balls in the scene.
const MaxBalls = 256

// Scene is a box of glowing balls bouncing off its walls.
type Scene struct {
	Size  image.Point
	Balls []vdraw.GlowBall
	Vel   [][2]float32

	rnd *rand.Rand
}

// NewScene returns a scene of the given size with a few balls.
func NewScene(size image.Point) *Scene {
	sc := &Scene{Size: size, rnd: rand.New(rand.NewSource(1))}
	for i := 0; i < 8; i++ {
		sc.Spawn(image.Pt(sc.rnd.Intn(max(size.X, 1)), sc.rnd.Intn(max(size.Y, 1))))
	}
	return sc
}

// Spawn adds a ball at pt, dropping the oldest past [MaxBalls].
func (sc *Scene) Spawn(pt image.Point) {
	hue := sc.rnd.Float32()
	b := vdraw.GlowBall{
		X:         float32(pt.X),
		Y:         float32(pt.Y),
		Color:     hueColor(hue),
		Radius:    6 + 10*sc.rnd.Float32(),
		Corona:    20 + 20*sc.rnd.Float32(),
		LateAlpha: 0.05,
	}
	ang := 2 * math32.Pi * sc.rnd.Float32()
	speed := 60 + 120*sc.rnd.Float32()
	sc.Balls = append(sc.Balls, b)
	sc.Vel = append(sc.Vel, [2]float32{speed * math32.Cos(ang), speed * math32.Sin(ang)})
	if n := len(sc.Balls); n > MaxBalls {
		sc.Balls = sc.Balls[n-MaxBalls:]
		sc.Vel = sc.Vel[n-MaxBalls:]
	}
}

// Resize clamps all balls into the new size.
func (sc *Scene) Resize(size image.Point) {
	sc.Size = size
	sc.Update(0, size)
}

// Update moves the balls by dt seconds, reflecting them off the walls.
func (sc *Scene) Update(dt float32, size image.Point) {
	sc.Size = size
	w, h := float32(size.X), float32(size.Y)
	for i := range sc.Balls {
		b := &sc.Balls[i]
		v := &sc.Vel[i]
		b.X += v[0] * dt
		b.Y += v[1] * dt
		if b.X < b.Radius {
			b.X = b.Radius
			v[0] = math32.Abs(v[0])
		} else if b.X > w-b.Radius {
			b.X = math32.Max(w-b.Radius, b.Radius)
			v[0] = -math32.Abs(v[0])
		}
		if b.Y < b.Radius {
			b.Y = b.Radius
			v[1] = math32.Abs(v[1])
		} else if b.Y > h-b.Radius {
			b.Y = math32.Max(h-b.Radius, b.Radius)
			v[1] = -math32.Abs(v[1])
		}
	}
}

// Draw records the outline of the box and a trail from its center to
// each ball, mapping world positions to pixels through vw.
func (sc *Scene) Draw(ly *vdraw.Layer, vw render.View2D, ws render.WindowSize) {
	w, h := float32(sc.Size.X), float32(sc.Size.Y)
	pt := func(x, y float32) vdraw.Vertex {
		sx, sy := vw.WorldToScreen(x, y, ws)
		return vdraw.Vertex{X: sx, Y: sy}
	}
	ly.SetDrawColor(vdraw.Color{0.4, 0.4, 0.6, 1})
	ly.StrokePath([]vdraw.Vertex{pt(4, 4), pt(w-4, 4), pt(w-4, h-4), pt(4, h-4), pt(4, 4)}, 2*vw.Zoom)
	c := pt(w/2, h/2)
	ly.FillCircle(c.X, c.Y, 12*vw.Zoom, 24)
	ly.SetDrawColor(vdraw.Color{0.25, 0.25, 0.35, 1})
	for _, b := range sc.Balls {
		p := pt(b.X, b.Y)
		ly.DrawLine(c.X, c.Y, p.X, p.Y)
	}
}

// Entities returns a sprite over the core of each ball, showing the
// whole texture.
func (sc *Scene) Entities() []vdraw.Entity {
	ents := make([]vdraw.Entity, len(sc.Balls))
	for i, b := range sc.Balls {
		ents[i] = vdraw.Entity{X: b.X, Y: b.Y, U1: 1, V1: 1, Size: 2 * b.Radius}
	}
	return ents
}

// hueColor is a fully saturated color of the given hue in [0, 1).
func hueColor(hue float32) vdraw.Color {
	h := hue * 6
	x := 1 - math32.Abs(math32.Mod(h, 2)-1)
	switch int(h) % 6 {
	case 0:
		return vdraw.Color{1, x, 0, 1}
	case 1:
		return vdraw.Color{x, 1, 0, 1}
	case 2:
		return vdraw.Color{0, 1, x, 1}
	case 3:
		return vdraw.Color{0, x, 1, 1}
	case 4:
		return vdraw.Color{x, 0, 1, 1}
	}
	return vdraw.Color{1, 0, x, 1}
}
