// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/chewxy/math32"

	"goki.dev/vk2d/render"
)

// ErrFlushed is returned by [Layer.Flush] on a layer already flushed.
var ErrFlushed = errors.New("vdraw: layer already flushed")

// ActionKinds are the kinds of recorded [Action]s.
type ActionKinds int32

const (
	LinesAction ActionKinds = iota
	TrianglesAction
	TexturedAction
)

func (ak ActionKinds) String() string {
	switch ak {
	case LinesAction:
		return "Lines"
	case TrianglesAction:
		return "Triangles"
	case TexturedAction:
		return "Textured"
	}
	return fmt.Sprintf("ActionKinds(%d)", int32(ak))
}

// Action is a run of consecutive draw calls of one kind.
// Only the batch list matching Kind is set.
type Action struct {
	Kind      ActionKinds
	Lines     []LineBatch
	Triangles []TriangleBatch
	Textured  []TexturedBatch
}

// Len returns the number of batches in the action.
func (ac *Action) Len() int {
	switch ac.Kind {
	case LinesAction:
		return len(ac.Lines)
	case TrianglesAction:
		return len(ac.Triangles)
	default:
		return len(ac.Textured)
	}
}

// Layer records draw calls for one frame in call order and replays
// them through [Pipelines] with [Layer.Flush]. Consecutive calls of the
// same kind are merged into a single action, so that they are drawn
// with one pipeline bind. A Layer is flushed at most once, and draw
// calls after that are ignored.
//
// Textures passed to a Layer are referenced until the layer is flushed
// or discarded.
type Layer struct {
	color   Color
	actions []Action
	flushed bool
}

// NewLayer returns a new empty layer drawing in [White].
func NewLayer() *Layer {
	return &Layer{color: White}
}

// SetDrawColor sets the color of subsequent line and fill calls.
func (ly *Layer) SetDrawColor(c Color) {
	ly.color = c
}

// DrawColor returns the current draw color.
func (ly *Layer) DrawColor() Color {
	return ly.color
}

// Actions returns the recorded actions, which must not be modified.
func (ly *Layer) Actions() []Action {
	return ly.actions
}

// Len returns the number of recorded actions.
func (ly *Layer) Len() int {
	return len(ly.actions)
}

// last returns the last action if it is of the given kind,
// or appends a new one.
func (ly *Layer) last(kind ActionKinds) *Action {
	if n := len(ly.actions); n > 0 && ly.actions[n-1].Kind == kind {
		return &ly.actions[n-1]
	}
	ly.actions = append(ly.actions, Action{Kind: kind})
	return &ly.actions[len(ly.actions)-1]
}

// DrawLine draws a line segment.
func (ly *Layer) DrawLine(x1, y1, x2, y2 float32) {
	ly.DrawPath([]Vertex{{x1, y1}, {x2, y2}})
}

// DrawPath draws a line strip through the given points.
func (ly *Layer) DrawPath(points []Vertex) {
	if len(points) < 2 || ly.closed() {
		return
	}
	ac := ly.last(LinesAction)
	ac.Lines = append(ac.Lines, LineBatch{Color: ly.color, Points: slices.Clone(points)})
}

// DrawRect draws the outline of a rectangle as a closed path.
func (ly *Layer) DrawRect(x, y, w, h float32) {
	ly.DrawPath([]Vertex{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}, {x, y}})
}

// DrawCircle draws the outline of a circle with the given number of segments.
func (ly *Layer) DrawCircle(cx, cy, r float32, segments int) {
	ly.DrawPath(circlePoints(cx, cy, r, segments, true))
}

// StrokePath draws a line strip through the given points with the
// given width in pixels, as filled triangles. See [StrokeTriangles].
func (ly *Layer) StrokePath(points []Vertex, width float32) {
	ly.FillTriangles(StrokeTriangles(points, width))
}

// FillTriangles fills the given triangle list.
func (ly *Layer) FillTriangles(vertices []Vertex) {
	if len(vertices) < 3 || ly.closed() {
		return
	}
	ac := ly.last(TrianglesAction)
	ac.Triangles = append(ac.Triangles, TriangleBatch{Color: ly.color, Vertices: slices.Clone(vertices)})
}

// FillRect fills a rectangle.
func (ly *Layer) FillRect(x, y, w, h float32) {
	ly.FillTriangles([]Vertex{{x, y}, {x + w, y}, {x + w, y + h}, {x + w, y + h}, {x, y + h}, {x, y}})
}

// FillCircle fills a circle with the given number of segments.
func (ly *Layer) FillCircle(cx, cy, r float32, segments int) {
	pts := circlePoints(cx, cy, r, segments, false)
	tris := make([]Vertex, 0, 3*len(pts))
	for i := range pts {
		tris = append(tris, Vertex{cx, cy}, pts[i], pts[(i+1)%len(pts)])
	}
	ly.FillTriangles(tris)
}

// DrawTexturedRect draws the whole texture stretched over a rectangle.
func (ly *Layer) DrawTexturedRect(tx *render.Texture, x, y, w, h float32) {
	ly.DrawTexturedRectUV(tx, x, y, w, h, 0, 0, 1, 1)
}

// DrawTexturedRectUV draws the texture region from (u0, v0) to (u1, v1)
// stretched over a rectangle.
func (ly *Layer) DrawTexturedRectUV(tx *render.Texture, x, y, w, h, u0, v0, u1, v1 float32) {
	ly.DrawTexturedTriangles(tx, []TexVertex{
		{x, y, u0, v0},
		{x + w, y, u1, v0},
		{x + w, y + h, u1, v1},
		{x + w, y + h, u1, v1},
		{x, y + h, u0, v1},
		{x, y, u0, v0},
	})
}

// DrawTexturedTriangles draws the given textured triangle list.
func (ly *Layer) DrawTexturedTriangles(tx *render.Texture, vertices []TexVertex) {
	if tx == nil || len(vertices) < 3 || ly.closed() {
		return
	}
	ac := ly.last(TexturedAction)
	ac.Textured = append(ac.Textured, TexturedBatch{Texture: tx.Ref(), Vertices: slices.Clone(vertices)})
}

// Flush records all actions in order through the given pipelines.
// Errors drawing an action are logged and the action is skipped.
// Flushing again returns [ErrFlushed].
func (ly *Layer) Flush(cmd render.Recorder, ps *Pipelines) error {
	if ly.flushed {
		return ErrFlushed
	}
	ly.flushed = true
	for i := range ly.actions {
		ac := &ly.actions[i]
		var err error
		switch ac.Kind {
		case LinesAction:
			err = ps.Lines.Draw(cmd, ac.Lines)
		case TrianglesAction:
			err = ps.Triangles.Draw(cmd, ac.Triangles)
		case TexturedAction:
			err = ps.Textured.Draw(cmd, ac.Textured)
		}
		if err != nil {
			slog.Error("vdraw: draw failed", "action", i, "kind", ac.Kind, "batches", ac.Len(), "err", err)
		}
	}
	ly.Discard()
	return nil
}

// Discard drops all recorded actions without drawing them,
// releasing the textures they referenced.
func (ly *Layer) Discard() {
	for _, ac := range ly.actions {
		for _, b := range ac.Textured {
			b.Texture.Release()
		}
	}
	ly.actions = nil
}

// closed reports whether the layer no longer accepts draw calls.
func (ly *Layer) closed() bool {
	if ly.flushed {
		slog.Warn("vdraw: draw call on a flushed layer is ignored")
	}
	return ly.flushed
}

// Flushed returns whether the layer has been flushed.
func (ly *Layer) Flushed() bool {
	return ly.flushed
}

// circlePoints returns points on a circle, repeating the first
// point at the end when closed.
func circlePoints(cx, cy, r float32, segments int, closed bool) []Vertex {
	segments = max(segments, 3)
	pts := make([]Vertex, 0, segments+1)
	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		pts = append(pts, Vertex{cx + r*math32.Cos(a), cy + r*math32.Sin(a)})
	}
	if closed {
		pts = append(pts, pts[0])
	}
	return pts
}
