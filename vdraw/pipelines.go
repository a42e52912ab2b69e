// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"goki.dev/vk2d/grr"
	"goki.dev/vk2d/render"
)

// Options configures [NewPipelines].
type Options struct {

	// Sampler mode of the textured, entities and terrain pipelines.
	Sampler render.SamplerModes

	// Strict is the handle mismatch policy of all textured pipelines.
	// See [Textured.Strict].
	Strict bool
}

// DefaultOptions returns the default options: clamped sampling,
// and strict handle checks in debug builds.
func DefaultOptions() *Options {
	return &Options{Sampler: render.ClampToEdge, Strict: grr.Debug}
}

// Pipelines holds the full family of draw pipelines.
type Pipelines struct {
	Lines     *Lines
	Triangles *Triangles
	Textured  *Textured
	Glow      *Glow
	Entities  *Entities
	Terrain   *Terrain
}

// NewPipelines builds all pipelines. The registry must hold
// [render.WindowSize] and [render.View2D]; nil opts uses [DefaultOptions].
func NewPipelines(dev render.Device, reg *render.Registry, opts *Options) (*Pipelines, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	ps := &Pipelines{}
	var err error
	defer func() {
		if err != nil {
			ps.Destroy()
		}
	}()
	if ps.Lines, err = NewLines(dev, reg); err != nil {
		return nil, grr.Errorf("vdraw: lines pipeline: %w", err)
	}
	if ps.Triangles, err = NewTriangles(dev, reg); err != nil {
		return nil, grr.Errorf("vdraw: triangles pipeline: %w", err)
	}
	if ps.Textured, err = NewTextured(dev, reg, opts.Sampler); err != nil {
		return nil, grr.Errorf("vdraw: textured pipeline: %w", err)
	}
	ps.Textured.Strict = opts.Strict
	if ps.Glow, err = NewGlow(dev, reg); err != nil {
		return nil, grr.Errorf("vdraw: glow pipeline: %w", err)
	}
	if ps.Entities, err = NewEntities(dev, reg, opts.Sampler); err != nil {
		return nil, grr.Errorf("vdraw: entities pipeline: %w", err)
	}
	ps.Entities.Strict = opts.Strict
	if ps.Terrain, err = NewTerrain(dev, reg, opts.Sampler); err != nil {
		return nil, grr.Errorf("vdraw: terrain pipeline: %w", err)
	}
	ps.Terrain.Strict = opts.Strict
	return ps, nil
}

// Destroy releases the resources of all built pipelines.
func (ps *Pipelines) Destroy() {
	if ps.Lines != nil {
		ps.Lines.Destroy()
	}
	if ps.Triangles != nil {
		ps.Triangles.Destroy()
	}
	if ps.Textured != nil {
		ps.Textured.Destroy()
	}
	if ps.Glow != nil {
		ps.Glow.Destroy()
	}
	if ps.Entities != nil {
		ps.Entities.Destroy()
	}
	if ps.Terrain != nil {
		ps.Terrain.Destroy()
	}
}
