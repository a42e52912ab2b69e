// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdraw

import (
	"log/slog"

	"goki.dev/vk2d/render"
)

// Entity is one square sprite in world coordinates, centered at X, Y,
// showing the texture region from U0, V0 to U1, V1.
type Entity struct {
	X, Y   float32
	U0, V0 float32
	U1, V1 float32
	Size   float32
}

// EntityBatch is a set of entities sampling one texture.
type EntityBatch struct {
	Texture  *render.Texture
	Entities []Entity
}

// Tile is one terrain tile in world coordinates. Shading in [0, 1]
// darkens the tile.
type Tile struct {
	X, Y    float32
	Shading float32
}

// TerrainBatch is a grid of tiles of one size, all showing the
// same region of one texture.
type TerrainBatch struct {
	Texture *render.Texture

	// UV0 and UV1 are the corners of the tile region in the texture.
	UV0, UV1 [2]float32

	// TileSize is the world size of a tile.
	TileSize [2]float32

	Tiles []Tile
}

const (
	entityStride    = 28
	tileStride      = 12
	terrainPushSize = 24
)

var (
	entityBinding = render.VertexBinding{Stride: entityStride, PerInstance: true, Attrs: []render.VertexAttr{
		{Location: 1, Format: render.Float32x2},
		{Location: 2, Format: render.Float32x4, Offset: 8},
		{Location: 3, Format: render.Float32, Offset: 24},
	}}

	tileBinding = render.VertexBinding{Stride: tileStride, PerInstance: true, Attrs: []render.VertexAttr{
		{Location: 1, Format: render.Float32x2},
		{Location: 2, Format: render.Float32, Offset: 8},
	}}
)

// WorldLayout is the descriptor layout of the textured world pipelines,
// [Entities] and [Terrain].
func WorldLayout() render.SetLayout {
	return render.NewSetLayout(render.TextureBinding(render.TextureSlot),
		render.UniformBinding(render.WindowSizeSlot), render.UniformBinding(render.View2DSlot))
}

// sprites draws instances of a unit quad sampling textures from
// its own manager. It is shared by [Entities] and [Terrain].
type sprites struct {
	Pipeline render.Pipeline

	// Textures prepares textures for this pipeline.
	Textures *render.TextureManager

	// Strict is the handle mismatch policy, as in [Textured].
	Strict bool

	dev     render.Device
	quad    render.Buffer
	quadIdx render.Buffer
}

func newSprites(dev render.Device, reg *render.Registry, mode render.SamplerModes, cfg *render.PipelineConfig) (*sprites, error) {
	cfg.Layout = WorldLayout()
	tm, err := render.NewTextureManager(dev, reg, cfg.Layout, mode)
	if err != nil {
		return nil, err
	}
	sp := &sprites{Textures: tm, dev: dev}
	if sp.quad, err = render.NewVertexBuffer(dev, quadVertices); err != nil {
		sp.destroy()
		return nil, err
	}
	if sp.quadIdx, err = render.NewIndexBuffer(dev, quadIndices); err != nil {
		sp.destroy()
		return nil, err
	}
	cfg.Topology = render.TriangleList
	cfg.AlphaBlend = true
	if sp.Pipeline, err = dev.NewPipeline(cfg); err != nil {
		sp.destroy()
		return nil, err
	}
	return sp, nil
}

func (sp *sprites) check(texs []*render.Texture) error {
	if !sp.Strict {
		return nil
	}
	for _, t := range texs {
		if err := sp.Textures.Check(t); err != nil {
			return err
		}
	}
	return nil
}

// draw records one instanced draw per batch of counts, all instances
// coming from the single instance buffer ib.
func (sp *sprites) draw(cmd render.Recorder, ib render.Buffer, texs []*render.Texture, counts []int, push func(batch int) []byte) {
	cmd.BindPipeline(sp.Pipeline)
	cmd.BindVertexBuffers(0, sp.quad, ib)
	cmd.BindIndexBuffer(sp.quadIdx)
	first := uint32(0)
	for i, t := range texs {
		n := uint32(counts[i])
		if !sp.Textures.IsOriginOf(t) {
			slog.Warn("vdraw: skipping sprite batch with foreign texture", "pipeline", sp.Pipeline.Name(), "batch", i, "err", sp.Textures.Check(t))
			first += n
			continue
		}
		cmd.BindDescriptorSet(sp.Pipeline, t.Set())
		if push != nil {
			cmd.PushConstants(sp.Pipeline, 0, push(i))
		}
		cmd.DrawIndexed(uint32(len(quadIndices)), n, 0, 0, first)
		first += n
	}
}

func (sp *sprites) destroy() {
	if sp.Textures != nil {
		sp.Textures.Destroy()
	}
	destroy(sp.quad)
	destroy(sp.quadIdx)
}

// Entities draws square world sprites, each with its own position,
// size and texture region, as instances of a unit quad.
type Entities struct {
	*sprites
}

// NewEntities builds the entities pipeline with its own texture manager.
// The registry must hold [render.WindowSize] and [render.View2D].
func NewEntities(dev render.Device, reg *render.Registry, mode render.SamplerModes) (*Entities, error) {
	sp, err := newSprites(dev, reg, mode, &render.PipelineConfig{
		Name:   "entities",
		Shader: "entities",
		Vertex: []render.VertexBinding{vertexBinding, entityBinding},
	})
	if err != nil {
		return nil, err
	}
	return &Entities{sp}, nil
}

// Draw records one instanced draw per non-empty batch, with all
// entities in one instance buffer.
func (en *Entities) Draw(cmd render.Recorder, batches []EntityBatch) error {
	var all []Entity
	var texs []*render.Texture
	var counts []int
	for _, b := range batches {
		if len(b.Entities) == 0 {
			continue
		}
		all = append(all, b.Entities...)
		texs = append(texs, b.Texture)
		counts = append(counts, len(b.Entities))
	}
	if err := en.check(texs); err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	ib, err := render.NewVertexBuffer(en.dev, all)
	if err != nil {
		return err
	}
	en.draw(cmd, ib, texs, counts, nil)
	return nil
}

// Destroy releases the texture manager and quad buffers.
func (en *Entities) Destroy() {
	en.destroy()
}

// Terrain draws grids of world tiles sharing a size and texture
// region, with per-tile shading.
type Terrain struct {
	*sprites
}

// NewTerrain builds the terrain pipeline with its own texture manager.
// The registry must hold [render.WindowSize] and [render.View2D].
func NewTerrain(dev render.Device, reg *render.Registry, mode render.SamplerModes) (*Terrain, error) {
	sp, err := newSprites(dev, reg, mode, &render.PipelineConfig{
		Name:     "terrain",
		Shader:   "terrain",
		Vertex:   []render.VertexBinding{vertexBinding, tileBinding},
		PushSize: terrainPushSize,
	})
	if err != nil {
		return nil, err
	}
	return &Terrain{sp}, nil
}

// terrainPush is the push constant block of a terrain batch:
// the tile region, then the tile size.
func terrainPush(b *TerrainBatch) []byte {
	return render.AsBytes([]float32{b.UV0[0], b.UV0[1], b.UV1[0], b.UV1[1], b.TileSize[0], b.TileSize[1]})
}

// Draw records one instanced draw per non-empty batch, pushing the
// tile region and size of each.
func (tr *Terrain) Draw(cmd render.Recorder, batches []TerrainBatch) error {
	var all []Tile
	var texs []*render.Texture
	var counts []int
	var live []int
	for i, b := range batches {
		if len(b.Tiles) == 0 {
			continue
		}
		all = append(all, b.Tiles...)
		texs = append(texs, b.Texture)
		counts = append(counts, len(b.Tiles))
		live = append(live, i)
	}
	if err := tr.check(texs); err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	ib, err := render.NewVertexBuffer(tr.dev, all)
	if err != nil {
		return err
	}
	tr.draw(cmd, ib, texs, counts, func(i int) []byte {
		return terrainPush(&batches[live[i]])
	})
	return nil
}

// Destroy releases the texture manager and quad buffers.
func (tr *Terrain) Destroy() {
	tr.destroy()
}
