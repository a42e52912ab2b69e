// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
)

type slotSource struct {
	slot uint32
	data []float32
}

func (ss slotSource) Binding() uint32 { return ss.slot }
func (ss slotSource) Data() []float32 { return ss.data }

func TestRequiredOrder(t *testing.T) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	for _, s := range []uint32{5, 0, 2, 7} {
		require.NoError(t, reg.Insert(slotSource{slot: s, data: []float32{float32(s)}}))
	}
	layout := render.NewSetLayout(render.UniformBinding(5), render.UniformBinding(0),
		render.UniformBinding(9), render.UniformBinding(2))

	ws := reg.Required(layout)
	var slots []uint32
	for _, w := range ws {
		slots = append(slots, w.Slot)
		assert.Equal(t, render.UniformDescriptor, w.Type)
	}
	assert.Equal(t, []uint32{0, 2, 5}, slots)
	assert.Equal(t, []uint32{9}, reg.Missing(layout))
	assert.Empty(t, reg.Missing(layout, 9))

	err := reg.Validate(layout)
	var ms *render.MissingSlotsError
	require.ErrorAs(t, err, &ms)
	assert.Equal(t, []uint32{9}, ms.Slots)
}

func TestInsertReplaces(t *testing.T) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	require.NoError(t, reg.Insert(render.WindowSize{Width: 1, Height: 2}))
	require.NoError(t, reg.Insert(render.WindowSize{Width: 3, Height: 4}))

	w, ok := reg.Get(render.WindowSizeSlot)
	require.True(t, ok)
	assert.Same(t, dev.Buffers[1], w.Buffer)
	assert.Equal(t, render.AsBytes([]float32{3, 4}), dev.Buffers[1].Data)
	assert.Len(t, reg.Required(render.NewSetLayout(render.UniformBinding(render.WindowSizeSlot))), 1)
	assert.True(t, dev.Buffers[0].Destroyed, "replaced buffer is released")
	assert.False(t, dev.Buffers[1].Destroyed)
}

func TestInsertReleasesRepeated(t *testing.T) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	for i := 0; i < 100; i++ {
		require.NoError(t, reg.Insert(render.WindowSize{Width: float32(i), Height: 1}))
	}
	require.Len(t, dev.Buffers, 100)
	live := 0
	for _, b := range dev.Buffers {
		if !b.Destroyed {
			live++
		}
	}
	assert.Equal(t, 1, live)

	im := &rendertest.Image{}
	reg.InsertWrite(render.Write{Slot: 3, Type: render.TextureDescriptor, Image: im})
	reg.InsertWrite(render.Write{Slot: 3, Type: render.TextureDescriptor, Image: &rendertest.Image{}})
	assert.False(t, im.Destroyed, "caller owned writes are not released")

	reg.Destroy()
	assert.True(t, dev.Buffers[99].Destroyed)
	assert.False(t, reg.Has(render.WindowSizeSlot))
}

func TestInsertAllocError(t *testing.T) {
	dev := rendertest.NewDevice()
	dev.AllocErr = errors.New("out of memory")
	reg := render.NewRegistry(dev)
	err := reg.Insert(render.DefaultView2D())
	var ae *render.AllocError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, render.UniformBuffer, ae.Kind)
	assert.False(t, reg.Has(render.View2DSlot))
}

func TestUpdate(t *testing.T) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	rec := &rendertest.Recorder{}

	ok, err := reg.Update(rec, render.WindowSize{Width: 8, Height: 8})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.Calls)

	require.NoError(t, reg.Insert(render.WindowSize{Width: 800, Height: 600}))
	ok, err = reg.Update(rec, render.WindowSize{Width: 1024, Height: 768})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, rendertest.OpUpdate, rec.Calls[0].Op)
	assert.Equal(t, render.AsBytes([]float32{1024, 768}), dev.Buffers[0].Data)

	_, err = reg.Update(rec, slotSource{slot: render.WindowSizeSlot, data: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, render.ErrSizeMismatch)

	reg.InsertWrite(render.Write{Slot: 3, Type: render.TextureDescriptor, Image: &rendertest.Image{}})
	_, err = reg.Update(rec, slotSource{slot: 3, data: []float32{1}})
	assert.ErrorIs(t, err, render.ErrNotBuffer)
}

func TestPersistent(t *testing.T) {
	dev := rendertest.NewDevice()
	reg := render.NewRegistry(dev)
	layout := render.NewSetLayout(render.UniformBinding(render.View2DSlot), render.UniformBinding(render.WindowSizeSlot))

	_, err := reg.Persistent(dev, layout)
	var ms *render.MissingSlotsError
	require.ErrorAs(t, err, &ms)
	assert.Equal(t, []uint32{render.WindowSizeSlot, render.View2DSlot}, ms.Slots)
	assert.Empty(t, dev.Sets)

	require.NoError(t, reg.Insert(render.DefaultView2D()))
	require.NoError(t, reg.Insert(render.WindowSize{Width: 10, Height: 10}))
	set, err := reg.Persistent(dev, layout)
	require.NoError(t, err)
	assert.Equal(t, []uint32{render.WindowSizeSlot, render.View2DSlot}, set.(*rendertest.Set).Slots())
}

func TestSetLayout(t *testing.T) {
	sl := render.NewSetLayout(render.UniformBinding(101), render.TextureBinding(0), render.UniformBinding(101))
	assert.Equal(t, []uint32{0, 101}, sl.Slots())
	assert.True(t, sl.Has(0))
	assert.False(t, sl.Has(1))
	assert.Equal(t, "0:1:2,101:0:3", sl.Key())
}

func TestNewBuffers(t *testing.T) {
	dev := rendertest.NewDevice()
	type vtx struct{ X, Y float32 }

	buf, err := render.NewVertexBuffer(dev, []vtx{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 8, buf.Stride())
	assert.Equal(t, render.VertexBuffer, buf.Kind())
	assert.Equal(t, render.AsBytes([]float32{1, 2, 3, 4, 5, 6}), dev.Buffers[0].Data)

	ib, err := render.NewIndexBuffer(dev, []uint32{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, render.IndexBuffer, ib.Kind())
	assert.Equal(t, 4, ib.Stride())

	_, err = render.NewVertexBuffer(dev, []vtx{})
	assert.ErrorIs(t, err, render.ErrEmptyBuffer)
	assert.Len(t, dev.Buffers, 2)
}
