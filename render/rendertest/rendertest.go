// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rendertest provides recording fakes of the render
// backend interfaces, for testing drawing code without a GPU.
package rendertest

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"time"

	"goki.dev/vk2d/render"
)

// Buffer is a fake [render.Buffer] holding a copy of its data.
type Buffer struct {
	BufKind   render.BufferKinds
	N         int
	Size      int
	Data      []byte
	Destroyed bool
}

func (b *Buffer) Kind() render.BufferKinds { return b.BufKind }
func (b *Buffer) Len() int                 { return b.N }
func (b *Buffer) Stride() int              { return b.Size }
func (b *Buffer) Destroy()                 { b.Destroyed = true }

// Image is a fake [render.Image].
type Image struct {
	Sz        image.Point
	RGBA      *image.RGBA
	Destroyed bool
}

func (im *Image) Size() image.Point { return im.Sz }
func (im *Image) Destroy()          { im.Destroyed = true }

// Sampler is a fake [render.Sampler].
type Sampler struct {
	SamplerMode render.SamplerModes
	Destroyed   bool
}

func (sm *Sampler) Mode() render.SamplerModes { return sm.SamplerMode }
func (sm *Sampler) Destroy()                  { sm.Destroyed = true }

// Set is a fake [render.DescriptorSet] recording its writes.
type Set struct {
	SetLayout render.SetLayout
	Writes    []render.Write
	Destroyed bool
}

func (st *Set) Layout() render.SetLayout { return st.SetLayout }
func (st *Set) Destroy()                 { st.Destroyed = true }

// Slots returns the slots of the writes, in order.
func (st *Set) Slots() []uint32 {
	ss := make([]uint32, len(st.Writes))
	for i, w := range st.Writes {
		ss[i] = w.Slot
	}
	return ss
}

// Pipeline is a fake [render.Pipeline].
type Pipeline struct {
	Config render.PipelineConfig
}

func (pl *Pipeline) Name() string             { return pl.Config.Name }
func (pl *Pipeline) Layout() render.SetLayout { return pl.Config.Layout }
func (pl *Pipeline) PushSize() uint32         { return pl.Config.PushSize }

// Device is a fake [render.Device] recording everything it makes.
type Device struct {
	Buffers   []*Buffer
	Sets      []*Set
	Pipelines []*Pipeline
	Samplers  []*Sampler
	Images    []*Image

	// AllocErr, when set, is returned by AllocBuffer.
	AllocErr error
}

// NewDevice returns a new fake device.
func NewDevice() *Device {
	return &Device{}
}

func (dv *Device) AllocBuffer(kind render.BufferKinds, stride, n int, data []byte) (render.Buffer, error) {
	if dv.AllocErr != nil {
		return nil, dv.AllocErr
	}
	if len(data) != stride*n {
		return nil, fmt.Errorf("rendertest: %d bytes of data for %d elements of %d bytes", len(data), n, stride)
	}
	b := &Buffer{BufKind: kind, N: n, Size: stride, Data: slices.Clone(data)}
	dv.Buffers = append(dv.Buffers, b)
	return b, nil
}

func (dv *Device) NewDescriptorSet(layout render.SetLayout, writes []render.Write) (render.DescriptorSet, error) {
	for _, w := range writes {
		if !layout.Has(w.Slot) {
			return nil, fmt.Errorf("rendertest: write to undeclared slot %d", w.Slot)
		}
	}
	st := &Set{SetLayout: layout, Writes: slices.Clone(writes)}
	dv.Sets = append(dv.Sets, st)
	return st, nil
}

func (dv *Device) NewPipeline(cfg *render.PipelineConfig) (render.Pipeline, error) {
	pl := &Pipeline{Config: *cfg}
	dv.Pipelines = append(dv.Pipelines, pl)
	return pl, nil
}

func (dv *Device) NewSampler(mode render.SamplerModes) (render.Sampler, error) {
	sm := &Sampler{SamplerMode: mode}
	dv.Samplers = append(dv.Samplers, sm)
	return sm, nil
}

func (dv *Device) NewImage(img *image.RGBA) (render.Image, error) {
	im := &Image{Sz: img.Bounds().Size(), RGBA: img}
	dv.Images = append(dv.Images, im)
	return im, nil
}

// BuffersOf returns the buffers of the given kind, in allocation order.
func (dv *Device) BuffersOf(kind render.BufferKinds) []*Buffer {
	var bs []*Buffer
	for _, b := range dv.Buffers {
		if b.BufKind == kind {
			bs = append(bs, b)
		}
	}
	return bs
}

// Ops of recorded commands.
const (
	OpBindPipeline = "BindPipeline"
	OpBindSet      = "BindDescriptorSet"
	OpBindVertex   = "BindVertexBuffers"
	OpBindIndex    = "BindIndexBuffer"
	OpPush         = "PushConstants"
	OpDraw         = "Draw"
	OpDrawIndexed  = "DrawIndexed"
	OpUpdate       = "UpdateBuffer"
	OpBeginPass    = "BeginRenderPass"
	OpEndPass      = "EndRenderPass"
	OpEnd          = "End"
)

// Call is one recorded command.
type Call struct {
	Op       string
	Pipeline string
	Set      render.DescriptorSet
	Buffers  []render.Buffer
	Data     []byte

	// Draw arguments.
	Count, Instances, First uint32
	VertexOffset            int32
	FirstInstance           uint32
}

// Recorder is a fake [render.Commands] recording its calls.
type Recorder struct {
	Calls []Call

	// UpdateErr, when set, is returned by UpdateBuffer.
	UpdateErr error

	// EndErr, when set, is returned by End.
	EndErr error

	InPass bool
}

func (rc *Recorder) add(c Call) {
	rc.Calls = append(rc.Calls, c)
}

func (rc *Recorder) BindPipeline(pl render.Pipeline) {
	rc.add(Call{Op: OpBindPipeline, Pipeline: pl.Name()})
}

func (rc *Recorder) BindDescriptorSet(pl render.Pipeline, set render.DescriptorSet) {
	rc.add(Call{Op: OpBindSet, Pipeline: pl.Name(), Set: set})
}

func (rc *Recorder) BindVertexBuffers(first uint32, bufs ...render.Buffer) {
	rc.add(Call{Op: OpBindVertex, First: first, Buffers: bufs})
}

func (rc *Recorder) BindIndexBuffer(buf render.Buffer) {
	rc.add(Call{Op: OpBindIndex, Buffers: []render.Buffer{buf}})
}

func (rc *Recorder) PushConstants(pl render.Pipeline, offset uint32, data []byte) {
	rc.add(Call{Op: OpPush, Pipeline: pl.Name(), First: offset, Data: slices.Clone(data)})
}

func (rc *Recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	rc.add(Call{Op: OpDraw, Count: vertexCount, Instances: instanceCount, First: firstVertex, FirstInstance: firstInstance})
}

func (rc *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	rc.add(Call{Op: OpDrawIndexed, Count: indexCount, Instances: instanceCount, First: firstIndex, VertexOffset: vertexOffset, FirstInstance: firstInstance})
}

func (rc *Recorder) UpdateBuffer(buf render.Buffer, offset int, data []byte) error {
	if rc.UpdateErr != nil {
		return rc.UpdateErr
	}
	if rc.InPass {
		return errors.New("rendertest: UpdateBuffer inside render pass")
	}
	rc.add(Call{Op: OpUpdate, Buffers: []render.Buffer{buf}, First: uint32(offset), Data: slices.Clone(data)})
	if fb, ok := buf.(*Buffer); ok {
		copy(fb.Data[offset:], data)
	}
	return nil
}

func (rc *Recorder) BeginRenderPass(clear [4]float32) {
	rc.InPass = true
	rc.add(Call{Op: OpBeginPass, Data: render.AsBytes(clear[:])})
}

func (rc *Recorder) EndRenderPass() {
	rc.InPass = false
	rc.add(Call{Op: OpEndPass})
}

func (rc *Recorder) End() error {
	rc.add(Call{Op: OpEnd})
	return rc.EndErr
}

// Ops returns the ops of all calls, in order.
func (rc *Recorder) Ops() []string {
	ops := make([]string, len(rc.Calls))
	for i, c := range rc.Calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsOf returns the calls with the given op, in order.
func (rc *Recorder) CallsOf(op string) []Call {
	var cs []Call
	for _, c := range rc.Calls {
		if c.Op == op {
			cs = append(cs, c)
		}
	}
	return cs
}

// Reset clears the recorded calls.
func (rc *Recorder) Reset() {
	rc.Calls = nil
	rc.InPass = false
}

// Future is a fake [render.Future].
type Future struct {
	Completed bool
	ID        int
}

func (ft *Future) Done() bool { return ft.Completed }

func (ft *Future) Wait(timeout time.Duration) error {
	if !ft.Completed {
		return render.ErrTimeout
	}
	return nil
}

// Swapchain is a scripted fake [render.Swapchain].
type Swapchain struct {

	// Size returned by Recreate; the requested size when zero.
	Size image.Point

	// RecreateErrs are returned by successive Recreate calls,
	// nil once exhausted.
	RecreateErrs []error

	// AcquireErrs are returned by successive Acquire calls,
	// nil once exhausted.
	AcquireErrs []error

	// Suboptimal is reported by every successful Acquire.
	Suboptimal bool

	// BeginErrs are returned by successive Begin calls,
	// nil once exhausted.
	BeginErrs []error

	// SubmitErrs are returned by successive Submit calls,
	// nil once exhausted.
	SubmitErrs []error

	NImages   int
	Reclaims  int
	Recreates int
	Acquires  int
	Begins    int
	Submits   int

	// Prevs are the prev futures passed to Submit.
	Prevs []render.Future

	// Recorders are the command recorders returned by Begin.
	Recorders []*Recorder

	next int
	ids  int
}

func (sc *Swapchain) Reclaim() { sc.Reclaims++ }

func (sc *Swapchain) Recreate(width, height int) (image.Point, error) {
	sc.Recreates++
	if len(sc.RecreateErrs) > 0 {
		err := sc.RecreateErrs[0]
		sc.RecreateErrs = sc.RecreateErrs[1:]
		if err != nil {
			return image.Point{}, err
		}
	}
	if sc.Size != (image.Point{}) {
		return sc.Size, nil
	}
	return image.Pt(width, height), nil
}

func (sc *Swapchain) Acquire(timeout time.Duration) (render.Acquired, error) {
	sc.Acquires++
	if len(sc.AcquireErrs) > 0 {
		err := sc.AcquireErrs[0]
		sc.AcquireErrs = sc.AcquireErrs[1:]
		if err != nil {
			return render.Acquired{}, err
		}
	}
	n := max(sc.NImages, 2)
	idx := sc.next % n
	sc.next++
	return render.Acquired{Index: idx, Suboptimal: sc.Suboptimal, Ready: &Future{Completed: true}}, nil
}

func (sc *Swapchain) Begin(image int) (render.Commands, error) {
	sc.Begins++
	if len(sc.BeginErrs) > 0 {
		err := sc.BeginErrs[0]
		sc.BeginErrs = sc.BeginErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	rc := &Recorder{}
	sc.Recorders = append(sc.Recorders, rc)
	return rc, nil
}

func (sc *Swapchain) Submit(cmds render.Commands, acq render.Acquired, prev render.Future) (render.Future, error) {
	sc.Submits++
	sc.Prevs = append(sc.Prevs, prev)
	if len(sc.SubmitErrs) > 0 {
		err := sc.SubmitErrs[0]
		sc.SubmitErrs = sc.SubmitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	sc.ids++
	return &Future{ID: sc.ids}, nil
}

func (sc *Swapchain) Completed() render.Future {
	return &Future{Completed: true}
}

// Last returns the recorder of the last begun frame.
func (sc *Swapchain) Last() *Recorder {
	if len(sc.Recorders) == 0 {
		return nil
	}
	return sc.Recorders[len(sc.Recorders)-1]
}
