// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Future tracks the completion of submitted GPU work.
type Future interface {

	// Done returns whether the work has completed, without blocking.
	Done() bool

	// Wait blocks until the work has completed or the timeout elapsed.
	Wait(timeout time.Duration) error
}

// Acquired is a swapchain image acquired for rendering.
type Acquired struct {

	// Index of the swapchain image, and of its framebuffer.
	Index int

	// Suboptimal is set when the swapchain still works but no longer
	// matches the surface, and should be rebuilt.
	Suboptimal bool

	// Ready completes when the image can be rendered to.
	Ready Future
}

// Commands is a command buffer being recorded for one frame.
type Commands interface {
	Recorder

	// BeginRenderPass begins the render pass on the acquired image's
	// framebuffer, clearing it, and sets the viewport to the full image.
	BeginRenderPass(clear [4]float32)

	EndRenderPass()

	// End finishes recording.
	End() error
}

// Swapchain is the backend seam for the frame lifecycle.
type Swapchain interface {

	// Reclaim releases the resources of frames the GPU has finished,
	// without blocking.
	Reclaim()

	// Recreate rebuilds the swapchain and its framebuffers for the
	// given window size, returning the actual image size.
	Recreate(width, height int) (image.Point, error)

	// Acquire acquires the next image, returning [ErrOutOfDate] when the
	// swapchain must be rebuilt and [ErrTimeout] when no image was
	// available within timeout.
	Acquire(timeout time.Duration) (Acquired, error)

	// Begin begins a one-time-submit command buffer for the given image.
	Begin(image int) (Commands, error)

	// Submit submits the commands once the acquired image is ready and
	// the previous frame prev has been ordered before them, then presents.
	// The returned Future completes when the GPU has finished the frame.
	// [ErrOutOfDate] is returned when presenting found the swapchain stale.
	Submit(cmds Commands, acq Acquired, prev Future) (Future, error)

	// Completed returns an already completed Future.
	Completed() Future
}

// States are the states of the frame lifecycle.
type States int32

const (
	Ready States = iota
	SwapchainDirty
	Acquiring
	Recording
	Presenting

	StatesN
)

var stateNames = [...]string{"Ready", "SwapchainDirty", "Acquiring", "Recording", "Presenting"}

func (st States) String() string {
	if st < 0 || st >= StatesN {
		return fmt.Sprintf("States(%d)", int32(st))
	}
	return stateNames[st]
}

// Phases are the two phases a frame is recorded in.
type Phases int32

const (
	// PreparePhase is outside of the render pass: buffer updates go here.
	PreparePhase Phases = iota

	// RenderPhase is inside of the render pass: draws go here.
	RenderPhase
)

// FrameContext is passed to a [RecordFunc] for each phase of a frame.
type FrameContext struct {
	Phase Phases

	// Cmd records commands for the current phase.
	Cmd Recorder

	// Image is the index of the acquired swapchain image.
	Image int

	// Size of the swapchain images.
	Size image.Point

	// Rebuilt is set on the first frame after a swapchain rebuild.
	Rebuilt bool
}

// RecordFunc records the commands of one frame. It is called once
// per [Phases] value, in order.
type RecordFunc func(fc *FrameContext)

// Stats counts frame lifecycle events.
type Stats struct {
	Frames   int
	Dropped  int
	Rebuilds int
	Failed   int
}

// DefaultAcquireTimeout is the default [System.AcquireTimeout].
const DefaultAcquireTimeout = time.Second

// System runs the frame lifecycle on a [Swapchain]: rebuilding it when
// dirty, acquiring an image, recording the frame, and submitting it
// joined with the previous frame. Recoverable failures are handled here
// so that [System.Render] only returns errors the caller must act on.
type System struct {

	// Swapchain driving the frames.
	Swapchain Swapchain

	// Registry whose [WindowSize] value is refreshed after a rebuild.
	// Optional.
	Registry *Registry

	// AcquireTimeout bounds the wait for a swapchain image.
	AcquireTimeout time.Duration

	// ClearColor the render pass clears to.
	ClearColor [4]float32

	state       States
	dirty       bool
	refreshSize bool
	size        image.Point
	prev        Future
	stats       Stats
}

// NewSystem returns a new System for the given swapchain, whose
// current images have the given size.
func NewSystem(sc Swapchain, reg *Registry, size image.Point) *System {
	return &System{
		Swapchain:      sc,
		Registry:       reg,
		AcquireTimeout: DefaultAcquireTimeout,
		ClearColor:     [4]float32{0, 0, 0, 1},
		size:           size,
		prev:           sc.Completed(),
	}
}

// RecreateSwapchain marks the swapchain for rebuild before the next
// frame. Any number of calls before that frame cause one rebuild.
func (sy *System) RecreateSwapchain() {
	sy.dirty = true
}

// Dirty returns whether the swapchain will be rebuilt on the next frame.
func (sy *System) Dirty() bool {
	return sy.dirty
}

// State returns the current lifecycle state.
func (sy *System) State() States {
	return sy.state
}

// Size returns the size of the swapchain images.
func (sy *System) Size() image.Point {
	return sy.size
}

// Stats returns the frame counters.
func (sy *System) Stats() Stats {
	return sy.stats
}

// SetClearColor sets the color the render pass clears to.
func (sy *System) SetClearColor(r, g, b, a float32) {
	sy.ClearColor = [4]float32{r, g, b, a}
}

// Render renders one frame to a window of the given size, calling
// record for each phase. Frames that cannot be rendered because the
// swapchain is being rebuilt or no image is available are dropped
// and nil is returned.
func (sy *System) Render(width, height int, record RecordFunc) error {
	defer func() { sy.state = Ready }()
	sy.Swapchain.Reclaim()

	if sy.dirty {
		sy.state = SwapchainDirty
		sz, err := sy.Swapchain.Recreate(width, height)
		if err != nil {
			slog.Error("render: rebuilding swapchain", "width", width, "height", height, "err", err)
			sy.stats.Dropped++
			return nil
		}
		sy.dirty = false
		sy.refreshSize = true
		sy.size = sz
		sy.stats.Rebuilds++
	}

	sy.state = Acquiring
	acq, err := sy.Swapchain.Acquire(sy.AcquireTimeout)
	switch {
	case errors.Is(err, ErrOutOfDate):
		sy.dirty = true
		sy.stats.Dropped++
		return nil
	case errors.Is(err, ErrTimeout):
		slog.Warn("render: dropped frame", "err", err)
		sy.stats.Dropped++
		return nil
	case err != nil:
		return fmt.Errorf("render: acquiring swapchain image: %w", err)
	}
	if acq.Suboptimal {
		sy.dirty = true
	}

	sy.state = Recording
	cmds, err := sy.Swapchain.Begin(acq.Index)
	if err != nil {
		// The acquired image is never presented and its acquire
		// semaphore stays signaled; only a rebuild of the swapchain
		// recovers both, so the next frame recreates it.
		sy.dirty = true
		return fmt.Errorf("render: beginning frame: %w", err)
	}
	fc := &FrameContext{Phase: PreparePhase, Cmd: cmds, Image: acq.Index, Size: sy.size, Rebuilt: sy.refreshSize}
	if sy.refreshSize && sy.Registry != nil {
		if _, err := sy.Registry.Update(cmds, WindowSizeOf(sy.size)); err != nil {
			slog.Error("render: updating window size", "err", err)
		}
	}
	sy.refreshSize = false
	if record != nil {
		record(fc)
	}
	cmds.BeginRenderPass(sy.ClearColor)
	fc.Phase = RenderPhase
	if record != nil {
		record(fc)
	}
	cmds.EndRenderPass()

	sy.state = Presenting
	var fut Future
	if err = cmds.End(); err == nil {
		fut, err = sy.Swapchain.Submit(cmds, acq, sy.prev)
	}
	if err != nil {
		if !errors.Is(err, ErrOutOfDate) {
			slog.Error("render: submitting frame", "err", err)
			sy.stats.Failed++
		}
		sy.dirty = true
		fut = sy.Swapchain.Completed()
	}
	sy.prev = fut
	sy.stats.Frames++
	return nil
}

// Wait blocks until the last submitted frame has completed
// or the timeout elapsed.
func (sy *System) Wait(timeout time.Duration) error {
	return sy.prev.Wait(timeout)
}
