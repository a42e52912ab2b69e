// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frameclock paces a render loop to a target frame rate.
package frameclock

import "time"

// Clock paces a loop to a fixed target rate: [Clock.Delay] sleeps
// away whatever remains of the frame interval since the previous call.
// Frames that run over budget are not caught up on later.
// A Clock is not safe for concurrent use.
type Clock struct {

	// Now returns the current time; replaced in tests.
	Now func() time.Time

	// Sleep blocks for the given duration; replaced in tests.
	Sleep func(d time.Duration)

	rate     float64
	interval time.Duration
	started  bool
	last     time.Time
	prev     time.Time
	busy     time.Duration
}

// New returns a new Clock targeting the given rate in frames per second.
// A rate <= 0 disables pacing.
func New(rate float64) *Clock {
	fc := &Clock{Now: time.Now, Sleep: time.Sleep}
	fc.SetTargetRate(rate)
	return fc
}

// SetTargetRate sets the target rate in frames per second,
// taking effect at the next [Clock.Delay].
func (fc *Clock) SetTargetRate(rate float64) {
	fc.rate = rate
	if rate <= 0 {
		fc.interval = 0
		return
	}
	fc.interval = time.Duration(float64(time.Second) / rate)
}

// TargetRate returns the target rate in frames per second.
func (fc *Clock) TargetRate() float64 {
	return fc.rate
}

// Interval returns the target frame interval, 0 if unpaced.
func (fc *Clock) Interval() time.Duration {
	return fc.interval
}

// Delay blocks until the target interval has elapsed since the
// previous call, and returns how long it actually slept.
// The first call only records the current instant and returns 0.
func (fc *Clock) Delay() time.Duration {
	now := fc.Now()
	if !fc.started {
		fc.started = true
		fc.last = now
		fc.prev = now
		return 0
	}
	fc.busy = now.Sub(fc.last)
	var slept time.Duration
	if rem := fc.interval - fc.busy; fc.interval > 0 && rem > 0 {
		fc.Sleep(rem)
		after := fc.Now()
		slept = after.Sub(now)
		now = after
	}
	fc.prev = fc.last
	fc.last = now
	return slept
}

// FrameTime returns the full duration of the last completed frame,
// including the time spent in [Clock.Delay].
func (fc *Clock) FrameTime() time.Duration {
	return fc.last.Sub(fc.prev)
}

// Busy returns the time spent outside of [Clock.Delay]
// during the last completed frame.
func (fc *Clock) Busy() time.Duration {
	return fc.busy
}

// FPS returns the frame rate implied by [Clock.FrameTime],
// or 0 before two frames have been recorded.
func (fc *Clock) FPS() float64 {
	ft := fc.FrameTime()
	if ft <= 0 {
		return 0
	}
	return float64(time.Second) / float64(ft)
}
