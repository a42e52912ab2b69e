// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package render is the backend independent core of vk2d.

It defines the narrow seams through which drawing code talks to the GPU
([Device], [Allocator], [Recorder], [Swapchain]) and builds the engine's
resource model on top of them:

  - [Registry]: shared descriptor data (window size, 2D view) keyed by
    binding slot, and the construction-time check that every binding a
    pipeline layout declares has a source.
  - [TextureManager] and [Texture]: reference counted texture handles that
    carry the identity of the manager (and thus pipeline layout) they
    were prepared for.
  - [System]: the per-frame state machine that rebuilds the swapchain,
    acquires an image, records prepare and render commands, and submits.

The vgpu package provides the Vulkan implementation of the seams,
and render/rendertest provides recording fakes for tests.
*/
package render

import "errors"

var (
	// ErrEmptyBuffer is returned when allocating a buffer from no data.
	ErrEmptyBuffer = errors.New("render: buffer data is empty")

	// ErrNotBuffer is returned by [Registry.Update] for a slot
	// that holds a non-buffer write such as an image.
	ErrNotBuffer = errors.New("render: descriptor slot does not hold a buffer")

	// ErrSizeMismatch is returned when updating a buffer with
	// data of a different length than it was allocated with.
	ErrSizeMismatch = errors.New("render: buffer update size mismatch")

	// ErrHandleMismatch is the base error of [HandleMismatchError].
	ErrHandleMismatch = errors.New("render: texture handle used with a different pipeline")

	// ErrOutOfDate is returned by a [Swapchain] whose surface changed
	// so that the swapchain must be rebuilt.
	ErrOutOfDate = errors.New("render: swapchain out of date")

	// ErrTimeout is returned by [Swapchain.Acquire] when no image
	// became available within the timeout.
	ErrTimeout = errors.New("render: timed out acquiring swapchain image")
)

// Destroyer is implemented by backend objects holding GPU resources.
type Destroyer interface {
	Destroy()
}

// destroy calls Destroy on v if it implements [Destroyer].
func destroy(v any) {
	if d, ok := v.(Destroyer); ok {
		d.Destroy()
	}
}
