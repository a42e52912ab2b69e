// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"unsafe"
)

// BufferKinds are the usages of GPU buffers.
type BufferKinds int32

const (
	// VertexBuffer holds per-vertex or per-instance attributes.
	VertexBuffer BufferKinds = iota

	// IndexBuffer holds uint32 indexes into a vertex buffer.
	IndexBuffer

	// UniformBuffer holds read-only shader data bound through
	// a descriptor set, such as the window size.
	UniformBuffer

	BufferKindsN
)

var bufferKindNames = [...]string{"Vertex", "Index", "Uniform"}

func (bk BufferKinds) String() string {
	if bk < 0 || bk >= BufferKindsN {
		return fmt.Sprintf("BufferKinds(%d)", int32(bk))
	}
	return bufferKindNames[bk]
}

// Buffer is a GPU buffer holding Len elements of Stride bytes each.
// The length is fixed at allocation.
type Buffer interface {
	Kind() BufferKinds
	Len() int
	Stride() int
}

// Allocator allocates GPU buffers initialized with the given data,
// which holds exactly n elements of stride bytes.
//
// Vertex and index buffers allocated while a frame is being recorded
// belong to that frame and are released once the GPU has finished it.
// Uniform buffers and buffers allocated outside of a frame live until
// the device is destroyed.
type Allocator interface {
	AllocBuffer(kind BufferKinds, stride, n int, data []byte) (Buffer, error)
}

// AllocError is returned when the backend could not allocate a buffer.
type AllocError struct {
	Kind BufferKinds
	Len  int
	Err  error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("render: allocating %v buffer of %d elements: %v", e.Kind, e.Len, e.Err)
}

func (e *AllocError) Unwrap() error {
	return e.Err
}

// NewVertexBuffer allocates a vertex buffer holding exactly the given
// items, which must be plain data without pointers.
func NewVertexBuffer[T any](al Allocator, items []T) (Buffer, error) {
	return allocSlice(al, VertexBuffer, items)
}

// NewIndexBuffer allocates an index buffer holding exactly the given indexes.
func NewIndexBuffer(al Allocator, idxs []uint32) (Buffer, error) {
	return allocSlice(al, IndexBuffer, idxs)
}

// NewUniformBuffer allocates a uniform buffer holding the given values.
func NewUniformBuffer(al Allocator, vals []float32) (Buffer, error) {
	return allocSlice(al, UniformBuffer, vals)
}

func allocSlice[T any](al Allocator, kind BufferKinds, items []T) (Buffer, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%v buffer: %w", kind, ErrEmptyBuffer)
	}
	var zero T
	buf, err := al.AllocBuffer(kind, int(unsafe.Sizeof(zero)), len(items), AsBytes(items))
	if err != nil {
		return nil, &AllocError{Kind: kind, Len: len(items), Err: err}
	}
	return buf, nil
}

// AsBytes returns the memory of the given slice as bytes, without copying.
func AsBytes[T any](items []T) []byte {
	if len(items) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), len(items)*int(unsafe.Sizeof(items[0])))
}
