// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"slices"
)

// DescriptorSource provides the uniform data for one binding slot.
type DescriptorSource interface {
	Binding() uint32
	Data() []float32
}

// Registry holds the shared descriptor values that pipelines bind,
// keyed by slot. Pipelines snapshot the values their layout needs when
// they are built; later changes to the data reach the GPU through
// [Registry.Update], which rewrites the same buffer in place.
type Registry struct {
	al      Allocator
	entries map[uint32]Write

	// owned are the slots whose buffer was allocated by [Registry.Insert].
	owned map[uint32]bool
}

// NewRegistry returns an empty registry allocating from al.
func NewRegistry(al Allocator) *Registry {
	return &Registry{al: al, entries: map[uint32]Write{}, owned: map[uint32]bool{}}
}

// Insert allocates a uniform buffer for the data of src and stores it
// at src.Binding(), replacing and releasing any prior value that Insert
// allocated. Replacing a slot is only valid before the pipelines using
// it are built, since their sets refer to the prior buffer; use
// [Registry.Update] to change the data afterwards.
func (rg *Registry) Insert(src DescriptorSource) error {
	buf, err := NewUniformBuffer(rg.al, src.Data())
	if err != nil {
		return fmt.Errorf("render: registering slot %d: %w", src.Binding(), err)
	}
	rg.InsertWrite(Write{Slot: src.Binding(), Type: UniformDescriptor, Buffer: buf})
	rg.owned[src.Binding()] = true
	return nil
}

// InsertWrite stores the given write at its slot, replacing any prior value.
// It is used for values that are not uniform buffers, such as shared images,
// which stay owned by the caller.
func (rg *Registry) InsertWrite(w Write) {
	rg.release(w.Slot)
	rg.entries[w.Slot] = w
}

// release destroys the buffer at slot if the registry allocated it.
func (rg *Registry) release(slot uint32) {
	if !rg.owned[slot] {
		return
	}
	delete(rg.owned, slot)
	if w, ok := rg.entries[slot]; ok && w.Buffer != nil {
		destroy(w.Buffer)
	}
}

// Destroy releases every buffer allocated by [Registry.Insert]
// and empties the registry.
func (rg *Registry) Destroy() {
	for slot := range rg.owned {
		rg.release(slot)
	}
	clear(rg.entries)
}

// Has returns whether a value is registered for slot.
func (rg *Registry) Has(slot uint32) bool {
	_, ok := rg.entries[slot]
	return ok
}

// Get returns the value registered for slot.
func (rg *Registry) Get(slot uint32) (Write, bool) {
	w, ok := rg.entries[slot]
	return w, ok
}

// Update records an in-place update of the buffer registered at
// src.Binding() with the current data of src. It returns false when
// nothing is registered at that slot, and [ErrNotBuffer] when the slot
// does not hold a buffer.
func (rg *Registry) Update(rec Recorder, src DescriptorSource) (bool, error) {
	slot := src.Binding()
	w, ok := rg.entries[slot]
	if !ok {
		return false, nil
	}
	if w.Buffer == nil {
		return false, fmt.Errorf("render: updating slot %d: %w", slot, ErrNotBuffer)
	}
	data := src.Data()
	if len(data) != w.Buffer.Len() {
		return false, fmt.Errorf("render: updating slot %d with %d values, have %d: %w", slot, len(data), w.Buffer.Len(), ErrSizeMismatch)
	}
	if err := rec.UpdateBuffer(w.Buffer, 0, AsBytes(data)); err != nil {
		return false, err
	}
	return true, nil
}

// Required returns the registered values for the slots declared by
// layout, in ascending slot order. Declared slots with no registered
// value are skipped.
func (rg *Registry) Required(layout SetLayout) []Write {
	var ws []Write
	for _, b := range layout.Bindings {
		if w, ok := rg.entries[b.Slot]; ok {
			ws = append(ws, w)
		}
	}
	return ws
}

// Missing returns the slots declared by layout that have no registered
// value, ignoring the given local slots that the caller binds itself.
func (rg *Registry) Missing(layout SetLayout, local ...uint32) []uint32 {
	var ms []uint32
	for _, b := range layout.Bindings {
		if slices.Contains(local, b.Slot) {
			continue
		}
		if _, ok := rg.entries[b.Slot]; !ok {
			ms = append(ms, b.Slot)
		}
	}
	return ms
}

// Validate returns a [*MissingSlotsError] if any non-local slot
// of layout has no registered value.
func (rg *Registry) Validate(layout SetLayout, local ...uint32) error {
	if ms := rg.Missing(layout, local...); len(ms) > 0 {
		return &MissingSlotsError{Slots: ms}
	}
	return nil
}

// Persistent validates that every slot of layout is registered and
// builds a descriptor set holding the current values.
func (rg *Registry) Persistent(f DescriptorSetFactory, layout SetLayout) (DescriptorSet, error) {
	if err := rg.Validate(layout); err != nil {
		return nil, err
	}
	return f.NewDescriptorSet(layout, rg.Required(layout))
}

// MissingSlotsError is returned when a pipeline layout declares
// slots that nothing has registered a value for.
type MissingSlotsError struct {
	Slots []uint32
}

func (e *MissingSlotsError) Error() string {
	return fmt.Sprintf("render: no descriptor value registered for slots %v", e.Slots)
}
