// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
)

// Origin identifies the [TextureManager] a [Texture] was prepared by.
// Origins are compared by value and never reused within a process.
type Origin uint64

var lastOrigin atomic.Uint64

// NewOrigin returns a new unique Origin.
func NewOrigin() Origin {
	return Origin(lastOrigin.Add(1))
}

// Texture is a shared handle to an image prepared for one pipeline
// layout: it holds the image and a descriptor set binding the image
// at [TextureSlot] plus the registry values the layout requires.
//
// A Texture starts with one reference. The descriptor set, and the
// image when the texture owns it, are destroyed when the last
// reference is released.
type Texture struct {
	origin    Origin
	img       Image
	set       DescriptorSet
	ownsImage bool
	refs      atomic.Int32
}

// Origin returns the origin of the manager that prepared the texture.
func (tx *Texture) Origin() Origin { return tx.origin }

// Image returns the GPU image of the texture.
func (tx *Texture) Image() Image { return tx.img }

// Set returns the descriptor set to bind when drawing with the texture.
func (tx *Texture) Set() DescriptorSet { return tx.set }

// Size returns the size of the image in pixels.
func (tx *Texture) Size() image.Point { return tx.img.Size() }

// Ref adds a reference and returns the texture.
func (tx *Texture) Ref() *Texture {
	tx.refs.Add(1)
	return tx
}

// Refs returns the current number of references.
func (tx *Texture) Refs() int {
	return int(tx.refs.Load())
}

// Release drops a reference, destroying the GPU resources
// when it was the last one.
func (tx *Texture) Release() {
	n := tx.refs.Add(-1)
	switch {
	case n == 0:
		destroy(tx.set)
		if tx.ownsImage {
			destroy(tx.img)
		}
	case n < 0:
		panic("render: Texture released more times than referenced")
	}
}

// HandleMismatchError is returned when a texture prepared by one
// manager is drawn through a pipeline using another.
type HandleMismatchError struct {
	Want, Got Origin
}

func (e *HandleMismatchError) Error() string {
	return fmt.Sprintf("render: texture from origin %d used with manager %d", e.Got, e.Want)
}

func (e *HandleMismatchError) Unwrap() error {
	return ErrHandleMismatch
}

// TextureManager prepares textures for one pipeline layout, which must
// declare [TextureSlot]. The layout's other slots are filled from the
// [Registry] at preparation time.
type TextureManager struct {

	// Origin stamped on every texture prepared here.
	Origin Origin

	// Layout of the descriptor sets made for textures.
	Layout SetLayout

	dev     Device
	reg     *Registry
	sampler Sampler
}

// NewTextureManager returns a manager with a fresh [Origin] and a
// sampler in the given mode. It fails when the layout does not declare
// [TextureSlot] or when the registry is missing any other declared slot.
func NewTextureManager(dev Device, reg *Registry, layout SetLayout, mode SamplerModes) (*TextureManager, error) {
	if b, ok := layout.Binding(TextureSlot); !ok || b.Type != TextureDescriptor {
		return nil, errors.New("render: texture layout must declare a texture at slot 0")
	}
	if err := reg.Validate(layout, TextureSlot); err != nil {
		return nil, err
	}
	smp, err := dev.NewSampler(mode)
	if err != nil {
		return nil, err
	}
	return &TextureManager{Origin: NewOrigin(), Layout: layout, dev: dev, reg: reg, sampler: smp}, nil
}

// Sampler returns the sampler used for all textures of the manager.
func (tm *TextureManager) Sampler() Sampler {
	return tm.sampler
}

// PrepareTexture returns a new texture for img, taking ownership of it.
func (tm *TextureManager) PrepareTexture(img Image) (*Texture, error) {
	tx, err := tm.prepare(img)
	if err != nil {
		return nil, err
	}
	tx.ownsImage = true
	return tx, nil
}

// PrepareView returns a new texture for img without taking ownership
// of it, for images shared between managers.
func (tm *TextureManager) PrepareView(img Image) (*Texture, error) {
	return tm.prepare(img)
}

// NewTexture uploads the given image and prepares a texture owning it.
func (tm *TextureManager) NewTexture(rgba *image.RGBA) (*Texture, error) {
	img, err := tm.dev.NewImage(rgba)
	if err != nil {
		return nil, err
	}
	tx, err := tm.PrepareTexture(img)
	if err != nil {
		destroy(img)
		return nil, err
	}
	return tx, nil
}

func (tm *TextureManager) prepare(img Image) (*Texture, error) {
	writes := []Write{{Slot: TextureSlot, Type: TextureDescriptor, Image: img, Sampler: tm.sampler}}
	for _, w := range tm.reg.Required(tm.Layout) {
		if w.Slot != TextureSlot {
			writes = append(writes, w)
		}
	}
	set, err := tm.dev.NewDescriptorSet(tm.Layout, writes)
	if err != nil {
		return nil, err
	}
	tx := &Texture{origin: tm.Origin, img: img, set: set}
	tx.refs.Store(1)
	return tx, nil
}

// IsOriginOf returns whether tx was prepared by this manager.
func (tm *TextureManager) IsOriginOf(tx *Texture) bool {
	return tx != nil && tx.origin == tm.Origin
}

// Check returns a [*HandleMismatchError] if tx was not prepared by this manager.
func (tm *TextureManager) Check(tx *Texture) error {
	if tm.IsOriginOf(tx) {
		return nil
	}
	var got Origin
	if tx != nil {
		got = tx.origin
	}
	return &HandleMismatchError{Want: tm.Origin, Got: got}
}

// Destroy destroys the sampler. Textures must have been released first.
func (tm *TextureManager) Destroy() {
	destroy(tm.sampler)
	tm.sampler = nil
}
