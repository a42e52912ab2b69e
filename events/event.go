// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package events defines the window events delivered to an application
and a FIFO [Queue] the window system sends them on. Events are plain
values; a switch on the concrete type or on [Event.Type] dispatches them.
*/
package events

import (
	"fmt"
	"image"
	"time"
)

// Event is a window event.
type Event interface {
	fmt.Stringer

	// Type returns the type of event.
	Type() Types

	// Time returns when the event was generated.
	Time() time.Time
}

// Base is the common part of all events.
type Base struct {
	Typ     Types
	GenTime time.Time
}

func (ev *Base) Type() Types     { return ev.Typ }
func (ev *Base) Time() time.Time { return ev.GenTime }

func (ev *Base) String() string {
	return ev.Typ.String()
}

func newBase(typ Types) Base {
	return Base{Typ: typ, GenTime: time.Now()}
}

// Key is a KeyDown, KeyUp or KeyRepeat event.
type Key struct {
	Base

	// Code is the platform key code, Scancode the physical key.
	Code     int
	Scancode int

	// Name is the printable name of the key, empty when it has none.
	Name string
	Mods Modifiers
}

func NewKey(typ Types, code, scancode int, name string, mods Modifiers) *Key {
	return &Key{Base: newBase(typ), Code: code, Scancode: scancode, Name: name, Mods: mods}
}

func (ev *Key) String() string {
	return fmt.Sprintf("%v{Code: %d, Name: %q, Mods: %d}", ev.Typ, ev.Code, ev.Name, ev.Mods)
}

// Text is a TextInput event.
type Text struct {
	Base
	Rune rune
}

func NewText(r rune) *Text {
	return &Text{Base: newBase(TextInput), Rune: r}
}

func (ev *Text) String() string {
	return fmt.Sprintf("%v{%q}", ev.Typ, ev.Rune)
}

// Mouse is a MouseMove, MouseDown or MouseUp event, at a position in
// window pixels.
type Mouse struct {
	Base
	Button Buttons
	Where  image.Point
	Mods   Modifiers
}

func NewMouse(typ Types, but Buttons, where image.Point, mods Modifiers) *Mouse {
	return &Mouse{Base: newBase(typ), Button: but, Where: where, Mods: mods}
}

func (ev *Mouse) String() string {
	return fmt.Sprintf("%v{Button: %d, Pos: %v, Mods: %d}", ev.Typ, ev.Button, ev.Where, ev.Mods)
}

// ScrollEvent is a Scroll event, in wheel steps.
type ScrollEvent struct {
	Base
	Delta [2]float32
	Where image.Point
}

func NewScroll(where image.Point, dx, dy float32) *ScrollEvent {
	return &ScrollEvent{Base: newBase(Scroll), Delta: [2]float32{dx, dy}, Where: where}
}

func (ev *ScrollEvent) String() string {
	return fmt.Sprintf("%v{Delta: %v, Pos: %v}", ev.Typ, ev.Delta, ev.Where)
}

// WindowResize is a Resize event, with the new framebuffer size.
type WindowResize struct {
	Base
	Size image.Point
}

func NewResize(size image.Point) *WindowResize {
	return &WindowResize{Base: newBase(Resize), Size: size}
}

func (ev *WindowResize) String() string {
	return fmt.Sprintf("%v{%v}", ev.Typ, ev.Size)
}

// NewWindow returns a window event without data: Quit, Focus or FocusLost.
func NewWindow(typ Types) Event {
	b := newBase(typ)
	return &b
}

// NeedsResize returns the size of the last Resize event in evs,
// and whether there was one.
func NeedsResize(evs []Event) (image.Point, bool) {
	var size image.Point
	found := false
	for _, ev := range evs {
		if rz, ok := ev.(*WindowResize); ok {
			size = rz.Size
			found = true
		}
	}
	return size, found
}

// HasQuit returns whether evs holds a Quit event.
func HasQuit(evs []Event) bool {
	for _, ev := range evs {
		if ev.Type() == Quit {
			return true
		}
	}
	return false
}
