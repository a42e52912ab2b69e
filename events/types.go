// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package events

// Types are the kinds of window event.
type Types int32

const (
	// zero value is an unknown type
	UnknownType Types = iota

	// Quit is sent when the window is asked to close.
	Quit

	// KeyDown, KeyUp and KeyRepeat are key actions, with the
	// physical key and modifiers.
	KeyDown
	KeyUp
	KeyRepeat

	// TextInput is a unicode character typed, after keyboard layout.
	TextInput

	// MouseMove is sent whenever the cursor moves in the window.
	MouseMove

	// MouseDown and MouseUp are mouse button actions.
	MouseDown
	MouseUp

	// Scroll is a wheel or trackpad scroll.
	Scroll

	// Resize is sent when the framebuffer size changes.
	Resize

	// Focus and FocusLost are sent when the window gains or loses focus.
	Focus
	FocusLost

	TypesN
)

var typeNames = [...]string{"UnknownType", "Quit", "KeyDown", "KeyUp", "KeyRepeat", "TextInput",
	"MouseMove", "MouseDown", "MouseUp", "Scroll", "Resize", "Focus", "FocusLost"}

func (tp Types) String() string {
	if tp < 0 || tp >= TypesN {
		return "UnknownType"
	}
	return typeNames[tp]
}

// Modifiers are the modifier keys held during a key or mouse event.
type Modifiers int32

const (
	Shift Modifiers = 1 << iota
	Control
	Alt
	Meta
)

// Has returns whether all of m are held.
func (md Modifiers) Has(m Modifiers) bool {
	return md&m == m
}

// Buttons is a mouse button.
type Buttons int32

const (
	NoButton Buttons = iota
	Left
	Middle
	Right
)
