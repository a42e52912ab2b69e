// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/events"
)

// Window is a glfw window without a client API, for rendering with
// Vulkan. Its glfw callbacks send [events.Event] values on Events,
// which are delivered during [Window.PollEvents].
// All methods must be called on the main thread.
type Window struct {

	// glfw window
	Glw *glfw.Window `desc:"glfw window"`

	// events sent by the window callbacks
	Events events.Queue `desc:"events sent by the window callbacks"`
}

// NewWindow opens a new window with the given title and size in
// screen coordinates. [Init] must have been called.
func NewWindow(title string, width, height int, resizable bool) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(resizable))
	glw, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}
	w := &Window{Glw: glw}
	w.Events.Init()

	glw.SetFramebufferSizeCallback(w.fbResized)
	glw.SetCloseCallback(w.onCloseReq)
	glw.SetFocusCallback(w.focused)
	glw.SetKeyCallback(w.keyEvent)
	glw.SetCharCallback(w.charEvent)
	glw.SetMouseButtonCallback(w.mouseButtonEvent)
	glw.SetScrollCallback(w.scrollEvent)
	glw.SetCursorPosCallback(w.cursorPosEvent)
	return w, nil
}

// InstanceExtensions returns the instance extensions the window
// surface requires, to pass to [GPU.Init].
func (w *Window) InstanceExtensions() []string {
	return w.Glw.GetRequiredInstanceExtensions()
}

// CreateSurface creates the Vulkan surface of the window.
func (w *Window) CreateSurface(inst vk.Instance) (vk.Surface, error) {
	ptr, err := w.Glw.CreateWindowSurface(inst, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// FramebufferSize returns the size of the window in pixels.
func (w *Window) FramebufferSize() image.Point {
	x, y := w.Glw.GetFramebufferSize()
	return image.Pt(x, y)
}

// PollEvents processes pending window system events and returns the
// events they produced, in order.
func (w *Window) PollEvents() []events.Event {
	glfw.PollEvents()
	return w.Events.Drain()
}

// ShouldClose returns whether closing the window was requested.
func (w *Window) ShouldClose() bool {
	return w.Glw.ShouldClose()
}

// Destroy destroys the window. The surface must have been destroyed.
func (w *Window) Destroy() {
	if w.Glw == nil {
		return
	}
	w.Glw.Destroy()
	w.Glw = nil
}

func (w *Window) fbResized(gw *glfw.Window, width, height int) {
	w.Events.Send(events.NewResize(image.Pt(width, height)))
}

func (w *Window) onCloseReq(gw *glfw.Window) {
	w.Events.Send(events.NewWindow(events.Quit))
}

func (w *Window) focused(gw *glfw.Window, focused bool) {
	if focused {
		w.Events.Send(events.NewWindow(events.Focus))
	} else {
		w.Events.Send(events.NewWindow(events.FocusLost))
	}
}

func (w *Window) keyEvent(gw *glfw.Window, ky glfw.Key, scancode int, action glfw.Action, mod glfw.ModifierKey) {
	w.Events.Send(events.NewKey(KeyType(action), int(ky), scancode, glfw.GetKeyName(ky, scancode), GlfwMods(mod)))
}

func (w *Window) charEvent(gw *glfw.Window, char rune) {
	w.Events.Send(events.NewText(char))
}

func (w *Window) cursorPos(gw *glfw.Window) image.Point {
	x, y := gw.GetCursorPos()
	return image.Pt(int(x), int(y))
}

func (w *Window) mouseButtonEvent(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	typ := events.MouseDown
	if action == glfw.Release {
		typ = events.MouseUp
	}
	w.Events.Send(events.NewMouse(typ, MouseButton(button), w.cursorPos(gw), GlfwMods(mod)))
}

func (w *Window) scrollEvent(gw *glfw.Window, xoff, yoff float64) {
	w.Events.Send(events.NewScroll(w.cursorPos(gw), float32(xoff), float32(yoff)))
}

func (w *Window) cursorPosEvent(gw *glfw.Window, x, y float64) {
	w.Events.Send(events.NewMouse(events.MouseMove, events.NoButton, image.Pt(int(x), int(y)), 0))
}

// GlfwMods converts glfw modifier keys.
func GlfwMods(mod glfw.ModifierKey) events.Modifiers {
	var m events.Modifiers
	if mod&glfw.ModShift != 0 {
		m |= events.Shift
	}
	if mod&glfw.ModControl != 0 {
		m |= events.Control
	}
	if mod&glfw.ModAlt != 0 {
		m |= events.Alt
	}
	if mod&glfw.ModSuper != 0 {
		m |= events.Meta
	}
	return m
}

// KeyType returns the key event type of a glfw key action.
func KeyType(action glfw.Action) events.Types {
	switch action {
	case glfw.Release:
		return events.KeyUp
	case glfw.Repeat:
		return events.KeyRepeat
	}
	return events.KeyDown
}

// MouseButton converts a glfw mouse button.
func MouseButton(button glfw.MouseButton) events.Buttons {
	switch button {
	case glfw.MouseButtonLeft:
		return events.Left
	case glfw.MouseButtonMiddle:
		return events.Middle
	case glfw.MouseButtonRight:
		return events.Right
	}
	return events.NoButton
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
