// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package events

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	var q Queue
	q.Init()
	assert.Nil(t, q.Next())

	q.Send(NewText('a'))
	q.Send(NewResize(image.Pt(800, 600)))
	q.Send(NewWindow(Quit))
	assert.Equal(t, uint64(3), q.Len())

	evs := q.Drain()
	require.Len(t, evs, 3)
	assert.Equal(t, TextInput, evs[0].Type())
	assert.Equal(t, Resize, evs[1].Type())
	assert.Equal(t, Quit, evs[2].Type())
	assert.Equal(t, uint64(0), q.Len())
	assert.Nil(t, q.Next())
}

func TestQueueConcurrentSend(t *testing.T) {
	var q Queue
	q.Init()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Send(NewText(rune('a' + i%26)))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 400)
}

func TestNeedsResize(t *testing.T) {
	_, ok := NeedsResize([]Event{NewText('x')})
	assert.False(t, ok)

	sz, ok := NeedsResize([]Event{
		NewResize(image.Pt(100, 100)),
		NewMouse(MouseMove, NoButton, image.Pt(3, 4), 0),
		NewResize(image.Pt(640, 480)),
	})
	assert.True(t, ok)
	assert.Equal(t, image.Pt(640, 480), sz)
}

func TestHasQuit(t *testing.T) {
	assert.False(t, HasQuit([]Event{NewWindow(Focus)}))
	assert.True(t, HasQuit([]Event{NewWindow(Focus), NewWindow(Quit)}))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "Resize{(2,3)}", NewResize(image.Pt(2, 3)).String())
	assert.Equal(t, "UnknownType", Types(99).String())
	assert.True(t, (Shift | Control).Has(Control))
	assert.False(t, Shift.Has(Shift|Alt))
}
