// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	err := Wrap(fs.ErrNotExist)
	var ge *Error
	assert.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Same(t, err, Wrap(err))
	assert.Equal(t, fs.ErrNotExist, Base(err))
}

func TestStackOnDebug(t *testing.T) {
	old := Debug
	defer func() { Debug = old }()

	Debug = true
	err := New("boom").(*Error)
	assert.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0], "grr_test.go")
	assert.Contains(t, err.Error(), "boom (")

	Debug = false
	err = New("quiet").(*Error)
	assert.Empty(t, err.Stack)
	assert.Equal(t, "quiet", err.Error())
}

func TestErrorf(t *testing.T) {
	base := errors.New("inner")
	err := Errorf("outer: %w", base)
	assert.ErrorIs(t, err, base)
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must(nil) })
	assert.Panics(t, func() { Must(errors.New("x")) })
	assert.Equal(t, 3, Must1(3, nil))
	assert.Panics(t, func() { Must1(3, errors.New("x")) })
	assert.Equal(t, 4, Log1(4, errors.New("logged")))
	assert.Equal(t, 5, Ignore1(5, errors.New("ignored")))
}
