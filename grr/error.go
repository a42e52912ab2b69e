// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grr provides context-wrapped error handling for vk2d:
// errors carry the call stack they were created at when [Debug]
// is on, and the Log / Must helpers collapse the usual error checks
// at call sites that have nothing better to do with an error.
package grr

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents an error with a base error and the
// stack of the point it was wrapped at.
type Error struct {
	Base  error
	Stack []string
}

// Wrap wraps the given error into an [*Error], capturing the
// stack when [Debug] is set. It returns nil for a nil error
// and returns existing [*Error] values unchanged.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	e := &Error{Base: err}
	if Debug {
		e.Stack = StackNames()
	}
	return e
}

// New returns a new error with the given text, wrapped via [Wrap].
func New(text string) error {
	return Wrap(errors.New(text))
}

// Errorf returns a new error with the given format and arguments,
// wrapped via [Wrap]. %w verbs keep working with [errors.Is].
func Errorf(format string, a ...any) error {
	return Wrap(fmt.Errorf(format, a...))
}

// Error returns the base error string followed by the stack, if any.
func (e *Error) Error() string {
	res := e.Base.Error()
	if len(e.Stack) > 0 {
		res += " (" + strings.Join(e.Stack, ": ") + ")"
	}
	return res
}

// Unwrap returns the underlying base error of the Error.
func (e *Error) Unwrap() error {
	return e.Base
}

// Base returns the innermost error that is not an [*Error],
// so that messages can be logged without the stack.
func Base(err error) error {
	for {
		ge, ok := err.(*Error)
		if !ok {
			return err
		}
		err = ge.Base
	}
}
