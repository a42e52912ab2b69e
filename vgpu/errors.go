// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"fmt"
	"path/filepath"
	"runtime"

	vk "github.com/goki/vulkan"
)

// ResultError is a failed [vk.Result] with the call site that checked it.
type ResultError struct {
	Result vk.Result
	Where  string
}

func (e *ResultError) Error() string {
	msg := fmt.Sprintf("vulkan error: %s (%d)", vk.Error(e.Result).Error(), e.Result)
	if e.Where != "" {
		msg += " on " + e.Where
	}
	return msg
}

// IsError returns whether ret is not Success.
func IsError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError returns a [*ResultError] for a failed ret, nil for Success.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	e := &ResultError{Result: ret}
	if pc, file, line, ok := runtime.Caller(1); ok {
		fn := runtime.FuncForPC(pc)
		name := ""
		if fn != nil {
			name = filepath.Base(fn.Name())
		}
		e.Where = fmt.Sprintf("%s %s:%d", name, filepath.Base(file), line)
	}
	return e
}

// IfPanic panics with err after running the finalizers, if err is non-nil.
func IfPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		panic(err)
	}
}

// CheckErr recovers a panic into *err. Use as:
//
//	defer CheckErr(&err)
func CheckErr(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("%+v", v)
	}
}

// safeString returns s null terminated, as vulkan expects.
func safeString(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}

// safeStrings returns null terminated copies of ss.
func safeStrings(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = safeString(s)
	}
	return res
}
