// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grr

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Stack returns the stack trace up to the caller of the function
// calling Stack, as a slice of frames. Frames in package runtime
// and testing are dropped.
func Stack() []runtime.Frame {
	callers := make([]uintptr, 10)
	n := runtime.Callers(3, callers)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(callers[:n])
	res := []runtime.Frame{}
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			break
		}
		res = append(res, frame)
		if !more {
			break
		}
	}
	return res
}

// StackNames returns [Stack] as short "file.go:line" strings,
// outermost caller last, skipping the frames of package grr itself.
func StackNames() []string {
	frs := Stack()
	res := make([]string, 0, len(frs))
	for _, fr := range frs {
		if strings.Contains(fr.Function, "/grr.") && !strings.HasSuffix(fr.File, "_test.go") {
			continue
		}
		res = append(res, filepath.Base(fr.File)+":"+strconv.Itoa(fr.Line))
	}
	return res
}
