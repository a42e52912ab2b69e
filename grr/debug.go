// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !release

package grr

// Debug is whether to put the program in debug mode:
// errors record their stacks and texture handle mismatches
// fail hard instead of being skipped. Build with the release
// tag to turn it off.
var Debug = true
