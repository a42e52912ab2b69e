// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shaders holds the GLSL sources of the vdraw pipelines.
// go generate compiles them to the SPIR-V files vgpu loads,
// named <pipeline>.vert.spv and <pipeline>.frag.spv.
//
// Vertex positions are in pixels, origin top left. The glow, entities
// and terrain pipelines position instances in world space through the
// 2D view.
package shaders

import (
	"embed"
	"io/fs"
	"os"
)

//go:generate glslc -fshader-stage=vert lines.vert -o lines.vert.spv
//go:generate glslc -fshader-stage=frag lines.frag -o lines.frag.spv
//go:generate glslc -fshader-stage=vert triangles.vert -o triangles.vert.spv
//go:generate glslc -fshader-stage=frag triangles.frag -o triangles.frag.spv
//go:generate glslc -fshader-stage=vert textured.vert -o textured.vert.spv
//go:generate glslc -fshader-stage=frag textured.frag -o textured.frag.spv
//go:generate glslc -fshader-stage=vert glow.vert -o glow.vert.spv
//go:generate glslc -fshader-stage=frag glow.frag -o glow.frag.spv
//go:generate glslc -fshader-stage=vert entities.vert -o entities.vert.spv
//go:generate glslc -fshader-stage=frag entities.frag -o entities.frag.spv
//go:generate glslc -fshader-stage=vert terrain.vert -o terrain.vert.spv
//go:generate glslc -fshader-stage=frag terrain.frag -o terrain.frag.spv

// Sources are the GLSL sources.
//
//go:embed *.vert *.frag
var Sources embed.FS

// Dir returns the compiled shaders in dir, or in the directory of this
// package's sources when dir is empty.
func Dir(dir string) fs.FS {
	if dir == "" {
		dir = "shaders"
	}
	return os.DirFS(dir)
}
