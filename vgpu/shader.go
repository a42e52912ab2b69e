// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"io/fs"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// ShaderTypes are the shader stages a pipeline loads.
type ShaderTypes int32

const (
	VertexShader ShaderTypes = iota
	FragmentShader
)

// ShaderExts are the file name suffixes of compiled shaders per type.
var ShaderExts = map[ShaderTypes]string{
	VertexShader:   ".vert.spv",
	FragmentShader: ".frag.spv",
}

// ShaderStageBits maps shader types to vulkan stage bits.
var ShaderStageBits = map[ShaderTypes]vk.ShaderStageFlagBits{
	VertexShader:   vk.ShaderStageVertexBit,
	FragmentShader: vk.ShaderStageFragmentBit,
}

// Shader manages a single Shader program
type Shader struct {
	Name     string          `desc:"name of the shader, its file without extension"`
	Type     ShaderTypes     `desc:"type of shader program"`
	VkModule vk.ShaderModule `desc:"vulkan shader module"`

	dev vk.Device
}

// OpenShader reads the SPIR-V code for the named shader of type typ
// from fsys and makes its module.
func OpenShader(dev vk.Device, fsys fs.FS, name string, typ ShaderTypes) (*Shader, error) {
	fname := name + ShaderExts[typ]
	code, err := fs.ReadFile(fsys, fname)
	if err != nil {
		return nil, fmt.Errorf("vgpu: reading shader: %w", err)
	}
	sh := &Shader{Name: name, Type: typ, dev: dev}
	if err := sh.OpenCode(code); err != nil {
		return nil, fmt.Errorf("vgpu: shader %s: %w", fname, err)
	}
	return sh, nil
}

// OpenCode makes the module from SPIR-V code, whose length must be
// a multiple of 4.
func (sh *Shader) OpenCode(code []byte) error {
	if len(code) == 0 || len(code)%4 != 0 {
		return fmt.Errorf("invalid SPIR-V size %d", len(code))
	}
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(code)), code)
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(sh.dev, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}, nil, &module)
	if err := NewError(ret); err != nil {
		return err
	}
	sh.VkModule = module
	return nil
}

// Destroy the shader module.
func (sh *Shader) Destroy() {
	if sh.VkModule == nil {
		return
	}
	vk.DestroyShaderModule(sh.dev, sh.VkModule, nil)
	sh.VkModule = nil
}
