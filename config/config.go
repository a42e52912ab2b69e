// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides the configuration of a vk2d application,
// read from TOML, YAML or JSON files with defaults from struct tags.
package config

import (
	"log/slog"
	"time"

	"github.com/jinzhu/copier"

	"goki.dev/vk2d/grog"
	"goki.dev/vk2d/render"
)

// Config is the configuration of a vk2d application.
type Config struct {

	// the window opened at startup
	Window WindowConfig

	// GPU and frame loop settings
	Render RenderConfig

	// text rendering
	Font FontConfig

	// logging
	Log LogConfig
}

// WindowConfig configures the main window.
type WindowConfig struct {

	// window title
	Title string `def:"vk2d"`

	// initial width in screen coordinates
	Width int `def:"1280" min:"16"`

	// initial height in screen coordinates
	Height int `def:"720" min:"16"`

	// whether the user can resize the window
	Resizable bool `def:"true"`
}

// RenderConfig configures the GPU and the frame loop.
type RenderConfig struct {

	// directory of the compiled SPIR-V shaders
	ShaderDir string `def:"shaders"`

	// wait for vertical blank when presenting
	VSync bool `def:"true"`

	// enable the Khronos validation layer when it is installed
	Validation bool

	// preferred GPU, matched against device names; empty for the best one
	Device string

	// sampler address mode of the textured pipeline: Repeat, MirroredRepeat,
	// ClampToEdge, ClampToBorder or MirrorClampToEdge
	Sampler string `def:"ClampToEdge"`

	// fail textured draws using a texture from another pipeline,
	// instead of skipping them
	StrictHandles bool

	// target frame rate; 0 to render as fast as presenting allows
	FrameRate float64 `def:"60" min:"0"`

	// timeout acquiring a swapchain image
	AcquireTimeout time.Duration `def:"1s"`
}

// SamplerMode returns the parsed Sampler mode.
func (rc *RenderConfig) SamplerMode() (render.SamplerModes, error) {
	return render.SamplerModeFromString(rc.Sampler)
}

// FontConfig configures text rendering.
type FontConfig struct {

	// TrueType or OpenType font file; empty for the built in font
	File string

	// default text size in pixels
	Size int `def:"18" min:"4"`

	// capacity of the queue of texts waiting to be rendered
	QueueSize int `def:"64" min:"1"`

	// largest side in pixels of loaded images, larger ones are scaled down; 0 for no limit
	MaxImageSize int `def:"4096"`
}

// LogConfig configures logging.
type LogConfig struct {

	// minimum level logged: debug, info, warn or error
	Level string `def:"warn"`
}

// SlogLevel returns the parsed Level.
func (lc *LogConfig) SlogLevel() (slog.Level, error) {
	return grog.LevelFromString(lc.Level)
}

// New returns a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.Defaults()
	return cfg
}

// Defaults sets all fields to the values of their def tags.
func (cfg *Config) Defaults() {
	*cfg = Config{}
	if err := SetFromDefaultTags(cfg); err != nil {
		panic(err) // tags are constant
	}
}

// Clone returns a deep copy of the config.
func (cfg *Config) Clone() *Config {
	cp := &Config{}
	if err := copier.CopyWithOption(cp, cfg, copier.Option{DeepCopy: true}); err != nil {
		slog.Error("config: clone", "err", err)
	}
	return cp
}
