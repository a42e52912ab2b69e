// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/render"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, "vk2d", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.True(t, cfg.Window.Resizable)
	assert.True(t, cfg.Render.VSync)
	assert.False(t, cfg.Render.Validation)
	assert.Equal(t, 60.0, cfg.Render.FrameRate)
	assert.Equal(t, time.Second, cfg.Render.AcquireTimeout)
	assert.Equal(t, 18, cfg.Font.Size)
	assert.Equal(t, "warn", cfg.Log.Level)

	sm, err := cfg.Render.SamplerMode()
	require.NoError(t, err)
	assert.Equal(t, render.ClampToEdge, sm)
	lvl, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestSetFromDefaultTags(t *testing.T) {
	type inner struct {
		N uint8   `def:"7"`
		F float32 `def:"0.5"`
	}
	type outer struct {
		In    inner
		Name  string `def:"x"`
		Plain int
	}
	var o outer
	require.NoError(t, SetFromDefaultTags(&o))
	assert.Equal(t, uint8(7), o.In.N)
	assert.Equal(t, float32(0.5), o.In.F)
	assert.Equal(t, "x", o.Name)
	assert.Equal(t, 0, o.Plain)

	assert.Error(t, SetFromDefaultTags(o))
	type bad struct {
		N int `def:"many"`
	}
	assert.ErrorContains(t, SetFromDefaultTags(&bad{}), "field N")
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			cfg := New()
			cfg.Window.Title = "demo"
			cfg.Render.Device = "GeForce"
			cfg.Render.AcquireTimeout = 250 * time.Millisecond
			cfg.Font.File = "fonts/x.ttf"
			fn := filepath.Join(t.TempDir(), "sub", "cfg"+ext)
			require.NoError(t, cfg.Save(fn))
			got, err := Open(fn)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.toml": "[Window]\nWidth = 640\n",
		"b.yaml": "window:\n  width: 640\n",
		"c.json": `{"Window": {"Width": 640}}`,
	}
	for name, data := range files {
		fn := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
		cfg, err := Open(fn)
		require.NoError(t, err, name)
		assert.Equal(t, 640, cfg.Window.Width, name)
		assert.Equal(t, 720, cfg.Window.Height, name)
		assert.Equal(t, "shaders", cfg.Render.ShaderDir, name)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "cfg.ini"))
	assert.ErrorContains(t, err, "extension")
	_, err = Open(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	fn := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(fn, []byte("[Window\n"), 0o644))
	_, err = Open(fn)
	assert.ErrorContains(t, err, "decoding")
}

func TestClone(t *testing.T) {
	cfg := New()
	cp := cfg.Clone()
	assert.Equal(t, cfg, cp)
	cp.Window.Title = "other"
	assert.Equal(t, "vk2d", cfg.Window.Title)
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "config.toml", filepath.Base(p))
	assert.Equal(t, ".vk2d", filepath.Base(filepath.Dir(p)))
}

func TestWatch(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, New().Save(fn))

	got := make(chan *Config, 8)
	w, err := Watch(fn, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	})
	require.NoError(t, err)
	defer w.Close()

	cfg := New()
	cfg.Window.Width = 333
	require.NoError(t, cfg.Save(fn))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Window.Width == 333 {
				return
			}
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
}
