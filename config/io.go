// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Formats are the config file formats.
type Formats int32

const (
	TOML Formats = iota
	YAML
	JSON
)

// FormatOf returns the format of a config file from its extension.
func FormatOf(path string) (Formats, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return TOML, fmt.Errorf("config: unknown config file extension in %q", path)
}

// DefaultPath returns the default config file, .vk2d/config.toml
// in the home directory.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vk2d", "config.toml"), nil
}

// Open reads the config file at path, which may start with ~.
// Fields missing from the file keep their default values.
func Open(path string) (*Config, error) {
	cfg := New()
	if err := cfg.Open(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Open reads the config file at path over the current values.
func (cfg *Config) Open(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return cfg.Decode(data, f)
}

// Decode decodes data in the given format over the current values.
func (cfg *Config) Decode(data []byte, f Formats) error {
	var err error
	switch f {
	case TOML:
		err = toml.Unmarshal(data, cfg)
	case YAML:
		err = yaml.Unmarshal(data, cfg)
	case JSON:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("config: decoding: %w", err)
	}
	return nil
}

// Encode encodes the config in the given format.
func (cfg *Config) Encode(f Formats) ([]byte, error) {
	switch f {
	case YAML:
		return yaml.Marshal(cfg)
	case JSON:
		return json.MarshalIndent(cfg, "", "\t")
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	err := enc.Encode(cfg)
	return buf.Bytes(), err
}

// Save writes the config to path in the format of its extension,
// creating the directory if needed.
func (cfg *Config) Save(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := cfg.Encode(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
