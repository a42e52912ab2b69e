// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command vkdemo opens a window and draws lines, shapes, text and
// glowing sprites with vk2d, exercising the whole frame loop.
package main

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"goki.dev/vk2d/config"
	"goki.dev/vk2d/grog"
)

func init() {
	// must be called from main thread for glfw and vulkan
	runtime.LockOSThread()
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath, imagePath string
	var vv, v, q, validate bool
	cmd := &cobra.Command{
		Use:          "vkdemo",
		Short:        "vkdemo draws a small animated scene with vk2d",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			grog.UserLevel = grog.LevelFromFlags(vv, v, q)
			grog.SetDefaultLogger()
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("vv") && !cmd.Flags().Changed("v") && !cmd.Flags().Changed("q") {
				if lvl, err := cfg.Log.SlogLevel(); err == nil {
					grog.UserLevel = lvl
					grog.SetDefaultLogger()
				}
			}
			if validate {
				cfg.Render.Validation = true
			}
			return run(cfg, cfgPath, imagePath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (.toml, .yaml or .json); default ~/.vk2d/config.toml if it exists")
	cmd.Flags().BoolVar(&vv, "vv", false, "very verbose: log debug messages")
	cmd.Flags().BoolVarP(&v, "verbose", "v", false, "verbose: log info messages")
	cmd.Flags().BoolVarP(&q, "quiet", "q", false, "quiet: only log errors")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file drawn as a sprite sheet in the corner")
	cmd.Flags().BoolVar(&validate, "validate", false, "enable vulkan validation layers")
	return cmd
}

// loadConfig opens the config file given by flag, or the default
// file when it exists, or returns the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Open(path)
	}
	def, err := config.DefaultPath()
	if err != nil {
		slog.Debug("vkdemo: no home directory", "err", err)
		return config.New(), nil
	}
	if _, err := os.Stat(def); err != nil {
		return config.New(), nil
	}
	return config.Open(def)
}
