// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
)

// Watcher reloads a config file when it changes.
type Watcher struct {

	// Path of the watched file.
	Path string

	watcher *fsnotify.Watcher
	done    sync.WaitGroup
}

// Watch watches the config file at path, calling fn from the watcher
// goroutine with the reloaded config each time the file is written.
// Reload errors are passed to fn with a nil config.
// The directory is watched, so that editors replacing the file
// are seen as well.
func Watch(path string, fn func(cfg *Config, err error)) (*Watcher, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	path = filepath.Clean(path)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{Path: path, watcher: fw}
	w.done.Add(1)
	go w.run(fn)
	return w, nil
}

func (w *Watcher) run(fn func(cfg *Config, err error)) {
	defer w.done.Done()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.Path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Open(w.Path)
			if err != nil {
				fn(nil, err)
				continue
			}
			slog.Info("config: reloaded", "path", w.Path)
			fn(cfg, nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// Close stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.done.Wait()
	return err
}
