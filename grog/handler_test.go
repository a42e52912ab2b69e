// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func noTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.Attr{}
	}
	return a
}

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	h := NewHandler(buf, &slog.HandlerOptions{Level: level, ReplaceAttr: noTime}, termenv.WithProfile(termenv.Ascii))
	return slog.New(h)
}

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	lg := newTestLogger(&buf, slog.LevelInfo)

	lg.Info("swapchain rebuilt", "width", 800, "height", 600)
	assert.Equal(t, "INFO swapchain rebuilt width=800 height=600\n", buf.String())

	buf.Reset()
	lg.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	lg := newTestLogger(&buf, slog.LevelDebug)

	lg.With("pipeline", "lines").WithGroup("draw").Warn("skipped", "batch", 2)
	assert.Equal(t, "WARN skipped pipeline=lines draw.batch=2\n", buf.String())

	buf.Reset()
	lg.Error("failed", slog.Group("frame", "index", 1))
	assert.Equal(t, "ERROR failed frame.index=1\n", buf.String())
}

func TestDefaultLogger(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	UserLevel = slog.LevelDebug
	defer func() { UserLevel = slog.LevelWarn }()
	SetDefaultLogger()

	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	slog.Debug("this is debug")
	slog.Info("this is info")
	slog.Warn("this is warn")
}
