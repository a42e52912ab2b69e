// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// Handler is a [slog.Handler] that writes one line per record,
// with the level label colored according to the terminal profile
// of the output (plain text when it is not a terminal).
type Handler struct {
	opts   slog.HandlerOptions
	out    *termenv.Output
	mu     *sync.Mutex
	prefix string // group prefix for attrs added later
	pre    string // preformatted attrs from WithAttrs
}

// NewHandler returns a new [Handler] writing to w. The termenv
// options can force a color profile, which tests use to get
// deterministic output.
func NewHandler(w io.Writer, opts *slog.HandlerOptions, outOpts ...termenv.OutputOption) *Handler {
	h := &Handler{out: termenv.NewOutput(w, outOpts...), mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// SetDefaultLogger sets the default [slog] logger to a [Handler]
// on [os.Stderr] at [UserLevel].
func SetDefaultLogger() {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, &slog.HandlerOptions{Level: UserLevel})))
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return l >= min
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if !r.Time.IsZero() {
		ta := h.replace(nil, slog.Time(slog.TimeKey, r.Time))
		if ta.Key != "" {
			sb.WriteString(ta.Value.Time().Format("15:04:05.000"))
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(h.levelLabel(r.Level))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	sb.WriteString(h.pre)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, h.prefix, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	var sb strings.Builder
	sb.WriteString(h.pre)
	for _, a := range attrs {
		h.appendAttr(&sb, h.prefix, a)
	}
	nh.pre = sb.String()
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func (h *Handler) replace(groups []string, a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}
	return h.opts.ReplaceAttr(groups, a)
}

func (h *Handler) appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		gp := prefix
		if a.Key != "" {
			gp += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(sb, gp, ga)
		}
		return
	}
	a = h.replace(nil, a)
	if a.Key == "" {
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

// levelLabel returns the colored label for the given level.
func (h *Handler) levelLabel(l slog.Level) string {
	var c termenv.Color
	switch {
	case l >= slog.LevelError:
		c = termenv.ANSIRed
	case l >= slog.LevelWarn:
		c = termenv.ANSIYellow
	case l >= slog.LevelInfo:
		c = termenv.ANSIGreen
	default:
		c = termenv.ANSIBlue
	}
	return h.out.String(l.String()).Foreground(c).Bold().String()
}
