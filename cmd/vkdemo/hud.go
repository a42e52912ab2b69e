// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"
	"strings"

	"goki.dev/vk2d/events"
	"goki.dev/vk2d/overlay"
	"goki.dev/vk2d/ttf"
	"goki.dev/vk2d/vdraw"
)

// hudTexture is the texture id of the help panel.
const hudTexture overlay.TextureID = 1

// hudPad is the panel padding in pixels.
const hudPad = 6

var (
	hudBackground = color.RGBA{0, 0, 0, 170}
	hudText       = color.RGBA{220, 220, 200, 255}
)

// HUD is a minimal immediate mode UI: a panel of text labels in the
// bottom right corner, shown and hidden with the h key. Labels are
// declared with [HUD.Label] inside the build function of [HUD.Update].
type HUD struct {
	Shown bool

	raster *ttf.Rasterizer
	size   int
	labels []string

	// uploaded is the text of the panel texture, empty if none.
	uploaded  string
	panelSize image.Point
}

var _ overlay.UI = (*HUD)(nil)

// NewHUD returns a hidden HUD drawing text of the given size with
// the given font, or [ttf.DefaultFont] if nil.
func NewHUD(font []byte, size int) (*HUD, error) {
	if font == nil {
		font = ttf.DefaultFont
	}
	rs, err := ttf.NewRasterizer(font)
	if err != nil {
		return nil, err
	}
	return &HUD{raster: rs, size: size}, nil
}

// Label adds a line of text to the panel.
func (h *HUD) Label(text string) {
	h.labels = append(h.labels, text)
}

// Update implements [overlay.UI]. The panel texture is only
// re-uploaded when its text changes.
func (h *HUD) Update(size image.Point, evs []events.Event, build func()) overlay.Output {
	for _, ev := range evs {
		if k, ok := ev.(*events.Key); ok && k.Type() == events.KeyDown && k.Name == "h" {
			h.Shown = !h.Shown
		}
	}
	h.labels = h.labels[:0]
	if build != nil {
		build()
	}
	var out overlay.Output
	if !h.Shown || len(h.labels) == 0 {
		if h.uploaded != "" {
			out.Frees = append(out.Frees, hudTexture)
			h.uploaded = ""
		}
		return out
	}
	if text := strings.Join(h.labels, "\n"); text != h.uploaded {
		img, err := h.panel()
		if err != nil {
			return out
		}
		out.Textures = append(out.Textures, overlay.TextureDelta{ID: hudTexture, Image: img})
		h.uploaded = text
		h.panelSize = img.Rect.Size()
	}
	x := float32(size.X - h.panelSize.X - 8)
	y := float32(size.Y - h.panelSize.Y - 8)
	w, ht := float32(h.panelSize.X), float32(h.panelSize.Y)
	out.Meshes = append(out.Meshes, overlay.Mesh{
		Texture: hudTexture,
		Vertices: []vdraw.TexVertex{
			{X: x, Y: y, U: 0, V: 0},
			{X: x + w, Y: y, U: 1, V: 0},
			{X: x + w, Y: y + ht, U: 1, V: 1},
			{X: x, Y: y + ht, U: 0, V: 1},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	})
	return out
}

// panel renders the labels stacked on the background color.
func (h *HUD) panel() (*image.RGBA, error) {
	lines := make([]*image.RGBA, len(h.labels))
	w, ht := 0, 0
	for i, l := range h.labels {
		img, err := h.raster.Render(l, h.size, hudText)
		if err != nil {
			return nil, err
		}
		lines[i] = img
		w = max(w, img.Rect.Dx())
		ht += img.Rect.Dy()
	}
	pn := image.NewRGBA(image.Rect(0, 0, w+2*hudPad, ht+2*hudPad))
	for i := 0; i < len(pn.Pix); i += 4 {
		pn.Pix[i], pn.Pix[i+1], pn.Pix[i+2], pn.Pix[i+3] = hudBackground.R, hudBackground.G, hudBackground.B, hudBackground.A
	}
	y := hudPad
	for _, img := range lines {
		blendStraight(pn, img, image.Pt(hudPad, y))
		y += img.Rect.Dy()
	}
	return pn, nil
}

// blendStraight composites src over dst at pt, both holding
// straight alpha.
func blendStraight(dst, src *image.RGBA, pt image.Point) {
	sz := src.Rect.Size()
	for y := 0; y < sz.Y; y++ {
		for x := 0; x < sz.X; x++ {
			s := src.Pix[src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y):]
			a := uint32(s[3])
			if a == 0 {
				continue
			}
			d := dst.Pix[dst.PixOffset(pt.X+x, pt.Y+y):]
			for c := 0; c < 3; c++ {
				d[c] = uint8((uint32(s[c])*a + uint32(d[c])*(255-a)) / 255)
			}
			d[3] = uint8(a + uint32(d[3])*(255-a)/255)
		}
	}
}

// Invalidate makes the next update upload the panel texture again,
// for when the previous upload was never applied.
func (h *HUD) Invalidate() {
	h.uploaded = ""
}

// Close releases the rasterizer.
func (h *HUD) Close() {
	h.raster.Close()
}
