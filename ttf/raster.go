// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ttf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// DefaultFont is the TrueType font used when none is given.
var DefaultFont = lmroman10regular.TTF

// Rasterizer shapes text with HarfBuzz and fills the glyph outlines
// into images. It is not safe for concurrent use.
type Rasterizer struct {
	face   *font.Face
	shaper shaping.HarfbuzzShaper
	raster *vector.Rasterizer
}

// NewRasterizer parses the given TrueType or OpenType font data,
// using the first face of a collection.
func NewRasterizer(ttf []byte) (*Rasterizer, error) {
	faces, err := font.ParseTTC(bytes.NewReader(ttf))
	if err != nil {
		return nil, fmt.Errorf("ttf: parsing font: %w", err)
	}
	return &Rasterizer{face: faces[0], raster: vector.NewRasterizer(1, 1)}, nil
}

// Shape returns the glyphs of text at the given size in pixels,
// laid out left to right.
func (rs *Rasterizer) Shape(text string, size int) shaping.Output {
	runes := []rune(text)
	return rs.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      rs.face,
		Size:      fixed.I(size),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	})
}

// Render renders text in the given color onto a new image sized to
// the shaped advance and the line height. The image holds straight
// (not premultiplied) alpha, for source-over blending.
func (rs *Rasterizer) Render(text string, size int, clr color.RGBA) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ttf: invalid text size %d", size)
	}
	if text == "" {
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}
	out := rs.Shape(text, size)
	asc := fixedToFloat(out.LineBounds.Ascent)
	desc := math32.Abs(fixedToFloat(out.LineBounds.Descent))
	w := int(math32.Ceil(fixedToFloat(out.Advance)))
	h := int(math32.Ceil(asc + desc))
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	scale := float32(size) / float32(rs.face.Upem())
	x := float32(0)
	for _, g := range out.Glyphs {
		gx := x + fixedToFloat(g.XOffset)
		gy := asc - fixedToFloat(g.YOffset)
		if outline, ok := rs.face.GlyphData(g.GlyphID).(font.GlyphOutline); ok && len(outline.Segments) > 0 {
			rs.fillOutline(mask, outline, scale, gx, gy)
		}
		x += fixedToFloat(g.XAdvance)
	}

	img := image.NewRGBA(mask.Rect)
	for i, a := range mask.Pix {
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2] = clr.R, clr.G, clr.B
		p[3] = uint8(uint16(a) * uint16(clr.A) / 255)
	}
	return img, nil
}

// fillOutline adds the coverage of one glyph outline, in font units
// with y up, to mask with its origin at x, y.
func (rs *Rasterizer) fillOutline(mask *image.Alpha, outline font.GlyphOutline, scale, x, y float32) {
	sz := mask.Rect.Size()
	rs.raster.Reset(sz.X, sz.Y)
	pt := func(p opentype.SegmentPoint) (float32, float32) {
		return x + p.X*scale, y - p.Y*scale
	}
	open := false
	for _, s := range outline.Segments {
		switch s.Op {
		case opentype.SegmentOpMoveTo:
			if open {
				rs.raster.ClosePath()
			}
			rs.raster.MoveTo(pt(s.Args[0]))
			open = true
		case opentype.SegmentOpLineTo:
			rs.raster.LineTo(pt(s.Args[0]))
		case opentype.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			rs.raster.QuadTo(bx, by, cx, cy)
		case opentype.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			rs.raster.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		rs.raster.ClosePath()
	}
	rs.raster.Draw(mask, mask.Rect, image.Opaque, image.Point{})
}

// Close releases the rasterizer.
func (rs *Rasterizer) Close() {
	rs.face = nil
}

// scriptOf returns the script of the first non-space rune, Latin if none.
func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(x fixed.Int26_6) float32 {
	return float32(x) / 64
}
