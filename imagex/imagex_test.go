// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imagex

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 60), 0, 255})
		}
	}
	return img
}

func TestExtToFormat(t *testing.T) {
	f, err := ExtToFormat(".JPG")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)
	f, _ = ExtToFormat("tif")
	assert.Equal(t, TIFF, f)
	_, err = ExtToFormat("")
	assert.Error(t, err)
	_, err = ExtToFormat(".psd")
	assert.Error(t, err)
	assert.Equal(t, "WebP", WebP.String())
}

func TestDecodeFormats(t *testing.T) {
	src := testImage()
	for _, f := range []Formats{PNG, JPEG, GIF, TIFF, BMP} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(src, &buf, f))
			img, got, err := Decode(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, f, got)
			assert.Equal(t, image.Pt(8, 4), img.Rect.Size())
			assert.Equal(t, image.Point{}, img.Rect.Min)
		})
	}
}

func TestDecodeLossless(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(testImage(), &buf, PNG))
	img, _, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, testImage().Pix, img.Pix)
}

func TestDecodeUnknown(t *testing.T) {
	_, _, err := Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, _, err = Decode(nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(testImage(), &buf, PNG))
	_, f, err := Decode(buf.Bytes()[:40])
	assert.Error(t, err)
	assert.Equal(t, PNG, f)
}

func TestSaveOpen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "img.bmp")
	require.NoError(t, Save(testImage(), fn))
	img, f, err := Open(fn)
	require.NoError(t, err)
	assert.Equal(t, BMP, f)
	assert.Equal(t, testImage().Pix, img.Pix)

	img, _, err = OpenFS(os.DirFS(filepath.Dir(fn)), "img.bmp")
	require.NoError(t, err)
	assert.Equal(t, 8, img.Rect.Dx())

	assert.Error(t, Save(testImage(), filepath.Join(t.TempDir(), "img.xyz")))
	assert.Error(t, Write(testImage(), &bytes.Buffer{}, WebP))
}

func TestAsRGBA(t *testing.T) {
	src := testImage()
	assert.Same(t, src, AsRGBA(src))

	sub := src.SubImage(image.Rect(2, 1, 6, 3))
	rgba := AsRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 4, 2), rgba.Rect)
	assert.Equal(t, src.RGBAAt(2, 1), rgba.RGBAAt(0, 0))

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	assert.Equal(t, 2, AsRGBA(gray).Rect.Dx())
}

func TestFit(t *testing.T) {
	src := testImage()
	assert.Same(t, src, Fit(src, 0))
	assert.Same(t, src, Fit(src, 8))
	fit := Fit(src, 4)
	assert.Equal(t, image.Pt(4, 2), fit.Rect.Size())
}
