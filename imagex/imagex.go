// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imagex decodes images into the RGBA form textures are
// uploaded from, sniffing the format from the content.
package imagex

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Formats are the supported image formats.
type Formats int32

const (
	None Formats = iota
	PNG
	JPEG
	GIF
	TIFF
	BMP
	WebP

	FormatsN
)

var formatNames = [...]string{"None", "PNG", "JPEG", "GIF", "TIFF", "BMP", "WebP"}

func (f Formats) String() string {
	if f < 0 || f >= FormatsN {
		return fmt.Sprintf("Formats(%d)", int32(f))
	}
	return formatNames[f]
}

// ErrUnknownFormat is returned for content that is not a supported image.
var ErrUnknownFormat = errors.New("imagex: unknown image format")

// ExtToFormat returns the format for a filename extension,
// with or without the leading dot.
func ExtToFormat(ext string) (Formats, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "tif", "tiff":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	case "webp":
		return WebP, nil
	case "":
		return None, errors.New("imagex: extension is empty")
	}
	return None, fmt.Errorf("imagex: extension %q not recognized", ext)
}

// Sniff returns the format of encoded image data from its header.
func Sniff(data []byte) (Formats, error) {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return None, ErrUnknownFormat
	}
	f, err := ExtToFormat(kind.Extension)
	if err != nil {
		return None, fmt.Errorf("%w: %s", ErrUnknownFormat, kind.MIME.Value)
	}
	return f, nil
}

// Decode decodes encoded image data into an RGBA image
// with its origin at 0, 0.
func Decode(data []byte) (*image.RGBA, Formats, error) {
	f, err := Sniff(data)
	if err != nil {
		return nil, None, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, f, fmt.Errorf("imagex: decoding %v: %w", f, err)
	}
	return AsRGBA(img), f, nil
}

// Read reads all of r and decodes it.
func Read(r io.Reader) (*image.RGBA, Formats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, None, err
	}
	return Decode(data)
}

// Open opens and decodes the image file.
func Open(filename string) (*image.RGBA, Formats, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, None, err
	}
	return Decode(data)
}

// OpenFS opens and decodes the image file from fsys.
func OpenFS(fsys fs.FS, filename string) (*image.RGBA, Formats, error) {
	data, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, None, err
	}
	return Decode(data)
}

// AsRGBA returns img itself if it is an RGBA image at the origin,
// otherwise an RGBA copy.
func AsRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	rgba := clone.AsRGBA(img)
	rgba.Rect = rgba.Rect.Sub(rgba.Rect.Min)
	return rgba
}

// Fit returns img scaled down to fit within limit pixels on each side,
// keeping its aspect ratio, or img itself when it already fits.
// A limit of 0 means no limit.
func Fit(img *image.RGBA, limit int) *image.RGBA {
	sz := img.Rect.Size()
	if limit <= 0 || (sz.X <= limit && sz.Y <= limit) {
		return img
	}
	w, h := limit, limit
	if sz.X > sz.Y {
		h = max(sz.Y*limit/sz.X, 1)
	} else {
		w = max(sz.X*limit/sz.Y, 1)
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// Save encodes the image to the file, in the format of its extension.
func Save(img image.Image, filename string) error {
	f, err := ExtToFormat(filepath.Ext(filename))
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(img, file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Write encodes the image in the given format.
// WebP is decode only.
func Write(img image.Image, w io.Writer, f Formats) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case GIF:
		return gif.Encode(w, img, nil)
	case TIFF:
		return tiff.Encode(w, img, nil)
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("imagex: cannot encode format %v", f)
}
