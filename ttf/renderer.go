// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ttf renders text to textures on a background worker.

[Renderer.PrepareRender] never blocks on rasterization: text not yet in
the cache is drawn with a transparent placeholder texture while a
request goes to the worker, and the finished texture replaces the
placeholder on a later frame. Entries not drawn for [MaxAge] frames
are evicted by [Renderer.OnFrameCompleted].
*/
package ttf

import (
	"image"
	"image/color"
	"log/slog"
	"sync"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/vdraw"
)

const (
	// MaxAge is the number of [Renderer.OnFrameCompleted] calls without
	// a draw after which a cache entry is evicted.
	MaxAge = 255

	// DefaultQueueSize is the default capacity of the request queue.
	DefaultQueueSize = 64
)

// Uploader makes textures from images. [render.TextureManager]
// implements it; the textures must be drawable by the pipeline the
// quads of [Renderer.PrepareRender] are drawn with.
type Uploader interface {
	NewTexture(img *image.RGBA) (*render.Texture, error)
}

// Key identifies a rendered text.
type Key struct {
	Text  string
	Size  int
	Color color.RGBA
}

type entry struct {
	tex         *render.Texture
	w, h        float32
	age         int
	placeholder bool

	// failed is set when rendering returned an error; the placeholder stays.
	failed bool
}

type result struct {
	key Key
	img *image.RGBA
	err error
}

// Renderer caches text textures rendered by its worker goroutine.
// Methods other than Close must be called from the render thread.
type Renderer struct {
	up      Uploader
	cache   map[Key]*entry
	pending map[Key]bool
	dummy   *render.Texture

	reqs    chan Key
	results chan result
	wg      sync.WaitGroup
	once    sync.Once
}

// NewRenderer starts a renderer for the given font data, nil for
// [DefaultFont], with a request queue of the given size (0 for
// [DefaultQueueSize]).
func NewRenderer(up Uploader, ttf []byte, queue int) (*Renderer, error) {
	if ttf == nil {
		ttf = DefaultFont
	}
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	rs, err := NewRasterizer(ttf)
	if err != nil {
		return nil, err
	}
	return newRenderer(up, rs, queue), nil
}

// textRasterizer renders text on the worker goroutine.
type textRasterizer interface {
	Render(text string, size int, clr color.RGBA) (*image.RGBA, error)
	Close()
}

func newRenderer(up Uploader, rs textRasterizer, queue int) *Renderer {
	r := &Renderer{
		up:      up,
		cache:   map[Key]*entry{},
		pending: map[Key]bool{},
		reqs:    make(chan Key, queue),
		results: make(chan result, queue),
	}
	r.wg.Add(1)
	go r.work(rs)
	return r
}

func (r *Renderer) work(rs textRasterizer) {
	defer r.wg.Done()
	defer rs.Close()
	for key := range r.reqs {
		img, err := rs.Render(key.Text, key.Size, key.Color)
		r.results <- result{key: key, img: img, err: err}
	}
}

// PrepareRender returns a textured quad drawing text with its top left
// corner at x, y. The quad uses a placeholder until the text has been
// rendered.
func (r *Renderer) PrepareRender(text string, size int, clr color.RGBA, x, y float32) (vdraw.TexturedBatch, error) {
	if err := r.drain(); err != nil {
		return vdraw.TexturedBatch{}, err
	}
	key := Key{Text: text, Size: size, Color: clr}
	e, ok := r.cache[key]
	if ok {
		e.age = 0
		if e.placeholder && !e.failed {
			r.request(key)
		}
	} else {
		dummy, err := r.placeholder()
		if err != nil {
			return vdraw.TexturedBatch{}, err
		}
		e = &entry{tex: dummy.Ref(), w: 1, h: 1, placeholder: true}
		r.cache[key] = e
		r.request(key)
	}
	return vdraw.TexturedBatch{Texture: e.tex, Vertices: Quad(x, y, e.w, e.h)}, nil
}

// request sends key to the worker unless it is already in flight.
func (r *Renderer) request(key Key) {
	if r.pending[key] {
		return
	}
	select {
	case r.reqs <- key:
		r.pending[key] = true
	default:
		slog.Warn("ttf: request queue full, dropping text", "text", key.Text, "size", key.Size)
	}
}

// drain uploads all finished renders without blocking.
func (r *Renderer) drain() error {
	for {
		select {
		case res := <-r.results:
			delete(r.pending, res.key)
			if res.err != nil {
				slog.Error("ttf: rendering text", "text", res.key.Text, "err", res.err)
				if e, ok := r.cache[res.key]; ok {
					e.failed = true
				}
				continue
			}
			tex, err := r.up.NewTexture(res.img)
			if err != nil {
				return err
			}
			sz := res.img.Rect.Size()
			if old, ok := r.cache[res.key]; ok {
				old.tex.Release()
			}
			r.cache[res.key] = &entry{tex: tex, w: float32(sz.X), h: float32(sz.Y)}
		default:
			return nil
		}
	}
}

func (r *Renderer) placeholder() (*render.Texture, error) {
	if r.dummy != nil {
		return r.dummy, nil
	}
	tex, err := r.up.NewTexture(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err != nil {
		return nil, err
	}
	r.dummy = tex
	return tex, nil
}

// OnFrameCompleted ages all entries, evicting those not drawn
// for [MaxAge] calls.
func (r *Renderer) OnFrameCompleted() {
	for key, e := range r.cache {
		e.age++
		if e.age >= MaxAge {
			e.tex.Release()
			delete(r.cache, key)
		}
	}
}

// Cached returns the size of the texture cached for key,
// and whether it is a placeholder.
func (r *Renderer) Cached(key Key) (w, h float32, placeholder, ok bool) {
	e, ok := r.cache[key]
	if !ok {
		return 0, 0, false, false
	}
	return e.w, e.h, e.placeholder, true
}

// Len returns the number of cache entries.
func (r *Renderer) Len() int {
	return len(r.cache)
}

// Pending returns the number of requests in flight.
func (r *Renderer) Pending() int {
	return len(r.pending)
}

// Close stops the worker and releases all textures.
func (r *Renderer) Close() {
	r.once.Do(func() {
		close(r.reqs)
		go func() {
			for range r.results {
			}
		}()
		r.wg.Wait()
		close(r.results)
		for key, e := range r.cache {
			e.tex.Release()
			delete(r.cache, key)
		}
		if r.dummy != nil {
			r.dummy.Release()
			r.dummy = nil
		}
	})
}

// Quad returns two triangles covering the rectangle at x, y of size
// w, h, mapped to the full texture.
func Quad(x, y, w, h float32) []vdraw.TexVertex {
	return []vdraw.TexVertex{
		{X: x, Y: y, U: 0, V: 0},
		{X: x + w, Y: y, U: 1, V: 0},
		{X: x + w, Y: y + h, U: 1, V: 1},
		{X: x + w, Y: y + h, U: 1, V: 1},
		{X: x, Y: y + h, U: 0, V: 1},
		{X: x, Y: y, U: 0, V: 0},
	}
}
