// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ttf

import (
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goki.dev/vk2d/render"
	"goki.dev/vk2d/render/rendertest"
)

var red = color.RGBA{255, 0, 0, 255}

func newManager(t *testing.T) *render.TextureManager {
	dev := rendertest.NewDevice()
	layout := render.NewSetLayout(render.TextureBinding(render.TextureSlot))
	tm, err := render.NewTextureManager(dev, render.NewRegistry(dev), layout, render.ClampToEdge)
	require.NoError(t, err)
	return tm
}

func TestRasterizer(t *testing.T) {
	rs, err := NewRasterizer(DefaultFont)
	require.NoError(t, err)
	defer rs.Close()

	img, err := rs.Render("Hello", 16, red)
	require.NoError(t, err)
	sz := img.Rect.Size()
	assert.Greater(t, sz.X, 16)
	assert.Greater(t, sz.Y, 8)

	inked := 0
	for i := 0; i < len(img.Pix); i += 4 {
		assert.Equal(t, uint8(255), img.Pix[i], "straight alpha keeps full color")
		if img.Pix[i+3] > 0 {
			inked++
		}
	}
	assert.Greater(t, inked, 0)

	out := rs.Shape("Hello", 16)
	assert.NotEmpty(t, out.Glyphs)
	assert.Equal(t, sz.X, int(math32.Ceil(fixedToFloat(out.Advance))))

	empty, err := rs.Render("", 16, red)
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Rect.Dx())

	_, err = rs.Render("x", 0, red)
	assert.Error(t, err)
}

func TestRasterizerSizes(t *testing.T) {
	rs, err := NewRasterizer(DefaultFont)
	require.NoError(t, err)
	defer rs.Close()

	small, err := rs.Render("Wide text", 12, red)
	require.NoError(t, err)
	big, err := rs.Render("Wide text", 24, red)
	require.NoError(t, err)
	assert.Greater(t, big.Rect.Dx(), small.Rect.Dx())
	assert.Greater(t, big.Rect.Dy(), small.Rect.Dy())
}

func TestRasterizerBadFont(t *testing.T) {
	_, err := NewRasterizer([]byte("not a font"))
	assert.Error(t, err)
}

func TestPlaceholderThenRendered(t *testing.T) {
	r, err := NewRenderer(newManager(t), nil, 0)
	require.NoError(t, err)
	defer r.Close()

	b, err := r.PrepareRender("score", 20, red, 10, 20)
	require.NoError(t, err)
	require.Len(t, b.Vertices, 6)
	assert.Equal(t, float32(11), b.Vertices[1].X, "placeholder is 1x1")
	assert.Equal(t, 1, b.Texture.Size().X)
	key := Key{Text: "score", Size: 20, Color: red}
	_, _, ph, ok := r.Cached(key)
	assert.True(t, ok)
	assert.True(t, ph)
	assert.Equal(t, 1, r.Pending())

	require.Eventually(t, func() bool {
		b, err = r.PrepareRender("score", 20, red, 10, 20)
		_, _, ph, _ := r.Cached(key)
		return err == nil && !ph
	}, 5*time.Second, 5*time.Millisecond)
	w, h, _, _ := r.Cached(key)
	assert.Greater(t, w, float32(1))
	assert.Equal(t, 10+w, b.Vertices[1].X)
	assert.Equal(t, 20+h, b.Vertices[2].Y)
	assert.Equal(t, 0, r.Pending())
}

// gatedRasterizer blocks every render until its gate is closed.
type gatedRasterizer struct {
	gate    chan struct{}
	started chan string

	mu    sync.Mutex
	calls map[string]int
}

func newGatedRasterizer() *gatedRasterizer {
	return &gatedRasterizer{gate: make(chan struct{}), started: make(chan string, 8), calls: map[string]int{}}
}

func (gr *gatedRasterizer) Render(text string, size int, clr color.RGBA) (*image.RGBA, error) {
	gr.mu.Lock()
	gr.calls[text]++
	gr.mu.Unlock()
	gr.started <- text
	<-gr.gate
	return image.NewRGBA(image.Rect(0, 0, 4*len(text)+1, size)), nil
}

func (gr *gatedRasterizer) Close() {}

func (gr *gatedRasterizer) Calls(text string) int {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.calls[text]
}

func TestRepeatedMissQueuesOnce(t *testing.T) {
	gr := newGatedRasterizer()
	r := newRenderer(newManager(t), gr, 4)
	release := sync.OnceFunc(func() { close(gr.gate) })
	defer r.Close()
	defer release()

	_, err := r.PrepareRender("busy", 10, red, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "busy", <-gr.started, "worker is held on the first request")

	b1, err := r.PrepareRender("score", 20, red, 0, 0)
	require.NoError(t, err)
	b2, err := r.PrepareRender("score", 20, red, 0, 0)
	require.NoError(t, err)
	assert.Same(t, b1.Texture, b2.Texture)
	assert.Equal(t, 1, b2.Texture.Size().X, "both draws use the placeholder")
	assert.Equal(t, 2, r.Pending())
	assert.Len(t, r.reqs, 1, "one queued request for the repeated text")

	release()
	key := Key{Text: "score", Size: 20, Color: red}
	require.Eventually(t, func() bool {
		_, err := r.PrepareRender("score", 20, red, 0, 0)
		_, _, ph, _ := r.Cached(key)
		return err == nil && !ph
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, gr.Calls("score"))
	w, h, _, _ := r.Cached(key)
	assert.Equal(t, float32(21), w)
	assert.Equal(t, float32(20), h)
}

func TestCacheAging(t *testing.T) {
	r, err := NewRenderer(newManager(t), nil, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.PrepareRender("a", 12, red, 0, 0)
	require.NoError(t, err)
	for i := 0; i < MaxAge-1; i++ {
		r.OnFrameCompleted()
	}
	assert.Equal(t, 1, r.Len())

	_, err = r.PrepareRender("a", 12, red, 0, 0)
	require.NoError(t, err)
	for i := 0; i < MaxAge-1; i++ {
		r.OnFrameCompleted()
	}
	assert.Equal(t, 1, r.Len(), "hit resets age")

	r.OnFrameCompleted()
	assert.Equal(t, 0, r.Len())
}

func TestDistinctKeys(t *testing.T) {
	r, err := NewRenderer(newManager(t), nil, 0)
	require.NoError(t, err)
	defer r.Close()

	for _, sz := range []int{10, 12} {
		_, err := r.PrepareRender("x", sz, red, 0, 0)
		require.NoError(t, err)
	}
	_, err = r.PrepareRender("x", 10, color.RGBA{0, 0, 255, 255}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.LessOrEqual(t, r.Pending(), 3)
}

func TestQuad(t *testing.T) {
	q := Quad(1, 2, 3, 4)
	require.Len(t, q, 6)
	assert.Equal(t, q[0], q[5])
	assert.Equal(t, q[2], q[3])
	assert.Equal(t, float32(4), q[2].X)
	assert.Equal(t, float32(6), q[2].Y)
	assert.Equal(t, float32(1), q[2].U)
}
