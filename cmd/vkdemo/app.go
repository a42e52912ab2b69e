// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"goki.dev/vk2d/config"
	"goki.dev/vk2d/events"
	"goki.dev/vk2d/frameclock"
	"goki.dev/vk2d/grr"
	"goki.dev/vk2d/overlay"
	"goki.dev/vk2d/render"
	"goki.dev/vk2d/shaders"
	"goki.dev/vk2d/texture"
	"goki.dev/vk2d/ttf"
	"goki.dev/vk2d/vdraw"
	"goki.dev/vk2d/vgpu"
)

// App holds everything the demo draws with.
type App struct {
	Config *config.Config

	Win     *vgpu.Window
	GPU     *vgpu.GPU
	Device  *vgpu.Device
	Surface *vgpu.Surface
	System  *vgpu.System

	Registry  *render.Registry
	Frames    *render.System
	Pipelines *vdraw.Pipelines
	Fonts     *ttf.Renderer
	Clock     *frameclock.Clock

	View   render.View2D
	Scene  *Scene
	Floor  *Floor
	Sprite *texture.Asset

	// SpriteTex is the sprite prepared for the entities pipeline.
	SpriteTex *render.Texture

	HUD     *HUD
	Overlay *overlay.Renderer

	hudOut    overlay.Output
	viewDirty bool
	reloads   chan *config.Config
	closers   []func()
}

func run(cfg *config.Config, cfgPath, imagePath string) error {
	app := &App{Config: cfg, reloads: make(chan *config.Config, 1)}
	defer app.Destroy()
	if err := app.Init(); err != nil {
		return err
	}
	if imagePath != "" {
		if err := app.LoadSprite(imagePath); err != nil {
			return err
		}
	}
	if cfgPath != "" {
		w, err := config.Watch(cfgPath, func(c *config.Config, err error) {
			if err != nil {
				slog.Error("vkdemo: reloading config", "err", err)
				return
			}
			select {
			case app.reloads <- c:
			default:
			}
		})
		if err == nil {
			app.closers = append(app.closers, func() { grr.Log(w.Close()) })
		} else {
			slog.Warn("vkdemo: not watching config", "err", err)
		}
	}
	return app.Loop()
}

// Init opens the window and makes the GPU objects, pipelines and fonts.
func (app *App) Init() error {
	cfg := app.Config
	if err := vgpu.Init(); err != nil {
		return err
	}
	app.closers = append(app.closers, vgpu.Terminate)

	win, err := vgpu.NewWindow(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height, cfg.Window.Resizable)
	if err != nil {
		return err
	}
	app.Win = win
	app.closers = append(app.closers, win.Destroy)

	gp := vgpu.NewGPU()
	gp.Debug = cfg.Render.Validation
	gp.PreferredName = cfg.Render.Device
	if err := gp.Init(cfg.Window.Title, win.InstanceExtensions()...); err != nil {
		return err
	}
	app.GPU = gp
	app.closers = append(app.closers, gp.Destroy)

	vs, err := win.CreateSurface(gp.Instance)
	if err != nil {
		return err
	}
	if err := gp.SelectDevice(vs); err != nil {
		return err
	}
	dv, err := vgpu.NewDevice(gp)
	if err != nil {
		return err
	}
	app.Device = dv
	app.closers = append(app.closers, dv.Destroy)

	size := win.FramebufferSize()
	sf, err := vgpu.NewSurface(gp, dv, vs, size, cfg.Render.VSync)
	if err != nil {
		return err
	}
	app.Surface = sf
	app.closers = append(app.closers, sf.Destroy)
	app.View = homeView(size)

	sy, err := vgpu.NewSystem(gp, dv, sf, shaders.Dir(cfg.Render.ShaderDir))
	if err != nil {
		return err
	}
	app.System = sy
	app.closers = append(app.closers, sy.Destroy)

	app.Registry = render.NewRegistry(sy)
	app.closers = append(app.closers, app.Registry.Destroy)
	if err := app.Registry.Insert(render.WindowSizeOf(sf.Size())); err != nil {
		return err
	}
	if err := app.Registry.Insert(app.View); err != nil {
		return err
	}

	mode, err := cfg.Render.SamplerMode()
	if err != nil {
		return err
	}
	ps, err := vdraw.NewPipelines(sy, app.Registry, &vdraw.Options{Sampler: mode, Strict: cfg.Render.StrictHandles})
	if err != nil {
		return err
	}
	app.Pipelines = ps
	app.closers = append(app.closers, ps.Destroy)

	var font []byte
	if cfg.Font.File != "" {
		if font, err = os.ReadFile(cfg.Font.File); err != nil {
			return err
		}
	}
	fonts, err := ttf.NewRenderer(ps.Textured.Textures, font, cfg.Font.QueueSize)
	if err != nil {
		return err
	}
	app.Fonts = fonts
	app.closers = append(app.closers, fonts.Close)

	if app.Floor, err = NewFloor(ps.Terrain.Textures); err != nil {
		return err
	}
	app.closers = append(app.closers, app.Floor.Destroy)
	if app.HUD, err = NewHUD(font, cfg.Font.Size); err != nil {
		return err
	}
	app.closers = append(app.closers, app.HUD.Close)
	app.Overlay = overlay.NewRenderer(ps.Textured)
	app.closers = append(app.closers, app.Overlay.Destroy)

	app.Frames = render.NewSystem(sf, app.Registry, sf.Size())
	app.Frames.AcquireTimeout = cfg.Render.AcquireTimeout
	app.Frames.SetClearColor(0.02, 0.02, 0.05, 1)
	app.Clock = frameclock.New(cfg.Render.FrameRate)
	app.Scene = NewScene(size)
	slog.Info("vkdemo: started", "device", gp.DeviceName, "size", size, "present", sf.PresentMode)
	return nil
}

// LoadSprite loads the image at path, scaled down to the configured
// maximum image size.
func (app *App) LoadSprite(path string) error {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	as, err := texture.LoadFile(app.System, os.DirFS(dir), file, app.Config.Font.MaxImageSize)
	if err != nil {
		return err
	}
	app.Sprite = as
	app.closers = append(app.closers, as.Destroy)
	if app.SpriteTex, err = as.Texture(app.Pipelines.Entities.Textures); err != nil {
		return err
	}
	app.closers = append(app.closers, app.SpriteTex.Release)
	return nil
}

// Loop runs the frame loop until the window is closed.
func (app *App) Loop() error {
	for !app.Win.ShouldClose() {
		evs := app.Win.PollEvents()
		if events.HasQuit(evs) {
			return nil
		}
		app.handleEvents(evs)
		app.applyReload()

		size := app.Win.FramebufferSize()
		if size.X == 0 || size.Y == 0 {
			app.Clock.Delay()
			continue
		}
		if _, ok := app.Overlay.Texture(hudTexture); !ok {
			app.HUD.Invalidate()
		}
		app.hudOut = app.HUD.Update(size, evs, app.buildHUD)
		dt := app.Clock.FrameTime().Seconds()
		app.Scene.Update(float32(dt), size)
		ly, err := app.compose(size)
		if err != nil {
			return err
		}
		err = app.Frames.Render(size.X, size.Y, func(fc *render.FrameContext) {
			app.record(fc, ly)
		})
		if err != nil {
			return err
		}
		if !ly.Flushed() {
			ly.Discard()
		}
		app.Fonts.OnFrameCompleted()
		app.Clock.Delay()
	}
	return nil
}

func (app *App) handleEvents(evs []events.Event) {
	if _, ok := events.NeedsResize(evs); ok {
		app.Frames.RecreateSwapchain()
	}
	for _, ev := range evs {
		switch ev := ev.(type) {
		case *events.ScrollEvent:
			zoom := min(max(app.View.Zoom*(1+0.1*ev.Delta[1]), 0.1), 10)
			app.View = app.View.ZoomAt(zoom, float32(ev.Where.X), float32(ev.Where.Y), app.windowSize())
			app.viewDirty = true
		case *events.Key:
			if ev.Type() == events.KeyDown && ev.Name == "r" {
				app.View = homeView(app.Scene.Size)
				app.viewDirty = true
			}
		case *events.Mouse:
			if ev.Type() == events.MouseDown {
				x, y := app.View.ScreenToWorld(float32(ev.Where.X), float32(ev.Where.Y), app.windowSize())
				app.Scene.Spawn(image.Pt(int(x), int(y)))
			}
		}
	}
}

func (app *App) applyReload() {
	select {
	case c := <-app.reloads:
		app.Clock.SetTargetRate(c.Render.FrameRate)
		app.Frames.AcquireTimeout = c.Render.AcquireTimeout
		app.Pipelines.Textured.Strict = c.Render.StrictHandles
		app.Pipelines.Entities.Strict = c.Render.StrictHandles
		app.Pipelines.Terrain.Strict = c.Render.StrictHandles
		app.Config = c
	default:
	}
}

// compose records the frame's draw calls into a new layer.
func (app *App) compose(size image.Point) (*vdraw.Layer, error) {
	ly := vdraw.NewLayer()
	app.Scene.Draw(ly, app.View, render.WindowSizeOf(size))
	if app.Sprite != nil {
		// cycle through the four quadrants of the image every 60 frames
		cell := app.Frames.Stats().Frames / 60 % 4
		v := app.Sprite.View().Cell(cell%2, cell/2, 2, 2)
		if err := v.Draw(ly, app.Pipelines, float32(size.X)-136, 8, 128, 128); err != nil {
			ly.Discard()
			return nil, err
		}
	}
	fps := fmt.Sprintf("%.0f fps  %d balls", app.Clock.FPS(), len(app.Scene.Balls))
	b, err := app.Fonts.PrepareRender(fps, app.Config.Font.Size, color.RGBA{230, 230, 230, 255}, 8, 8)
	if err != nil {
		ly.Discard()
		return nil, err
	}
	ly.DrawTexturedTriangles(b.Texture, b.Vertices)
	st := app.Frames.Stats()
	stats := fmt.Sprintf("frames %d  dropped %d  rebuilds %d", st.Frames, st.Dropped, st.Rebuilds)
	b, err = app.Fonts.PrepareRender(stats, app.Config.Font.Size, color.RGBA{160, 160, 160, 255}, 8, float32(size.Y-app.Config.Font.Size-8))
	if err != nil {
		ly.Discard()
		return nil, err
	}
	ly.DrawTexturedTriangles(b.Texture, b.Vertices)
	return ly, nil
}

func (app *App) record(fc *render.FrameContext, ly *vdraw.Layer) {
	switch fc.Phase {
	case render.PreparePhase:
		if fc.Rebuilt {
			app.Scene.Resize(fc.Size)
		}
		if app.viewDirty {
			if _, err := app.Registry.Update(fc.Cmd, app.View); err != nil {
				slog.Error("vkdemo: updating view", "err", err)
			}
			app.viewDirty = false
		}
		if err := app.Overlay.Render(fc, &app.hudOut); err != nil {
			slog.Error("vkdemo: preparing overlay", "err", err)
		}
	case render.RenderPhase:
		if err := app.Pipelines.Terrain.Draw(fc.Cmd, app.Floor.Batches(app.Scene.Size)); err != nil {
			slog.Error("vkdemo: drawing floor", "err", err)
		}
		if err := app.Pipelines.Glow.Draw(fc.Cmd, app.Scene.Balls); err != nil {
			slog.Error("vkdemo: drawing glow", "err", err)
		}
		if app.SpriteTex != nil {
			ents := []vdraw.EntityBatch{{Texture: app.SpriteTex, Entities: app.Scene.Entities()}}
			if err := app.Pipelines.Entities.Draw(fc.Cmd, ents); err != nil {
				slog.Error("vkdemo: drawing sprites", "err", err)
			}
		}
		if err := ly.Flush(fc.Cmd, app.Pipelines); err != nil && !errors.Is(err, vdraw.ErrFlushed) {
			slog.Error("vkdemo: flushing layer", "err", err)
		}
		if err := app.Overlay.Render(fc, &app.hudOut); err != nil {
			slog.Error("vkdemo: drawing overlay", "err", err)
		}
	}
}

// buildHUD declares the help panel.
func (app *App) buildHUD() {
	app.HUD.Label("h  toggle this help")
	app.HUD.Label("click  spawn a ball")
	app.HUD.Label("wheel  zoom at the cursor")
	app.HUD.Label("r  reset the view")
	app.HUD.Label(fmt.Sprintf("zoom %.2f", app.View.Zoom))
}

// windowSize is the current framebuffer size.
func (app *App) windowSize() render.WindowSize {
	return render.WindowSizeOf(app.Win.FramebufferSize())
}

// homeView maps world coordinates to pixels one to one, for a scene
// box of the given size.
func homeView(size image.Point) render.View2D {
	return render.View2D{PanX: float32(size.X) / 2, PanY: float32(size.Y) / 2, Zoom: 1}
}

// Destroy releases everything in reverse order of creation.
func (app *App) Destroy() {
	if app.Device != nil {
		app.Device.WaitIdle()
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
