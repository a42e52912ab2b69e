// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	vk "github.com/goki/vulkan"

	"goki.dev/vk2d/render"
)

// MaxFramesInFlight is the number of frames recorded ahead of the GPU.
const MaxFramesInFlight = 2

// Debug turns on verbose swapchain logging.
var Debug = false

// flight is the per-frame-in-flight synchronization and garbage.
type flight struct {
	ImageAcquired vk.Semaphore
	RenderDone    vk.Semaphore
	InFlight      vk.Fence
	Cmd           vk.CommandBuffer

	// Submitted is set from submit until the fence is seen signaled.
	Submitted bool

	// garbage is released once the frame completes.
	garbage []func()
}

// Surface manages the window surface and the swapchain presenting to it,
// implementing [render.Swapchain] and [FrameTracker].
type Surface struct {
	GPU         *GPU           `desc:"pointer to gpu device, for convenience"`
	Device      *Device        `desc:"device for this surface"`
	RenderPass  RenderPass     `desc:"the clearing render pass drawing to the swapchain images"`
	CmdPool     CmdPool        `desc:"pool of the per-flight command buffers"`
	Format      ImageFormat    `desc:"has the current swapchain image format and dimensions"`
	VSync       bool           `desc:"present with FIFO; otherwise prefer mailbox then immediate"`
	NFrames     int            `desc:"number of swapchain images requested, and after Init the actual number"`
	Frames      []*Framebuffer `desc:"framebuffer for each swapchain image"`
	FrameIndex  int            `desc:"index of the flight slot used for the next frame"`
	PresentMode vk.PresentMode `desc:"present mode in use"`
	Surface     vk.Surface     `desc:"vulkan handle for surface"`
	Swapchain   vk.Swapchain   `desc:"vulkan handle for swapchain"`

	flights   []*flight
	recording *flight
	last      *flight

	mu sync.Mutex
}

// NewSurface makes the swapchain for vs at the given size, its render
// pass and framebuffers, and the frames in flight.
func NewSurface(gp *GPU, dv *Device, vs vk.Surface, size image.Point, vsync bool) (*Surface, error) {
	sf := &Surface{GPU: gp, Device: dv, Surface: vs, VSync: vsync, NFrames: 3}
	sf.Format.Set(size.X, size.Y, vk.FormatB8g8r8a8Srgb)
	if err := sf.CmdPool.Init(dv, vk.CommandPoolCreateResetCommandBufferBit); err != nil {
		return nil, err
	}
	if err := sf.initSwapchain(size); err != nil {
		sf.Destroy()
		return nil, err
	}
	if err := sf.RenderPass.Config(dv.Device, sf.Format.Format); err != nil {
		sf.Destroy()
		return nil, err
	}
	if err := sf.initFrames(); err != nil {
		sf.Destroy()
		return nil, err
	}
	if err := sf.initFlights(); err != nil {
		sf.Destroy()
		return nil, err
	}
	return sf, nil
}

// Size returns the current swapchain image size.
func (sf *Surface) Size() image.Point {
	return sf.Format.Size
}

// initSwapchain (re)creates the swapchain, handing the old one over.
func (sf *Surface) initSwapchain(want image.Point) error {
	gpu := sf.GPU.GPU
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, sf.Surface, &caps)
	if err := NewError(ret); err != nil {
		return err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, sf.Surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gpu, sf.Surface, &formatCount, formats)
	for i := range formats {
		formats[i].Deref()
	}
	format, ok := ChooseSurfaceFormat(formats, sf.Format.Format)
	if !ok {
		return errors.New("vgpu: surface has no pixel formats")
	}

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, sf.Surface, &modeCount, nil)
	modes := make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, sf.Surface, &modeCount, modes)
	sf.PresentMode = ChoosePresentMode(modes, sf.VSync)

	extent := SwapchainExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, want)
	if extent.Width == 0 || extent.Height == 0 {
		return render.ErrOutOfDate
	}

	// Determine the number of VkImage's to use in the swapchain.
	desiredSwapchainImages := uint32(sf.NFrames)
	if desiredSwapchainImages < caps.MinImageCount {
		desiredSwapchainImages = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && desiredSwapchainImages > caps.MaxImageCount {
		// App must settle for fewer images than desired.
		desiredSwapchainImages = caps.MaxImageCount
	}

	// Figure out a suitable surface transform.
	var preTransform vk.SurfaceTransformFlagBits
	requiredTransforms := vk.SurfaceTransformIdentityBit
	supportedTransforms := caps.SupportedTransforms
	if vk.SurfaceTransformFlagBits(supportedTransforms)&requiredTransforms != 0 {
		preTransform = requiredTransforms
	} else {
		preTransform = caps.CurrentTransform
	}

	// Find a supported composite alpha mode - one of these is guaranteed to be set
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit, // this only affects blending with other windows in OS
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for i := 0; i < len(compositeAlphaFlags); i++ {
		alphaFlags := vk.CompositeAlphaFlags(compositeAlphaFlags[i])
		if caps.SupportedCompositeAlpha&alphaFlags != 0 {
			compositeAlpha = compositeAlphaFlags[i]
			break
		}
	}

	var swapchain vk.Swapchain
	oldSwapchain := sf.Swapchain
	ret = vk.CreateSwapchain(sf.Device.Device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          sf.Surface,
		MinImageCount:    desiredSwapchainImages,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      sf.PresentMode,
		OldSwapchain:     oldSwapchain,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if err := NewError(ret); err != nil {
		return err
	}
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(sf.Device.Device, oldSwapchain, nil)
	}
	sf.Swapchain = swapchain
	sf.Format.Set(int(extent.Width), int(extent.Height), format.Format)
	if Debug {
		slog.Info("vgpu: swapchain", "width", extent.Width, "height", extent.Height, "mode", sf.PresentMode)
	}
	return nil
}

// initFrames makes a framebuffer for each swapchain image.
func (sf *Surface) initFrames() error {
	dev := sf.Device.Device
	var imageCount uint32
	if err := NewError(vk.GetSwapchainImages(dev, sf.Swapchain, &imageCount, nil)); err != nil {
		return err
	}
	images := make([]vk.Image, imageCount)
	if err := NewError(vk.GetSwapchainImages(dev, sf.Swapchain, &imageCount, images)); err != nil {
		return err
	}
	sf.NFrames = int(imageCount)
	sf.Frames = make([]*Framebuffer, 0, imageCount)
	for _, img := range images {
		fr := &Framebuffer{}
		if err := fr.ConfigSurfaceImage(dev, sf.Format, img, &sf.RenderPass); err != nil {
			return err
		}
		sf.Frames = append(sf.Frames, fr)
	}
	return nil
}

func (sf *Surface) destroyFrames() {
	for _, fr := range sf.Frames {
		fr.Destroy()
	}
	sf.Frames = nil
}

// initFlights makes the semaphores, fences and command buffers
// of the frames in flight.
func (sf *Surface) initFlights() error {
	dev := sf.Device.Device
	for i := 0; i < MaxFramesInFlight; i++ {
		fl := &flight{}
		sf.flights = append(sf.flights, fl)
		if err := sf.initSemaphores(fl); err != nil {
			return err
		}
		ret := vk.CreateFence(dev, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &fl.InFlight)
		if err := NewError(ret); err != nil {
			return err
		}
		cmd, err := sf.CmdPool.NewBuffer(sf.Device)
		if err != nil {
			return err
		}
		fl.Cmd = cmd
	}
	return nil
}

func (sf *Surface) initSemaphores(fl *flight) error {
	dev := sf.Device.Device
	info := &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if err := NewError(vk.CreateSemaphore(dev, info, nil, &fl.ImageAcquired)); err != nil {
		return err
	}
	return NewError(vk.CreateSemaphore(dev, info, nil, &fl.RenderDone))
}

func (sf *Surface) destroySemaphores(fl *flight) {
	dev := sf.Device.Device
	if fl.ImageAcquired != vk.NullSemaphore {
		vk.DestroySemaphore(dev, fl.ImageAcquired, nil)
		fl.ImageAcquired = vk.NullSemaphore
	}
	if fl.RenderDone != vk.NullSemaphore {
		vk.DestroySemaphore(dev, fl.RenderDone, nil)
		fl.RenderDone = vk.NullSemaphore
	}
}

//////////////////////////////////////////////////////////////
// FrameTracker

// Recording returns whether a frame is being recorded.
func (sf *Surface) Recording() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.recording != nil
}

// Defer runs fn once the GPU is done with everything submitted so far:
// after the frame being recorded completes, else after the last
// submitted frame, else now.
func (sf *Surface) Defer(fn func()) {
	sf.mu.Lock()
	fl := sf.recording
	if fl == nil && sf.last != nil && sf.last.Submitted {
		fl = sf.last
	}
	if fl != nil {
		fl.garbage = append(fl.garbage, fn)
		sf.mu.Unlock()
		return
	}
	sf.mu.Unlock()
	fn()
}

// release runs the garbage of a completed flight.
func (sf *Surface) release(fl *flight) {
	sf.mu.Lock()
	garbage := fl.garbage
	fl.garbage = nil
	fl.Submitted = false
	sf.mu.Unlock()
	for _, fn := range garbage {
		fn()
	}
}

//////////////////////////////////////////////////////////////
// render.Swapchain

// Reclaim releases the garbage of every flight whose fence has signaled.
func (sf *Surface) Reclaim() {
	for _, fl := range sf.flights {
		if fl.Submitted && vk.GetFenceStatus(sf.Device.Device, fl.InFlight) == vk.Success {
			sf.release(fl)
		}
	}
}

// releaseAll waits for the device and releases all garbage.
func (sf *Surface) releaseAll() {
	sf.Device.WaitIdle()
	for _, fl := range sf.flights {
		sf.release(fl)
	}
}

// Recreate rebuilds the swapchain and framebuffers for the window size.
// The flight semaphores are remade too, as a failed frame can leave
// one signaled with no waiter.
func (sf *Surface) Recreate(width, height int) (image.Point, error) {
	sf.mu.Lock()
	sf.recording = nil
	sf.mu.Unlock()
	sf.releaseAll()
	sf.destroyFrames()
	for _, fl := range sf.flights {
		sf.destroySemaphores(fl)
		if err := sf.initSemaphores(fl); err != nil {
			return sf.Format.Size, err
		}
	}
	if err := sf.initSwapchain(image.Point{X: width, Y: height}); err != nil {
		return sf.Format.Size, err
	}
	if err := sf.initFrames(); err != nil {
		return sf.Format.Size, err
	}
	return sf.Format.Size, nil
}

// Acquire acquires the next image into the current flight slot,
// first waiting for that slot's previous frame.
func (sf *Surface) Acquire(timeout time.Duration) (render.Acquired, error) {
	dev := sf.Device.Device
	fl := sf.flights[sf.FrameIndex]
	if fl.Submitted {
		ret := vk.WaitForFences(dev, 1, []vk.Fence{fl.InFlight}, vk.True, uint64(timeout.Nanoseconds()))
		if ret == vk.Timeout {
			return render.Acquired{}, render.ErrTimeout
		}
		if err := NewError(ret); err != nil {
			return render.Acquired{}, err
		}
		sf.release(fl)
	}
	if sf.Swapchain == vk.NullSwapchain {
		return render.Acquired{}, render.ErrOutOfDate
	}

	var idx uint32
	ret := vk.AcquireNextImage(dev, sf.Swapchain, uint64(timeout.Nanoseconds()), fl.ImageAcquired, vk.NullFence, &idx)
	acq := render.Acquired{Index: int(idx), Ready: semaphoreOrdered{}}
	switch ret {
	case vk.Success:
	case vk.Suboptimal:
		acq.Suboptimal = true
	case vk.ErrorOutOfDate:
		return render.Acquired{}, render.ErrOutOfDate
	case vk.Timeout, vk.NotReady:
		return render.Acquired{}, render.ErrTimeout
	default:
		return render.Acquired{}, NewError(ret)
	}
	return acq, nil
}

// Begin begins the current flight's command buffer for image.
func (sf *Surface) Begin(image int) (render.Commands, error) {
	fl := sf.flights[sf.FrameIndex]
	if err := NewError(vk.ResetCommandBuffer(fl.Cmd, 0)); err != nil {
		return nil, err
	}
	ret := vk.BeginCommandBuffer(fl.Cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := NewError(ret); err != nil {
		return nil, err
	}
	sf.mu.Lock()
	sf.recording = fl
	sf.mu.Unlock()
	return &Cmd{Cmd: fl.Cmd, Frame: sf.Frames[image]}, nil
}

// Submit submits the frame, waiting on the image acquisition, and
// presents it. Frames are ordered after prev by queue submission order.
func (sf *Surface) Submit(cmds render.Commands, acq render.Acquired, prev render.Future) (render.Future, error) {
	dev := sf.Device.Device
	queue := sf.Device.Queue
	fl := sf.flights[sf.FrameIndex]
	sf.FrameIndex = (sf.FrameIndex + 1) % len(sf.flights)

	sf.mu.Lock()
	sf.recording = nil
	sf.mu.Unlock()

	if err := NewError(vk.ResetFences(dev, 1, []vk.Fence{fl.InFlight})); err != nil {
		sf.release(fl)
		return nil, err
	}
	ret := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{fl.ImageAcquired},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmds.(*Cmd).Cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{fl.RenderDone},
	}}, fl.InFlight)
	if err := NewError(ret); err != nil {
		// nothing was submitted: re-signal the fence so the slot is reusable
		sf.Device.WaitIdle()
		vk.QueueSubmit(queue, 0, nil, fl.InFlight)
		sf.release(fl)
		return nil, err
	}
	sf.mu.Lock()
	fl.Submitted = true
	sf.last = fl
	sf.mu.Unlock()

	fut := &fenceFuture{dev: dev, fence: fl.InFlight}
	ret = vk.QueuePresent(queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{fl.RenderDone},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sf.Swapchain},
		PImageIndices:      []uint32{uint32(acq.Index)},
	})
	switch ret {
	case vk.Success, vk.Suboptimal:
		return fut, nil
	case vk.ErrorOutOfDate:
		return fut, render.ErrOutOfDate
	}
	return fut, NewError(ret)
}

// Completed returns an already completed future.
func (sf *Surface) Completed() render.Future {
	return semaphoreOrdered{}
}

// Destroy waits for the device and releases everything, including
// the vulkan surface.
func (sf *Surface) Destroy() {
	if sf.Device == nil {
		return
	}
	dev := sf.Device.Device
	sf.releaseAll()
	for _, fl := range sf.flights {
		sf.destroySemaphores(fl)
		if fl.InFlight != vk.NullFence {
			vk.DestroyFence(dev, fl.InFlight, nil)
		}
	}
	sf.flights = nil
	sf.destroyFrames()
	sf.RenderPass.Destroy()
	if sf.Swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, sf.Swapchain, nil)
		sf.Swapchain = vk.NullSwapchain
	}
	sf.CmdPool.Destroy(sf.Device)
	if sf.Surface != vk.NullSurface {
		vk.DestroySurface(sf.GPU.Instance, sf.Surface, nil)
		sf.Surface = vk.NullSurface
	}
	sf.Device = nil
}

//////////////////////////////////////////////////////////////
// Futures

// fenceFuture completes when a frame's fence signals. The fence is
// reused by a later frame in the same slot, after which the future
// reports that frame instead.
type fenceFuture struct {
	dev   vk.Device
	fence vk.Fence
}

func (ff *fenceFuture) Done() bool {
	return vk.GetFenceStatus(ff.dev, ff.fence) == vk.Success
}

func (ff *fenceFuture) Wait(timeout time.Duration) error {
	ret := vk.WaitForFences(ff.dev, 1, []vk.Fence{ff.fence}, vk.True, uint64(timeout.Nanoseconds()))
	if ret == vk.Timeout {
		return render.ErrTimeout
	}
	return NewError(ret)
}

// semaphoreOrdered is work ordered on the GPU by semaphores,
// so there is nothing for the CPU to wait on.
type semaphoreOrdered struct{}

func (semaphoreOrdered) Done() bool               { return true }
func (semaphoreOrdered) Wait(time.Duration) error { return nil }

//////////////////////////////////////////////////////////////
// Swapchain choices

// ChooseSurfaceFormat returns the preferred format if offered with sRGB
// nonlinear color space, else the first offered format. A single
// Undefined format means any format may be used.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat, preferred vk.Format) (vk.SurfaceFormat, bool) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, false
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: preferred, ColorSpace: vk.ColorSpaceSrgbNonlinear}, true
	}
	for _, f := range formats {
		if f.Format == preferred && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, true
		}
	}
	return formats[0], true
}

// ChoosePresentMode returns FIFO for vsync, which is always supported,
// otherwise mailbox or immediate if available.
func ChoosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, want := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, m := range modes {
			if m == want {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}

// SwapchainExtent returns the surface's current extent, or when the
// surface leaves it to the swapchain (width MaxUint32), want clamped
// to the allowed range.
func SwapchainExtent(current, lo, hi vk.Extent2D, want image.Point) vk.Extent2D {
	if current.Width != vk.MaxUint32 {
		return current
	}
	w := uint32(max(want.X, 0))
	h := uint32(max(want.Y, 0))
	return vk.Extent2D{
		Width:  min(max(w, lo.Width), hi.Width),
		Height: min(max(h, lo.Height), hi.Height),
	}
}
