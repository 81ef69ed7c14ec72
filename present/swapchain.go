package present

import (
	"log/slog"
)

// frameImage is everything one presentable image owns. Keeping it in a single
// value keeps color, depth and framebuffer indices from drifting apart.
type frameImage struct {
	image       Image
	view        ImageView
	depth       Image
	depthMemory Memory
	depthView   ImageView
	framebuffer Framebuffer
	// inFlight is the fence of the flight slot that last rendered into this image.
	inFlight Fence
}

// flightSlot holds the synchronization primitives of one frame in flight.
type flightSlot struct {
	imageAvailable Semaphore
	renderFinished Semaphore
	inFlight       Fence
}

// Swapchain is one generation of presentable images, their depth buffers, the
// render pass they are compatible with and the per flight slot
// synchronization primitives. It is immutable once built; a resize builds a
// new generation.
type Swapchain struct {
	device  Device
	log     *slog.Logger
	timeout uint64

	handle       SwapchainHandle
	format       SurfaceFormat
	depthFormat  Format
	presentMode  PresentMode
	extent       Extent
	windowExtent Extent
	renderPass   RenderPass
	images       []frameImage
	slots        [MaxFramesInFlight]flightSlot

	// previous is held only until its in-flight work is known to be done.
	previous  *Swapchain
	destroyed bool
}

// NewSwapchain builds a generation sized for windowExtent. When previous is
// given its chain is passed to the backend as the recreation hint and the new
// generation takes ownership of it until ReleasePrevious.
//
// Construction is all or nothing: on error every object created so far is
// destroyed and previous is left untouched with the caller.
func NewSwapchain(device Device, windowExtent Extent, previous *Swapchain, opts Options) (*Swapchain, error) {
	if windowExtent.Empty() {
		return nil, ErrInvalidExtent
	}
	sc := &Swapchain{
		device:       device,
		log:          opts.logger(),
		timeout:      opts.timeout(),
		windowExtent: windowExtent,
		previous:     previous,
	}
	if err := sc.init(opts); err != nil {
		sc.previous = nil
		sc.destroyResources()
		sc.destroyed = true
		return nil, err
	}
	sc.log.Info("swapchain created",
		"width", sc.extent.Width,
		"height", sc.extent.Height,
		"images", len(sc.images),
		"color", sc.format.Format,
		"depth", sc.depthFormat,
		"present", sc.presentMode,
		"recreated", previous != nil)
	return sc, nil
}

func (sc *Swapchain) init(opts Options) error {
	support, err := sc.device.SurfaceSupport()
	if err != nil {
		return resourceErr(err, "query surface support")
	}
	sc.format, err = ChooseSurfaceFormat(support.Formats, opts.PreferredFormat)
	if err != nil {
		return err
	}
	sc.presentMode = ChoosePresentMode(support.PresentModes, opts.LowLatency)
	sc.extent = ChooseExtent(support.Capabilities, sc.windowExtent)
	if sc.extent.Empty() {
		return ErrInvalidExtent
	}
	sc.depthFormat, err = ChooseDepthFormat(DepthFormatCandidates, sc.device.DepthFormatSupported)
	if err != nil {
		return err
	}

	info := SwapchainInfo{
		Extent:        sc.extent,
		Format:        sc.format,
		PresentMode:   sc.presentMode,
		MinImageCount: ChooseImageCount(support.Capabilities, opts.MinImageCount),
	}
	if sc.previous != nil {
		info.Old = sc.previous.handle
	}
	handle, images, err := sc.device.CreateSwapchain(info)
	if err != nil {
		return resourceErr(err, "create swapchain")
	}
	sc.handle = handle
	if len(images) == 0 {
		return ErrNoSwapchainImage
	}

	sc.images = make([]frameImage, len(images))
	for i, img := range images {
		sc.images[i].image = img
		if err := sc.createImageResources(i); err != nil {
			return err
		}
	}

	sc.renderPass, err = sc.device.CreateRenderPass(sc.format.Format, sc.depthFormat)
	if err != nil {
		return resourceErr(err, "create render pass")
	}
	for i := range sc.images {
		fi := &sc.images[i]
		fi.framebuffer, err = sc.device.CreateFramebuffer(sc.renderPass, []ImageView{fi.view, fi.depthView}, sc.extent)
		if err != nil {
			return resourceErr(err, "create framebuffer %d", i)
		}
	}
	return sc.createSyncObjects()
}

func (sc *Swapchain) createImageResources(i int) error {
	var err error
	fi := &sc.images[i]
	fi.view, err = sc.device.CreateImageView(fi.image, sc.format.Format, AspectColor)
	if err != nil {
		return resourceErr(err, "create image view %d", i)
	}
	fi.depth, fi.depthMemory, err = sc.device.CreateDepthImage(sc.extent, sc.depthFormat)
	if err != nil {
		return resourceErr(err, "create depth image %d", i)
	}
	fi.depthView, err = sc.device.CreateImageView(fi.depth, sc.depthFormat, AspectDepth)
	if err != nil {
		return resourceErr(err, "create depth image view %d", i)
	}
	return nil
}

func (sc *Swapchain) createSyncObjects() error {
	var err error
	for i := range sc.slots {
		fs := &sc.slots[i]
		if fs.imageAvailable, err = sc.device.CreateSemaphore(); err != nil {
			return resourceErr(err, "create image available semaphore %d", i)
		}
		if fs.renderFinished, err = sc.device.CreateSemaphore(); err != nil {
			return resourceErr(err, "create render finished semaphore %d", i)
		}
		// Signaled so the first wait on a fresh slot returns immediately.
		if fs.inFlight, err = sc.device.CreateFence(true); err != nil {
			return resourceErr(err, "create in flight fence %d", i)
		}
	}
	return nil
}

// destroyResources tears down in reverse construction order and tolerates a
// partially built generation.
func (sc *Swapchain) destroyResources() {
	for i := range sc.slots {
		fs := &sc.slots[i]
		if fs.inFlight != nil {
			sc.device.DestroyFence(fs.inFlight)
		}
		if fs.renderFinished != nil {
			sc.device.DestroySemaphore(fs.renderFinished)
		}
		if fs.imageAvailable != nil {
			sc.device.DestroySemaphore(fs.imageAvailable)
		}
		*fs = flightSlot{}
	}
	for i := range sc.images {
		fi := &sc.images[i]
		if fi.framebuffer != nil {
			sc.device.DestroyFramebuffer(fi.framebuffer)
		}
		if fi.depthView != nil {
			sc.device.DestroyImageView(fi.depthView)
		}
		if fi.depth != nil {
			sc.device.DestroyImage(fi.depth, fi.depthMemory)
		}
		if fi.view != nil {
			sc.device.DestroyImageView(fi.view)
		}
	}
	sc.images = nil
	if sc.renderPass != nil {
		sc.device.DestroyRenderPass(sc.renderPass)
		sc.renderPass = nil
	}
	if sc.handle != nil {
		sc.device.DestroySwapchain(sc.handle)
		sc.handle = nil
	}
}

// Destroy releases the generation and any previous generation it still holds.
// The caller must make sure the device is idle first.
func (sc *Swapchain) Destroy() {
	if sc == nil || sc.destroyed {
		return
	}
	sc.destroyed = true
	if sc.previous != nil {
		sc.previous.Destroy()
		sc.previous = nil
	}
	sc.destroyResources()
}

// ReleasePrevious destroys the previous generation once wait reports that
// none of its work is still in flight.
func (sc *Swapchain) ReleasePrevious(wait func() error) error {
	if sc.previous == nil {
		return nil
	}
	if wait != nil {
		if err := wait(); err != nil {
			return err
		}
	}
	sc.previous.Destroy()
	sc.previous = nil
	return nil
}

// AcquireNextImage waits for the slot's previous submission to retire, then
// asks the backend for the next presentable image, signalling the slot's
// image available semaphore.
func (sc *Swapchain) AcquireNextImage(slot int) (uint32, Status, error) {
	if slot < 0 || slot >= MaxFramesInFlight {
		return 0, StatusSuccess, ErrInvalidFlightSlot
	}
	fs := &sc.slots[slot]
	status, err := sc.device.WaitForFence(fs.inFlight, sc.timeout)
	if err != nil || status != StatusSuccess {
		return 0, status, err
	}
	index, status, err := sc.device.AcquireNextImage(sc.handle, sc.timeout, fs.imageAvailable)
	if err != nil {
		return 0, status, err
	}
	if (status == StatusSuccess || status == StatusSuboptimal) && int(index) >= len(sc.images) {
		return 0, status, ErrInvalidImageIndex
	}
	return index, status, nil
}

// Submit queues cmd gated on the slot's image available semaphore, signals
// render finished and the slot fence, then presents imageIndex once render
// finished fires. An image still owned by another slot is waited on first.
func (sc *Swapchain) Submit(slot int, cmd CommandBuffer, imageIndex uint32) (Status, error) {
	if slot < 0 || slot >= MaxFramesInFlight {
		return StatusSuccess, ErrInvalidFlightSlot
	}
	if int(imageIndex) >= len(sc.images) {
		return StatusSuccess, ErrInvalidImageIndex
	}
	fs := &sc.slots[slot]
	fi := &sc.images[imageIndex]
	if fi.inFlight != nil && fi.inFlight != fs.inFlight {
		if _, err := sc.device.WaitForFence(fi.inFlight, Unbounded); err != nil {
			return StatusSuccess, err
		}
	}
	fi.inFlight = fs.inFlight

	if err := sc.device.ResetFence(fs.inFlight); err != nil {
		return StatusSuccess, err
	}
	if err := sc.device.QueueSubmit(cmd, fs.imageAvailable, fs.renderFinished, fs.inFlight); err != nil {
		return StatusSuccess, err
	}
	return sc.device.QueuePresent(sc.handle, imageIndex, fs.renderFinished)
}

// CompareFormats reports whether both generations share color and depth formats.
func (sc *Swapchain) CompareFormats(other *Swapchain) bool {
	return sc.format.Format == other.format.Format && sc.depthFormat == other.depthFormat
}

func (sc *Swapchain) Handle() SwapchainHandle { return sc.handle }
func (sc *Swapchain) ColorFormat() Format { return sc.format.Format }
func (sc *Swapchain) SurfaceFormat() SurfaceFormat { return sc.format }
func (sc *Swapchain) DepthFormat() Format { return sc.depthFormat }
func (sc *Swapchain) PresentMode() PresentMode { return sc.presentMode }
func (sc *Swapchain) Extent() Extent { return sc.extent }
func (sc *Swapchain) WindowExtent() Extent { return sc.windowExtent }
func (sc *Swapchain) AspectRatio() float32 { return sc.extent.AspectRatio() }
func (sc *Swapchain) ImageCount() int { return len(sc.images) }
func (sc *Swapchain) RenderPass() RenderPass { return sc.renderPass }
func (sc *Swapchain) Previous() *Swapchain { return sc.previous }

// Framebuffer returns the framebuffer wrapping image i and its depth buffer.
func (sc *Swapchain) Framebuffer(i int) Framebuffer { return sc.images[i].framebuffer }

// ImageView returns the color view of image i.
func (sc *Swapchain) ImageView(i int) ImageView { return sc.images[i].view }
