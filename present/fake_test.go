package present

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// handle is what the fake device hands out for every object.
type handle struct {
	kind string
	id   int
}

type submission struct {
	cmd                    CommandBuffer
	wait, signal           Semaphore
	fence                  Fence
	swapchain              SwapchainHandle
	imageIndex             uint32
	presentWait            Semaphore
	presentedBeforeRebuild int
}

type acquireResult struct {
	index  int // -1 picks the next image round robin
	status Status
	err    error
}

// fakeDevice records every object it creates and lets tests script surface
// support, acquire and present results, and construction failures.
type fakeDevice struct {
	support        SurfaceSupport
	depthSupported map[Format]bool
	// imageCount overrides the number of images a new chain gets.
	imageCount int

	// failOn maps an operation name to the 1-based call that fails.
	failOn map[string]int
	calls  map[string]int

	acquireScript []acquireResult
	presentScript []Status
	fenceScript   []Status

	nextID   int
	live     map[handle]bool
	bad      []string
	roundRob int

	swapchainInfos []SwapchainInfo
	submissions    []submission
	recording      map[CommandBuffer]bool
	renderPasses   []ClearValues
	waitIdle       int
	allocs         int
	frees          int
	generations    int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		support: SurfaceSupport{
			Capabilities: SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  Extent{Width: UndefinedExtent, Height: UndefinedExtent},
				MinImageExtent: Extent{Width: 1, Height: 1},
				MaxImageExtent: Extent{Width: 4096, Height: 4096},
			},
			Formats: []SurfaceFormat{
				{Format: FormatB8G8R8A8Unorm, ColorSpace: ColorSpaceSrgbNonlinear},
				{Format: FormatB8G8R8A8Srgb, ColorSpace: ColorSpaceSrgbNonlinear},
			},
			PresentModes: []PresentMode{PresentModeFifo, PresentModeMailbox},
		},
		failOn:    map[string]int{},
		calls:     map[string]int{},
		live:      map[handle]bool{},
		recording: map[CommandBuffer]bool{},
	}
}

func (d *fakeDevice) step(op string) error {
	d.calls[op]++
	if n, ok := d.failOn[op]; ok && n == d.calls[op] {
		return errors.Errorf("%s failed", op)
	}
	return nil
}

func (d *fakeDevice) create(kind string) handle {
	d.nextID++
	h := handle{kind: kind, id: d.nextID}
	d.live[h] = true
	return h
}

func (d *fakeDevice) destroy(kind string, v any) {
	h, ok := v.(handle)
	if !ok || h.kind != kind || !d.live[h] {
		d.bad = append(d.bad, fmt.Sprintf("destroy %s %v", kind, v))
		return
	}
	delete(d.live, h)
}

// liveCount counts objects of kind still alive; empty kind counts everything.
func (d *fakeDevice) liveCount(kind string) int {
	n := 0
	for h := range d.live {
		if kind == "" || h.kind == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) SurfaceSupport() (SurfaceSupport, error) {
	if err := d.step("SurfaceSupport"); err != nil {
		return SurfaceSupport{}, err
	}
	return d.support, nil
}

func (d *fakeDevice) DepthFormatSupported(f Format) bool {
	if d.depthSupported == nil {
		return true
	}
	return d.depthSupported[f]
}

func (d *fakeDevice) CreateSwapchain(info SwapchainInfo) (SwapchainHandle, []Image, error) {
	if err := d.step("CreateSwapchain"); err != nil {
		return nil, nil, err
	}
	d.swapchainInfos = append(d.swapchainInfos, info)
	d.generations++
	count := int(info.MinImageCount)
	if d.imageCount > 0 {
		count = d.imageCount
	}
	images := make([]Image, count)
	for i := range images {
		// Presentable images belong to the chain and are never destroyed directly.
		d.nextID++
		images[i] = handle{kind: "swapchain-image", id: d.nextID}
	}
	return d.create("swapchain"), images, nil
}

func (d *fakeDevice) DestroySwapchain(sc SwapchainHandle) { d.destroy("swapchain", sc) }

func (d *fakeDevice) CreateImageView(img Image, f Format, aspect ImageAspect) (ImageView, error) {
	if err := d.step("CreateImageView"); err != nil {
		return nil, err
	}
	return d.create("image-view"), nil
}

func (d *fakeDevice) DestroyImageView(view ImageView) { d.destroy("image-view", view) }

func (d *fakeDevice) CreateDepthImage(extent Extent, f Format) (Image, Memory, error) {
	if err := d.step("CreateDepthImage"); err != nil {
		return nil, nil, err
	}
	return d.create("image"), d.create("memory"), nil
}

func (d *fakeDevice) DestroyImage(img Image, mem Memory) {
	d.destroy("image", img)
	d.destroy("memory", mem)
}

func (d *fakeDevice) CreateRenderPass(color, depth Format) (RenderPass, error) {
	if err := d.step("CreateRenderPass"); err != nil {
		return nil, err
	}
	return d.create("render-pass"), nil
}

func (d *fakeDevice) DestroyRenderPass(rp RenderPass) { d.destroy("render-pass", rp) }

func (d *fakeDevice) CreateFramebuffer(rp RenderPass, attachments []ImageView, extent Extent) (Framebuffer, error) {
	if err := d.step("CreateFramebuffer"); err != nil {
		return nil, err
	}
	if len(attachments) != 2 {
		d.bad = append(d.bad, fmt.Sprintf("framebuffer with %d attachments", len(attachments)))
	}
	return d.create("framebuffer"), nil
}

func (d *fakeDevice) DestroyFramebuffer(fb Framebuffer) { d.destroy("framebuffer", fb) }

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) {
	if err := d.step("CreateSemaphore"); err != nil {
		return nil, err
	}
	return d.create("semaphore"), nil
}

func (d *fakeDevice) DestroySemaphore(s Semaphore) { d.destroy("semaphore", s) }

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	if err := d.step("CreateFence"); err != nil {
		return nil, err
	}
	if !signaled {
		d.bad = append(d.bad, "unsignaled fence")
	}
	return d.create("fence"), nil
}

func (d *fakeDevice) DestroyFence(f Fence) { d.destroy("fence", f) }

func (d *fakeDevice) WaitForFence(f Fence, timeout uint64) (Status, error) {
	if err := d.step("WaitForFence"); err != nil {
		return StatusSuccess, err
	}
	if len(d.fenceScript) > 0 {
		st := d.fenceScript[0]
		d.fenceScript = d.fenceScript[1:]
		return st, nil
	}
	return StatusSuccess, nil
}

func (d *fakeDevice) ResetFence(f Fence) error { return d.step("ResetFence") }

func (d *fakeDevice) WaitIdle() error {
	d.waitIdle++
	return d.step("WaitIdle")
}

func (d *fakeDevice) AcquireNextImage(sc SwapchainHandle, timeout uint64, signal Semaphore) (uint32, Status, error) {
	if err := d.step("AcquireNextImage"); err != nil {
		return 0, StatusSuccess, err
	}
	count := len(d.swapchainInfos)
	if count == 0 {
		return 0, StatusSuccess, errors.New("no swapchain")
	}
	res := acquireResult{index: -1}
	if len(d.acquireScript) > 0 {
		res = d.acquireScript[0]
		d.acquireScript = d.acquireScript[1:]
	}
	if res.err != nil || res.status == StatusOutOfDate || res.status == StatusNotReady {
		return 0, res.status, res.err
	}
	if res.index >= 0 {
		return uint32(res.index), res.status, nil
	}
	n := d.currentImageCount()
	idx := d.roundRob % n
	d.roundRob++
	return uint32(idx), res.status, nil
}

func (d *fakeDevice) currentImageCount() int {
	if d.imageCount > 0 {
		return d.imageCount
	}
	return int(d.swapchainInfos[len(d.swapchainInfos)-1].MinImageCount)
}

func (d *fakeDevice) QueueSubmit(cmd CommandBuffer, wait, signal Semaphore, fence Fence) error {
	if err := d.step("QueueSubmit"); err != nil {
		return err
	}
	d.submissions = append(d.submissions, submission{cmd: cmd, wait: wait, signal: signal, fence: fence})
	return nil
}

func (d *fakeDevice) QueuePresent(sc SwapchainHandle, imageIndex uint32, wait Semaphore) (Status, error) {
	if err := d.step("QueuePresent"); err != nil {
		return StatusSuccess, err
	}
	last := &d.submissions[len(d.submissions)-1]
	last.swapchain = sc
	last.imageIndex = imageIndex
	last.presentWait = wait
	last.presentedBeforeRebuild = d.generations
	if len(d.presentScript) > 0 {
		st := d.presentScript[0]
		d.presentScript = d.presentScript[1:]
		return st, nil
	}
	return StatusSuccess, nil
}

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]CommandBuffer, error) {
	if err := d.step("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	d.allocs++
	cmds := make([]CommandBuffer, count)
	for i := range cmds {
		cmds[i] = d.create("command-buffer")
	}
	return cmds, nil
}

func (d *fakeDevice) FreeCommandBuffers(cmds []CommandBuffer) {
	d.frees++
	for _, c := range cmds {
		d.destroy("command-buffer", c)
	}
}

func (d *fakeDevice) BeginCommandBuffer(cmd CommandBuffer) error {
	if err := d.step("BeginCommandBuffer"); err != nil {
		return err
	}
	if d.recording[cmd] {
		d.bad = append(d.bad, "begin while recording")
	}
	d.recording[cmd] = true
	return nil
}

func (d *fakeDevice) EndCommandBuffer(cmd CommandBuffer) error {
	if err := d.step("EndCommandBuffer"); err != nil {
		return err
	}
	if !d.recording[cmd] {
		d.bad = append(d.bad, "end without begin")
	}
	delete(d.recording, cmd)
	return nil
}

func (d *fakeDevice) CmdBeginRenderPass(cmd CommandBuffer, rp RenderPass, fb Framebuffer, extent Extent, clear ClearValues) {
	d.renderPasses = append(d.renderPasses, clear)
}

func (d *fakeDevice) CmdSetViewportScissor(cmd CommandBuffer, extent Extent) {}

func (d *fakeDevice) CmdEndRenderPass(cmd CommandBuffer) {}

// fakeSurface is a window whose size the test controls. WaitEvents runs
// onWait, which is how a test "restores" a minimized window.
type fakeSurface struct {
	extent  Extent
	resized bool
	waits   int
	onWait  func(s *fakeSurface)
}

func (s *fakeSurface) Extent() Extent { return s.extent }
func (s *fakeSurface) Resized() bool { return s.resized }
func (s *fakeSurface) ResetResized() { s.resized = false }

func (s *fakeSurface) WaitEvents() {
	s.waits++
	if s.onWait != nil {
		s.onWait(s)
	}
}

// resize simulates the framebuffer size callback.
func (s *fakeSurface) resize(w, h uint32) {
	s.extent = Extent{Width: w, Height: h}
	s.resized = true
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Logger = discardLogger()
	return opts
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
