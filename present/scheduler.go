package present

import (
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Scheduler drives the acquire, record, submit and present cycle against the
// active swapchain generation and decides when that generation is rebuilt.
//
// A Scheduler is driven from a single goroutine. NotifyResized is the one
// method that may be called from elsewhere; the request is latched and acted
// on at the top of StartFrame or at the tail of EndFrame.
type Scheduler struct {
	device  Device
	surface Surface
	opts    Options
	log     *slog.Logger

	swapchain      *Swapchain
	commandBuffers []CommandBuffer

	frameIndex   int
	imageIndex   uint32
	started      bool
	needsRebuild atomic.Bool
	generation   int

	// fatal is sticky; once set every frame call returns it.
	fatal  error
	closed bool
}

// NewScheduler builds the first swapchain generation for surface and the
// command buffers of every flight slot. A minimized surface blocks here until
// it has a drawable area.
func NewScheduler(device Device, surface Surface, opts Options) (*Scheduler, error) {
	s := &Scheduler{
		device:  device,
		surface: surface,
		opts:    opts,
		log:     opts.logger(),
	}
	if err := s.rebuild("initial"); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

// StartFrame acquires the next image and begins recording into the current
// flight slot's command buffer. ok is false when the frame has to be skipped
// because the swapchain was out of date or the acquire timed out; the caller
// should simply try again next tick.
func (s *Scheduler) StartFrame() (cmd CommandBuffer, ok bool, err error) {
	if err := s.usable(); err != nil {
		return nil, false, err
	}
	if s.started {
		return nil, false, ErrFrameInProgress
	}

	if reason := s.pendingRebuild(); reason != "" {
		if err := s.rebuild(reason); err != nil {
			return nil, false, err
		}
	}

	index, status, err := s.swapchain.AcquireNextImage(s.frameIndex)
	if err != nil {
		return nil, false, s.fail(errors.Wrap(err, "acquire next image"))
	}
	switch status {
	case StatusOutOfDate:
		if err := s.rebuild("out of date on acquire"); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	case StatusNotReady:
		s.log.Debug("acquire timed out, skipping frame", "slot", s.frameIndex)
		return nil, false, nil
	case StatusSuboptimal:
		s.needsRebuild.Store(true)
	}

	cmd = s.commandBuffers[s.frameIndex]
	if err := s.device.BeginCommandBuffer(cmd); err != nil {
		return nil, false, s.fail(errors.Wrap(err, "begin command buffer"))
	}
	s.imageIndex = index
	s.started = true
	return cmd, true, nil
}

// EndFrame finishes recording, submits and presents. A suboptimal or out of
// date present, or a resize, rebuilds the swapchain after the frame has been
// presented, so the recorded frame is never dropped.
func (s *Scheduler) EndFrame() error {
	if err := s.usable(); err != nil {
		return err
	}
	if !s.started {
		return ErrNoFrameInProgress
	}
	s.started = false

	cmd := s.commandBuffers[s.frameIndex]
	if err := s.device.EndCommandBuffer(cmd); err != nil {
		return s.fail(errors.Wrap(err, "end command buffer"))
	}
	status, err := s.swapchain.Submit(s.frameIndex, cmd, s.imageIndex)
	if err != nil {
		return s.fail(errors.Wrap(err, "submit frame"))
	}

	reason := ""
	switch {
	case status == StatusOutOfDate:
		reason = "out of date on present"
	case status == StatusSuboptimal:
		reason = "suboptimal on present"
	default:
		reason = s.pendingRebuild()
	}
	if reason != "" {
		if err := s.rebuild(reason); err != nil {
			return err
		}
	}

	s.frameIndex = (s.frameIndex + 1) % MaxFramesInFlight
	return nil
}

// BeginSwapchainRenderPass begins the generation's render pass on the acquired
// image, clearing color, depth and stencil, and sets a full-extent viewport
// and scissor.
func (s *Scheduler) BeginSwapchainRenderPass(cmd CommandBuffer) error {
	if err := s.checkRecording(cmd); err != nil {
		return err
	}
	sc := s.swapchain
	s.device.CmdBeginRenderPass(cmd, sc.RenderPass(), sc.Framebuffer(int(s.imageIndex)), sc.Extent(), s.opts.Clear)
	s.device.CmdSetViewportScissor(cmd, sc.Extent())
	return nil
}

// EndSwapchainRenderPass ends the pass begun by BeginSwapchainRenderPass.
func (s *Scheduler) EndSwapchainRenderPass(cmd CommandBuffer) error {
	if err := s.checkRecording(cmd); err != nil {
		return err
	}
	s.device.CmdEndRenderPass(cmd)
	return nil
}

// NotifyResized latches a rebuild for the next frame boundary.
func (s *Scheduler) NotifyResized() {
	s.needsRebuild.Store(true)
}

// Close waits for the device to go idle and releases the command buffers and
// the active generation. It is safe to call more than once.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	if s.started {
		return ErrFrameInProgress
	}
	err := s.device.WaitIdle()
	s.release()
	s.closed = true
	return err
}

func (s *Scheduler) release() {
	if len(s.commandBuffers) > 0 {
		s.device.FreeCommandBuffers(s.commandBuffers)
		s.commandBuffers = nil
	}
	if s.swapchain != nil {
		s.swapchain.Destroy()
		s.swapchain = nil
	}
}

// rebuild waits out a minimized surface, idles the device and replaces the
// generation. Command buffers are reallocated only when the image count changed.
func (s *Scheduler) rebuild(reason string) error {
	extent := s.surface.Extent()
	for extent.Empty() {
		s.log.Debug("surface minimized, waiting for events")
		s.surface.WaitEvents()
		extent = s.surface.Extent()
	}
	s.log.Debug("rebuilding swapchain", "reason", reason, "width", extent.Width, "height", extent.Height)

	if err := s.device.WaitIdle(); err != nil {
		return s.fail(errors.Wrap(err, "wait idle before rebuild"))
	}

	old := s.swapchain
	oldCount := 0
	if old != nil {
		oldCount = old.ImageCount()
	}
	next, err := NewSwapchain(s.device, extent, old, s.opts)
	if err != nil {
		return s.fail(err)
	}
	s.swapchain = next
	s.generation++

	// old is still alive here; ReleasePrevious destroys it.
	if old != nil && !old.CompareFormats(next) {
		s.log.Error("swapchain format changed",
			"old_color", old.ColorFormat(), "new_color", next.ColorFormat(),
			"old_depth", old.DepthFormat(), "new_depth", next.DepthFormat())
		return s.fail(ErrFormatChanged)
	}
	if err := next.ReleasePrevious(s.device.WaitIdle); err != nil {
		return s.fail(errors.Wrap(err, "release previous swapchain"))
	}

	if old == nil || oldCount != next.ImageCount() {
		s.log.Debug("allocating command buffers", "images_before", oldCount, "images_after", next.ImageCount())
		if err := s.allocateCommandBuffers(); err != nil {
			return s.fail(err)
		}
	}

	s.surface.ResetResized()
	s.needsRebuild.Store(false)
	return nil
}

func (s *Scheduler) allocateCommandBuffers() error {
	if len(s.commandBuffers) > 0 {
		s.device.FreeCommandBuffers(s.commandBuffers)
		s.commandBuffers = nil
	}
	cmds, err := s.device.AllocateCommandBuffers(MaxFramesInFlight)
	if err != nil {
		return &ResourceError{Op: "allocate command buffers", Err: err}
	}
	if len(cmds) != MaxFramesInFlight {
		return &ResourceError{Op: "allocate command buffers", Err: errors.Errorf("got %d buffers, want %d", len(cmds), MaxFramesInFlight)}
	}
	s.commandBuffers = cmds
	return nil
}

func (s *Scheduler) pendingRebuild() string {
	switch {
	case s.needsRebuild.Load():
		return "rebuild requested"
	case s.surface.Resized():
		return "surface resized"
	case s.surface.Extent().Empty():
		return "surface minimized"
	}
	return ""
}

func (s *Scheduler) checkRecording(cmd CommandBuffer) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !s.started {
		return ErrNoFrameInProgress
	}
	if cmd != s.commandBuffers[s.frameIndex] {
		return ErrCommandBufferMismatch
	}
	return nil
}

func (s *Scheduler) usable() error {
	if s.closed {
		return ErrClosed
	}
	return s.fatal
}

func (s *Scheduler) fail(err error) error {
	s.started = false
	s.fatal = err
	s.log.Error("frame scheduler failed", "err", err)
	return err
}

// CurrentCommandBuffer is the buffer being recorded; valid only inside a frame.
func (s *Scheduler) CurrentCommandBuffer() (CommandBuffer, error) {
	if !s.started {
		return nil, ErrNoFrameInProgress
	}
	return s.commandBuffers[s.frameIndex], nil
}

// FrameIndex is the current flight slot, in [0, MaxFramesInFlight).
func (s *Scheduler) FrameIndex() int { return s.frameIndex }

// ImageIndex is the acquired image; valid only inside a frame.
func (s *Scheduler) ImageIndex() uint32 { return s.imageIndex }

func (s *Scheduler) IsFrameInProgress() bool { return s.started }

// Generation counts swapchain generations built so far, the first one included.
func (s *Scheduler) Generation() int { return s.generation }

// Swapchain is the active generation, nil after Close. The accessors below
// return zero values once the scheduler is closed.
func (s *Scheduler) Swapchain() *Swapchain { return s.swapchain }

func (s *Scheduler) Extent() Extent {
	if s.swapchain == nil {
		return Extent{}
	}
	return s.swapchain.Extent()
}

func (s *Scheduler) AspectRatio() float32 {
	if s.swapchain == nil {
		return 0
	}
	return s.swapchain.AspectRatio()
}

func (s *Scheduler) ColorFormat() Format {
	if s.swapchain == nil {
		return FormatUndefined
	}
	return s.swapchain.ColorFormat()
}

func (s *Scheduler) DepthFormat() Format {
	if s.swapchain == nil {
		return FormatUndefined
	}
	return s.swapchain.DepthFormat()
}

func (s *Scheduler) RenderPass() RenderPass {
	if s.swapchain == nil {
		return nil
	}
	return s.swapchain.RenderPass()
}

func (s *Scheduler) ImageCount() int {
	if s.swapchain == nil {
		return 0
	}
	return s.swapchain.ImageCount()
}
