package present

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is the outcome of an acquire, submit or present that did not fail.
// Expected surface conditions are reported here and never as errors.
type Status int

const (
	StatusSuccess Status = iota
	// StatusSuboptimal still presents correctly; rebuild when convenient.
	StatusSuboptimal
	// StatusOutOfDate means the chain no longer matches the surface and must be rebuilt.
	StatusOutOfDate
	// StatusNotReady means a bounded wait elapsed before an image was available.
	StatusNotReady
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	case StatusNotReady:
		return "not ready"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// NeedsRebuild reports whether the status asks for a new generation.
func (s Status) NeedsRebuild() bool {
	return s == StatusSuboptimal || s == StatusOutOfDate
}

// Contract violations. These are caller bugs and are returned before any
// state changes.
var (
	ErrFrameInProgress       = errors.New("frame already in progress")
	ErrNoFrameInProgress     = errors.New("no frame in progress")
	ErrCommandBufferMismatch = errors.New("command buffer does not belong to the current frame")
	ErrInvalidFlightSlot     = errors.New("flight slot out of range")
	ErrInvalidImageIndex     = errors.New("image index out of range")
	ErrClosed                = errors.New("scheduler is closed")
)

// Fatal configuration and device conditions.
var (
	ErrFormatChanged    = errors.New("swapchain image or depth format has changed")
	ErrNoDepthFormat    = errors.New("no supported depth format")
	ErrNoSurfaceFormat  = errors.New("surface reports no color formats")
	ErrNoSwapchainImage = errors.New("swapchain has no images")
	ErrInvalidExtent    = errors.New("swapchain extent must be non-zero")
	ErrDeviceLost       = errors.New("device lost")
	ErrPoolExhausted    = errors.New("descriptor pool exhausted")
)

// ResourceError reports a failed backend object construction. Op names the
// construction site, for example "create image view 1".
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return "swapchain: " + e.Op + ": " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Cause lets errors.Cause walk through to the backend error.
func (e *ResourceError) Cause() error { return e.Err }

func resourceErr(err error, format string, args ...any) error {
	return &ResourceError{Op: fmt.Sprintf(format, args...), Err: err}
}
