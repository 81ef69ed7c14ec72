package present

import (
	"log/slog"
	"time"
)

// Options tune swapchain selection and frame pacing.
type Options struct {
	// PreferredFormat is used when the surface lists it, else the first reported format.
	PreferredFormat SurfaceFormat
	// LowLatency prefers mailbox presentation over vsynced FIFO.
	LowLatency bool
	// AcquireTimeout bounds fence and image waits; zero waits forever.
	AcquireTimeout time.Duration
	// MinImageCount requested from the backend; zero means its minimum plus one.
	MinImageCount uint32
	Clear         ClearValues
	Logger        *slog.Logger
}

// DefaultOptions returns sRGB BGRA, low latency, unbounded waits.
func DefaultOptions() Options {
	return Options{
		PreferredFormat: SurfaceFormat{Format: FormatB8G8R8A8Srgb, ColorSpace: ColorSpaceSrgbNonlinear},
		LowLatency:      true,
		Clear: ClearValues{
			Color: [4]float32{0.01, 0.01, 0.01, 1},
			Depth: 1,
		},
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) timeout() uint64 {
	if o.AcquireTimeout <= 0 {
		return Unbounded
	}
	return uint64(o.AcquireTimeout.Nanoseconds())
}
