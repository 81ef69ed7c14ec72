package present

import "math"

// MaxFramesInFlight bounds how many frames the CPU may record ahead of the GPU.
const MaxFramesInFlight = 2

// UndefinedExtent is the surface capability sentinel meaning the swapchain
// extent is chosen by the application.
const UndefinedExtent = math.MaxUint32

// Unbounded is the timeout value that waits forever.
const Unbounded uint64 = math.MaxUint64

// Extent is a drawable area in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero, which is the minimized state.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// AspectRatio is width over height, zero for an empty extent.
func (e Extent) AspectRatio() float32 {
	if e.Empty() {
		return 0
	}
	return float32(e.Width) / float32(e.Height)
}

// Opaque backend handles. The backend hands them out and receives them back
// unchanged; the core only compares them and checks them for nil.
type (
	SwapchainHandle     any
	Image               any
	ImageView           any
	Memory              any
	RenderPass          any
	Framebuffer         any
	Semaphore           any
	Fence               any
	CommandBuffer       any
	DescriptorSetLayout any
	DescriptorSet       any
	Buffer              any
)

// ImageAspect selects which aspect an image view covers.
type ImageAspect uint32

const (
	AspectColor ImageAspect = 1 << iota
	AspectDepth
	AspectStencil
)

// SurfaceFormat pairs a color format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// SurfaceCapabilities is the subset of the backend surface capabilities the
// swapchain sizing depends on.
type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32 // 0 means no limit
	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent
}

// SurfaceSupport is everything the backend reports about a surface.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// SwapchainInfo describes the presentable chain the backend must build.
type SwapchainInfo struct {
	Extent        Extent
	Format        SurfaceFormat
	PresentMode   PresentMode
	MinImageCount uint32
	// Old is the chain being replaced, nil on first creation.
	Old SwapchainHandle
}

// ClearValues are applied when the swapchain render pass begins.
type ClearValues struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}
