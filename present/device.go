package present

// SurfaceQuerier reports what the presentation surface supports.
type SurfaceQuerier interface {
	SurfaceSupport() (SurfaceSupport, error)
	// DepthFormatSupported reports optimal-tiling depth/stencil attachment support.
	DepthFormatSupported(f Format) bool
}

// ResourceFactory builds and destroys the objects a swapchain generation owns.
type ResourceFactory interface {
	CreateSwapchain(info SwapchainInfo) (SwapchainHandle, []Image, error)
	DestroySwapchain(sc SwapchainHandle)
	CreateImageView(img Image, f Format, aspect ImageAspect) (ImageView, error)
	DestroyImageView(view ImageView)
	CreateDepthImage(extent Extent, f Format) (Image, Memory, error)
	DestroyImage(img Image, mem Memory)
	CreateRenderPass(color, depth Format) (RenderPass, error)
	DestroyRenderPass(rp RenderPass)
	CreateFramebuffer(rp RenderPass, attachments []ImageView, extent Extent) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)
}

// SyncDevice creates and waits on GPU synchronization primitives.
type SyncDevice interface {
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(s Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(f Fence)
	// WaitForFence blocks until f signals. StatusNotReady means the timeout elapsed.
	WaitForFence(f Fence, timeout uint64) (Status, error)
	ResetFence(f Fence) error
	// WaitIdle blocks until the device has no outstanding work.
	WaitIdle() error
}

// Queue is the single graphics queue that also presents.
type Queue interface {
	AcquireNextImage(sc SwapchainHandle, timeout uint64, signal Semaphore) (uint32, Status, error)
	QueueSubmit(cmd CommandBuffer, wait, signal Semaphore, fence Fence) error
	QueuePresent(sc SwapchainHandle, imageIndex uint32, wait Semaphore) (Status, error)
}

// Recorder allocates and records primary command buffers.
type Recorder interface {
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(cmds []CommandBuffer)
	BeginCommandBuffer(cmd CommandBuffer) error
	EndCommandBuffer(cmd CommandBuffer) error
	CmdBeginRenderPass(cmd CommandBuffer, rp RenderPass, fb Framebuffer, extent Extent, clear ClearValues)
	CmdSetViewportScissor(cmd CommandBuffer, extent Extent)
	CmdEndRenderPass(cmd CommandBuffer)
}

// Device is the GPU backend the swapchain and scheduler drive.
type Device interface {
	SurfaceQuerier
	ResourceFactory
	SyncDevice
	Queue
	Recorder
}

// Surface is the window collaborator. It is read-only to the core apart from
// the resize flag reset.
type Surface interface {
	// Extent is the current drawable size; zero while minimized.
	Extent() Extent
	// Resized reports a resize since the last ResetResized.
	Resized() bool
	ResetResized()
	// WaitEvents blocks until the platform delivers at least one event.
	WaitEvents()
}

// DescriptorAllocator is the fixed-capacity shader binding pool render passes
// use. The core never owns one.
type DescriptorAllocator interface {
	Allocate(layout DescriptorSetLayout) (DescriptorSet, error)
	WriteBuffer(set DescriptorSet, binding uint32, buf Buffer, offset, size uint64) error
	Reset() error
}
