package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

func (p *Platform) CreateSemaphore() (present.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(p.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if isError(ret) {
		return nil, newError(ret)
	}
	return sem, nil
}

func (p *Platform) DestroySemaphore(s present.Semaphore) {
	vk.DestroySemaphore(p.device, s.(vk.Semaphore), nil)
}

func (p *Platform) CreateFence(signaled bool) (present.Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(p.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	if isError(ret) {
		return nil, newError(ret)
	}
	return fence, nil
}

func (p *Platform) DestroyFence(f present.Fence) {
	vk.DestroyFence(p.device, f.(vk.Fence), nil)
}

// WaitForFence reports StatusNotReady when timeout elapses first.
func (p *Platform) WaitForFence(f present.Fence, timeout uint64) (present.Status, error) {
	ret := vk.WaitForFences(p.device, 1, []vk.Fence{f.(vk.Fence)}, vk.True, timeout)
	return status(ret)
}

func (p *Platform) ResetFence(f present.Fence) error {
	return newError(vk.ResetFences(p.device, 1, []vk.Fence{f.(vk.Fence)}))
}

func (p *Platform) WaitIdle() error {
	return newError(vk.DeviceWaitIdle(p.device))
}

func (p *Platform) AcquireNextImage(sc present.SwapchainHandle, timeout uint64, signal present.Semaphore) (uint32, present.Status, error) {
	var index uint32
	ret := vk.AcquireNextImage(p.device, sc.(vk.Swapchain), timeout, signal.(vk.Semaphore), vk.NullFence, &index)
	st, err := status(ret)
	if err != nil {
		return 0, st, errors.Wrap(err, "acquire next image")
	}
	return index, st, nil
}

// QueueSubmit submits cmd on the graphics queue. The wait happens at the
// color attachment output stage so vertex work can start before the image
// is acquired.
func (p *Platform) QueueSubmit(cmd present.CommandBuffer, wait, signal present.Semaphore, fence present.Fence) error {
	submit := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.(vk.Semaphore)},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd.(vk.CommandBuffer)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.(vk.Semaphore)},
	}}
	if ret := vk.QueueSubmit(p.graphicsQueue, 1, submit, fence.(vk.Fence)); isError(ret) {
		return errors.Wrap(newError(ret), "queue submit")
	}
	return nil
}

func (p *Platform) QueuePresent(sc present.SwapchainHandle, imageIndex uint32, wait present.Semaphore) (present.Status, error) {
	ret := vk.QueuePresent(p.presentQueue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(vk.Semaphore)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.(vk.Swapchain)},
		PImageIndices:      []uint32{imageIndex},
	})
	st, err := status(ret)
	if err != nil {
		return st, errors.Wrap(err, "queue present")
	}
	return st, nil
}
