package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

// AllocateCommandBuffers allocates primary buffers from the platform pool.
func (p *Platform) AllocateCommandBuffers(count int) ([]present.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(p.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}, buffers)
	if isError(ret) {
		return nil, newError(ret)
	}
	cmds := make([]present.CommandBuffer, count)
	for i := range cmds {
		cmds[i] = buffers[i]
	}
	return cmds, nil
}

func (p *Platform) FreeCommandBuffers(cmds []present.CommandBuffer) {
	buffers := make([]vk.CommandBuffer, len(cmds))
	for i, c := range cmds {
		buffers[i] = c.(vk.CommandBuffer)
	}
	vk.FreeCommandBuffers(p.device, p.commandPool, uint32(len(buffers)), buffers)
}

// BeginCommandBuffer implicitly resets the buffer; the pool allows it.
func (p *Platform) BeginCommandBuffer(cmd present.CommandBuffer) error {
	return newError(vk.BeginCommandBuffer(cmd.(vk.CommandBuffer), &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
}

func (p *Platform) EndCommandBuffer(cmd present.CommandBuffer) error {
	return newError(vk.EndCommandBuffer(cmd.(vk.CommandBuffer)))
}

func (p *Platform) CmdBeginRenderPass(cmd present.CommandBuffer, rp present.RenderPass, fb present.Framebuffer, extent present.Extent, clear present.ClearValues) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue(clear.Color[:]),
		vk.NewClearDepthStencil(clear.Depth, clear.Stencil),
	}
	vk.CmdBeginRenderPass(cmd.(vk.CommandBuffer), &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.(vk.RenderPass),
		Framebuffer: fb.(vk.Framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{},
			Extent: toExtent(extent),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
}

// CmdSetViewportScissor covers the whole extent with depth range [0, 1].
func (p *Platform) CmdSetViewportScissor(cmd present.CommandBuffer, extent present.Extent) {
	c := cmd.(vk.CommandBuffer)
	vk.CmdSetViewport(c, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(c, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{},
		Extent: toExtent(extent),
	}})
}

func (p *Platform) CmdEndRenderPass(cmd present.CommandBuffer) {
	vk.CmdEndRenderPass(cmd.(vk.CommandBuffer))
}
