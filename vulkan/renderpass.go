package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

// CreateRenderPass builds the single subpass color + depth pass every
// swapchain framebuffer is compatible with. Color is cleared and presented,
// depth and stencil are cleared and discarded.
func (p *Platform) CreateRenderPass(color, depth present.Format) (present.RenderPass, error) {
	stencilLoad := vk.AttachmentLoadOpDontCare
	if depth.HasStencil() {
		stencilLoad = vk.AttachmentLoadOpClear
	}
	attachments := []vk.AttachmentDescription{
		{
			Format:         vk.Format(color),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         vk.Format(depth),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  stencilLoad,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorRefs,
		PDepthStencilAttachment: &depthRef,
	}}

	// Wait for the presentation engine to release the image and for the
	// previous frame's depth writes before clearing.
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}}

	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(p.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &renderPass)
	if isError(ret) {
		return nil, newError(ret)
	}
	return renderPass, nil
}

func (p *Platform) DestroyRenderPass(rp present.RenderPass) {
	vk.DestroyRenderPass(p.device, rp.(vk.RenderPass), nil)
}

func (p *Platform) CreateFramebuffer(rp present.RenderPass, attachments []present.ImageView, extent present.Extent) (present.Framebuffer, error) {
	views := make([]vk.ImageView, len(attachments))
	for i, a := range attachments {
		views[i] = a.(vk.ImageView)
	}
	var framebuffer vk.Framebuffer
	ret := vk.CreateFramebuffer(p.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.(vk.RenderPass),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &framebuffer)
	if isError(ret) {
		return nil, newError(ret)
	}
	return framebuffer, nil
}

func (p *Platform) DestroyFramebuffer(fb present.Framebuffer) {
	vk.DestroyFramebuffer(p.device, fb.(vk.Framebuffer), nil)
}
