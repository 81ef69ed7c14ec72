package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

var _ present.Device = (*Platform)(nil)

// SurfaceSupport queries capabilities, formats and present modes.
func (p *Platform) SurfaceSupport() (present.SurfaceSupport, error) {
	var caps vk.SurfaceCapabilities
	if ret := vk.GetPhysicalDeviceSurfaceCapabilities(p.gpu, p.surface, &caps); isError(ret) {
		return present.SurfaceSupport{}, errors.Wrap(newError(ret), "surface capabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formatCount uint32
	if ret := vk.GetPhysicalDeviceSurfaceFormats(p.gpu, p.surface, &formatCount, nil); isError(ret) {
		return present.SurfaceSupport{}, errors.Wrap(newError(ret), "surface formats")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if ret := vk.GetPhysicalDeviceSurfaceFormats(p.gpu, p.surface, &formatCount, formats); isError(ret) {
		return present.SurfaceSupport{}, errors.Wrap(newError(ret), "surface formats")
	}

	var modeCount uint32
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(p.gpu, p.surface, &modeCount, nil); isError(ret) {
		return present.SurfaceSupport{}, errors.Wrap(newError(ret), "surface present modes")
	}
	modes := make([]vk.PresentMode, modeCount)
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(p.gpu, p.surface, &modeCount, modes); isError(ret) {
		return present.SurfaceSupport{}, errors.Wrap(newError(ret), "surface present modes")
	}

	support := present.SurfaceSupport{
		Capabilities: present.SurfaceCapabilities{
			MinImageCount:  caps.MinImageCount,
			MaxImageCount:  caps.MaxImageCount,
			CurrentExtent:  fromExtent(caps.CurrentExtent),
			MinImageExtent: fromExtent(caps.MinImageExtent),
			MaxImageExtent: fromExtent(caps.MaxImageExtent),
		},
		Formats:      make([]present.SurfaceFormat, 0, formatCount),
		PresentModes: make([]present.PresentMode, 0, modeCount),
	}
	for _, f := range formats[:formatCount] {
		f.Deref()
		support.Formats = append(support.Formats, fromSurfaceFormat(f))
	}
	for _, m := range modes[:modeCount] {
		support.PresentModes = append(support.PresentModes, present.PresentMode(m))
	}
	return support, nil
}

// DepthFormatSupported reports optimal tiling depth/stencil attachment support.
func (p *Platform) DepthFormatSupported(f present.Format) bool {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(p.gpu, vk.Format(f), &props)
	props.Deref()
	return props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0
}

// CreateSwapchain creates the chain and fetches its images. info.Old, when
// set, is retired by the driver but stays owned by the caller.
func (p *Platform) CreateSwapchain(info present.SwapchainInfo) (present.SwapchainHandle, []present.Image, error) {
	var caps vk.SurfaceCapabilities
	if ret := vk.GetPhysicalDeviceSurfaceCapabilities(p.gpu, p.surface, &caps); isError(ret) {
		return nil, nil, errors.Wrap(newError(ret), "surface capabilities")
	}
	caps.Deref()

	preTransform := vk.SurfaceTransformIdentityBit
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&preTransform == 0 {
		preTransform = caps.CurrentTransform
	}
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	old := vk.NullSwapchain
	if info.Old != nil {
		old = info.Old.(vk.Swapchain)
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          p.surface,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      toExtent(info.Extent),
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentMode(info.PresentMode),
		OldSwapchain:     old,
		Clipped:          vk.True,
	}
	if p.HasSeparatePresentQueue() {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{p.graphicsQueueIndex, p.presentQueueIndex}
	}

	var swapchain vk.Swapchain
	if ret := vk.CreateSwapchain(p.device, &createInfo, nil, &swapchain); isError(ret) {
		return nil, nil, newError(ret)
	}

	var count uint32
	if ret := vk.GetSwapchainImages(p.device, swapchain, &count, nil); isError(ret) {
		vk.DestroySwapchain(p.device, swapchain, nil)
		return nil, nil, errors.Wrap(newError(ret), "swapchain images")
	}
	vkImages := make([]vk.Image, count)
	if ret := vk.GetSwapchainImages(p.device, swapchain, &count, vkImages); isError(ret) {
		vk.DestroySwapchain(p.device, swapchain, nil)
		return nil, nil, errors.Wrap(newError(ret), "swapchain images")
	}
	images := make([]present.Image, count)
	for i := range images {
		images[i] = vkImages[i]
	}
	return swapchain, images, nil
}

func (p *Platform) DestroySwapchain(sc present.SwapchainHandle) {
	vk.DestroySwapchain(p.device, sc.(vk.Swapchain), nil)
}

func (p *Platform) CreateImageView(img present.Image, f present.Format, aspect present.ImageAspect) (present.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(p.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(vk.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(f),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if isError(ret) {
		return nil, newError(ret)
	}
	return view, nil
}

func (p *Platform) DestroyImageView(view present.ImageView) {
	vk.DestroyImageView(p.device, view.(vk.ImageView), nil)
}

// CreateDepthImage allocates a device local depth/stencil attachment image.
func (p *Platform) CreateDepthImage(extent present.Extent, f present.Format) (present.Image, present.Memory, error) {
	var image vk.Image
	ret := vk.CreateImage(p.device, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        vk.Format(f),
		Extent:        vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if isError(ret) {
		return nil, nil, newError(ret)
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(p.device, image, &reqs)
	reqs.Deref()

	memory, err := p.allocate(reqs, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(p.device, image, nil)
		return nil, nil, err
	}
	if ret := vk.BindImageMemory(p.device, image, memory, 0); isError(ret) {
		vk.FreeMemory(p.device, memory, nil)
		vk.DestroyImage(p.device, image, nil)
		return nil, nil, errors.Wrap(newError(ret), "bind depth memory")
	}
	return image, memory, nil
}

func (p *Platform) DestroyImage(img present.Image, mem present.Memory) {
	vk.DestroyImage(p.device, img.(vk.Image), nil)
	if mem != nil {
		vk.FreeMemory(p.device, mem.(vk.DeviceMemory), nil)
	}
}

func aspectFlags(a present.ImageAspect) vk.ImageAspectFlags {
	var flags vk.ImageAspectFlagBits
	if a&present.AspectColor != 0 {
		flags |= vk.ImageAspectColorBit
	}
	if a&present.AspectDepth != 0 {
		flags |= vk.ImageAspectDepthBit
	}
	if a&present.AspectStencil != 0 {
		flags |= vk.ImageAspectStencilBit
	}
	return vk.ImageAspectFlags(flags)
}

func fromExtent(e vk.Extent2D) present.Extent {
	return present.Extent{Width: e.Width, Height: e.Height}
}

func toExtent(e present.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func fromSurfaceFormat(f vk.SurfaceFormat) present.SurfaceFormat {
	return present.SurfaceFormat{
		Format:     present.Format(f.Format),
		ColorSpace: present.ColorSpace(f.ColorSpace),
	}
}
