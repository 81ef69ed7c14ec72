// Package vulkan implements the presentation device on top of vulkan-go.
package vulkan

import (
	"log/slog"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// SurfaceSource is the window the platform presents to.
type SurfaceSource interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Options select what the platform enables at bring-up.
type Options struct {
	AppName string
	// Validation enables the listed layers, or the Khronos validation layer
	// when none are listed, plus a debug report callback.
	Validation       bool
	Layers           []string
	DeviceExtensions []string
	Logger           *slog.Logger
}

// Platform owns the instance, the logical device, its queues and the command
// pool frame command buffers come from. It implements present.Device.
type Platform struct {
	log *slog.Logger

	instance vk.Instance
	gpu      vk.PhysicalDevice
	device   vk.Device
	surface  vk.Surface

	graphicsQueueIndex uint32
	presentQueueIndex  uint32
	graphicsQueue      vk.Queue
	presentQueue       vk.Queue
	commandPool        vk.CommandPool

	gpuProperties    vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties
	debugCallback    vk.DebugReportCallback
}

// NewPlatform brings up Vulkan for src. The loader must already be
// initialized, which window.New does. On error everything created so far is
// destroyed.
func NewPlatform(src SurfaceSource, opts Options) (*Platform, error) {
	p := &Platform{log: opts.Logger}
	if p.log == nil {
		p.log = slog.Default()
	}
	if err := p.init(src, opts); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Platform) init(src SurfaceSource, opts Options) error {
	// Instance extensions and layers
	required := src.RequiredInstanceExtensions()
	if opts.Validation {
		required = append(required, "VK_EXT_debug_report")
	}
	available, err := InstanceExtensions()
	if err != nil {
		return err
	}
	instanceExtensions, missing := checkExisting(available, required)
	if len(missing) > 0 {
		p.log.Warn("vulkan: missing instance extensions", "missing", missing)
	}

	var layers []string
	if opts.Validation {
		wanted := opts.Layers
		if len(wanted) == 0 {
			wanted = []string{validationLayer}
		}
		availableLayers, err := ValidationLayers()
		if err != nil {
			return err
		}
		layers, missing = checkExisting(availableLayers, wanted)
		if len(missing) > 0 {
			p.log.Warn("vulkan: missing validation layers", "missing", missing)
		}
	}
	p.log.Debug("vulkan: enabling instance extensions", "count", len(instanceExtensions), "layers", len(layers))

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(opts.AppName),
			PEngineName:        "dieselframe\x00",
		},
		EnabledExtensionCount:   uint32(len(instanceExtensions)),
		PpEnabledExtensionNames: instanceExtensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance)
	if isError(ret) {
		return errors.Wrap(newError(ret), "create instance")
	}
	p.instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return errors.Wrap(err, "init instance")
	}

	if opts.Validation && len(layers) > 0 {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: p.debugReport,
		}, nil, &p.debugCallback)
		if isError(ret) {
			return errors.Wrap(newError(ret), "create debug report callback")
		}
	}

	if p.surface, err = src.CreateSurface(instance); err != nil {
		return err
	}

	if err := p.pickDevice(); err != nil {
		return err
	}

	// Device extensions
	availableDevice, err := DeviceExtensions(p.gpu)
	if err != nil {
		return err
	}
	deviceExtensions, missing := checkExisting(availableDevice, opts.DeviceExtensions)
	if len(missing) > 0 {
		return errors.Errorf("vulkan: device lacks required extensions %v", missing)
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: p.graphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	if p.HasSeparatePresentQueue() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: p.presentQueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	var device vk.Device
	ret = vk.CreateDevice(p.gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &device)
	if isError(ret) {
		return errors.Wrap(newError(ret), "create device")
	}
	p.device = device

	vk.GetDeviceQueue(p.device, p.graphicsQueueIndex, 0, &p.graphicsQueue)
	p.presentQueue = p.graphicsQueue
	if p.HasSeparatePresentQueue() {
		vk.GetDeviceQueue(p.device, p.presentQueueIndex, 0, &p.presentQueue)
	}

	var pool vk.CommandPool
	ret = vk.CreateCommandPool(p.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: p.graphicsQueueIndex,
		// Buffers are re-recorded every frame, so they must reset individually.
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if isError(ret) {
		return errors.Wrap(newError(ret), "create command pool")
	}
	p.commandPool = pool

	p.log.Info("vulkan: platform ready",
		"gpu", vk.ToString(p.gpuProperties.DeviceName[:]),
		"graphics_queue", p.graphicsQueueIndex,
		"present_queue", p.presentQueueIndex)
	return nil
}

// pickDevice takes the first GPU with a graphics queue family and a family
// that can present to the surface.
func (p *Platform) pickDevice() error {
	var gpuCount uint32
	if ret := vk.EnumeratePhysicalDevices(p.instance, &gpuCount, nil); isError(ret) {
		return errors.Wrap(newError(ret), "enumerate physical devices")
	}
	if gpuCount == 0 {
		return errors.New("vulkan: no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	if ret := vk.EnumeratePhysicalDevices(p.instance, &gpuCount, gpus); isError(ret) {
		return errors.Wrap(newError(ret), "enumerate physical devices")
	}

	for _, gpu := range gpus {
		graphics, present, ok := findQueueFamilies(gpu, p.surface)
		if !ok {
			continue
		}
		p.gpu = gpu
		p.graphicsQueueIndex = graphics
		p.presentQueueIndex = present
		vk.GetPhysicalDeviceProperties(p.gpu, &p.gpuProperties)
		p.gpuProperties.Deref()
		vk.GetPhysicalDeviceMemoryProperties(p.gpu, &p.memoryProperties)
		p.memoryProperties.Deref()
		return nil
	}
	return errors.New("vulkan: no GPU with graphics and present queues")
}

// findQueueFamilies prefers one family that does both graphics and present.
func findQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) (graphics, present uint32, ok bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)

	var graphicsFound, presentFound bool
	for i := uint32(0); i < count; i++ {
		props[i].Deref()
		isGraphics := props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &supported)
		canPresent := supported.B()

		if isGraphics && canPresent {
			return i, i, true
		}
		if isGraphics && !graphicsFound {
			graphics, graphicsFound = i, true
		}
		if canPresent && !presentFound {
			present, presentFound = i, true
		}
	}
	return graphics, present, graphicsFound && presentFound
}

func (p *Platform) HasSeparatePresentQueue() bool {
	return p.presentQueueIndex != p.graphicsQueueIndex
}

func (p *Platform) Instance() vk.Instance { return p.instance }
func (p *Platform) PhysicalDevice() vk.PhysicalDevice { return p.gpu }
func (p *Platform) Device() vk.Device { return p.device }
func (p *Platform) Surface() vk.Surface { return p.surface }
func (p *Platform) GraphicsQueue() vk.Queue { return p.graphicsQueue }
func (p *Platform) PresentQueue() vk.Queue { return p.presentQueue }

// Destroy waits for the device and releases everything the platform owns.
// Swapchain generations must be destroyed first.
func (p *Platform) Destroy() {
	if p.device != nil {
		vk.DeviceWaitIdle(p.device)
		if p.commandPool != vk.NullCommandPool {
			vk.DestroyCommandPool(p.device, p.commandPool, nil)
			p.commandPool = vk.NullCommandPool
		}
		vk.DestroyDevice(p.device, nil)
		p.device = nil
	}
	if p.surface != vk.NullSurface {
		vk.DestroySurface(p.instance, p.surface, nil)
		p.surface = vk.NullSurface
	}
	if p.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(p.instance, p.debugCallback, nil)
		p.debugCallback = vk.NullDebugReportCallback
	}
	if p.instance != nil {
		vk.DestroyInstance(p.instance, nil)
		p.instance = nil
	}
}

func (p *Platform) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	attrs := []any{"layer", pLayerPrefix, "code", messageCode}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		p.log.Error(pMessage, attrs...)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		p.log.Warn(pMessage, attrs...)
	default:
		p.log.Debug(pMessage, attrs...)
	}
	return vk.Bool32(vk.False)
}
