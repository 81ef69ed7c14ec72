package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// InstanceExtensions lists the instance extensions available on the platform.
func InstanceExtensions() ([]string, error) {
	var count uint32
	if ret := vk.EnumerateInstanceExtensionProperties("", &count, nil); isError(ret) {
		return nil, errors.Wrap(newError(ret), "enumerate instance extensions")
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateInstanceExtensionProperties("", &count, list); isError(ret) {
		return nil, errors.Wrap(newError(ret), "enumerate instance extensions")
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions lists the extensions the physical device offers.
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil); isError(ret) {
		return nil, errors.Wrap(newError(ret), "enumerate device extensions")
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list); isError(ret) {
		return nil, errors.Wrap(newError(ret), "enumerate device extensions")
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers lists the instance layers available on the platform.
func ValidationLayers() ([]string, error) {
	var count uint32
	if ret := vk.EnumerateInstanceLayerProperties(&count, nil); isError(ret) {
		return nil, errors.Wrap(newError(ret), "enumerate layers")
	}
	list := make([]vk.LayerProperties, count)
	if ret := vk.EnumerateInstanceLayerProperties(&count, list); isError(ret) {
		return nil, errors.Wrap(newError(ret), "enumerate layers")
	}
	names := make([]string, 0, count)
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// checkExisting keeps the required names that are actually available and
// counts the ones that are not. Both sides may be null terminated.
func checkExisting(actual, required []string) (existing []string, missing []string) {
	have := make(map[string]bool, len(actual))
	for _, name := range actual {
		have[trimNull(name)] = true
	}
	for _, name := range required {
		if have[trimNull(name)] {
			existing = append(existing, safeString(name))
		} else {
			missing = append(missing, trimNull(name))
		}
	}
	return existing, missing
}

// safeString null terminates s for the C side.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func trimNull(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}
