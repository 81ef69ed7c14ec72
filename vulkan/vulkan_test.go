package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		ret  vk.Result
		want present.Status
	}{
		{vk.Success, present.StatusSuccess},
		{vk.Suboptimal, present.StatusSuboptimal},
		{vk.ErrorOutOfDate, present.StatusOutOfDate},
		{vk.Timeout, present.StatusNotReady},
		{vk.NotReady, present.StatusNotReady},
	}
	for _, c := range cases {
		st, err := status(c.ret)
		require.NoError(t, err, c.want.String())
		assert.Equal(t, c.want, st)
	}

	_, err := status(vk.ErrorDeviceLost)
	assert.ErrorIs(t, err, present.ErrDeviceLost)

	_, err = status(vk.ErrorOutOfDeviceMemory)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, present.ErrDeviceLost)
}

func TestNewError(t *testing.T) {
	assert.NoError(t, newError(vk.Success))
	assert.ErrorIs(t, newError(vk.ErrorDeviceLost), present.ErrDeviceLost)
	assert.Error(t, newError(vk.ErrorInitializationFailed))
	assert.True(t, isError(vk.ErrorSurfaceLost))
	assert.False(t, isError(vk.Success))
}

func TestCheckExisting(t *testing.T) {
	actual := []string{"VK_KHR_surface\x00", "VK_KHR_xcb_surface", "VK_EXT_debug_report"}
	existing, missing := checkExisting(actual, []string{"VK_KHR_surface", "VK_EXT_debug_report\x00", "VK_KHR_wayland_surface"})
	assert.Equal(t, []string{"VK_KHR_surface\x00", "VK_EXT_debug_report\x00"}, existing)
	assert.Equal(t, []string{"VK_KHR_wayland_surface"}, missing)

	for _, name := range existing {
		assert.Equal(t, byte(0), name[len(name)-1], "names handed to the driver are null terminated")
	}

	existing, missing = checkExisting(actual, nil)
	assert.Empty(t, existing)
	assert.Empty(t, missing)
}

func TestSafeStrings(t *testing.T) {
	assert.Equal(t, "app\x00", safeString("app"))
	assert.Equal(t, "app\x00", safeString("app\x00"))
	assert.Equal(t, "\x00", safeString(""))
	assert.Equal(t, "layer", trimNull("layer\x00\x00"))
}

func TestFormatValuesMatchVulkan(t *testing.T) {
	pairs := map[present.Format]vk.Format{
		present.FormatB8G8R8A8Srgb:    vk.FormatB8g8r8a8Srgb,
		present.FormatB8G8R8A8Unorm:   vk.FormatB8g8r8a8Unorm,
		present.FormatR8G8B8A8Unorm:   vk.FormatR8g8b8a8Unorm,
		present.FormatR8G8B8A8Srgb:    vk.FormatR8g8b8a8Srgb,
		present.FormatD16Unorm:        vk.FormatD16Unorm,
		present.FormatD32Sfloat:       vk.FormatD32Sfloat,
		present.FormatD16UnormS8Uint:  vk.FormatD16UnormS8Uint,
		present.FormatD24UnormS8Uint:  vk.FormatD24UnormS8Uint,
		present.FormatD32SfloatS8Uint: vk.FormatD32SfloatS8Uint,
	}
	for f, want := range pairs {
		assert.Equal(t, want, vk.Format(f), f.String())
	}
	assert.Equal(t, vk.PresentModeMailbox, vk.PresentMode(present.PresentModeMailbox))
	assert.Equal(t, vk.PresentModeFifo, vk.PresentMode(present.PresentModeFifo))
	assert.Equal(t, vk.PresentModeImmediate, vk.PresentMode(present.PresentModeImmediate))
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, vk.ColorSpace(present.ColorSpaceSrgbNonlinear))
}

func TestConversions(t *testing.T) {
	e := present.Extent{Width: 800, Height: 600}
	assert.Equal(t, e, fromExtent(toExtent(e)))

	f := fromSurfaceFormat(vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear})
	assert.Equal(t, present.SurfaceFormat{Format: present.FormatB8G8R8A8Srgb, ColorSpace: present.ColorSpaceSrgbNonlinear}, f)

	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), aspectFlags(present.AspectColor))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit),
		aspectFlags(present.AspectDepth|present.AspectStencil))
}

func TestDescriptorPoolExhaustion(t *testing.T) {
	pool := &DescriptorPool{capacity: 2, allocated: 2}
	_, err := pool.Allocate(nil)
	assert.ErrorIs(t, err, present.ErrPoolExhausted)
	assert.Equal(t, uint32(2), pool.Allocated())

	assert.NoError(t, allocateResult(vk.Success))
	assert.ErrorIs(t, allocateResult(resultOutOfPoolMemory), present.ErrPoolExhausted)
	assert.ErrorIs(t, allocateResult(resultFragmentedPool), present.ErrPoolExhausted)

	err = allocateResult(vk.ErrorOutOfHostMemory)
	require.Error(t, err)
	assert.NotErrorIs(t, err, present.ErrPoolExhausted)
}

func TestDescriptorPoolWriteRejectsUnknownBuffer(t *testing.T) {
	pool := &DescriptorPool{capacity: 1}
	err := pool.WriteBuffer(nil, 0, "not a buffer", 0, 16)
	assert.Error(t, err)
}
