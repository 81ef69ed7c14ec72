package present

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("b8g8r8a8_srgb")
	require.NoError(t, err)
	assert.Equal(t, FormatB8G8R8A8Srgb, f)
	assert.Equal(t, "B8G8R8A8_SRGB", f.String())

	_, err = ParseFormat("R5G6B5")
	assert.Error(t, err)
	assert.Equal(t, "Format(999)", Format(999).String())
}

func TestParseColorSpace(t *testing.T) {
	c, err := ParseColorSpace("")
	require.NoError(t, err)
	assert.Equal(t, ColorSpaceSrgbNonlinear, c)

	_, err = ParseColorSpace("display_p3")
	assert.Error(t, err)
}

func TestDepthFormatStencil(t *testing.T) {
	assert.False(t, FormatD32Sfloat.HasStencil())
	assert.False(t, FormatD16Unorm.HasStencil())
	assert.True(t, FormatD24UnormS8Uint.HasStencil())
	assert.True(t, FormatD32SfloatS8Uint.HasStencil())
	assert.Equal(t, FormatD32Sfloat, DepthFormatCandidates[0])
}

func TestResourceError(t *testing.T) {
	err := resourceErr(ErrDeviceLost, "create framebuffer %d", 2)
	assert.EqualError(t, err, "swapchain: create framebuffer 2: "+ErrDeviceLost.Error())
	assert.ErrorIs(t, err, ErrDeviceLost)
}
