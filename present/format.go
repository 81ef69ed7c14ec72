package present

import (
	"fmt"
	"strings"
)

// Format is a pixel format. Values match VkFormat.
type Format int32

const (
	FormatUndefined       Format = 0
	FormatR8G8B8A8Unorm   Format = 37
	FormatR8G8B8A8Srgb    Format = 43
	FormatB8G8R8A8Unorm   Format = 44
	FormatB8G8R8A8Srgb    Format = 50
	FormatD16Unorm        Format = 124
	FormatD32Sfloat       Format = 126
	FormatD16UnormS8Uint  Format = 128
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130
)

var formatNames = map[Format]string{
	FormatUndefined:       "UNDEFINED",
	FormatR8G8B8A8Unorm:   "R8G8B8A8_UNORM",
	FormatR8G8B8A8Srgb:    "R8G8B8A8_SRGB",
	FormatB8G8R8A8Unorm:   "B8G8R8A8_UNORM",
	FormatB8G8R8A8Srgb:    "B8G8R8A8_SRGB",
	FormatD16Unorm:        "D16_UNORM",
	FormatD32Sfloat:       "D32_SFLOAT",
	FormatD16UnormS8Uint:  "D16_UNORM_S8_UINT",
	FormatD24UnormS8Uint:  "D24_UNORM_S8_UINT",
	FormatD32SfloatS8Uint: "D32_SFLOAT_S8_UINT",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// HasStencil reports whether a depth format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD16UnormS8Uint || f == FormatD24UnormS8Uint || f == FormatD32SfloatS8Uint
}

// ParseFormat resolves a format name such as "B8G8R8A8_SRGB".
func ParseFormat(name string) (Format, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatUndefined, fmt.Errorf("unknown format %q", name)
}

// DepthFormatCandidates is the probe order for the depth attachment format.
var DepthFormatCandidates = []Format{
	FormatD32Sfloat,
	FormatD32SfloatS8Uint,
	FormatD24UnormS8Uint,
	FormatD16UnormS8Uint,
	FormatD16Unorm,
}

// ColorSpace values match VkColorSpaceKHR.
type ColorSpace int32

const (
	ColorSpaceSrgbNonlinear ColorSpace = 0
)

func (c ColorSpace) String() string {
	if c == ColorSpaceSrgbNonlinear {
		return "SRGB_NONLINEAR"
	}
	return fmt.Sprintf("ColorSpace(%d)", int32(c))
}

// ParseColorSpace resolves a color space name.
func ParseColorSpace(name string) (ColorSpace, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SRGB_NONLINEAR", "":
		return ColorSpaceSrgbNonlinear, nil
	}
	return 0, fmt.Errorf("unknown color space %q", name)
}

// PresentMode values match VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "IMMEDIATE"
	case PresentModeMailbox:
		return "MAILBOX"
	case PresentModeFifo:
		return "FIFO"
	case PresentModeFifoRelaxed:
		return "FIFO_RELAXED"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(p))
}
