package present

// ChooseSurfaceFormat picks preferred if the surface lists it, otherwise the
// first reported format. A lone undefined entry means any format is accepted.
func ChooseSurfaceFormat(available []SurfaceFormat, preferred SurfaceFormat) (SurfaceFormat, error) {
	if len(available) == 0 {
		return SurfaceFormat{}, ErrNoSurfaceFormat
	}
	if len(available) == 1 && available[0].Format == FormatUndefined {
		return preferred, nil
	}
	for _, f := range available {
		if f == preferred {
			return f, nil
		}
	}
	return available[0], nil
}

// ChoosePresentMode prefers mailbox when low latency is requested and the
// surface offers it. FIFO is always available.
func ChoosePresentMode(available []PresentMode, lowLatency bool) PresentMode {
	if lowLatency {
		for _, m := range available {
			if m == PresentModeMailbox {
				return m
			}
		}
	}
	return PresentModeFifo
}

// ChooseExtent uses the surface extent verbatim unless the surface reports the
// undefined sentinel, in which case the window extent is clamped into range.
func ChooseExtent(caps SurfaceCapabilities, window Extent) Extent {
	if caps.CurrentExtent.Width != UndefinedExtent {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount clamps desired into the surface limits. Zero asks for one
// more than the minimum so the application never waits on the compositor.
func ChooseImageCount(caps SurfaceCapabilities, desired uint32) uint32 {
	count := desired
	if count == 0 {
		count = caps.MinImageCount + 1
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	return count
}

// ChooseDepthFormat returns the first candidate the device supports.
func ChooseDepthFormat(candidates []Format, supported func(Format) bool) (Format, error) {
	for _, f := range candidates {
		if supported(f) {
			return f, nil
		}
	}
	return FormatUndefined, ErrNoDepthFormat
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
