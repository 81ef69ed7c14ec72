package window

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/dieselframe/config"
	"github.com/andewx/dieselframe/present"
)

func TestResizeLatch(t *testing.T) {
	var l resizeLatch
	l.set(800, 600, false)
	assert.Equal(t, present.Extent{Width: 800, Height: 600}, l.extent())
	assert.False(t, l.resized())

	l.set(1024, 768, true)
	l.set(1280, 720, true)
	assert.True(t, l.resized())
	assert.Equal(t, present.Extent{Width: 1280, Height: 720}, l.extent(), "last size wins")

	l.reset()
	assert.False(t, l.resized())

	l.set(0, 0, true)
	assert.True(t, l.extent().Empty(), "minimized")
	l.set(-1, 10, false)
	assert.True(t, l.resized(), "a later size without the flag keeps the latch set")
	assert.Equal(t, uint32(0), l.extent().Width)
}

var _ present.Surface = (*Window)(nil)

func TestWindow(t *testing.T) {
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("needs a display and a Vulkan loader")
	}
	w, err := New(config.Window{Width: 320, Height: 240, Title: "test", Resizable: true})
	if err != nil {
		t.Skipf("no vulkan capable window: %v", err)
	}
	defer w.Destroy()

	assert.False(t, w.Extent().Empty())
	assert.False(t, w.Resized())
	assert.NotEmpty(t, w.RequiredInstanceExtensions())
	require.True(t, w.PollEvents())
}
