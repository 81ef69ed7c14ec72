// Package window is the GLFW host window the swapchain presents to.
package window

import (
	"runtime"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/config"
	"github.com/andewx/dieselframe/present"
)

// Window is a GLFW window without a client API. It implements present.Surface.
// GLFW must be driven from the goroutine that called New, which is locked to
// its OS thread.
type Window struct {
	window *glfw.Window
	latch  resizeLatch
}

// New initializes GLFW, points the Vulkan loader at GLFW's proc address and
// opens the window.
func New(cfg config.Window) (*Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "init glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan loader not found")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "init vulkan loader")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.True)
	if cfg.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	win, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}

	w := &Window{window: win}
	// Framebuffer size rather than window size: they differ on high-DPI displays.
	fbw, fbh := win.GetFramebufferSize()
	w.latch.set(fbw, fbh, false)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.latch.set(width, height, true)
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
	return w, nil
}

// Extent is the drawable area in pixels; zero while minimized.
func (w *Window) Extent() present.Extent { return w.latch.extent() }

// Resized reports a framebuffer size change since the last ResetResized.
func (w *Window) Resized() bool { return w.latch.resized() }

func (w *Window) ResetResized() { w.latch.reset() }

// WaitEvents blocks until at least one window event arrives.
func (w *Window) WaitEvents() { glfw.WaitEvents() }

// PollEvents processes pending events and reports whether the window stays open.
func (w *Window) PollEvents() bool {
	glfw.PollEvents()
	return !w.window.ShouldClose()
}

func (w *Window) ShouldClose() bool { return w.window.ShouldClose() }

func (w *Window) SetTitle(title string) { w.window.SetTitle(title) }

// RequiredInstanceExtensions lists the instance extensions GLFW needs to
// create a surface for this platform.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// CreateSurface creates the Vulkan surface backing this window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// Destroy closes the window and terminates GLFW.
func (w *Window) Destroy() {
	if w.window == nil {
		return
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
}

// resizeLatch holds the last framebuffer size and the dirty flag set by the
// size callback.
type resizeLatch struct {
	mu    sync.Mutex
	size  present.Extent
	dirty bool
}

func (l *resizeLatch) set(width, height int, dirty bool) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	l.mu.Lock()
	l.size = present.Extent{Width: uint32(width), Height: uint32(height)}
	l.dirty = l.dirty || dirty
	l.mu.Unlock()
}

func (l *resizeLatch) extent() present.Extent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

func (l *resizeLatch) resized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

func (l *resizeLatch) reset() {
	l.mu.Lock()
	l.dirty = false
	l.mu.Unlock()
}
