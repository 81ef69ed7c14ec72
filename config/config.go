// Package config loads the renderer settings from TOML.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/andewx/dieselframe/present"
)

// Config is the full settings tree. Every section may be omitted; missing
// keys keep the values from Default.
type Config struct {
	Window    Window    `toml:"window"`
	Swapchain Swapchain `toml:"swapchain"`
	Render    Render    `toml:"render"`
	Vulkan    Vulkan    `toml:"vulkan"`
	Log       Log       `toml:"log"`
}

type Window struct {
	Width     uint32 `toml:"width"`
	Height    uint32 `toml:"height"`
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

type Swapchain struct {
	PreferredFormat     string `toml:"preferred_format"`
	PreferredColorSpace string `toml:"preferred_color_space"`
	// LowLatency prefers MAILBOX and falls back to FIFO.
	LowLatency bool `toml:"low_latency"`
	// AcquireTimeout of zero waits forever.
	AcquireTimeout Duration `toml:"acquire_timeout"`
	MinImageCount  uint32   `toml:"min_image_count"`
}

type Render struct {
	ClearColor   [4]float32 `toml:"clear_color"`
	ClearDepth   float32    `toml:"clear_depth"`
	ClearStencil uint32     `toml:"clear_stencil"`
}

type Vulkan struct {
	AppName          string   `toml:"app_name"`
	Validation       bool     `toml:"validation"`
	Layers           []string `toml:"layers"`
	DeviceExtensions []string `toml:"device_extensions"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File is appended to; empty logs to stderr.
	File string `toml:"file"`
}

// Duration reads Go duration strings such as "250ms". A bare "0" is accepted.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return errors.Wrap(err, "parse duration")
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns an 800x600 resizable window with sRGB BGRA and mailbox
// presentation when available.
func Default() Config {
	return Config{
		Window: Window{
			Width:     800,
			Height:    600,
			Title:     "dieselframe",
			Resizable: true,
		},
		Swapchain: Swapchain{
			PreferredFormat:     "B8G8R8A8_SRGB",
			PreferredColorSpace: "SRGB_NONLINEAR",
			LowLatency:          true,
		},
		Render: Render{
			ClearColor: [4]float32{0.01, 0.01, 0.01, 1},
			ClearDepth: 1,
		},
		Vulkan: Vulkan{
			AppName:          "dieselframe",
			DeviceExtensions: []string{"VK_KHR_swapchain"},
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates the TOML file at path on top of Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open config")
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates a TOML document on top of Default.
func Parse(data []byte) (Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads TOML from r. Unknown keys are an error.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, errors.New(strict.String())
		}
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks ranges and names that TOML typing cannot.
func (c Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Errorf("window size %dx%d must be non-zero", c.Window.Width, c.Window.Height)
	}
	if _, err := present.ParseFormat(c.Swapchain.PreferredFormat); err != nil {
		return errors.Wrap(err, "swapchain.preferred_format")
	}
	if _, err := present.ParseColorSpace(c.Swapchain.PreferredColorSpace); err != nil {
		return errors.Wrap(err, "swapchain.preferred_color_space")
	}
	if c.Swapchain.AcquireTimeout < 0 {
		return errors.New("swapchain.acquire_timeout must not be negative")
	}
	if c.Render.ClearDepth < 0 || c.Render.ClearDepth > 1 {
		return errors.Errorf("render.clear_depth %v outside [0, 1]", c.Render.ClearDepth)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// Present converts the swapchain and render sections into scheduler options.
// It assumes c has been validated.
func (c Config) Present() present.Options {
	format, _ := present.ParseFormat(c.Swapchain.PreferredFormat)
	space, _ := present.ParseColorSpace(c.Swapchain.PreferredColorSpace)
	return present.Options{
		PreferredFormat: present.SurfaceFormat{Format: format, ColorSpace: space},
		LowLatency:      c.Swapchain.LowLatency,
		AcquireTimeout:  time.Duration(c.Swapchain.AcquireTimeout),
		MinImageCount:   c.Swapchain.MinImageCount,
		Clear: present.ClearValues{
			Color:   c.Render.ClearColor,
			Depth:   c.Render.ClearDepth,
			Stencil: c.Render.ClearStencil,
		},
	}
}

func (w Window) Extent() present.Extent {
	return present.Extent{Width: w.Width, Height: w.Height}
}
