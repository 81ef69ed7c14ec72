// Command dieselframe opens a window and drives the frame scheduler with a
// clear-only swapchain render pass.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/config"
	"github.com/andewx/dieselframe/present"
	"github.com/andewx/dieselframe/vulkan"
	"github.com/andewx/dieselframe/window"
)

// frameUniformSize covers the per flight slot data: elapsed seconds and frame number.
const frameUniformSize = 8

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	frames := flag.Int("frames", 0, "exit after this many presented frames (0 runs until closed)")
	flag.Parse()

	if err := run(*configPath, *frames); err != nil {
		fmt.Fprintf(os.Stderr, "dieselframe: %+v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, maxFrames int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	logger, closer, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	win, err := window.New(cfg.Window)
	if err != nil {
		return err
	}
	defer win.Destroy()

	platform, err := vulkan.NewPlatform(win, vulkan.Options{
		AppName:          cfg.Vulkan.AppName,
		Validation:       cfg.Vulkan.Validation,
		Layers:           cfg.Vulkan.Layers,
		DeviceExtensions: cfg.Vulkan.DeviceExtensions,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer platform.Destroy()

	opts := cfg.Present()
	opts.Logger = logger
	scheduler, err := present.NewScheduler(platform, win, opts)
	if err != nil {
		return err
	}
	defer scheduler.Close()

	uniforms, err := newFrameUniforms(platform)
	if err != nil {
		return err
	}
	defer uniforms.destroy(platform)

	start := time.Now()
	presented := 0
	for win.PollEvents() {
		cmd, ok, err := scheduler.StartFrame()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := uniforms.update(scheduler.FrameIndex(), time.Since(start), presented); err != nil {
			return err
		}
		if err := scheduler.BeginSwapchainRenderPass(cmd); err != nil {
			return err
		}
		if err := scheduler.EndSwapchainRenderPass(cmd); err != nil {
			return err
		}
		if err := scheduler.EndFrame(); err != nil {
			return err
		}
		presented++
		if maxFrames > 0 && presented >= maxFrames {
			break
		}
	}
	logger.Info("exiting", "frames", presented, "generations", scheduler.Generation(), "elapsed", time.Since(start))
	return nil
}

// frameUniforms keeps one uniform buffer and descriptor set per flight slot
// so a slot never overwrites data the GPU may still read for another.
type frameUniforms struct {
	layout  vk.DescriptorSetLayout
	pool    *vulkan.DescriptorPool
	buffers [present.MaxFramesInFlight]*vulkan.UniformBuffer
	sets    [present.MaxFramesInFlight]present.DescriptorSet
}

func newFrameUniforms(p *vulkan.Platform) (*frameUniforms, error) {
	u := &frameUniforms{}
	if err := u.init(p); err != nil {
		u.destroy(p)
		return nil, err
	}
	return u, nil
}

func (u *frameUniforms) init(p *vulkan.Platform) (err error) {

	if u.layout, err = p.NewUniformLayout(0, vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit); err != nil {
		return err
	}
	if u.pool, err = p.NewDescriptorPool(present.MaxFramesInFlight); err != nil {
		return err
	}
	for i := range u.buffers {
		if u.buffers[i], err = p.NewUniformBuffer(frameUniformSize); err != nil {
			return err
		}
		if u.sets[i], err = u.pool.Allocate(u.layout); err != nil {
			return errors.Wrapf(err, "descriptor set %d", i)
		}
		if err = u.pool.WriteBuffer(u.sets[i], 0, u.buffers[i], 0, frameUniformSize); err != nil {
			return err
		}
	}
	return nil
}

func (u *frameUniforms) update(slot int, elapsed time.Duration, frame int) error {
	var data [frameUniformSize]byte
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(float32(elapsed.Seconds())))
	binary.LittleEndian.PutUint32(data[4:], uint32(frame))
	return u.buffers[slot].Update(data[:])
}

func (u *frameUniforms) destroy(p *vulkan.Platform) {
	if err := p.WaitIdle(); err != nil {
		slog.Error("wait idle before releasing uniforms", "err", err)
	}
	for _, b := range u.buffers {
		if b != nil {
			b.Destroy()
		}
	}
	if u.pool != nil {
		u.pool.Destroy()
	}
	// Destroying a null layout is a no-op.
	p.DestroyLayout(u.layout)
}
