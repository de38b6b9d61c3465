// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"syscall"
	"time"

	"github.com/devblok/lumen/assets"
	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/vkr"
	"github.com/devblok/lumen/window"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile     = flag.String("env", "", "Load configuration from a .env file")
	assetsPath  = flag.String("assets", "", "Asset directory or .kar archive")
	modelPath   = flag.String("model", "", "Collada model to draw from the assets")
	backend     = flag.String("window", "", "Window backend, sdl or glfw")
	debug       = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	listDevices = flag.Bool("devices", false, "Print the physical devices and exit")
	deviceIndex = flag.Int("device", 0, "Index of the physical device to render with")
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.WithError(err).Fatal("lumen stopped")
	}
}

func configure() (core.Configuration, error) {
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		return cfg, err
	}

	if *assetsPath != "" {
		cfg.Assets = *assetsPath
	}
	if *modelPath != "" {
		cfg.Renderer.ModelPath = *modelPath
	}
	if *backend != "" {
		cfg.Window.Backend = *backend
	}
	if *debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := configure()
	if err != nil {
		return err
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	src, closer, err := assets.Open(cfg.Assets)
	if err != nil {
		return err
	}
	defer closer.Close()

	win, err := window.New(cfg.Window.Backend, window.Config{
		Title:  cfg.Window.Title,
		Width:  cfg.Renderer.ScreenWidth,
		Height: cfg.Renderer.ScreenHeight,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, win.ProcAddr(), vkr.InstanceConfiguration{
		DebugMode:  cfg.Debug,
		Extensions: win.InstanceExtensions(),
		Layers:     []string{},
	})
	if err != nil {
		return err
	}
	defer instance.Destroy()

	if *listDevices {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(instance.PhysicalDevicesInfo())
	}

	surface, err := win.CreateSurface(instance.Inner())
	if err != nil {
		return err
	}
	instance.SetSurface(surface)

	device, err := vkr.NewDevice(instance, vkr.DeviceConfiguration{
		SwapchainSize: cfg.Renderer.SwapchainSize,
		Extensions:    cfg.Renderer.DeviceExtensions,
		DeviceIndex:   *deviceIndex,
		Assets:        src,
	})
	if err != nil {
		return err
	}
	defer device.Destroy()

	renderer, err := core.NewRenderer(device, win, cfg,
		core.WithAssets(src),
		core.WithLogger(log.WithField("component", "renderer")))
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go reportStats(ctx, renderer, cfg.Time.ReportInterval)

	if err := renderer.Run(ctx); err != nil {
		return err
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return err
		}
	}
	return nil
}

func reportStats(ctx context.Context, renderer *core.Renderer, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last core.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := renderer.Stats()
			log.WithFields(log.Fields{
				"fps":         float64(stats.Frames-last.Frames) / interval.Seconds(),
				"skipped":     stats.Skipped,
				"recreations": stats.Recreations,
				"cgoCalls":    runtime.NumCgoCall(),
			}).Info("frame statistics")
			last = stats
		}
	}
}
