package core

import (
	"fmt"
	"strconv"
	"time"

	"github.com/devblok/lumen/assets"
	"github.com/devblok/lumen/gfx"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Window   WindowConfiguration

	// Assets is a directory or a .kar archive shaders and models are read from.
	Assets string

	// Debug loads the Vulkan validation layers.
	Debug bool
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// ReportInterval is how often frame statistics are logged.
	ReportInterval time.Duration
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	Shaders gfx.ShaderSet

	// ModelPath is a Collada file in the assets. Empty draws a triangle.
	ModelPath string
}

// WindowConfiguration selects and sets up the window backend.
type WindowConfiguration struct {
	// Backend is either "sdl" or "glfw".
	Backend string
	Title   string
}

// Window backends
const (
	BackendSDL  = "sdl"
	BackendGLFW = "glfw"
)

// Environment keys read by LoadConfiguration
const (
	EnvWidth          = "LUMEN_WIDTH"
	EnvHeight         = "LUMEN_HEIGHT"
	EnvSwapchainSize  = "LUMEN_SWAPCHAIN_SIZE"
	EnvFPS            = "LUMEN_FPS"
	EnvVertexShader   = "LUMEN_SHADER_VERT"
	EnvFragmentShader = "LUMEN_SHADER_FRAG"
	EnvModel          = "LUMEN_MODEL"
	EnvAssets         = "LUMEN_ASSETS"
	EnvWindow         = "LUMEN_WINDOW"
	EnvDebug          = "LUMEN_DEBUG"
)

// DefaultConfiguration returns the configuration used when nothing is set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 0,
			ReportInterval:  time.Second,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:   800,
			ScreenHeight:  600,
			SwapchainSize: 3,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			Shaders: gfx.DefaultShaderSet,
		},
		Window: WindowConfiguration{
			Backend: BackendSDL,
			Title:   "Lumen",
		},
		Assets: ".",
	}
}

// LoadConfiguration loads the given .env files into the environment and
// overrides the defaults with the LUMEN_* variables found there.
func LoadConfiguration(files ...string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return cfg, fmt.Errorf("godotenv.Load(): %s", err)
		}
	}
	envy.Reload()

	var err error
	if cfg.Renderer.ScreenWidth, err = envUint32(EnvWidth, cfg.Renderer.ScreenWidth); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvHeight, cfg.Renderer.ScreenHeight); err != nil {
		return cfg, err
	}
	if cfg.Renderer.SwapchainSize, err = envUint32(EnvSwapchainSize, cfg.Renderer.SwapchainSize); err != nil {
		return cfg, err
	}
	fps, err := envUint32(EnvFPS, uint32(cfg.Time.FramesPerSecond))
	if err != nil {
		return cfg, err
	}
	cfg.Time.FramesPerSecond = int(fps)

	cfg.Renderer.Shaders.Vertex = envy.Get(EnvVertexShader, cfg.Renderer.Shaders.Vertex)
	cfg.Renderer.Shaders.Fragment = envy.Get(EnvFragmentShader, cfg.Renderer.Shaders.Fragment)
	cfg.Renderer.ModelPath = envy.Get(EnvModel, cfg.Renderer.ModelPath)
	cfg.Assets = envy.Get(EnvAssets, cfg.Assets)
	cfg.Window.Backend = envy.Get(EnvWindow, cfg.Window.Backend)

	if debug := envy.Get(EnvDebug, ""); debug != "" {
		if cfg.Debug, err = strconv.ParseBool(debug); err != nil {
			return cfg, fmt.Errorf("%s: %s", EnvDebug, err)
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the renderer can't work with.
func (c Configuration) Validate() error {
	if c.Renderer.ScreenWidth == 0 || c.Renderer.ScreenHeight == 0 {
		return fmt.Errorf("screen size %dx%d is empty", c.Renderer.ScreenWidth, c.Renderer.ScreenHeight)
	}
	if c.Renderer.SwapchainSize == 0 {
		return fmt.Errorf("swapchain size must be at least 1")
	}
	if c.Time.FramesPerSecond < 0 {
		return fmt.Errorf("frames per second can't be negative")
	}
	switch c.Window.Backend {
	case BackendSDL, BackendGLFW:
	default:
		return fmt.Errorf("unknown window backend %q", c.Window.Backend)
	}
	return assets.CheckShaderSet(c.Renderer.Shaders)
}

func envUint32(key string, fallback uint32) (uint32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	num, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback, fmt.Errorf("%s: %s", key, err)
	}
	return uint32(num), nil
}
