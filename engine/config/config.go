package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration, loaded from a TOML file. Every
// field has a default so an empty or missing file still yields a runnable
// setup.
type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Scene    Scene    `toml:"scene"`
	Assets   Assets   `toml:"assets"`
	LogLevel string   `toml:"log_level"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type Renderer struct {
	// DesiredImageCount is clamped to what the surface supports at swapchain
	// creation; 2 or 3 are the sensible values.
	DesiredImageCount uint32 `toml:"desired_image_count"`
}

type Scene struct {
	// FovDegrees is the vertical field of view.
	FovDegrees float32 `toml:"fov_degrees"`
	NearPlane  float32 `toml:"near_plane"`
	FarPlane   float32 `toml:"far_plane"`
	// RotationRate is the model spin rate in radians per second.
	RotationRate float32 `toml:"rotation_rate"`
	// MoveStep is the translation applied per axis-move key press, in world units.
	MoveStep float32 `toml:"move_step"`
	// TextureBlend mixes flat vertex color (0) with sampled texture color (1).
	TextureBlend float32 `toml:"texture_blend"`
}

type Assets struct {
	MeshPath       string `toml:"mesh"`
	TexturePath    string `toml:"texture"`
	VertShaderPath string `toml:"vert_shader"`
	FragShaderPath string `toml:"frag_shader"`
}

func Default() *Config {
	return &Config{
		Window: Window{
			Title:  "prism",
			Width:  1280,
			Height: 720,
		},
		Renderer: Renderer{
			DesiredImageCount: 3,
		},
		Scene: Scene{
			FovDegrees:   60.0,
			NearPlane:    0.1,
			FarPlane:     100.0,
			RotationRate: 1.0,
			MoveStep:     0.25,
			TextureBlend: 0.0,
		},
		Assets: Assets{
			MeshPath:       "resources/model.obj",
			TexturePath:    "resources/texture.png",
			VertShaderPath: "shaders/mesh.vert.spv",
			FragShaderPath: "shaders/mesh.frag.spv",
		},
		LogLevel: "info",
	}
}

// Load reads the TOML file at path and merges it over the defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	if c.Window.Width == 0 {
		c.Window.Width = 1280
	}
	if c.Window.Height == 0 {
		c.Window.Height = 720
	}
	if c.Renderer.DesiredImageCount < 2 {
		c.Renderer.DesiredImageCount = 2
	}
	if c.Renderer.DesiredImageCount > 3 {
		c.Renderer.DesiredImageCount = 3
	}
	if c.Scene.FovDegrees <= 0 || c.Scene.FovDegrees >= 180 {
		c.Scene.FovDegrees = 60.0
	}
	if c.Scene.NearPlane <= 0 {
		c.Scene.NearPlane = 0.1
	}
	if c.Scene.FarPlane <= c.Scene.NearPlane {
		c.Scene.FarPlane = c.Scene.NearPlane + 100.0
	}
	if c.Scene.TextureBlend < 0 {
		c.Scene.TextureBlend = 0
	}
	if c.Scene.TextureBlend > 1 {
		c.Scene.TextureBlend = 1
	}
}
