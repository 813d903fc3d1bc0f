package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Window, cfg.Window)
	assert.Equal(t, def.Scene, cfg.Scene)
	assert.Equal(t, def.Assets, cfg.Assets)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	content := `
log_level = "debug"

[window]
title = "demo"
width = 800
height = 600

[scene]
rotation_rate = 2.5
move_step = 0.5

[assets]
mesh = "assets/teapot.obj"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
	assert.Equal(t, float32(2.5), cfg.Scene.RotationRate)
	assert.Equal(t, float32(0.5), cfg.Scene.MoveStep)
	assert.Equal(t, "assets/teapot.obj", cfg.Assets.MeshPath)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Renderer, cfg.Renderer)
	assert.Equal(t, Default().Scene.FovDegrees, cfg.Scene.FovDegrees)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window\nwidth ="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSanitizeClampsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.toml")
	content := `
[renderer]
desired_image_count = 7

[scene]
fov_degrees = 250.0
near_plane = -1.0
far_plane = 0.05
texture_blend = 3.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), cfg.Renderer.DesiredImageCount)
	assert.Equal(t, float32(60.0), cfg.Scene.FovDegrees)
	assert.Equal(t, float32(0.1), cfg.Scene.NearPlane)
	assert.Greater(t, cfg.Scene.FarPlane, cfg.Scene.NearPlane)
	assert.Equal(t, float32(1.0), cfg.Scene.TextureBlend)
}
