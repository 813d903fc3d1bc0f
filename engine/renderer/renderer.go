package renderer

import (
	"fmt"

	"prism/engine/assets"
	"prism/engine/config"
	"prism/engine/core"
	"prism/engine/platform"
	"prism/engine/renderer/vulkan"
	"prism/engine/scene"
)

// Renderer is the engine-facing surface of the graphics stack. Everything
// Vulkan stays behind it; the engine loop only hands over scene state.
type Renderer struct {
	backend *vulkan.VulkanRenderer
}

func New(p *platform.Platform) *Renderer {
	return &Renderer{
		backend: vulkan.New(p),
	}
}

// Initialize brings up the backend and uploads the configured mesh and
// texture, leaving everything ready for the first frame.
func (r *Renderer) Initialize(cfg *config.Config) error {
	vertWords, err := assets.LoadShader(cfg.Assets.VertShaderPath)
	if err != nil {
		return fmt.Errorf("vertex shader: %w", err)
	}
	fragWords, err := assets.LoadShader(cfg.Assets.FragShaderPath)
	if err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}

	if err := r.backend.Initialize(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height,
		cfg.Renderer.DesiredImageCount, vertWords, fragWords); err != nil {
		return err
	}

	mesh, err := assets.LoadMesh(cfg.Assets.MeshPath)
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	if err := r.backend.UploadMesh(mesh); err != nil {
		return err
	}

	texture, err := assets.LoadTexture(cfg.Assets.TexturePath)
	if err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	if err := r.backend.UploadTexture(texture); err != nil {
		return err
	}

	core.LogInfo("renderer ready")
	return nil
}

// RenderFrame encodes the scene's per-frame blocks and drives the backend
// through one frame. A skipped frame (swapchain rebuild) returns nil.
func (r *Renderer) RenderFrame(state *scene.State) error {
	pushBlock := state.PushData()
	cameraBlock := state.CameraData()
	return r.backend.DrawFrame(&pushBlock, &cameraBlock)
}

// Resize notes the new framebuffer size for the next frame.
func (r *Renderer) Resize(width, height uint32) {
	r.backend.Resized(width, height)
}

func (r *Renderer) Shutdown() {
	r.backend.Shutdown()
}
