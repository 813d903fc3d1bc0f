package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"prism/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the application window and translates windowing callbacks
// into core input events consumed once per frame by the engine loop.
type Platform struct {
	Window *glfw.Window
	events *core.EventQueue
	// moveStep is the translation delta emitted per movement key press.
	moveStep float32
}

func New(events *core.EventQueue, moveStep float32) *Platform {
	return &Platform{
		events:   events,
		moveStep: moveStep,
	}
}

func (p *Platform) Startup(applicationName string, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)

	return nil
}

func (p *Platform) Shutdown() {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
}

// PumpMessages processes pending window events. Returns false once the
// window has been asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// GetRequiredExtensionNames reports the instance extensions the windowing
// system needs for surface creation.
func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// FramebufferSize reports the current framebuffer size in pixels, which may
// differ from the window size on high-DPI displays.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	switch key {
	case glfw.KeyEscape:
		p.events.Push(core.Event{Type: core.EventQuit})
	case glfw.KeyLeft, glfw.KeyA:
		p.events.Push(core.Event{Type: core.EventMoveAxis, Axis: core.AxisX, Delta: -p.moveStep})
	case glfw.KeyRight, glfw.KeyD:
		p.events.Push(core.Event{Type: core.EventMoveAxis, Axis: core.AxisX, Delta: p.moveStep})
	case glfw.KeyUp, glfw.KeyW:
		p.events.Push(core.Event{Type: core.EventMoveAxis, Axis: core.AxisY, Delta: p.moveStep})
	case glfw.KeyDown, glfw.KeyS:
		p.events.Push(core.Event{Type: core.EventMoveAxis, Axis: core.AxisY, Delta: -p.moveStep})
	case glfw.KeyQ:
		p.events.Push(core.Event{Type: core.EventMoveAxis, Axis: core.AxisZ, Delta: -p.moveStep})
	case glfw.KeyE:
		p.events.Push(core.Event{Type: core.EventMoveAxis, Axis: core.AxisZ, Delta: p.moveStep})
	case glfw.KeyT:
		if action == glfw.Press {
			p.events.Push(core.Event{Type: core.EventToggleBlend})
		}
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.events.Push(core.Event{
		Type:   core.EventResize,
		Width:  uint32(width),
		Height: uint32(height),
	})
}
