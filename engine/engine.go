package engine

import (
	"prism/engine/config"
	"prism/engine/core"
	"prism/engine/platform"
	"prism/engine/renderer"
	"prism/engine/scene"
)

const eventQueueCapacity = 256

// Engine wires the subsystems together and owns the frame loop: pump the
// window, drain input, advance the scene, render.
type Engine struct {
	cfg      *config.Config
	events   *core.EventQueue
	platform *platform.Platform
	renderer *renderer.Renderer
	scene    *scene.State

	clock   *core.Clock
	metrics *core.FrameMetrics

	lastElapsed   float64
	fpsLogElapsed float64

	running bool
}

func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg:     cfg,
		clock:   core.NewClock(),
		metrics: core.NewFrameMetrics(),
	}
}

func (e *Engine) Initialize() error {
	core.SetLogLevel(core.ParseLogLevel(e.cfg.LogLevel))

	e.events = core.NewEventQueue(eventQueueCapacity)
	e.platform = platform.New(e.events, e.cfg.Scene.MoveStep)

	if err := e.platform.Startup(e.cfg.Window.Title, e.cfg.Window.Width, e.cfg.Window.Height); err != nil {
		return err
	}

	camera := scene.NewCamera(e.cfg.Scene.FovDegrees, e.cfg.Scene.NearPlane, e.cfg.Scene.FarPlane)
	width, height := e.platform.FramebufferSize()
	camera.SetAspect(width, height)
	e.scene = scene.NewState(camera, e.cfg.Scene.RotationRate, e.cfg.Scene.TextureBlend)

	e.renderer = renderer.New(e.platform)
	if err := e.renderer.Initialize(e.cfg); err != nil {
		return err
	}

	return nil
}

// Run drives frames until the window closes or a quit event arrives.
// Returns the first fatal renderer error.
func (e *Engine) Run() error {
	e.running = true
	e.clock.Start()
	e.lastElapsed = 0

	core.LogInfo("entering frame loop")

	for e.running && e.platform.PumpMessages() {
		e.clock.Update()
		elapsed := e.clock.Elapsed()
		delta := elapsed - e.lastElapsed
		e.lastElapsed = elapsed

		for _, ev := range e.events.Drain() {
			switch ev.Type {
			case core.EventQuit:
				core.LogInfo("quit requested")
				e.running = false
			case core.EventResize:
				e.renderer.Resize(ev.Width, ev.Height)
				e.scene.Camera.SetAspect(ev.Width, ev.Height)
			default:
				e.scene.ApplyEvent(ev)
			}
		}
		if !e.running {
			break
		}

		e.scene.Update(delta)

		if err := e.renderer.RenderFrame(e.scene); err != nil {
			core.LogError("frame failed: %v", err)
			return err
		}

		e.metrics.Update(delta)
		e.fpsLogElapsed += delta
		if e.fpsLogElapsed >= 5 {
			e.fpsLogElapsed = 0
			core.LogDebug("fps: %.1f, frame time: %.2fms", e.metrics.FPS(), e.metrics.FrameTime())
		}
	}

	return nil
}

func (e *Engine) Shutdown() {
	if e.renderer != nil {
		e.renderer.Shutdown()
	}
	if e.platform != nil {
		e.platform.Shutdown()
	}
	core.LogInfo("engine shut down")
}
