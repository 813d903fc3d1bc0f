package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"prism/engine"
	"prism/engine/config"
	"prism/engine/core"
)

func main() {
	configPath := flag.String("config", "prism.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("failed to load configuration: %v", err)
	}

	app := engine.New(cfg)
	if err := app.Initialize(); err != nil {
		app.Shutdown()
		core.LogFatal("failed to initialize engine: %v", err)
	}

	// capture system signals so a terminal interrupt still tears the GPU
	// state down cleanly
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		app.Shutdown()
		os.Exit(0)
	}()

	if err := app.Run(); err != nil {
		app.Shutdown()
		core.LogFatal("engine stopped with error: %v", err)
	}
	app.Shutdown()
}
