package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/navwalk/internal/config"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	navmeshPath := flag.String("navmesh", "", "navmesh asset (.yaml, .obj, optionally .zst); overrides the config")
	addr := flag.String("addr", "", "HUD listen address; overrides the config")
	logLevel := flag.String("log-level", "", "debug, info, warn, error or silent; overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	if *navmeshPath != "" {
		cfg.Navmesh.Path = *navmeshPath
	}
	if *addr != "" {
		cfg.HUD.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err = cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error in config:", err)
		os.Exit(1)
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error starting walkthrough:", err)
		os.Exit(1)
	}
	defer func() { _ = app.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("walkthrough starting",
		log.String("navmesh", cfg.Navmesh.Path),
		log.String("hud", cfg.HUD.Addr),
		log.String("log_level", app.Logger.GetLevel().String()))

	if err = app.Run(ctx); err != nil {
		app.Logger.Error("walkthrough stopped", log.Error(err))
		_ = app.Logger.Sync()
		os.Exit(1)
	}
	app.Logger.Info("walkthrough stopped")
}
