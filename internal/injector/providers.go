package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/navwalk/internal/config"
	"github.com/zeusync/navwalk/internal/core/events/bus"
	"github.com/zeusync/navwalk/internal/core/locomotion"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/scene"
	"github.com/zeusync/navwalk/internal/server"
)

// ProviderSet builds an App from a validated Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	ProvideSurface,
	ProvideParams,
	ProvideOptions,
	scene.New,
	wire.Bind(new(server.Controls), new(*scene.Session)),
	ProvideHUDConfig,
	server.NewHUD,
	navmesh.NewLoader,
	NewApp,
)

// ProvideLogger returns the process logger at the configured level.
func ProvideLogger(cfg config.Config) *log.Logger {
	logger := log.Provide()
	logger.SetLevel(cfg.LogLevel())
	return logger
}

func ProvideSurface(cfg config.Config) *navmesh.Surface {
	return navmesh.NewSurface(cfg.Navmesh.ProbeHeight)
}

func ProvideParams(cfg config.Config) locomotion.Params {
	return cfg.Params()
}

func ProvideOptions(cfg config.Config) scene.Options {
	opts := scene.DefaultOptions()
	opts.Step = cfg.Step()
	opts.StepSeconds = cfg.StepSeconds()
	opts.MaxCatchUp = cfg.Simulation.MaxCatchUp
	opts.FrameEvery = cfg.HUD.FrameEvery
	opts.Spawn = cfg.Spawn.Start.Vec()
	opts.LoadedSpawn = cfg.Spawn.Loaded.Vec()
	opts.FallbackSpawn = cfg.Spawn.Fallback.Vec()
	opts.ScreenWidth = cfg.HUD.ScreenWidth
	return opts
}

func ProvideHUDConfig(cfg config.Config) server.Config {
	c := server.DefaultConfig()
	c.Addr = cfg.HUD.Addr
	c.Token = cfg.HUD.Token
	return c
}
