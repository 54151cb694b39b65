package injector

import (
	"context"

	"github.com/zeusync/navwalk/internal/config"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/scene"
	"github.com/zeusync/navwalk/internal/server"
	"golang.org/x/sync/errgroup"
)

// App is the assembled walkthrough.
type App struct {
	Config  config.Config
	Logger  *log.Logger
	Session *scene.Session
	HUD     *server.HUD
	Loader  *navmesh.Loader
}

func NewApp(cfg config.Config, logger *log.Logger, session *scene.Session, hud *server.HUD, loader *navmesh.Loader) *App {
	return &App{Config: cfg, Logger: logger, Session: session, HUD: hud, Loader: loader}
}

// Run loads the navmesh in the background and drives the simulation and
// the HUD until ctx ends or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	deliveries := a.Loader.Load(ctx, a.Config.Navmesh.Path)
	g.Go(func() error {
		a.Session.Follow(ctx, deliveries)
		return nil
	})
	g.Go(func() error { return a.Session.Run(ctx) })
	g.Go(func() error { return a.HUD.Run(ctx) })

	return g.Wait()
}
