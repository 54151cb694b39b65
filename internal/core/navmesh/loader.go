package navmesh

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/navwalk/internal/core/observability/log"
)

// Delivery hands one mesh from the loader to whoever owns the Surface.
type Delivery struct {
	Mesh     *Mesh
	Source   string
	Fallback bool
	// Err is the load failure that caused a fallback, if any.
	Err error
}

// Loader reads navmesh assets off the simulation goroutine.
type Loader struct {
	logger log.Log
	read   func(path string) (*Mesh, error)
}

// NewLoader creates a loader that reads from disk.
func NewLoader(logger log.Log) *Loader {
	return &Loader{
		logger: logger.With(log.String("component", "navmesh.loader")),
		read:   ReadFile,
	}
}

// Load starts reading path in the background. The channel yields one
// delivery and is then closed. A failed read yields the fallback surface
// with Err set. If ctx ends before the read completes nothing is delivered.
func (l *Loader) Load(ctx context.Context, path string) <-chan Delivery {
	out := make(chan Delivery, 1)
	go func() {
		defer close(out)
		d := l.load(path)
		if ctx.Err() != nil {
			l.logger.Debug("navmesh load abandoned", log.String("path", path))
			return
		}
		out <- d
	}()
	return out
}

func (l *Loader) load(path string) Delivery {
	if path == "" {
		return l.fallback(path, ErrNoAsset)
	}

	start := time.Now()
	m, err := l.read(path)
	if err != nil {
		return l.fallback(path, err)
	}

	l.logger.Info("navmesh loaded",
		log.String("path", path),
		log.Int("triangles", m.Len()),
		log.Uint64("fingerprint", m.Fingerprint()),
		log.Duration("took", time.Since(start)))
	return Delivery{Mesh: m, Source: path}
}

// fallback reports why the fallback surface is used. A missing asset is
// expected in demos and only warns.
func (l *Loader) fallback(path string, err error) Delivery {
	level := log.LevelError
	if errors.Is(err, ErrNoAsset) {
		level = log.LevelWarn
	}
	l.logger.Log(level, "using fallback navmesh surface", log.String("path", path), log.Error(err))
	return Delivery{Mesh: Fallback(), Source: "fallback", Fallback: true, Err: err}
}
