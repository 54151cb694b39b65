package locomotion

import (
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// PlaceOnSurface puts the avatar on the surface below fallback, or at
// fallback itself when there is no surface there.
func (c *Controller) PlaceOnSurface(fallback physics.Vector3) AvatarState {
	return c.Place(ReasonSpawn, fallback).To
}

// Place is PlaceOnSurface with the reason recorded for the placement hook.
func (c *Controller) Place(reason Reason, fallback physics.Vector3) Recovery {
	return c.place(c.snapshot(), reason, fallback)
}

func (c *Controller) place(q navmesh.Query, reason Reason, fallback physics.Vector3) Recovery {
	rec := Recovery{Reason: reason, From: c.avatar.Position}

	hit, err := navmesh.Ground(q, fallback.X(), fallback.Z())
	if err != nil {
		c.avatar = AvatarState{Position: fallback}
		c.logger.Info("no surface under placement point, using it verbatim",
			log.String("reason", reason.String()),
			log.Floats("position", fallback[:]...),
			log.Error(err))
	} else {
		c.avatar = AvatarState{Position: hit.Point, Grounded: true}
		rec.OnSurface = true
		c.logger.Info("avatar placed on surface",
			log.String("reason", reason.String()),
			log.Floats("position", hit.Point[:]...))
	}

	rec.To = c.avatar
	if c.onPlaced != nil {
		c.onPlaced(rec)
	}
	return rec
}
