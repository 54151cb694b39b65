package locomotion

import (
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// Teleport moves the avatar to the first surface hit along the ray. The
// grounded flag is left for the next tick to resolve. On a miss nothing
// changes.
func (c *Controller) Teleport(origin, direction physics.Vector3) bool {
	hit, ok := c.snapshot().Raycast(origin, direction)
	if !ok {
		c.logger.Debug("teleport ray missed the surface",
			log.Floats("origin", origin[:]...), log.Floats("direction", direction[:]...))
		return false
	}
	c.avatar.Position = hit.Point
	c.avatar.VerticalVelocity = 0
	c.logger.Debug("teleported", log.Floats("position", hit.Point[:]...))
	return true
}
