package navmesh

import (
	"sync/atomic"

	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

// DefaultProbeHeight is the absolute height vertical probes start from.
const DefaultProbeHeight = 100.0

// Query answers walkability and height questions against a navigable surface.
type Query interface {
	// ProbeGround casts straight down from the probe height above (x, z).
	ProbeGround(x, z float64) (Hit, bool)
	// ProbeBelow casts straight down from probe height above (x, y, z).
	ProbeBelow(x, y, z float64) (Hit, bool)
	// IsWalkable reports whether ProbeGround hits.
	IsWalkable(x, z float64) bool
	// Raycast returns the nearest hit along origin + t*direction.
	Raycast(origin, direction physics.Vector3) (Hit, bool)
}

// Surface is the swappable handle to the current mesh. The loader side
// writes it once per delivery; every query is a read.
type Surface struct {
	mesh        atomic.Pointer[Mesh]
	probeHeight float64
}

var (
	_ Query = (*Surface)(nil)
	_ Query = View{}
)

// NewSurface creates an empty surface.
func NewSurface(probeHeight float64) *Surface {
	if probeHeight <= 0 {
		probeHeight = DefaultProbeHeight
	}
	return &Surface{probeHeight: probeHeight}
}

// Swap installs m and returns the previous mesh. A nil m unloads the surface.
func (s *Surface) Swap(m *Mesh) *Mesh { return s.mesh.Swap(m) }

// Ready reports whether a mesh is installed.
func (s *Surface) Ready() bool { return s.mesh.Load() != nil }

// ProbeHeight is the configured probe origin height.
func (s *Surface) ProbeHeight() float64 { return s.probeHeight }

// Snapshot pins the current mesh so a whole tick sees one geometry.
func (s *Surface) Snapshot() Query {
	return View{mesh: s.mesh.Load(), probeHeight: s.probeHeight}
}

func (s *Surface) ProbeGround(x, z float64) (Hit, bool) { return s.view().ProbeGround(x, z) }

func (s *Surface) ProbeBelow(x, y, z float64) (Hit, bool) { return s.view().ProbeBelow(x, y, z) }

func (s *Surface) IsWalkable(x, z float64) bool { return s.view().IsWalkable(x, z) }

func (s *Surface) Raycast(origin, direction physics.Vector3) (Hit, bool) {
	return s.view().Raycast(origin, direction)
}

func (s *Surface) view() View { return View{mesh: s.mesh.Load(), probeHeight: s.probeHeight} }

// View is a Query over one fixed mesh. A nil mesh never hits.
type View struct {
	mesh        *Mesh
	probeHeight float64
}

// NewView wraps a mesh directly, mostly for tests and tools.
func NewView(m *Mesh, probeHeight float64) View {
	if probeHeight <= 0 {
		probeHeight = DefaultProbeHeight
	}
	return View{mesh: m, probeHeight: probeHeight}
}

// Ready reports whether the view has geometry.
func (v View) Ready() bool { return v.mesh != nil }

func (v View) ProbeGround(x, z float64) (Hit, bool) {
	if v.mesh == nil {
		return Hit{}, false
	}
	return v.mesh.CastDown(x, v.probeHeight, z)
}

func (v View) ProbeBelow(x, y, z float64) (Hit, bool) {
	if v.mesh == nil {
		return Hit{}, false
	}
	return v.mesh.CastDown(x, y+v.probeHeight, z)
}

func (v View) IsWalkable(x, z float64) bool {
	_, ok := v.ProbeGround(x, z)
	return ok
}

func (v View) Raycast(origin, direction physics.Vector3) (Hit, bool) {
	if v.mesh == nil {
		return Hit{}, false
	}
	ray, ok := physics.NewRay(origin, direction)
	if !ok {
		return Hit{}, false
	}
	return v.mesh.Raycast(ray)
}

// Ground probes (x, z) and explains a miss: ErrSurfaceUnavailable when
// the query has no geometry, ErrNoIntersection when the column is a hole.
func Ground(q Query, x, z float64) (Hit, error) {
	if r, ok := q.(interface{ Ready() bool }); ok && !r.Ready() {
		return Hit{}, ErrSurfaceUnavailable
	}
	hit, ok := q.ProbeGround(x, z)
	if !ok {
		return Hit{}, ErrNoIntersection
	}
	return hit, nil
}
