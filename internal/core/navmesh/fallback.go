package navmesh

import "github.com/zeusync/navwalk/internal/core/systems/physics"

// Fallback box dimensions used when the navmesh asset cannot be loaded.
const (
	FallbackWidth     = 50.0
	FallbackThickness = 0.1
	FallbackDepth     = 50.0
)

// Box builds a closed axis-aligned box centred on center.
func Box(center physics.Vector3, width, height, depth float64) (*Mesh, error) {
	hx, hy, hz := width/2, height/2, depth/2
	cx, cy, cz := center.X(), center.Y(), center.Z()
	v := func(sx, sy, sz float64) physics.Vector3 {
		return physics.Vec3(cx+sx*hx, cy+sy*hy, cz+sz*hz)
	}
	corners := []physics.Vector3{
		v(-1, -1, -1), v(1, -1, -1), v(1, -1, 1), v(-1, -1, 1),
		v(-1, 1, -1), v(1, 1, -1), v(1, 1, 1), v(-1, 1, 1),
	}
	faces := [][3]int{
		{4, 7, 6}, {4, 6, 5}, // top
		{0, 1, 2}, {0, 2, 3}, // bottom
		{0, 4, 5}, {0, 5, 1}, // -z
		{3, 2, 6}, {3, 6, 7}, // +z
		{0, 3, 7}, {0, 7, 4}, // -x
		{1, 5, 6}, {1, 6, 2}, // +x
	}
	return NewMesh(corners, faces)
}

// Fallback is the stand-in surface: a thin 50x50 slab whose top sits just
// above y=0.
func Fallback() *Mesh {
	m, err := Box(physics.Vec3(0, 0, 0), FallbackWidth, FallbackThickness, FallbackDepth)
	if err != nil {
		// constant geometry
		panic(err)
	}
	return m
}

// Quad builds a single horizontal rectangle at height y spanning
// [x0,x1]x[z0,z1].
func Quad(y, x0, z0, x1, z1 float64) (*Mesh, error) {
	return NewMesh([]physics.Vector3{
		physics.Vec3(x0, y, z0),
		physics.Vec3(x1, y, z0),
		physics.Vec3(x1, y, z1),
		physics.Vec3(x0, y, z1),
	}, [][3]int{{0, 3, 2}, {0, 2, 1}})
}
