package navmesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
)

const (
	// indexCellsPerAxis bounds the column index resolution along the longest axis.
	indexCellsPerAxis = 64
	minIndexCellSize  = 0.25
	boundsEpsilon     = 1e-6
)

// Hit is the result of a ray striking the surface.
type Hit struct {
	Point    physics.Vector3
	Normal   physics.Vector3
	Distance float64
}

// Y is the surface height at the hit.
func (h Hit) Y() float64 { return h.Point.Y() }

// Mesh is an immutable triangulated navigable surface. Triangles are
// bucketed into a uniform XZ grid so vertical probes only test the
// triangles overlapping their column.
type Mesh struct {
	triangles []physics.Triangle

	lo, hi     physics.Vector3
	cellSize   float64
	cols, rows int
	cells      [][]int32

	fingerprint uint64
}

// NewMesh builds a mesh from indexed geometry.
func NewMesh(vertices []physics.Vector3, faces [][3]int) (*Mesh, error) {
	tris := make([]physics.Triangle, 0, len(faces))
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("face %d index %d: %w", i, idx, ErrInvalidIndex)
			}
		}
		tris = append(tris, physics.Triangle{A: vertices[f[0]], B: vertices[f[1]], C: vertices[f[2]]})
	}
	return FromTriangles(tris)
}

// FromTriangles builds a mesh from a triangle soup. Degenerate and
// non-finite triangles are dropped.
func FromTriangles(tris []physics.Triangle) (*Mesh, error) {
	m := &Mesh{triangles: make([]physics.Triangle, 0, len(tris))}
	for _, t := range tris {
		if t.Degenerate() || !physics.Finite(t.A) || !physics.Finite(t.B) || !physics.Finite(t.C) {
			continue
		}
		m.triangles = append(m.triangles, t)
	}
	if len(m.triangles) == 0 {
		return nil, ErrEmptyMesh
	}

	m.computeBounds()
	m.buildIndex()
	m.fingerprint = fingerprint(m.triangles)
	return m, nil
}

// Len is the number of triangles.
func (m *Mesh) Len() int { return len(m.triangles) }

// Triangles returns a copy of the faces, e.g. for a debug wireframe.
func (m *Mesh) Triangles() []physics.Triangle {
	out := make([]physics.Triangle, len(m.triangles))
	copy(out, m.triangles)
	return out
}

// Bounds is the axis-aligned box around all triangles.
func (m *Mesh) Bounds() (lo, hi physics.Vector3) { return m.lo, m.hi }

// Fingerprint is an xxhash of the vertex data; equal geometry hashes equal.
func (m *Mesh) Fingerprint() uint64 { return m.fingerprint }

// CastDown returns the first triangle below (x, originY, z).
func (m *Mesh) CastDown(x, originY, z float64) (Hit, bool) {
	col, row, ok := m.cellOf(x, z)
	if !ok {
		return Hit{}, false
	}
	ray := physics.DownFrom(x, originY, z)

	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, idx := range m.cells[row*m.cols+col] {
		tri := m.triangles[idx]
		dist, hit := tri.IntersectRay(ray)
		if !hit || dist >= best.Distance {
			continue
		}
		best = Hit{Point: ray.At(dist), Normal: tri.Normal(), Distance: dist}
		found = true
	}
	return best, found
}

// Raycast returns the nearest hit along an arbitrary ray.
func (m *Mesh) Raycast(ray physics.Ray) (Hit, bool) {
	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, tri := range m.triangles {
		dist, hit := tri.IntersectRay(ray)
		if !hit || dist >= best.Distance {
			continue
		}
		best = Hit{Point: ray.At(dist), Normal: tri.Normal(), Distance: dist}
		found = true
	}
	return best, found
}

func (m *Mesh) computeBounds() {
	lo := physics.Vec3(math.Inf(1), math.Inf(1), math.Inf(1))
	hi := physics.Vec3(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, t := range m.triangles {
		tlo, thi := t.Bounds()
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], tlo[i])
			hi[i] = math.Max(hi[i], thi[i])
		}
	}
	m.lo, m.hi = lo, hi
}

func (m *Mesh) buildIndex() {
	width := m.hi.X() - m.lo.X()
	depth := m.hi.Z() - m.lo.Z()
	m.cellSize = math.Max(math.Max(width, depth)/indexCellsPerAxis, minIndexCellSize)
	m.cols = int(width/m.cellSize) + 1
	m.rows = int(depth/m.cellSize) + 1
	m.cells = make([][]int32, m.cols*m.rows)

	for idx, t := range m.triangles {
		tlo, thi := t.Bounds()
		c0, r0 := m.clampCell(tlo.X()-boundsEpsilon, tlo.Z()-boundsEpsilon)
		c1, r1 := m.clampCell(thi.X()+boundsEpsilon, thi.Z()+boundsEpsilon)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				m.cells[r*m.cols+c] = append(m.cells[r*m.cols+c], int32(idx))
			}
		}
	}
}

func (m *Mesh) clampCell(x, z float64) (col, row int) {
	col = int((x - m.lo.X()) / m.cellSize)
	row = int((z - m.lo.Z()) / m.cellSize)
	col = max(0, min(col, m.cols-1))
	row = max(0, min(row, m.rows-1))
	return col, row
}

func (m *Mesh) cellOf(x, z float64) (col, row int, ok bool) {
	if math.IsNaN(x) || math.IsNaN(z) {
		return 0, 0, false
	}
	if x < m.lo.X()-boundsEpsilon || x > m.hi.X()+boundsEpsilon ||
		z < m.lo.Z()-boundsEpsilon || z > m.hi.Z()+boundsEpsilon {
		return 0, 0, false
	}
	col, row = m.clampCell(x, z)
	return col, row, true
}

func fingerprint(tris []physics.Triangle) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, t := range tris {
		for _, v := range [3]physics.Vector3{t.A, t.B, t.C} {
			for _, c := range v {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c))
				_, _ = d.Write(buf[:])
			}
		}
	}
	return d.Sum64()
}
