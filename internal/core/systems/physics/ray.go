package physics

import "math"

// intersectEpsilon rejects rays parallel to a triangle and widens the
// barycentric test so probes on shared edges never fall into a seam.
const intersectEpsilon = 1e-9

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// NewRay normalizes direction. ok is false for a zero or non-finite direction.
func NewRay(origin, direction Vector3) (r Ray, ok bool) {
	d := Normalize(direction)
	if d.LenSqr() == 0 || !Finite(origin) {
		return Ray{}, false
	}
	return Ray{Origin: origin, Direction: d}, true
}

// DownFrom is a vertical ray pointing at -Y.
func DownFrom(x, y, z float64) Ray {
	return Ray{Origin: Vector3{x, y, z}, Direction: Down}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vector3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Triangle is one face of a navigable surface.
type Triangle struct {
	A, B, C Vector3
}

// Normal is the unit face normal following A->B->C winding, flipped to
// point upward for horizontal-ish faces so probes report a walkable normal.
func (t Triangle) Normal() Vector3 {
	n := Normalize(t.B.Sub(t.A).Cross(t.C.Sub(t.A)))
	if n.Y() < 0 {
		n = n.Mul(-1)
	}
	return n
}

// Bounds returns the axis-aligned box around the triangle.
func (t Triangle) Bounds() (lo, hi Vector3) {
	lo = Vector3{
		math.Min(t.A.X(), math.Min(t.B.X(), t.C.X())),
		math.Min(t.A.Y(), math.Min(t.B.Y(), t.C.Y())),
		math.Min(t.A.Z(), math.Min(t.B.Z(), t.C.Z())),
	}
	hi = Vector3{
		math.Max(t.A.X(), math.Max(t.B.X(), t.C.X())),
		math.Max(t.A.Y(), math.Max(t.B.Y(), t.C.Y())),
		math.Max(t.A.Z(), math.Max(t.B.Z(), t.C.Z())),
	}
	return lo, hi
}

// Degenerate reports a zero-area triangle.
func (t Triangle) Degenerate() bool {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).LenSqr() == 0
}

// IntersectRay is the two-sided Möller–Trumbore test. It returns the
// distance along r to the hit, which is never negative.
func (t Triangle) IntersectRay(r Ray) (float64, bool) {
	e1 := t.B.Sub(t.A)
	e2 := t.C.Sub(t.A)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < intersectEpsilon {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(t.A)
	u := s.Dot(p) * inv
	if u < -intersectEpsilon || u > 1+intersectEpsilon {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < -intersectEpsilon || u+v > 1+intersectEpsilon {
		return 0, false
	}

	dist := e2.Dot(q) * inv
	if dist < 0 {
		return 0, false
	}
	return dist, true
}
