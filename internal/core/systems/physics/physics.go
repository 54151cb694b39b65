package physics

// Lightweight spatial helpers for the locomotion core. Vectors are mgl64
// values so callers can use the full mathgl API when they need it.

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is the position, direction and velocity type used everywhere.
type Vector3 = mgl64.Vec3

var (
	Up   = Vector3{0, 1, 0}
	Down = Vector3{0, -1, 0}
)

// Vec3 builds a Vector3.
func Vec3(x, y, z float64) Vector3 { return Vector3{x, y, z} }

// Normalize returns v scaled to unit length, or the zero vector when v has no length.
func Normalize(v Vector3) Vector3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vector3{}
	}
	return v.Mul(1 / l)
}

// RightOf returns the horizontal right-hand perpendicular of a flattened facing.
func RightOf(facing Vector3) Vector3 {
	return Vector3{-facing.Z(), 0, facing.X()}
}

// Finite reports whether every component is a real number.
func Finite(v Vector3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
