package navmesh

import "errors"

// Surface and loader errors
var (
	ErrSurfaceUnavailable = errors.New("navigable surface not loaded")
	ErrNoIntersection     = errors.New("no surface intersection")
	ErrEmptyMesh          = errors.New("navmesh has no usable triangles")
	ErrInvalidIndex       = errors.New("navmesh face references a missing vertex")
	ErrUnsupportedFormat  = errors.New("unsupported navmesh format")
)

// ErrNoAsset is attached to a fallback delivery when no asset path was configured.
var ErrNoAsset = errors.New("no navmesh asset configured")
