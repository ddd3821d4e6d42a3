package geometry

import (
	"math"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// Plane is an infinite plane used by triangles. It has no finite bounding
// box, so it is not a scene primitive on its own.
type Plane struct {
	Point  core.Vec3 // A point on the plane
	Normal core.Vec3 // Unit normal
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3) Plane {
	return Plane{Point: point, Normal: normal.Normalize()}
}

// Collide returns the ray parameter where the ray enters the plane. Rays
// parallel to the plane within epsilon, or meeting it behind the origin, miss.
func (p Plane) Collide(ray core.Ray, epsilon float64) (float64, bool) {
	denominator := ray.Direction.Dot(p.Normal)
	if math.Abs(denominator) < epsilon {
		return 0, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t <= 0 {
		return 0, false
	}
	return t, true
}
