package geometry

import (
	"math"

	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material *material.Material
	box      core.AABB
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat *material.Material) Sphere {
	r := core.Uniform(radius)
	return Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
		box:      core.NewAABB(center.Subtract(r), center.Add(r)),
	}
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	return s.box
}

// Distance returns the smallest strictly positive ray parameter at which the
// ray meets the sphere, if any
func (s *Sphere) Distance(ray core.Ray, epsilon float64) (float64, bool) {
	if !s.box.Intersects(ray, math.Inf(1), epsilon) {
		return 0, false
	}

	// Quadratic equation coefficients: at² + bt + c = 0
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}
	sqrtD := math.Sqrt(discriminant)

	if t := (-halfB - sqrtD) / a; t > 0 {
		return t, true
	}
	if t := (-halfB + sqrtD) / a; t > 0 {
		return t, true
	}
	return 0, false
}

// Collide returns the nearest hit no farther than maxDistance
func (s *Sphere) Collide(ray core.Ray, maxDistance, epsilon float64) (CollisionInfo, bool) {
	d, ok := s.Distance(ray, epsilon)
	if !ok || d > maxDistance {
		return CollisionInfo{}, false
	}

	// Dividing by the known radius avoids a square root
	outward := ray.At(d).Subtract(s.Center).Divide(s.Radius)
	return CollisionInfo{
		Distance:  d,
		Normal:    orientNormal(ray, outward),
		Material:  s.Material,
		Primitive: -1,
	}, true
}
