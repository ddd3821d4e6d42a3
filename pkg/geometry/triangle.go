package geometry

import (
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	A, B, C  core.Vec3
	Material *material.Material

	plane Plane
	box   core.AABB

	// Cached edges and their barycentric projection vectors
	ac, bc           core.Vec3
	baryA, baryB     core.Vec3
	baryAac, baryBbc float64
}

// NewTriangle creates a new triangle and precomputes its intersection data.
// Degenerate (zero-area) triangles are the loader's responsibility.
func NewTriangle(a, b, c core.Vec3, mat *material.Material) Triangle {
	ac := c.Subtract(a)
	bc := c.Subtract(b)
	baryA := ac.Subtract(ac.Project(bc))
	baryB := bc.Subtract(bc.Project(ac))

	return Triangle{
		A:        a,
		B:        b,
		C:        c,
		Material: mat,
		plane:    NewPlane(a, ac.Cross(bc)),
		box:      core.NewAABBFromPoints(a, b, c),
		ac:       ac,
		bc:       bc,
		baryA:    baryA,
		baryB:    baryB,
		baryAac:  baryA.Dot(ac),
		baryBbc:  baryB.Dot(bc),
	}
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.box
}

// Normal returns the unit normal of the triangle's plane
func (t *Triangle) Normal() core.Vec3 {
	return t.plane.Normal
}

// Area returns the surface area of the triangle
func (t *Triangle) Area() float64 {
	return t.ac.Cross(t.bc).Length() / 2
}

// Barycentric returns the barycentric weights of a point on the triangle's
// plane with respect to A, B and C. The weights always sum to 1.
func (t *Triangle) Barycentric(point core.Vec3) (u, v, w float64) {
	u = 1 - t.baryA.Dot(point.Subtract(t.A))/t.baryAac
	v = 1 - t.baryB.Dot(point.Subtract(t.B))/t.baryBbc
	w = 1 - u - v
	return u, v, w
}

// Collide returns the hit no farther than maxDistance, with the normal
// facing the ray so both sides shade the same way
func (t *Triangle) Collide(ray core.Ray, maxDistance, epsilon float64) (CollisionInfo, bool) {
	if !t.box.Intersects(ray, maxDistance, epsilon) {
		return CollisionInfo{}, false
	}

	d, ok := t.plane.Collide(ray, epsilon)
	if !ok || d > maxDistance {
		return CollisionInfo{}, false
	}

	u, v, w := t.Barycentric(ray.At(d))
	if u < 0 || v < 0 || w < 0 {
		return CollisionInfo{}, false
	}

	return CollisionInfo{
		Distance:  d,
		Normal:    orientNormal(ray, t.plane.Normal),
		Material:  t.Material,
		Primitive: -1,
	}, true
}
