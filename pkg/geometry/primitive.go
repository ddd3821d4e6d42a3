package geometry

import (
	"fmt"

	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// Kind identifies which shape a Primitive holds
type Kind uint8

const (
	// KindSphere marks a Primitive holding a Sphere
	KindSphere Kind = iota
	// KindTriangle marks a Primitive holding a Triangle
	KindTriangle
)

// String returns the shape name
func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindTriangle:
		return "triangle"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Primitive is a scene element: one of a small fixed set of shapes, selected
// by Kind and dispatched with a switch rather than an interface call.
type Primitive struct {
	Kind     Kind
	Sphere   Sphere
	Triangle Triangle
}

// SpherePrimitive wraps a sphere as a scene element
func SpherePrimitive(center core.Vec3, radius float64, mat *material.Material) Primitive {
	return Primitive{Kind: KindSphere, Sphere: NewSphere(center, radius, mat)}
}

// TrianglePrimitive wraps a triangle as a scene element
func TrianglePrimitive(a, b, c core.Vec3, mat *material.Material) Primitive {
	return Primitive{Kind: KindTriangle, Triangle: NewTriangle(a, b, c, mat)}
}

// BoundingBox returns the primitive's bounding box
func (p *Primitive) BoundingBox() core.AABB {
	switch p.Kind {
	case KindTriangle:
		return p.Triangle.BoundingBox()
	default:
		return p.Sphere.BoundingBox()
	}
}

// Material returns the primitive's material
func (p *Primitive) Material() *material.Material {
	switch p.Kind {
	case KindTriangle:
		return p.Triangle.Material
	default:
		return p.Sphere.Material
	}
}

// Collide returns the primitive's nearest hit no farther than maxDistance
func (p *Primitive) Collide(ray core.Ray, maxDistance, epsilon float64) (CollisionInfo, bool) {
	switch p.Kind {
	case KindTriangle:
		return p.Triangle.Collide(ray, maxDistance, epsilon)
	default:
		return p.Sphere.Collide(ray, maxDistance, epsilon)
	}
}
