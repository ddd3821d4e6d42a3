package geometry

import (
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// CollisionInfo describes the nearest intersection found by a query
type CollisionInfo struct {
	Distance  float64            // Ray parameter of the hit, > 0 and <= the query bound
	Normal    core.Vec3          // Unit normal facing against the incoming ray
	Material  *material.Material // Shared, never copied
	Primitive int                // Index of the primitive in the scene arena, -1 if unset
}

// orientNormal flips outward so that it opposes the ray direction
func orientNormal(ray core.Ray, outward core.Vec3) core.Vec3 {
	if ray.Direction.Dot(outward) > 0 {
		return outward.Negate()
	}
	return outward
}
