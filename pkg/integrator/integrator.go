package integrator

import (
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/geometry"
)

// Collider finds the nearest primitive hit along a ray. Both a built BVH and
// the brute-force reference satisfy it.
type Collider interface {
	Collide(ray core.Ray, maxDistance float64) (geometry.CollisionInfo, bool)
}

// Camera produces a primary ray for a pixel. Successive calls may return
// different rays for the same pixel (sub-pixel jitter, lens sampling).
type Camera interface {
	Ray(x, y int, sampler core.Sampler) core.Ray
}
