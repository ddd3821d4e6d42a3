// Package integrator turns ray hits into radiance estimates.
package integrator

import (
	"math"

	"go.uber.org/atomic"

	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
)

// PathTracingIntegrator estimates radiance by following one scattered ray per
// bounce until the bounce budget runs out or the ray escapes the scene.
// It is safe for concurrent use as long as each goroutine owns its sampler.
type PathTracingIntegrator struct {
	config config.Config
	void   core.Vec3
	scene  Collider
	rays   atomic.Uint64
}

// NewPathTracingIntegrator creates an integrator over scene
func NewPathTracingIntegrator(cfg config.Config, scene Collider) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config: cfg,
		void:   cfg.Void.Vec3(),
		scene:  scene,
	}
}

// Raytrace returns the radiance carried back along ray with the given number
// of bounces left. A miss returns the void color; with no bounces left only
// the emission of the hit surface is returned.
func (pt *PathTracingIntegrator) Raytrace(ray core.Ray, bounces int, sampler core.Sampler) core.Vec3 {
	pt.rays.Inc()

	hit, ok := pt.scene.Collide(ray, math.Inf(1))
	if !ok {
		return pt.void
	}

	emitted := hit.Material.Emission()
	if bounces <= 0 {
		return emitted
	}

	// Offset along the normal so the next ray does not hit the same surface
	point := ray.At(hit.Distance).Add(hit.Normal.Multiply(pt.config.Epsilon))
	next := hit.Material.Scatter(ray, point, hit.Normal, sampler, pt.config.Epsilon)

	reflected := pt.Raytrace(next, bounces-1, sampler).MultiplyVec(hit.Material.Albedo)
	return emitted.Add(reflected)
}

// PixelColor averages SamplesPerPixel independent estimates for pixel (x, y),
// each through a freshly sampled camera ray, and clamps the mean to [0, 1].
func (pt *PathTracingIntegrator) PixelColor(camera Camera, x, y int, sampler core.Sampler) core.Vec3 {
	var sum core.Vec3
	for i := 0; i < pt.config.SamplesPerPixel; i++ {
		sum = sum.Add(pt.Raytrace(camera.Ray(x, y, sampler), pt.config.Bounces, sampler))
	}
	return sum.Divide(float64(pt.config.SamplesPerPixel)).Clamp(0, 1)
}

// RayCount returns the number of rays traced so far
func (pt *PathTracingIntegrator) RayCount() uint64 {
	return pt.rays.Load()
}
