package material

import "github.com/df07/go-bvh-tracer/pkg/core"

// scatterDiffuse offsets the normal by a random unit vector, which yields a
// cosine-weighted distribution around the normal.
func scatterDiffuse(normal core.Vec3, sampler core.Sampler) core.Vec3 {
	return normal.Add(core.RandomUnitVector(sampler))
}
