package material

import "github.com/df07/go-bvh-tracer/pkg/core"

// reflect calculates the reflection of a vector v off a surface with normal n
func reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// reflectGlossy mirrors the unit direction of v and perturbs the result by
// (1 - glossiness) times a random unit vector. The spread does not depend on
// the length of v.
func reflectGlossy(v, n core.Vec3, glossiness float64, sampler core.Sampler) core.Vec3 {
	reflected := reflect(v.Normalize(), n)
	if glossiness >= 1 {
		return reflected
	}
	return reflected.Add(core.RandomUnitVector(sampler).Multiply(1 - glossiness))
}
