package geometry

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

func unitTriangle() Triangle {
	return NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		grey,
	)
}

func TestTriangle_BarycentricSumsToOne(t *testing.T) {
	tri := unitTriangle()
	sampler := core.NewSeededSampler(1)

	for i := 0; i < 500; i++ {
		p := core.NewVec3(sampler.Get1D()*4-2, sampler.Get1D()*4-2, 0)
		u, v, w := tri.Barycentric(p)
		test.That(t, u+v+w, test.ShouldAlmostEqual, 1.0, 1e-12)
	}
}

func TestTriangle_BarycentricAtVertices(t *testing.T) {
	tri := unitTriangle()

	u, v, w := tri.Barycentric(tri.A)
	test.That(t, u, test.ShouldAlmostEqual, 1.0, 1e-12)
	test.That(t, v, test.ShouldAlmostEqual, 0.0, 1e-12)
	test.That(t, w, test.ShouldAlmostEqual, 0.0, 1e-12)

	u, v, w = tri.Barycentric(tri.B)
	test.That(t, u, test.ShouldAlmostEqual, 0.0, 1e-12)
	test.That(t, v, test.ShouldAlmostEqual, 1.0, 1e-12)
	test.That(t, w, test.ShouldAlmostEqual, 0.0, 1e-12)

	u, v, w = tri.Barycentric(tri.C)
	test.That(t, u, test.ShouldAlmostEqual, 0.0, 1e-12)
	test.That(t, v, test.ShouldAlmostEqual, 0.0, 1e-12)
	test.That(t, w, test.ShouldAlmostEqual, 1.0, 1e-12)
}

func TestTriangle_InsideAndOutside(t *testing.T) {
	tri := unitTriangle()

	tests := []struct {
		name     string
		x, y     float64
		expected bool
	}{
		{"centroid", 1.0 / 3, 1.0 / 3, true},
		{"near vertex A", 0.01, 0.01, true},
		{"outside hypotenuse", 0.6, 0.6, false},
		{"outside left edge", -0.1, 0.5, false},
		{"outside bottom edge", 0.5, -0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v, w := tri.Barycentric(core.NewVec3(tt.x, tt.y, 0))
			inside := u >= 0 && v >= 0 && w >= 0
			test.That(t, inside, test.ShouldEqual, tt.expected)

			ray := core.NewRay(core.NewVec3(tt.x, tt.y, 3), core.NewVec3(0, 0, -1))
			_, isHit := tri.Collide(ray, math.Inf(1), epsilon)
			test.That(t, isHit, test.ShouldEqual, tt.expected)
		})
	}
}

func TestTriangle_NormalFacesRay(t *testing.T) {
	tri := unitTriangle()
	above := core.NewRay(core.NewVec3(0.25, 0.25, 2), core.NewVec3(0, 0, -1))
	below := core.NewRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 1))

	hit, isHit := tri.Collide(above, math.Inf(1), epsilon)
	test.That(t, isHit, test.ShouldBeTrue)
	test.That(t, hit.Distance, test.ShouldAlmostEqual, 2.0, 1e-12)
	test.That(t, hit.Normal.ApproxEqual(core.NewVec3(0, 0, 1), 1e-12), test.ShouldBeTrue)

	hit, isHit = tri.Collide(below, math.Inf(1), epsilon)
	test.That(t, isHit, test.ShouldBeTrue)
	test.That(t, hit.Normal.ApproxEqual(core.NewVec3(0, 0, -1), 1e-12), test.ShouldBeTrue)
}

func TestTriangle_ParallelBehindAndBounded(t *testing.T) {
	tri := unitTriangle()

	parallel := core.NewRay(core.NewVec3(-1, 0.25, 0), core.NewVec3(1, 0, 0))
	_, isHit := tri.Collide(parallel, math.Inf(1), epsilon)
	test.That(t, isHit, test.ShouldBeFalse)

	behind := core.NewRay(core.NewVec3(0.25, 0.25, 2), core.NewVec3(0, 0, 1))
	_, isHit = tri.Collide(behind, math.Inf(1), epsilon)
	test.That(t, isHit, test.ShouldBeFalse)

	far := core.NewRay(core.NewVec3(0.25, 0.25, 2), core.NewVec3(0, 0, -1))
	_, isHit = tri.Collide(far, 1.5, epsilon)
	test.That(t, isHit, test.ShouldBeFalse)
}

func TestTriangle_AreaAndBox(t *testing.T) {
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 1), grey)
	test.That(t, tri.Area(), test.ShouldAlmostEqual, math.Sqrt(5), 1e-12)
	test.That(t, tri.BoundingBox().Min, test.ShouldResemble, core.NewVec3(0, 0, 0))
	test.That(t, tri.BoundingBox().Max, test.ShouldResemble, core.NewVec3(2, 2, 1))
}
