package material

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

const epsilon = 1e-6

// fixedSampler always returns the same sample, for forcing specific directions
type fixedSampler struct {
	sample core.Vec2
}

func (f fixedSampler) Get1D() float64  { return f.sample.X }
func (f fixedSampler) Get2D() core.Vec2 { return f.sample }

func TestMaterial_Emission(t *testing.T) {
	white := NewDiffuse(core.NewVec3(1, 1, 1), 3)
	test.That(t, white.Emission(), test.ShouldResemble, core.NewVec3(3, 3, 3))
	test.That(t, white.IsEmissive(), test.ShouldBeTrue)

	grey := NewReflective(core.NewVec3(0.5, 0.25, 0), 0, 0.5)
	test.That(t, grey.Emission(), test.ShouldResemble, core.NewVec3(0, 0, 0))
	test.That(t, grey.IsEmissive(), test.ShouldBeFalse)
	test.That(t, grey.Albedo, test.ShouldResemble, core.NewVec3(0.5, 0.25, 0))
}

func TestNewReflective_GlossinessClamp(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"mirror", 1.0, 1.0},
		{"half", 0.5, 0.5},
		{"clamp above", 1.5, 1.0},
		{"clamp below", -0.5, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewReflective(core.NewVec3(1, 1, 1), 0, tt.input)
			test.That(t, m.Glossiness, test.ShouldEqual, tt.expected)
		})
	}
}

func TestDiffuse_ScatterStaysAboveSurface(t *testing.T) {
	m := NewDiffuse(core.NewVec3(0.8, 0.8, 0.8), 0)
	sampler := core.NewSeededSampler(42)
	normal := core.NewVec3(0, 1, 0)
	point := core.NewVec3(1, 2, 3)
	rayIn := core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, -1, 0))

	var sumCos float64
	const n = 5000
	for i := 0; i < n; i++ {
		out := m.Scatter(rayIn, point, normal, sampler, epsilon)
		test.That(t, out.Origin, test.ShouldResemble, point)
		cos := out.Direction.Normalize().Dot(normal)
		test.That(t, cos, test.ShouldBeGreaterThanOrEqualTo, -1e-12)
		sumCos += cos
	}

	// Cosine-weighted hemisphere: E[cos θ] = 2/3
	test.That(t, sumCos/n, test.ShouldAlmostEqual, 2.0/3.0, 0.02)
}

func TestDiffuse_DegenerateDirectionFallsBackToNormal(t *testing.T) {
	m := NewDiffuse(core.NewVec3(1, 1, 1), 0)
	normal := core.NewVec3(0, 0, 1)

	// This sample maps to the unit vector (0, 0, -1), which cancels the normal
	sampler := fixedSampler{sample: core.NewVec2(0, 1)}
	test.That(t, core.RandomUnitVector(sampler), test.ShouldResemble, core.NewVec3(0, 0, -1))

	out := m.Scatter(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), core.Vec3{}, normal, sampler, epsilon)
	test.That(t, out.Direction, test.ShouldResemble, normal)
}

func TestReflective_PerfectMirror(t *testing.T) {
	m := NewReflective(core.NewVec3(0.9, 0.9, 0.9), 0, 1)
	sampler := core.NewSeededSampler(42)

	// Ray hitting surface at 45 degrees
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -1, -1))
	normal := core.NewVec3(0, 0, 1)

	out := m.Scatter(rayIn, core.Vec3{}, normal, sampler, epsilon)
	test.That(t, out.Direction.ApproxEqual(core.NewVec3(0, -1, 1).Normalize(), 1e-12), test.ShouldBeTrue)
}

func TestReflective_GlossyPerturbationIsBounded(t *testing.T) {
	m := NewReflective(core.NewVec3(1, 1, 1), 0, 0.75)
	sampler := core.NewSeededSampler(9)
	rayIn := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, -1, 0))
	normal := core.NewVec3(0, 1, 0)
	mirror := core.NewVec3(1, 1, 0).Normalize()

	for i := 0; i < 500; i++ {
		out := m.Scatter(rayIn, core.Vec3{}, normal, sampler, epsilon)
		// (1 - glossiness) scales a unit vector, so the offset from the mirror is 0.25
		test.That(t, out.Direction.Subtract(mirror).Length(), test.ShouldAlmostEqual, 0.25, 1e-9)
	}
}

func TestReflective_SpreadIgnoresDirectionLength(t *testing.T) {
	normal := core.NewVec3(0, 1, 0)
	point := core.NewVec3(0, 0, 0)

	for _, glossiness := range []float64{0, 0.5, 0.9} {
		m := NewReflective(core.NewVec3(1, 1, 1), 0, glossiness)
		for _, scale := range []float64{0.05, 1, 20} {
			sampler := core.NewSeededSampler(5)
			rayIn := core.NewRay(core.NewVec3(-1, 1, 0), core.NewVec3(1, -1, 0.5).Multiply(scale))
			mirror := reflect(rayIn.Direction.Normalize(), normal)

			for i := 0; i < 200; i++ {
				out := m.Scatter(rayIn, point, normal, sampler, epsilon)
				test.That(t, out.Direction.Subtract(mirror).Length(), test.ShouldAlmostEqual, 1-glossiness, 1e-9)
			}
		}
	}
}

func TestReflective_DegenerateDirectionFallsBackToNormal(t *testing.T) {
	m := NewReflective(core.NewVec3(1, 1, 1), 0, 0)
	normal := core.NewVec3(0, 0, 1)

	// A grazing unit ray reflects to (1, 0, 0); the random vector (-1, 0, 0) cancels it
	sampler := fixedSampler{sample: core.NewVec2(0.5, 0.5)}
	test.That(t, core.RandomUnitVector(sampler).ApproxEqual(core.NewVec3(-1, 0, 0), 1e-12), test.ShouldBeTrue)

	out := m.Scatter(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0)), core.Vec3{}, normal, sampler, epsilon)
	test.That(t, out.Direction, test.ShouldResemble, normal)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Diffuse")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldEqual, Diffuse)

	k, err = ParseKind("metal")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldEqual, Reflective)
	test.That(t, k.String(), test.ShouldEqual, "reflective")

	_, err = ParseKind("glass")
	test.That(t, err, test.ShouldNotBeNil)
	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	test.That(t, hasStack, test.ShouldBeTrue)
}
