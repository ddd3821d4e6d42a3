package core

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	test.That(t, a.Add(b), test.ShouldResemble, NewVec3(5, -3, 9))
	test.That(t, a.Subtract(b), test.ShouldResemble, NewVec3(-3, 7, -3))
	test.That(t, a.Multiply(2), test.ShouldResemble, NewVec3(2, 4, 6))
	test.That(t, b.Divide(2), test.ShouldResemble, NewVec3(2, -2.5, 3))
	test.That(t, a.MultiplyVec(b), test.ShouldResemble, NewVec3(4, -10, 18))
	test.That(t, a.Dot(b), test.ShouldEqual, 12.0)
	test.That(t, a.Negate(), test.ShouldResemble, NewVec3(-1, -2, -3))
}

func TestVec3_Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	test.That(t, x.Cross(y), test.ShouldResemble, NewVec3(0, 0, 1))
	test.That(t, y.Cross(x), test.ShouldResemble, NewVec3(0, 0, -1))
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 0, 4).Normalize()
	test.That(t, v.Length(), test.ShouldAlmostEqual, 1.0, 1e-12)
	test.That(t, v.X, test.ShouldAlmostEqual, 0.6, 1e-12)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0.8, 1e-12)

	test.That(t, Vec3{}.Normalize(), test.ShouldResemble, Vec3{})
}

func TestVec3_Project(t *testing.T) {
	v := NewVec3(2, 3, 0)
	onto := NewVec3(4, 0, 0)
	test.That(t, v.Project(onto), test.ShouldResemble, NewVec3(2, 0, 0))
}

func TestVec3_IsZero(t *testing.T) {
	tests := []struct {
		name     string
		v        Vec3
		expected bool
	}{
		{"exact zero", NewVec3(0, 0, 0), true},
		{"within epsilon", NewVec3(1e-9, -1e-9, 0), true},
		{"one component too large", NewVec3(0, 1e-3, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.That(t, tt.v.IsZero(1e-6), test.ShouldEqual, tt.expected)
		})
	}
}

func TestVec3_Clamp(t *testing.T) {
	v := NewVec3(-0.5, 0.5, 3).Clamp(0, 1)
	test.That(t, v, test.ShouldResemble, NewVec3(0, 0.5, 1))
}

func TestRay_At(t *testing.T) {
	// Direction is deliberately not normalized
	ray := NewRay(NewVec3(1, 1, 1), NewVec3(0, 0, 2))
	test.That(t, ray.At(0), test.ShouldResemble, NewVec3(1, 1, 1))
	test.That(t, ray.At(1.5), test.ShouldResemble, NewVec3(1, 1, 4))
}

func TestRandomUnitVector(t *testing.T) {
	sampler := NewSeededSampler(42)
	var mean Vec3
	const n = 20000
	for i := 0; i < n; i++ {
		v := RandomUnitVector(sampler)
		test.That(t, math.Abs(v.Length()-1), test.ShouldBeLessThan, 1e-9)
		mean = mean.Add(v)
	}

	// Uniform directions average out to the origin
	mean = mean.Divide(n)
	test.That(t, mean.Length(), test.ShouldBeLessThan, 0.03)
}

func TestSamplePointInUnitDisk(t *testing.T) {
	sampler := NewSeededSampler(7)
	for i := 0; i < 1000; i++ {
		p := SamplePointInUnitDisk(sampler.Get2D())
		test.That(t, p.Z, test.ShouldEqual, 0.0)
		test.That(t, p.Length(), test.ShouldBeLessThanOrEqualTo, 1.0+1e-12)
	}
	test.That(t, SamplePointInUnitDisk(NewVec2(0.5, 0.5)), test.ShouldResemble, Vec3{})
}
