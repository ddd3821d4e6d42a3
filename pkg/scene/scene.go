// Package scene assembles primitives and materials into renderable scenes,
// from built-in definitions, JSON scene files and triangle meshes.
package scene

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/df07/go-bvh-tracer/pkg/bvh"
	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/geometry"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// Scene is a primitive arena, the materials it references, and the camera it
// is meant to be viewed from.
type Scene struct {
	Name       string
	Camera     config.Camera
	Materials  []*material.Material
	Primitives []geometry.Primitive
}

// New creates an empty scene viewed from camera
func New(name string, camera config.Camera) *Scene {
	return &Scene{Name: name, Camera: camera}
}

// AddMaterial registers m in the material table and returns it
func (s *Scene) AddMaterial(m *material.Material) *material.Material {
	s.Materials = append(s.Materials, m)
	return m
}

// AddSphere adds a sphere
func (s *Scene) AddSphere(center core.Vec3, radius float64, m *material.Material) {
	s.Primitives = append(s.Primitives, geometry.SpherePrimitive(center, radius, m))
}

// AddTriangle adds a triangle
func (s *Scene) AddTriangle(a, b, c core.Vec3, m *material.Material) {
	s.Primitives = append(s.Primitives, geometry.TrianglePrimitive(a, b, c, m))
}

// AddQuad adds the parallelogram corner, corner+u, corner+u+v, corner+v as two triangles
func (s *Scene) AddQuad(corner, u, v core.Vec3, m *material.Material) {
	opposite := corner.Add(u).Add(v)
	s.AddTriangle(corner, corner.Add(u), opposite, m)
	s.AddTriangle(corner, opposite, corner.Add(v), m)
}

// BuildBVH builds the acceleration structure over the scene's primitives
func (s *Scene) BuildBVH(strategy bvh.Strategy, epsilon float64, logger *zap.SugaredLogger) *bvh.BVH {
	return bvh.Build(s.Primitives, bvh.Options{Strategy: strategy, Epsilon: epsilon, Logger: logger})
}

// Counts returns the number of primitives of each kind
func (s *Scene) Counts() map[geometry.Kind]int {
	return lo.CountValuesBy(s.Primitives, func(p geometry.Primitive) geometry.Kind { return p.Kind })
}

// Emissive returns the scene's light-emitting materials
func (s *Scene) Emissive() []*material.Material {
	return lo.Filter(s.Materials, func(m *material.Material, _ int) bool { return m.IsEmissive() })
}
