package scene

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// Builtin is a scene that is constructed in code
type Builtin struct {
	Name        string
	Description string
	build       func() *Scene
}

var builtins = map[string]Builtin{
	"default": {
		Name:        "default",
		Description: "Three colored spheres on a large ground sphere, lit by a distant emissive sphere",
		build:       NewDefaultScene,
	},
	"cornell": {
		Name:        "cornell",
		Description: "Cornell box built from triangles with a ceiling light, a mirror and a diffuse sphere",
		build:       NewCornellScene,
	},
	"spheregrid": {
		Name:        "spheregrid",
		Description: "Grid of small spheres in varying hues and finishes, for stressing the BVH",
		build:       NewSphereGridScene,
	},
	"empty": {
		Name:        "empty",
		Description: "No primitives; every pixel is the void color",
		build:       NewEmptyScene,
	},
}

// Builtins lists the built-in scenes sorted by name
func Builtins() []Builtin {
	list := lo.Values(builtins)
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// NewBuiltin constructs the built-in scene called name
func NewBuiltin(name string) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("unknown scene %q (want one of %v)", name, lo.Map(Builtins(), func(b Builtin, _ int) string { return b.Name }))
	}
	return b.build(), nil
}

// NewDefaultScene creates three spheres resting on a huge ground sphere, lit
// by a large emissive sphere overhead
func NewDefaultScene() *Scene {
	s := New("default", config.DefaultCamera())

	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 0, 0), 0))
	green := s.AddMaterial(material.NewDiffuse(core.NewVec3(0, 1, 0), 0))
	blue := s.AddMaterial(material.NewDiffuse(core.NewVec3(0, 0, 1), 0))
	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.98, 0.73, 0.05), 0))
	light := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1), 10))

	s.AddSphere(core.NewVec3(0, 0.3, -13), 1, red)
	s.AddSphere(core.NewVec3(3, 0.5, -5), 0.5, green)
	s.AddSphere(core.NewVec3(-3, 1.8, -6), 2, blue)
	s.AddSphere(core.NewVec3(0, -100, 0), 100, ground)
	s.AddSphere(core.NewVec3(60, 120, -20), 80, light)
	return s
}

// NewCornellScene creates the classic 555-unit Cornell box
func NewCornellScene() *Scene {
	s := New("cornell", config.Camera{
		Position: config.Vector{278, 278, -800},
		LookAt:   config.Vector{278, 278, 0},
		Up:       config.Vector{0, 1, 0},
		FOV:      40,
	})

	white := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.73, 0.73, 0.73), 0))
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.65, 0.05, 0.05), 0))
	green := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.12, 0.45, 0.15), 0))
	mirror := s.AddMaterial(material.NewReflective(core.NewVec3(0.8, 0.8, 0.9), 0, 1))
	light := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1), 15))

	const size = 555.0
	x := core.NewVec3(size, 0, 0)
	y := core.NewVec3(0, size, 0)
	z := core.NewVec3(0, 0, size)

	s.AddQuad(core.Vec3{}, x, z, white) // floor
	s.AddQuad(y, x, z, white)           // ceiling
	s.AddQuad(z, x, y, white)           // back
	s.AddQuad(core.Vec3{}, z, y, red)   // left
	s.AddQuad(x, y, z, green)           // right

	const lightSize = 130.0
	offset := (size - lightSize) / 2
	s.AddQuad(core.NewVec3(offset, size-1, offset), core.NewVec3(lightSize, 0, 0), core.NewVec3(0, 0, lightSize), light)

	s.AddSphere(core.NewVec3(185, 82.5, 169), 82.5, mirror)
	s.AddSphere(core.NewVec3(370, 90, 351), 90, white)
	return s
}

// NewSphereGridScene creates a 10x10 grid of spheres whose hue varies along
// one axis and whose finish varies along the other
func NewSphereGridScene() *Scene {
	s := New("spheregrid", config.Camera{
		Position: config.Vector{4.5, 6, 18},
		LookAt:   config.Vector{4.5, 0.8, 4.5},
		Up:       config.Vector{0, 1, 0},
		FOV:      60,
	})

	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5), 0))
	light := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 0.95, 0.9), 8))
	s.AddSphere(core.NewVec3(4.5, -1000, 4.5), 1000, ground)
	s.AddSphere(core.NewVec3(-20, 40, 30), 15, light)

	const gridSize = 10
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			hue := float64(i) * 360 / gridSize
			c := colorful.Hcl(hue, 0.6, 0.65).Clamped()
			albedo := core.NewVec3(c.R, c.G, c.B)

			var m *material.Material
			if j%2 == 0 {
				m = material.NewDiffuse(albedo, 0)
			} else {
				m = material.NewReflective(albedo, 0, float64(j)/gridSize)
			}
			s.AddSphere(core.NewVec3(float64(i), 0.4, float64(j)), 0.4, s.AddMaterial(m))
		}
	}
	return s
}

// NewEmptyScene creates a scene with no primitives
func NewEmptyScene() *Scene {
	return New("empty", config.DefaultCamera())
}
