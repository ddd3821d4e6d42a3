package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/df07/go-bvh-tracer/pkg/bvh"
	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/geometry"
	"github.com/df07/go-bvh-tracer/pkg/logging"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

func TestBuiltins(t *testing.T) {
	names := []string{}
	for _, b := range Builtins() {
		names = append(names, b.Name)
		test.That(t, b.Description, test.ShouldNotBeEmpty)
	}
	test.That(t, names, test.ShouldResemble, []string{"cornell", "default", "empty", "spheregrid"})

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			s, err := NewBuiltin(name)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, s.Name, test.ShouldEqual, name)
			test.That(t, s.Camera.Validate(name), test.ShouldBeNil)

			tree := s.BuildBVH(bvh.SAH, 1e-6, logging.NewTestLogger(t))
			test.That(t, tree.Verify(), test.ShouldBeNil)
			test.That(t, tree.Stats().TotalPrimitives, test.ShouldEqual, len(s.Primitives))

			if name != "empty" {
				test.That(t, len(s.Emissive()), test.ShouldBeGreaterThan, 0)
			}
		})
	}

	_, err := NewBuiltin("dragon")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cornell")
}

func TestDefaultScene(t *testing.T) {
	s := NewDefaultScene()
	test.That(t, s.Counts(), test.ShouldResemble, map[geometry.Kind]int{geometry.KindSphere: 5})
	test.That(t, len(s.Materials), test.ShouldEqual, 5)

	emissive := s.Emissive()
	test.That(t, len(emissive), test.ShouldEqual, 1)
	test.That(t, emissive[0].Emission(), test.ShouldResemble, core.NewVec3(10, 10, 10))
}

func TestCornellScene(t *testing.T) {
	s := NewCornellScene()
	// Five walls and the light as quads, plus two spheres
	test.That(t, s.Counts(), test.ShouldResemble, map[geometry.Kind]int{
		geometry.KindTriangle: 12,
		geometry.KindSphere:   2,
	})
}

func TestAddQuad(t *testing.T) {
	s := New("quad", config.DefaultCamera())
	m := s.AddMaterial(material.NewDiffuse(core.NewVec3(1, 1, 1), 0))
	s.AddQuad(core.NewVec3(0, 0, 5), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), m)
	tree := s.BuildBVH(bvh.Median, 1e-8, nil)

	// Both halves of the quad are hit, the gap between them is not
	for _, target := range []core.Vec3{core.NewVec3(1.5, 0.5, 5), core.NewVec3(0.5, 1.5, 5), core.NewVec3(1.9, 1.0, 5)} {
		hit, ok := tree.Collide(core.NewRay(core.NewVec3(target.X, target.Y, 0), core.NewVec3(0, 0, 1)), 100)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 5.0, 1e-9)
	}
	_, ok := tree.Collide(core.NewRay(core.NewVec3(2.5, 1, 0), core.NewVec3(0, 0, 1)), 100)
	test.That(t, ok, test.ShouldBeFalse)
}

const sceneJSON = `{
	"name": "test",
	"camera": {"position": [0, 0, -10], "look_at": [0, 0, 0], "up": [0, 1, 0], "fov": 50},
	"materials": {
		"light": {"type": "diffuse", "albedo": "#ffffff", "intensity": ${LIGHT_INTENSITY}},
		"mirror": {"type": "reflective", "albedo": [0.9, 0.9, 0.9], "glossiness": 0.8},
		"clay": {"type": "lambertian", "albedo": [0.5, 0.4, 0.3]}
	},
	"spheres": [
		{"center": [0, 5, 0], "radius": 1, "material": "light"},
		{"center": [0, 0, 0], "radius": 2, "material": "mirror"}
	],
	"triangles": [
		{"vertices": [[-5, -2, -5], [5, -2, -5], [0, -2, 5]], "material": "clay"}
	],
	"meshes": [
		{"path": "quad.obj", "material": "clay", "scale": 2, "translate": [0, 0, 3]}
	]
}`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644), test.ShouldBeNil)
	path := filepath.Join(dir, "scene.json")
	test.That(t, os.WriteFile(path, []byte(sceneJSON), 0o644), test.ShouldBeNil)
	t.Setenv("LIGHT_INTENSITY", "4")

	s, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name, test.ShouldEqual, "test")
	test.That(t, s.Camera.FOV, test.ShouldEqual, 50.0)
	test.That(t, s.Counts(), test.ShouldResemble, map[geometry.Kind]int{
		geometry.KindSphere:   2,
		geometry.KindTriangle: 4,
	})

	// Materials are built in name order: clay, light, mirror
	test.That(t, len(s.Materials), test.ShouldEqual, 3)
	test.That(t, s.Materials[0].Kind, test.ShouldEqual, material.Diffuse)
	test.That(t, s.Materials[1].Emission(), test.ShouldResemble, core.NewVec3(4, 4, 4))
	test.That(t, s.Materials[2].Kind, test.ShouldEqual, material.Reflective)
	test.That(t, s.Materials[2].Glossiness, test.ShouldEqual, 0.8)

	// Primitives share the scene's material pointers
	test.That(t, s.Primitives[0].Material(), test.ShouldEqual, s.Materials[1])

	// The mesh was scaled and moved
	mesh := s.Primitives[3].Triangle
	test.That(t, mesh.A, test.ShouldResemble, core.NewVec3(0, 0, 3))
	test.That(t, mesh.C, test.ShouldResemble, core.NewVec3(2, 2, 3))
}

func TestFile_ReportsEveryProblem(t *testing.T) {
	input := `{
		"materials": {
			"bad": {"type": "glass", "albedo": [1, 1, 1]},
			"dark": {"type": "diffuse", "albedo": [1, 1, 1], "intensity": -1},
			"ok": {"type": "diffuse", "albedo": [1, 1, 1]}
		},
		"spheres": [
			{"center": [0, 0, 0], "radius": 0, "material": "ok"},
			{"center": [0, 0, 0], "radius": 1, "material": "missing"}
		],
		"triangles": [
			{"vertices": [[0, 0, 0], [1, 1, 1], [2, 2, 2]], "material": "ok"}
		],
		"meshes": [
			{"path": "nowhere.obj", "material": "ok"}
		]
	}`

	_, err := Parse(strings.NewReader(input), filepath.Join(t.TempDir(), "scene.json"))
	test.That(t, err, test.ShouldNotBeNil)

	errs := multierr.Errors(err)
	test.That(t, len(errs), test.ShouldEqual, 6)
	for _, fragment := range []string{"materials.bad", "materials.dark", "spheres[0]", `unknown material "missing"`, "triangles[0]", "meshes[0]"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, fragment)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"materials": {}, "cubes": []}`), "scene.json")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cubes")
}

func TestSchema(t *testing.T) {
	data, err := json.Marshal(Schema())
	test.That(t, err, test.ShouldBeNil)
	for _, field := range []string{"materials", "spheres", "triangles", "meshes", "radius", "glossiness", "look_at"} {
		test.That(t, string(data), test.ShouldContainSubstring, field)
	}
}
