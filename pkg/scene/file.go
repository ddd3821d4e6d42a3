package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/a8m/envsubst"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/material"
)

// minTriangleArea is the area under which a triangle is rejected as degenerate
const minTriangleArea = 1e-12

// File is the JSON scene description
type File struct {
	Name      string                  `json:"name,omitempty"`
	Camera    *config.Camera          `json:"camera,omitempty"`
	Materials map[string]MaterialSpec `json:"materials"`
	Spheres   []SphereSpec            `json:"spheres,omitempty"`
	Triangles []TriangleSpec          `json:"triangles,omitempty"`
	Meshes    []MeshSpec              `json:"meshes,omitempty"`
}

// MaterialSpec describes a named material
type MaterialSpec struct {
	Type       string       `json:"type"` // diffuse or reflective
	Albedo     config.Color `json:"albedo"`
	Intensity  float64      `json:"intensity,omitempty"`
	Glossiness float64      `json:"glossiness,omitempty"`
}

// SphereSpec describes a sphere
type SphereSpec struct {
	Center   config.Vector `json:"center"`
	Radius   float64       `json:"radius"`
	Material string        `json:"material"`
}

// TriangleSpec describes a triangle by its corners
type TriangleSpec struct {
	Vertices [3]config.Vector `json:"vertices"`
	Material string           `json:"material"`
}

// MeshSpec references an OBJ or PLY file, relative to the scene file
type MeshSpec struct {
	Path      string        `json:"path"`
	Material  string        `json:"material"`
	Scale     float64       `json:"scale,omitempty"` // 0 means 1
	Translate config.Vector `json:"translate,omitempty"`
}

// Schema returns the JSON schema of scene files
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&File{})
}

// Load reads a scene file, expanding environment variables first
func Load(path string) (*Scene, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scene %s", path)
	}
	return Parse(bytes.NewReader(buf), path)
}

// Parse decodes a scene description. path names the source in errors and
// anchors relative mesh paths.
func Parse(r io.Reader, path string) (*Scene, error) {
	var file File
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "decoding scene %s", path)
	}
	return file.Build(filepath.Dir(path))
}

// Build validates the description and assembles the scene. Every problem
// found is reported, not only the first.
func (f *File) Build(baseDir string) (*Scene, error) {
	camera := config.DefaultCamera()
	if f.Camera != nil {
		camera = *f.Camera
	}
	s := New(f.Name, camera)

	var errs error
	if f.Camera != nil {
		errs = multierr.Append(errs, f.Camera.Validate("camera"))
	}

	// Build materials in name order so the material table is deterministic
	materials := make(map[string]*material.Material, len(f.Materials))
	names := lo.Keys(f.Materials)
	sort.Strings(names)
	for _, name := range names {
		m, err := f.Materials[name].build()
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "materials.%s", name))
			continue
		}
		materials[name] = s.AddMaterial(m)
	}

	lookup := func(path, name string) *material.Material {
		m, ok := materials[name]
		if !ok {
			errs = multierr.Append(errs, errors.Errorf("%s: unknown material %q", path, name))
		}
		return m
	}

	for i, sphere := range f.Spheres {
		path := fmt.Sprintf("spheres[%d]", i)
		m := lookup(path, sphere.Material)
		if !(sphere.Radius > 0) {
			errs = multierr.Append(errs, errors.Errorf("%s: radius must be positive, got %g", path, sphere.Radius))
			continue
		}
		if m != nil {
			s.AddSphere(sphere.Center.Vec3(), sphere.Radius, m)
		}
	}

	for i, tri := range f.Triangles {
		path := fmt.Sprintf("triangles[%d]", i)
		m := lookup(path, tri.Material)
		a, b, c := tri.Vertices[0].Vec3(), tri.Vertices[1].Vec3(), tri.Vertices[2].Vec3()
		if triangleArea(a, b, c) < minTriangleArea {
			errs = multierr.Append(errs, errors.Errorf("%s: triangle has zero area", path))
			continue
		}
		if m != nil {
			s.AddTriangle(a, b, c, m)
		}
	}

	for i, spec := range f.Meshes {
		path := fmt.Sprintf("meshes[%d]", i)
		m := lookup(path, spec.Material)
		mesh, err := LoadMesh(resolve(baseDir, spec.Path))
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, path))
			continue
		}
		scale := spec.Scale
		if scale == 0 {
			scale = 1
		}
		mesh.Transform(scale, spec.Translate.Vec3())
		if m != nil {
			s.AddMesh(mesh, m)
		}
	}

	if errs != nil {
		return nil, errs
	}
	return s, nil
}

// AddMesh adds a mesh's triangles with material m, dropping the zero-area
// faces that exported meshes often contain
func (s *Scene) AddMesh(mesh *Mesh, m *material.Material) {
	for _, face := range mesh.Faces {
		a, b, c := mesh.Vertices[face[0]], mesh.Vertices[face[1]], mesh.Vertices[face[2]]
		if triangleArea(a, b, c) >= minTriangleArea {
			s.AddTriangle(a, b, c, m)
		}
	}
}

func (spec MaterialSpec) build() (*material.Material, error) {
	kind, err := material.ParseKind(spec.Type)
	if err != nil {
		return nil, err
	}
	if spec.Intensity < 0 {
		return nil, errors.Errorf("intensity must not be negative, got %g", spec.Intensity)
	}
	albedo := spec.Albedo.Vec3()
	if kind == material.Reflective {
		return material.NewReflective(albedo, spec.Intensity, spec.Glossiness), nil
	}
	return material.NewDiffuse(albedo, spec.Intensity), nil
}

func triangleArea(a, b, c core.Vec3) float64 {
	return b.Subtract(a).Cross(c.Subtract(a)).Length() / 2
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
