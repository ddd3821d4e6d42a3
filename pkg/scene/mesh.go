package scene

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// Mesh is an indexed triangle list
type Mesh struct {
	Vertices []core.Vec3
	Faces    [][3]int
}

// Transform scales then translates every vertex in place
func (m *Mesh) Transform(scale float64, offset core.Vec3) {
	for i, v := range m.Vertices {
		m.Vertices[i] = v.Multiply(scale).Add(offset)
	}
}

// Bounds returns the box around all vertices
func (m *Mesh) Bounds() core.AABB {
	return core.NewAABBFromPoints(m.Vertices...)
}

// addPolygon fan-triangulates a polygon given by vertex indices
func (m *Mesh) addPolygon(indices []int) {
	for i := 2; i < len(indices); i++ {
		m.Faces = append(m.Faces, [3]int{indices[0], indices[i-1], indices[i]})
	}
}

// LoadMesh reads a Wavefront OBJ or PLY file, chosen by extension
func LoadMesh(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mesh")
	}
	defer f.Close()

	var mesh *Mesh
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		mesh, err = ParseOBJ(f)
	case ".ply":
		mesh, err = ParsePLY(f)
	default:
		return nil, errors.Errorf("unsupported mesh format %q", ext)
	}
	return mesh, errors.Wrapf(err, "loading %s", path)
}
