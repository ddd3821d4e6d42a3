package scene

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// ParseOBJ reads the geometry of a Wavefront OBJ file. Only vertex positions
// (v) and faces (f) are used; polygons are fan-triangulated. Face entries may
// be v, v/vt, v//vn or v/vt/vn, with 1-based or negative (relative) indices.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	mesh := &Mesh{}
	scanner := bufio.NewScanner(r)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: vertex needs 3 coordinates", lineNumber)
			}
			var xyz [3]float64
			for i := range xyz {
				value, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNumber)
				}
				xyz[i] = value
			}
			mesh.Vertices = append(mesh.Vertices, core.NewVec3(xyz[0], xyz[1], xyz[2]))

		case "f":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: face needs at least 3 vertices", lineNumber)
			}
			indices := make([]int, 0, len(fields)-1)
			for _, field := range fields[1:] {
				index, err := objIndex(field, len(mesh.Vertices))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNumber)
				}
				indices = append(indices, index)
			}
			mesh.addPolygon(indices)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading OBJ")
	}
	return mesh, nil
}

// objIndex resolves the position index of a face entry to a 0-based index
func objIndex(field string, vertexCount int) (int, error) {
	position, _, _ := strings.Cut(field, "/")
	index, err := strconv.Atoi(position)
	if err != nil {
		return 0, errors.Errorf("invalid face index %q", field)
	}

	switch {
	case index > 0:
		index--
	case index < 0:
		index += vertexCount
	default:
		return 0, errors.New("face index 0 is not valid")
	}

	if index < 0 || index >= vertexCount {
		return 0, errors.Errorf("face index %q out of range (%d vertices)", field, vertexCount)
	}
	return index, nil
}
