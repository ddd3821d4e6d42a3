package scene

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// maxPLYListLength bounds the length of a single list property
const maxPLYListLength = 1 << 16

// plyProperty is a property definition from a PLY header
type plyProperty struct {
	name      string
	dataType  string
	isList    bool
	countType string // Type of the list length for list properties
}

// plyElement is an element definition from a PLY header
type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// ParsePLY reads vertex positions and faces from an ascii or binary PLY
// file. Other properties and elements are skipped; polygons are
// fan-triangulated.
func ParsePLY(r io.Reader) (*Mesh, error) {
	reader := bufio.NewReader(r)
	format, elements, err := parsePLYHeader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "parsing PLY header")
	}

	var read func(dataType string) (float64, error)
	switch format {
	case "ascii":
		read = asciiValueReader(reader)
	case "binary_little_endian":
		read = binaryValueReader(reader, binary.LittleEndian)
	case "binary_big_endian":
		read = binaryValueReader(reader, binary.BigEndian)
	default:
		return nil, errors.Errorf("unsupported PLY format %q", format)
	}

	mesh := &Mesh{}
	for _, element := range elements {
		for i := 0; i < element.count; i++ {
			if err := readPLYElement(element, read, mesh); err != nil {
				return nil, errors.Wrapf(err, "%s %d", element.name, i)
			}
		}
	}
	return mesh, nil
}

// readPLYElement reads one element instance, keeping vertex positions and
// face vertex lists and discarding everything else
func readPLYElement(element plyElement, read func(string) (float64, error), mesh *Mesh) error {
	var position [3]float64
	var face []int

	for _, prop := range element.props {
		if prop.isList {
			n, err := read(prop.countType)
			if err != nil {
				return err
			}
			if n < 0 || n != math.Trunc(n) || n > maxPLYListLength {
				return errors.Errorf("invalid %s list length %v", prop.name, n)
			}
			values := make([]int, int(n))
			for j := range values {
				v, err := read(prop.dataType)
				if err != nil {
					return err
				}
				values[j] = int(v)
			}
			if element.name == "face" && (prop.name == "vertex_indices" || prop.name == "vertex_index") {
				face = values
			}
			continue
		}

		v, err := read(prop.dataType)
		if err != nil {
			return err
		}
		if element.name == "vertex" {
			switch prop.name {
			case "x":
				position[0] = v
			case "y":
				position[1] = v
			case "z":
				position[2] = v
			}
		}
	}

	switch element.name {
	case "vertex":
		mesh.Vertices = append(mesh.Vertices, core.NewVec3(position[0], position[1], position[2]))
	case "face":
		if len(face) < 3 {
			return errors.Errorf("face has %d vertices", len(face))
		}
		for _, index := range face {
			if index < 0 || index >= len(mesh.Vertices) {
				return errors.Errorf("vertex index %d out of range (%d vertices)", index, len(mesh.Vertices))
			}
		}
		mesh.addPolygon(face)
	}
	return nil
}

// parsePLYHeader reads up to and including end_header, leaving the reader
// positioned at the first byte of the body
func parsePLYHeader(reader *bufio.Reader) (string, []plyElement, error) {
	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return "", nil, errors.New("missing ply magic number")
	}

	var format string
	var elements []plyElement
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", nil, errors.Wrap(err, "header ended before end_header")
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if format == "" {
				return "", nil, errors.New("missing format line")
			}
			return format, elements, nil
		case "format":
			if len(parts) < 2 {
				return "", nil, errors.New("invalid format line")
			}
			format = parts[1]
		case "element":
			if len(parts) < 3 {
				return "", nil, errors.Errorf("invalid element line %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return "", nil, errors.Errorf("invalid element count %q", parts[2])
			}
			elements = append(elements, plyElement{name: parts[1], count: count})
		case "property":
			if len(elements) == 0 {
				return "", nil, errors.New("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return "", nil, err
			}
			last := &elements[len(elements)-1]
			last.props = append(last.props, prop)
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return plyProperty{isList: true, countType: parts[1], dataType: parts[2], name: parts[3]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return plyProperty{dataType: parts[0], name: parts[1]}, nil
	}
	return plyProperty{}, errors.Errorf("invalid property definition %q", strings.Join(parts, " "))
}

func asciiValueReader(r io.Reader) func(string) (float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return func(string) (float64, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		return strconv.ParseFloat(scanner.Text(), 64)
	}
}

func binaryValueReader(r io.Reader, order binary.ByteOrder) func(string) (float64, error) {
	var buf [8]byte
	return func(dataType string) (float64, error) {
		size := plyTypeSize(dataType)
		if size == 0 {
			return 0, errors.Errorf("unknown PLY type %q", dataType)
		}
		if _, err := io.ReadFull(r, buf[:size]); err != nil {
			return 0, err
		}
		b := buf[:size]
		switch dataType {
		case "char", "int8":
			return float64(int8(b[0])), nil
		case "uchar", "uint8":
			return float64(b[0]), nil
		case "short", "int16":
			return float64(int16(order.Uint16(b))), nil
		case "ushort", "uint16":
			return float64(order.Uint16(b)), nil
		case "int", "int32":
			return float64(int32(order.Uint32(b))), nil
		case "uint", "uint32":
			return float64(order.Uint32(b)), nil
		case "float", "float32":
			return float64(math.Float32frombits(order.Uint32(b))), nil
		default:
			return math.Float64frombits(order.Uint64(b)), nil
		}
	}
}

func plyTypeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}
