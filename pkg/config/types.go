package config

import (
	"encoding/json"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// Vector is a point or direction written as a JSON [x, y, z] array
type Vector [3]float64

// NewVector creates a Vector from a core.Vec3
func NewVector(v core.Vec3) Vector {
	return Vector{v.X, v.Y, v.Z}
}

// Vec3 converts to a core.Vec3
func (v Vector) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// Color is a linear RGB triple. In JSON it is either an [r, g, b] array of
// values in [0, 1] or a "#rrggbb" hex string.
type Color [3]float64

// NewColor creates a Color from a core.Vec3
func NewColor(v core.Vec3) Color {
	return Color{v.X, v.Y, v.Z}
}

// Vec3 converts to a core.Vec3
func (c Color) Vec3() core.Vec3 {
	return core.NewVec3(c[0], c[1], c[2])
}

// ParseColor parses a "#rrggbb" hex color
func ParseColor(s string) (Color, error) {
	hex := strings.TrimSpace(s)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	parsed, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return Color{parsed.R, parsed.G, parsed.B}, nil
}

// UnmarshalJSON accepts an array or a hex string
func (c *Color) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		parsed, err := ParseColor(hex)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var rgb [3]float64
	if err := json.Unmarshal(data, &rgb); err != nil {
		return errors.Errorf("color must be an [r, g, b] array or a hex string, got %s", string(data))
	}
	*c = rgb
	return nil
}

// Hex formats the color as "#rrggbb" after clamping to [0, 1]
func (c Color) Hex() string {
	clamped := c.Vec3().Clamp(0, 1)
	return colorful.Color{R: clamped.X, G: clamped.Y, B: clamped.Z}.Hex()
}
