package material

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// Kind identifies the scattering behavior of a material
type Kind uint8

const (
	// Diffuse scatters around the surface normal (Lambertian)
	Diffuse Kind = iota
	// Reflective mirrors the incoming ray, blurred by glossiness
	Reflective
)

// String returns the lower-case name used in scene files
func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Reflective:
		return "reflective"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses a material kind name as written in scene files
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "diffuse", "lambertian":
		return Diffuse, nil
	case "reflective", "metal":
		return Reflective, nil
	default:
		return 0, errors.Errorf("unknown material kind %q", name)
	}
}

// Material is a closed set of surface behaviors selected by Kind.
// Materials are immutable once a scene is built and are shared by pointer.
type Material struct {
	Kind       Kind
	Albedo     core.Vec3 // Reflectance per color channel
	Intensity  float64   // Emission strength relative to albedo
	Glossiness float64   // Reflective only: 0 = fully scattered, 1 = perfect mirror
}

// NewDiffuse creates a diffuse material. A positive intensity makes it a light.
func NewDiffuse(albedo core.Vec3, intensity float64) *Material {
	return &Material{Kind: Diffuse, Albedo: albedo, Intensity: intensity}
}

// NewReflective creates a reflective material with glossiness clamped to [0, 1]
func NewReflective(albedo core.Vec3, intensity, glossiness float64) *Material {
	return &Material{
		Kind:       Reflective,
		Albedo:     albedo,
		Intensity:  intensity,
		Glossiness: max(0, min(1, glossiness)),
	}
}

// Emission returns the light emitted by the surface: albedo scaled by intensity
func (m *Material) Emission() core.Vec3 {
	return m.Albedo.Multiply(m.Intensity)
}

// IsEmissive reports whether the material contributes light of its own
func (m *Material) IsEmissive() bool {
	return m.Intensity > 0 && !m.Albedo.IsZero(0)
}

// Scatter returns the next bounce leaving point. The point is expected to be
// already offset along the normal. Near-zero directions fall back to the normal.
func (m *Material) Scatter(rayIn core.Ray, point, normal core.Vec3, sampler core.Sampler, epsilon float64) core.Ray {
	var direction core.Vec3
	switch m.Kind {
	case Reflective:
		direction = reflectGlossy(rayIn.Direction, normal, m.Glossiness, sampler)
	default:
		direction = scatterDiffuse(normal, sampler)
	}

	if direction.IsZero(epsilon) {
		direction = normal
	}
	return core.NewRay(point, direction)
}
