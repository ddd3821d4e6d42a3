// Package config holds the immutable render configuration.
//
// A Config is built once, from Default, an optional JSON file and command
// line overrides, validated, and then passed by value to the renderer.
package config

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/df07/go-bvh-tracer/pkg/bvh"
)

// Camera describes a look-at camera
type Camera struct {
	Position      Vector  `json:"position"`
	LookAt        Vector  `json:"look_at"`
	Up            Vector  `json:"up"`
	FOV           float64 `json:"fov"`                      // Horizontal field of view in degrees
	Aperture      float64 `json:"aperture,omitempty"`       // Lens diameter, 0 for a pinhole
	FocusDistance float64 `json:"focus_distance,omitempty"` // 0 focuses on LookAt
}

// Config is the full set of render parameters
type Config struct {
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	SamplesPerPixel int          `json:"samples_per_pixel"`
	Bounces         int          `json:"bounces"`
	Epsilon         float64      `json:"epsilon"`
	Void            Color        `json:"void"`
	Workers         int          `json:"workers"`
	Seed            int64        `json:"seed"`
	Strategy        bvh.Strategy `json:"bvh_strategy"`
	Gamma           float64      `json:"gamma"`
	Camera          *Camera      `json:"camera,omitempty"` // nil uses the scene's camera
}

// DefaultCamera looks down +z from behind the origin with a 60 degree field of view
func DefaultCamera() Camera {
	return Camera{
		Position: Vector{0, 0, -20},
		LookAt:   Vector{0, 0, 0},
		Up:       Vector{0, 1, 0},
		FOV:      60,
	}
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Width:           640,
		Height:          360,
		SamplesPerPixel: 64,
		Bounces:         3,
		Epsilon:         1e-6,
		Workers:         0, // one per CPU
		Seed:            1,
		Strategy:        bvh.SAH,
		Gamma:           1,
	}
}

// Load reads a JSON config file on top of Default. Environment variables in
// the file are expanded before decoding.
func Load(path string) (Config, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := Default()
	decoder := json.NewDecoder(bytes.NewReader(buf))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decoding config %s", path)
	}
	return cfg, nil
}

// AspectRatio returns width / height
func (c Config) AspectRatio() float64 {
	return float64(c.Width) / float64(c.Height)
}

// Validate reports every invalid field. path prefixes the messages, usually
// the name of the file the config came from.
func (c Config) Validate(path string) error {
	var errs error
	positive := func(field string, v int) {
		if v <= 0 {
			errs = multierr.Append(errs, errors.Errorf("%s: %q must be positive, got %d", path, field, v))
		}
	}

	positive("width", c.Width)
	positive("height", c.Height)
	positive("samples_per_pixel", c.SamplesPerPixel)
	if c.Bounces < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must not be negative, got %d", path, "bounces", c.Bounces))
	}
	if c.Workers < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must not be negative, got %d", path, "workers", c.Workers))
	}
	if !(c.Epsilon > 0) || math.IsInf(c.Epsilon, 0) {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must be a small positive number, got %g", path, "epsilon", c.Epsilon))
	}
	if !(c.Gamma > 0) {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must be positive, got %g", path, "gamma", c.Gamma))
	}
	if _, err := bvh.ParseStrategy(string(c.Strategy)); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "%s: %q", path, "bvh_strategy"))
	}
	if c.Camera != nil {
		errs = multierr.Append(errs, c.Camera.Validate(path+".camera"))
	}
	return errs
}

// Validate checks that the camera can build an orthonormal basis
func (c Camera) Validate(path string) error {
	var errs error
	forward := c.LookAt.Vec3().Subtract(c.Position.Vec3())
	if forward.IsZero(1e-12) {
		errs = multierr.Append(errs, errors.Errorf("%s: position and look_at must differ", path))
	} else if forward.Normalize().Cross(c.Up.Vec3().Normalize()).IsZero(1e-9) {
		errs = multierr.Append(errs, errors.Errorf("%s: up must not be parallel to the view direction", path))
	}
	if !(c.FOV > 0 && c.FOV < 180) {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must be in (0, 180), got %g", path, "fov", c.FOV))
	}
	if c.Aperture < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must not be negative, got %g", path, "aperture", c.Aperture))
	}
	if c.FocusDistance < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s: %q must not be negative, got %g", path, "focus_distance", c.FocusDistance))
	}
	return errs
}
