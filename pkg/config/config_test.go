package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/df07/go-bvh-tracer/pkg/bvh"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "render.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o644), test.ShouldBeNil)
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate("default"), test.ShouldBeNil)
	test.That(t, cfg.Strategy, test.ShouldEqual, bvh.SAH)
	test.That(t, cfg.AspectRatio(), test.ShouldAlmostEqual, 16.0/9.0, 1e-12)

	camera := DefaultCamera()
	test.That(t, camera.Validate("camera"), test.ShouldBeNil)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Setenv("TRACER_SAMPLES", "8")
	path := writeFile(t, `{
		"width": 32,
		"samples_per_pixel": ${TRACER_SAMPLES},
		"void": "#ff0000",
		"bvh_strategy": "median",
		"camera": {"position": [0, 1, -5], "look_at": [0, 0, 0], "up": [0, 1, 0], "fov": 45}
	}`)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)

	expected := Default()
	expected.Width = 32
	expected.SamplesPerPixel = 8
	expected.Void = Color{1, 0, 0}
	expected.Strategy = bvh.Median
	expected.Camera = &Camera{Position: Vector{0, 1, -5}, Up: Vector{0, 1, 0}, FOV: 45}

	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	test.That(t, cfg.Validate(path), test.ShouldBeNil)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Load(writeFile(t, `{"widht": 10}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "widht")

	_, err = Load(writeFile(t, `{"void": "not-a-color"}`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Width = 0
	cfg.Height = -1
	cfg.SamplesPerPixel = 0
	cfg.Bounces = -1
	cfg.Epsilon = 0
	cfg.Strategy = "octree"
	cfg.Camera = &Camera{Position: Vector{1, 1, 1}, LookAt: Vector{1, 1, 1}, Up: Vector{0, 1, 0}, FOV: 200}

	err := cfg.Validate("render.json")
	test.That(t, err, test.ShouldNotBeNil)

	errs := multierr.Errors(err)
	test.That(t, len(errs), test.ShouldEqual, 8)
	for _, field := range []string{"width", "height", "samples_per_pixel", "bounces", "epsilon", "bvh_strategy", "look_at", "fov"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, field)
	}
	test.That(t, strings.HasPrefix(errs[0].Error(), "render.json"), test.ShouldBeTrue)
}

func TestCamera_ParallelUp(t *testing.T) {
	camera := DefaultCamera()
	camera.Up = Vector{0, 0, 3}
	test.That(t, camera.Validate("camera"), test.ShouldNotBeNil)
}

func TestColor_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Color
		wantErr  bool
	}{
		{"array", `[0.25, 0.5, 1]`, Color{0.25, 0.5, 1}, false},
		{"hex", `"#ffffff"`, Color{1, 1, 1}, false},
		{"hex without hash", `"000000"`, Color{0, 0, 0}, false},
		{"bad hex", `"#zzzzzz"`, Color{}, true},
		{"object", `{"r": 1}`, Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Color
			err := json.Unmarshal([]byte(tt.input), &c)
			if tt.wantErr {
				test.That(t, err, test.ShouldNotBeNil)
				return
			}
			test.That(t, err, test.ShouldBeNil)
			test.That(t, c, test.ShouldResemble, tt.expected)
		})
	}

	test.That(t, Color{1, 0, 0.5}.Hex(), test.ShouldEqual, "#ff0080")
}
