package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("built BVH", "nodes", 7)
	logger.Infow("rendering", "width", 4)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entry := logs.FilterMessage("built BVH").All()[0]
	test.That(t, entry.ContextMap()["nodes"], test.ShouldEqual, int64(7))
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.log")
	logger := NewLogger("tracer", Options{Quiet: true, LogFile: path})
	logger.Infow("render complete", "rays", 42)
	logger.Debugw("not written without debug")
	// lumberjack writes through on every entry

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, len(lines), test.ShouldEqual, 1)

	var entry map[string]any
	test.That(t, json.Unmarshal([]byte(lines[0]), &entry), test.ShouldBeNil)
	test.That(t, entry["msg"], test.ShouldEqual, "render complete")
	test.That(t, entry["logger"], test.ShouldEqual, "tracer")
	test.That(t, entry["level"], test.ShouldEqual, "INFO")
	test.That(t, entry["rays"], test.ShouldEqual, 42.0)
}

func TestConsoleLevel(t *testing.T) {
	test.That(t, consoleLevel(Options{}).String(), test.ShouldEqual, "info")
	test.That(t, consoleLevel(Options{Debug: true, Quiet: true}).String(), test.ShouldEqual, "debug")
	test.That(t, consoleLevel(Options{Quiet: true}).String(), test.ShouldEqual, "warn")
}
