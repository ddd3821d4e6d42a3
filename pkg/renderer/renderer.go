// Package renderer samples every pixel of an image in parallel.
package renderer

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/integrator"
)

// ProgressFunc is called by the coordinator once per completed column
type ProgressFunc func(completed, total int)

// Option configures a Renderer
type Option func(*Renderer)

// WithLogger sets the logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// WithClock sets the clock used to time the render
func WithClock(c clock.Clock) Option {
	return func(r *Renderer) { r.clock = c }
}

// WithProgress sets a callback for column completion
func WithProgress(fn ProgressFunc) Option {
	return func(r *Renderer) { r.progress = fn }
}

// Renderer splits an image into column ranges, samples them concurrently and
// assembles the results on a single coordinator goroutine.
type Renderer struct {
	config     config.Config
	camera     integrator.Camera
	integrator *integrator.PathTracingIntegrator
	logger     *zap.SugaredLogger
	clock      clock.Clock
	progress   ProgressFunc
	completed  atomic.Int64
}

// New creates a renderer for scene as seen by camera
func New(cfg config.Config, camera integrator.Camera, scene integrator.Collider, opts ...Option) *Renderer {
	r := &Renderer{
		config:     cfg,
		camera:     camera,
		integrator: integrator.NewPathTracingIntegrator(cfg, scene),
		logger:     zap.NewNop().Sugar(),
		clock:      clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Completed returns the number of columns finished so far. It is safe to call
// while a render is in progress.
func (r *Renderer) Completed() int {
	return int(r.completed.Load())
}

// Render samples the whole image and blocks until it is complete
func (r *Renderer) Render() (*Image, RenderStats) {
	width, height := r.config.Width, r.config.Height
	workers := workerCount(r.config.Workers, width)
	ranges := splitColumns(width, workers)

	r.completed.Store(0)
	start := r.clock.Now()
	raysBefore := r.integrator.RayCount()
	r.logger.Infow("rendering",
		"width", width,
		"height", height,
		"samplesPerPixel", r.config.SamplesPerPixel,
		"bounces", r.config.Bounces,
		"workers", len(ranges),
	)

	img := NewImage(width, height)
	results := make(chan columnResult, len(ranges))
	done := make(chan struct{})

	// Only the coordinator writes to img
	go func() {
		defer close(done)
		for column := range results {
			for _, p := range column.Pixels {
				img.Set(p.X, p.Y, p.Color)
			}
			completed := int(r.completed.Inc())
			if r.progress != nil {
				r.progress(completed, width)
			}
			r.logger.Debugw("column done", "column", column.X, "completed", completed)
		}
	}()

	r.runWorkers(ranges, results)
	close(results)
	<-done

	stats := r.collectStats(img, len(ranges), r.integrator.RayCount()-raysBefore, r.clock.Since(start))
	r.logger.Infow("render complete",
		"elapsed", stats.Elapsed,
		"rays", stats.Rays,
		"raysPerSecond", stats.RaysPerSecond,
	)
	return img, stats
}

// Image is a row-major buffer of linear colors in [0, 1]
type Image struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// NewImage allocates a black image
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// At returns the color of pixel (x, y)
func (img *Image) At(x, y int) core.Vec3 {
	return img.Pixels[y*img.Width+x]
}

// Set stores the color of pixel (x, y)
func (img *Image) Set(x, y int, c core.Vec3) {
	img.Pixels[y*img.Width+x] = c
}
