package renderer

import (
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-bvh-tracer/pkg/core"
)

// columnRange is a half-open range of image columns owned by one worker
type columnRange struct {
	start, end int
}

// pixelResult is a finished pixel, produced by a worker and owned by the coordinator
type pixelResult struct {
	X, Y  int
	Color core.Vec3
}

// columnResult is every pixel of one finished column
type columnResult struct {
	X      int
	Pixels []pixelResult
}

// workerCount resolves the configured worker count: 0 means one per CPU, and
// there are never more workers than columns.
func workerCount(configured, width int) int {
	workers := configured
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return max(1, min(workers, width))
}

// splitColumns divides [0, width) into n contiguous, disjoint, near-equal ranges
func splitColumns(width, n int) []columnRange {
	ranges := make([]columnRange, 0, n)
	for i := 0; i < n; i++ {
		start, end := i*width/n, (i+1)*width/n
		if start < end {
			ranges = append(ranges, columnRange{start: start, end: end})
		}
	}
	return ranges
}

// columnSeed derives the generator seed for a column. Each column draws from
// its own stream, so the image does not depend on how columns are assigned.
func columnSeed(seed int64, column int) int64 {
	h := uint64(seed)*0x9E3779B97F4A7C15 + uint64(column)
	h ^= h >> 30
	h *= 0xBF58476D1CE4E5B9
	h ^= h >> 27
	h *= 0x94D049BB133111EB
	h ^= h >> 31
	return int64(h)
}

// runWorkers renders every column range on its own goroutine and sends each
// completed column to results. The number of ranges bounds the concurrency.
// It returns once all workers have finished.
func (r *Renderer) runWorkers(ranges []columnRange, results chan<- columnResult) {
	var g errgroup.Group

	for _, span := range ranges {
		span := span
		g.Go(func() error {
			for x := span.start; x < span.end; x++ {
				results <- r.renderColumn(x)
			}
			return nil
		})
	}
	// Workers never fail
	_ = g.Wait()
}

// renderColumn computes every pixel of column x into a fresh slice
func (r *Renderer) renderColumn(x int) columnResult {
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(columnSeed(r.config.Seed, x))))
	column := make([]pixelResult, r.config.Height)
	for y := range column {
		column[y] = pixelResult{
			X:     x,
			Y:     y,
			Color: r.integrator.PixelColor(r.camera, x, y, sampler),
		}
	}
	return columnResult{X: x, Pixels: column}
}
