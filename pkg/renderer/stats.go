package renderer

import (
	"time"

	"github.com/montanaflynn/stats"
)

// RenderStats summarizes a finished render
type RenderStats struct {
	Width           int
	Height          int
	TotalPixels     int
	TotalSamples    int // Primary samples across all pixels
	Workers         int
	Rays            uint64 // Rays traced including bounces
	Elapsed         time.Duration
	RaysPerSecond   float64
	MeanLuminance   float64
	LuminanceStdDev float64
}

func (r *Renderer) collectStats(img *Image, workers int, rays uint64, elapsed time.Duration) RenderStats {
	s := RenderStats{
		Width:        img.Width,
		Height:       img.Height,
		TotalPixels:  len(img.Pixels),
		TotalSamples: len(img.Pixels) * r.config.SamplesPerPixel,
		Workers:      workers,
		Rays:         rays,
		Elapsed:      elapsed,
	}
	if elapsed > 0 {
		s.RaysPerSecond = float64(rays) / elapsed.Seconds()
	}

	if len(img.Pixels) == 0 {
		return s
	}
	luminance := make(stats.Float64Data, len(img.Pixels))
	for i, c := range img.Pixels {
		luminance[i] = c.Luminance()
	}
	// Both only fail on empty input
	s.MeanLuminance, _ = luminance.Mean()
	s.LuminanceStdDev, _ = luminance.StandardDeviation()
	return s
}
