package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"

	"github.com/google/uuid"

	"github.com/df07/go-bvh-tracer/pkg/imageio"
	"github.com/df07/go-bvh-tracer/pkg/renderer"
	"github.com/df07/go-bvh-tracer/pkg/scene"
)

// ProgressUpdate is sent after every completed column
type ProgressUpdate struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// RenderResult is sent once the image is complete
type RenderResult struct {
	RenderID  string `json:"renderId"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

// Stats summarizes a finished render
type Stats struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	TotalSamples    int     `json:"totalSamples"`
	Rays            uint64  `json:"rays"`
	RaysPerSecond   float64 `json:"raysPerSecond"`
	ElapsedMs       int64   `json:"elapsedMs"`
	MeanLuminance   float64 `json:"meanLuminance"`
	BVHNodes        int     `json:"bvhNodes"`
	BVHDepth        int     `json:"bvhDepth"`
	BVHStrategy     string  `json:"bvhStrategy"`
	PrimitiveCount  int     `json:"primitives"`
	LuminanceStdDev float64 `json:"luminanceStdDev"`
}

// SSEEvent is a server-sent event queued for the single writer goroutine
type SSEEvent struct {
	Type string // "console", "progress", "error", "complete"
	Data string // JSON-encoded payload
}

// handleRender renders a scene and streams progress, log lines and the final
// image as server-sent events
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)
	ctx := r.Context()

	events := make(chan SSEEvent, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		writeSSEEvents(ctx, w, events)
	}()
	defer func() {
		close(events)
		<-done
	}()

	req, err := parseRenderRequest(r)
	if err != nil {
		sendEvent(ctx, events, "error", map[string]string{"error": "invalid request: " + err.Error()})
		return
	}
	sc, err := scene.NewBuiltin(req.Scene)
	if err != nil {
		sendEvent(ctx, events, "error", map[string]string{"error": err.Error()})
		return
	}
	cfg := req.Config(sc.Camera)
	if err := cfg.Validate("request"); err != nil {
		sendEvent(ctx, events, "error", map[string]string{"error": err.Error()})
		return
	}

	renderID := uuid.New().String()
	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewConsoleLogger(s.logger, renderID, consoleChan)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		for msg := range consoleChan {
			sendEvent(ctx, events, "console", msg)
		}
	}()

	tree := sc.BuildBVH(cfg.Strategy, cfg.Epsilon, logger)
	camera := renderer.NewPinholeCamera(*cfg.Camera, cfg.Width, cfg.Height)
	progress := func(completed, total int) {
		sendEvent(ctx, events, "progress", ProgressUpdate{Completed: completed, Total: total})
	}
	img, stats := renderer.New(cfg, camera, tree, renderer.WithLogger(logger), renderer.WithProgress(progress)).Render()

	close(consoleChan)
	<-consoleDone

	data, err := imageToBase64PNG(imageio.ToImage(img, cfg.Gamma))
	if err != nil {
		sendEvent(ctx, events, "error", map[string]string{"error": err.Error()})
		return
	}

	treeStats := tree.Stats()
	sendEvent(ctx, events, "complete", RenderResult{
		RenderID:  renderID,
		ImageData: data,
		Stats: Stats{
			Width:           stats.Width,
			Height:          stats.Height,
			TotalSamples:    stats.TotalSamples,
			Rays:            stats.Rays,
			RaysPerSecond:   stats.RaysPerSecond,
			ElapsedMs:       stats.Elapsed.Milliseconds(),
			MeanLuminance:   stats.MeanLuminance,
			LuminanceStdDev: stats.LuminanceStdDev,
			BVHNodes:        treeStats.TotalNodes,
			BVHDepth:        treeStats.MaxDepth,
			BVHStrategy:     string(cfg.Strategy),
			PrimitiveCount:  treeStats.TotalPrimitives,
		},
	})
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sendEvent queues an event unless the client has gone away
func sendEvent(ctx context.Context, events chan<- SSEEvent, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
		eventType = "error"
	}
	select {
	case events <- SSEEvent{Type: eventType, Data: string(data)}:
	case <-ctx.Done():
	}
}

// writeSSEEvents is the only goroutine writing to w. It keeps draining after
// the client disconnects so senders never block.
func writeSSEEvents(ctx context.Context, w http.ResponseWriter, events <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	connected := true
	for event := range events {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
