// Package server exposes rendering and pixel inspection over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/df07/go-bvh-tracer/pkg/bvh"
	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/scene"
)

// Limits applied to request parameters
const (
	maxDimension = 4096
	maxSamples   = 4096
	maxBounces   = 64
)

// Server handles web requests for the tracer
type Server struct {
	port   int
	logger *zap.SugaredLogger
}

// NewServer creates a new web server
func NewServer(port int, logger *zap.SugaredLogger) *Server {
	return &Server{port: port, logger: logger}
}

// RenderRequest represents the query parameters of a render or inspect request
type RenderRequest struct {
	Scene    string
	Width    int
	Height   int
	Samples  int
	Bounces  int
	Seed     int64
	Strategy bvh.Strategy
}

// SceneInfo describes a built-in scene
type SceneInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Primitives  int    `json:"primitives"`
	Lights      int    `json:"lights"`
}

// Handler returns the routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnw("shutting down web server", "error", err)
		}
	}()

	s.logger.Infow("starting web server", "address", "http://localhost"+srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serving")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	infos := lo.Map(scene.Builtins(), func(b scene.Builtin, _ int) SceneInfo {
		info := SceneInfo{Name: b.Name, Description: b.Description}
		if sc, err := scene.NewBuiltin(b.Name); err == nil {
			info.Primitives = len(sc.Primitives)
			info.Lights = len(sc.Emissive())
		}
		return info
	})
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debugw("writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseRenderRequest reads render parameters, falling back to the defaults
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	defaults := config.Default()

	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 320, 1, maxDimension); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 180, 1, maxDimension); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 16, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.Bounces, err = parseIntParam(query, "bounces", defaults.Bounces, 0, maxBounces); err != nil {
		return nil, err
	}

	req.Seed = defaults.Seed
	if v := query.Get("seed"); v != "" {
		if req.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, errors.Errorf("invalid seed %q", v)
		}
	}

	req.Strategy = defaults.Strategy
	if v := query.Get("bvh"); v != "" {
		if req.Strategy, err = bvh.ParseStrategy(v); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Config turns the request into a render configuration
func (req *RenderRequest) Config(camera config.Camera) config.Config {
	cfg := config.Default()
	cfg.Width = req.Width
	cfg.Height = req.Height
	cfg.SamplesPerPixel = req.Samples
	cfg.Bounces = req.Bounces
	cfg.Seed = req.Seed
	cfg.Strategy = req.Strategy
	cfg.Camera = &camera
	return cfg
}

func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	str := values.Get(key)
	if str == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", key, str)
	}
	if val < min || val > max {
		return 0, errors.Errorf("%s must be between %d and %d, got %d", key, min, max, val)
	}
	return val, nil
}
