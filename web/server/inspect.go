package server

import (
	"math"
	"net/http"

	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/geometry"
	"github.com/df07/go-bvh-tracer/pkg/material"
	"github.com/df07/go-bvh-tracer/pkg/renderer"
	"github.com/df07/go-bvh-tracer/pkg/scene"
)

// InspectResponse describes what the ray through a pixel hits
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Primitive    int                    `json:"primitive"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// centerSampler always samples the middle of the pixel and the lens
type centerSampler struct{}

func (centerSampler) Get1D() float64  { return 0.5 }
func (centerSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }

func materialInfo(m *material.Material) (string, map[string]interface{}) {
	properties := map[string]interface{}{
		"albedo": [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z},
		"color":  config.NewColor(m.Albedo).Hex(),
	}
	if m.IsEmissive() {
		properties["intensity"] = m.Intensity
	}
	if m.Kind == material.Reflective {
		properties["glossiness"] = m.Glossiness
	}
	return m.Kind.String(), properties
}

func geometryInfo(p *geometry.Primitive, properties map[string]interface{}) string {
	switch p.Kind {
	case geometry.KindSphere:
		properties["center"] = [3]float64{p.Sphere.Center.X, p.Sphere.Center.Y, p.Sphere.Center.Z}
		properties["radius"] = p.Sphere.Radius
	case geometry.KindTriangle:
		properties["vertices"] = [][3]float64{
			{p.Triangle.A.X, p.Triangle.A.Y, p.Triangle.A.Z},
			{p.Triangle.B.X, p.Triangle.B.Y, p.Triangle.B.Z},
			{p.Triangle.C.X, p.Triangle.C.Y, p.Triangle.C.Z},
		}
	}
	return p.Kind.String()
}

// inspectPixel casts the ray through the center of a pixel and reports the
// nearest hit
func inspectPixel(sc *scene.Scene, cfg config.Config, x, y int) InspectResponse {
	tree := sc.BuildBVH(cfg.Strategy, cfg.Epsilon, nil)
	camera := renderer.NewPinholeCamera(*cfg.Camera, cfg.Width, cfg.Height)
	ray := camera.Ray(x, y, centerSampler{})

	hit, ok := tree.Collide(ray, math.Inf(1))
	if !ok {
		return InspectResponse{Hit: false, Primitive: -1}
	}

	point := ray.At(hit.Distance)
	materialType, properties := materialInfo(hit.Material)
	resp := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		Primitive:    hit.Primitive,
		Point:        [3]float64{point.X, point.Y, point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.Distance,
		Properties:   properties,
	}
	if hit.Primitive >= 0 && hit.Primitive < len(tree.Primitives()) {
		resp.GeometryType = geometryInfo(&tree.Primitives()[hit.Primitive], properties)
	}
	return resp
}

// handleInspect reports the object under pixel (x, y) of a render request
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	query := r.URL.Query()
	x, err := parseIntParam(query, "x", 0, 0, req.Width-1)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	y, err := parseIntParam(query, "y", 0, 0, req.Height-1)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	sc, err := scene.NewBuiltin(req.Scene)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inspectPixel(sc, req.Config(sc.Camera), x, y))
}
