package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
)

// PinholeCamera generates jittered primary rays through a look-at view.
// A positive aperture turns it into a thin-lens camera with depth of field.
type PinholeCamera struct {
	origin        core.Vec3
	right         core.Vec3
	up            core.Vec3
	forward       core.Vec3
	halfWidth     float64 // tan(fov/2): image plane half extent at distance 1
	halfHeight    float64
	width         int
	height        int
	lensRadius    float64
	focusDistance float64
}

func toMgl(v config.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// NewPinholeCamera builds a camera for an image of width x height pixels
func NewPinholeCamera(cfg config.Camera, width, height int) *PinholeCamera {
	// LookAtV maps world to camera space; its inverse takes the camera axes back
	view := mgl64.LookAtV(toMgl(cfg.Position), toMgl(cfg.LookAt), toMgl(cfg.Up))
	toWorld := view.Inv()

	halfWidth := math.Tan(mgl64.DegToRad(cfg.FOV) / 2)
	focusDistance := cfg.FocusDistance
	if focusDistance <= 0 {
		focusDistance = cfg.LookAt.Vec3().Subtract(cfg.Position.Vec3()).Length()
	}

	return &PinholeCamera{
		origin:        cfg.Position.Vec3(),
		right:         fromMgl(toWorld.Mul4x1(mgl64.Vec4{1, 0, 0, 0}).Vec3()).Normalize(),
		up:            fromMgl(toWorld.Mul4x1(mgl64.Vec4{0, 1, 0, 0}).Vec3()).Normalize(),
		forward:       fromMgl(toWorld.Mul4x1(mgl64.Vec4{0, 0, -1, 0}).Vec3()).Normalize(),
		halfWidth:     halfWidth,
		halfHeight:    halfWidth * float64(height) / float64(width),
		width:         width,
		height:        height,
		lensRadius:    cfg.Aperture / 2,
		focusDistance: focusDistance,
	}
}

// Ray returns a ray through a uniformly jittered point inside pixel (x, y).
// Pixel (0, 0) is the top left corner of the image.
func (c *PinholeCamera) Ray(x, y int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	u := (2*(float64(x)+jitter.X)/float64(c.width) - 1) * c.halfWidth
	v := (1 - 2*(float64(y)+jitter.Y)/float64(c.height)) * c.halfHeight

	direction := c.forward.Add(c.right.Multiply(u)).Add(c.up.Multiply(v))
	if c.lensRadius <= 0 {
		return core.NewRay(c.origin, direction)
	}

	// Every lens sample converges on the same point of the focal plane
	focus := c.origin.Add(direction.Multiply(c.focusDistance))
	disk := core.SamplePointInUnitDisk(sampler.Get2D()).Multiply(c.lensRadius)
	origin := c.origin.Add(c.right.Multiply(disk.X)).Add(c.up.Multiply(disk.Y))
	return core.NewRay(origin, focus.Subtract(origin))
}

// Forward returns the unit view direction
func (c *PinholeCamera) Forward() core.Vec3 {
	return c.forward
}
