package core

import "math"

// AABB represents an axis-aligned bounding box.
// Min is less than or equal to Max on every axis.
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	box := AABB{Min: points[0], Max: points[0]}
	for _, point := range points[1:] {
		box.Min = box.Min.Min(point)
		box.Max = box.Max.Max(point)
	}
	return box
}

// Merge returns the tightest AABB containing both boxes
func (aabb AABB) Merge(other AABB) AABB {
	return AABB{
		Min: aabb.Min.Min(other.Min),
		Max: aabb.Max.Max(other.Max),
	}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// Area returns half the surface area of the box. It is only meaningful as a
// relative construction cost and stays positive for flat boxes.
func (aabb AABB) Area() float64 {
	size := aabb.Size()
	return size.X*size.Y + size.Y*size.Z + size.Z*size.X
}

// Compare orders two boxes by their center along axis.
// It returns -1, 0 or +1.
func (aabb AABB) Compare(other AABB, axis int) int {
	a := aabb.Min.Axis(axis) + aabb.Max.Axis(axis)
	b := other.Min.Axis(axis) + other.Max.Axis(axis)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// DistanceToPoint returns the squared distance from point to the box center.
// It is an ordering heuristic, not the distance to the box surface.
func (aabb AABB) DistanceToPoint(point Vec3) float64 {
	return point.Subtract(aabb.Center()).LengthSquared()
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// Contains reports whether other lies entirely inside this box
func (aabb AABB) Contains(other AABB) bool {
	return aabb.Min.X <= other.Min.X && aabb.Min.Y <= other.Min.Y && aabb.Min.Z <= other.Min.Z &&
		aabb.Max.X >= other.Max.X && aabb.Max.Y >= other.Max.Y && aabb.Max.Z >= other.Max.Z
}

// Intersects tests the ray against the box using the slab method. The exit
// parameter starts at maxDistance, so boxes beyond a known hit are rejected.
// Axes where the direction is within epsilon of zero are treated as parallel.
func (aabb AABB) Intersects(ray Ray, maxDistance, epsilon float64) bool {
	tMin := math.Inf(-1)
	tMax := maxDistance

	for axis := 0; axis < 3; axis++ {
		lo := aabb.Min.Axis(axis)
		hi := aabb.Max.Axis(axis)
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)

		if math.Abs(direction) < epsilon {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}

		t1 := (lo - origin) / direction
		t2 := (hi - origin) / direction
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}

	return tMin <= tMax && tMax >= 0
}
