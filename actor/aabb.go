package actor

import (
	"math"

	"github.com/SeongUk52/tumble/vmath"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min vmath.Vec2
	Max vmath.Vec2
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point vmath.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Overlaps checks if two AABBs overlap
// Touching edges count as overlapping
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Center returns the midpoint of the box
func (a AABB) Center() vmath.Vec2 {
	return vmath.V((a.Min.X()+a.Max.X())/2, (a.Min.Y()+a.Max.Y())/2)
}

// Width returns the horizontal extent
func (a AABB) Width() float64 {
	return a.Max.X() - a.Min.X()
}

// Height returns the vertical extent
func (a AABB) Height() float64 {
	return a.Max.Y() - a.Min.Y()
}

// Inflate returns the box grown by r on every side
func (a AABB) Inflate(r float64) AABB {
	return AABB{
		Min: a.Min.Sub(vmath.V(r, r)),
		Max: a.Max.Add(vmath.V(r, r)),
	}
}

// Intersection returns the overlapping region of two boxes.
// The second return value is false when the overlap is not strictly
// positive on both axes, so exact edge touching yields no region.
func (a AABB) Intersection(other AABB) (AABB, bool) {
	minX := math.Max(a.Min.X(), other.Min.X())
	maxX := math.Min(a.Max.X(), other.Max.X())
	minY := math.Max(a.Min.Y(), other.Min.Y())
	maxY := math.Min(a.Max.Y(), other.Max.Y())

	if maxX-minX <= 0 || maxY-minY <= 0 {
		return AABB{}, false
	}
	return AABB{Min: vmath.V(minX, minY), Max: vmath.V(maxX, maxY)}, true
}
