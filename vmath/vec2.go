// Package vmath provides the 2D vector type used across the engine.
//
// Vec2 carries two APIs: value-receiver methods return new vectors, and
// Set-prefixed pointer-receiver methods mutate the receiver in place and
// return it for chaining. A vector stored in a body belongs to that body;
// sharing one value between two bodies' fields is a caller bug.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D vector in world units.
type Vec2 mgl64.Vec2

// V builds a vector from its components.
func V(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v Vec2) X() float64 { return v[0] }
func (v Vec2) Y() float64 { return v[1] }

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2(mgl64.Vec2(v).Add(mgl64.Vec2(other)))
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2(mgl64.Vec2(v).Sub(mgl64.Vec2(other)))
}

// Mul returns v scaled by s.
func (v Vec2) Mul(s float64) Vec2 {
	return Vec2(mgl64.Vec2(v).Mul(s))
}

// Dot returns the dot product.
func (v Vec2) Dot(other Vec2) float64 {
	return mgl64.Vec2(v).Dot(mgl64.Vec2(other))
}

// Cross returns the scalar z-component of the 2D cross product.
func (v Vec2) Cross(other Vec2) float64 {
	return v[0]*other[1] - v[1]*other[0]
}

// Len returns the vector length.
func (v Vec2) Len() float64 {
	return mgl64.Vec2(v).Len()
}

// LenSqr returns the squared length, cheaper when only comparing.
func (v Vec2) LenSqr() float64 {
	return mgl64.Vec2(v).LenSqr()
}

// Dist returns the distance between two points.
func (v Vec2) Dist(other Vec2) float64 {
	return v.Sub(other).Len()
}

// DistSqr returns the squared distance between two points.
func (v Vec2) DistSqr(other Vec2) float64 {
	return v.Sub(other).LenSqr()
}

// Normalize returns a unit vector in the direction of v.
// A zero vector is returned unchanged.
func (v Vec2) Normalize() Vec2 {
	if v[0] == 0 && v[1] == 0 {
		return v
	}
	return Vec2(mgl64.Vec2(v).Normalize())
}

// Rotate returns v rotated by theta radians.
func (v Vec2) Rotate(theta float64) Vec2 {
	return Vec2(mgl64.Rotate2D(theta).Mul2x1(mgl64.Vec2(v)))
}

// Perp returns v rotated a quarter turn, (-y, x).
func (v Vec2) Perp() Vec2 {
	return Vec2{-v[1], v[0]}
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v[0]) && !math.IsInf(v[0], 0) &&
		!math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}

// SetAdd adds other to v in place.
func (v *Vec2) SetAdd(other Vec2) *Vec2 {
	v[0] += other[0]
	v[1] += other[1]
	return v
}

// SetSub subtracts other from v in place.
func (v *Vec2) SetSub(other Vec2) *Vec2 {
	v[0] -= other[0]
	v[1] -= other[1]
	return v
}

// SetMul scales v by s in place.
func (v *Vec2) SetMul(s float64) *Vec2 {
	v[0] *= s
	v[1] *= s
	return v
}

// SetNormalize normalizes v in place. A zero vector is left untouched.
func (v *Vec2) SetNormalize() *Vec2 {
	*v = v.Normalize()
	return v
}

// SetRotate rotates v by theta radians in place.
func (v *Vec2) SetRotate(theta float64) *Vec2 {
	*v = v.Rotate(theta)
	return v
}
