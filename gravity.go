package tumble

import (
	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/vmath"
)

// Default gravity in screen-space units. +y points down.
const DefaultGravityMagnitude = 980.0

// GravityField computes a gravity vector and applies it to bodies as a
// mass-proportional force. Magnitude is freely mutable; the direction is
// kept normalized behind SetDirection.
type GravityField struct {
	Magnitude float64

	direction vmath.Vec2
}

// NewGravityField builds a field. A zero direction falls back to straight
// down; anything else is normalized.
func NewGravityField(magnitude float64, direction vmath.Vec2) *GravityField {
	g := &GravityField{Magnitude: magnitude, direction: vmath.V(0, 1)}
	g.SetDirection(direction)
	return g
}

// Direction returns the current unit direction.
func (g *GravityField) Direction() vmath.Vec2 {
	return g.direction
}

// SetDirection replaces the direction, normalizing the input. A zero vector
// leaves the direction unchanged.
func (g *GravityField) SetDirection(direction vmath.Vec2) {
	if direction.LenSqr() == 0 {
		return
	}
	g.direction = direction.Normalize()
}

// Vector returns the acceleration vector, direction times magnitude.
func (g *GravityField) Vector() vmath.Vec2 {
	return g.direction.Mul(g.Magnitude)
}

// Apply accumulates the gravity force on a body. Static bodies are left
// untouched.
func (g *GravityField) Apply(body *actor.RigidBody) {
	if body.IsStatic() {
		return
	}
	body.ApplyForce(g.Vector().Mul(body.Material.Mass))
}

// StepSpeed is the speed gravity adds over dt, which the contact solver
// uses to tell resting contacts from impacts.
func (g *GravityField) StepSpeed(dt float64) float64 {
	return g.Magnitude * dt
}
