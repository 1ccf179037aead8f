package actor

import (
	"fmt"
	"math"

	"github.com/SeongUk52/tumble/vmath"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, platforms)
	BodyTypeStatic
)

// Material holds the physical properties shared by the solver
type Material struct {
	Mass        float64
	Friction    float64 // 0 = frictionless, 1 = maximum grip
	Restitution float64 // 0 = no rebound, 1 = perfect restitution
}

// RigidBody represents a rectangular rigid body in the simulation.
//
// Position is the body's local-frame origin: the top-left corner at
// angle 0 in screen coordinates (+y down). Rotation pivots about
// Position; the center of mass sits at LocalToWorld(Width/2, Height/2).
type RigidBody struct {
	// Linear motion (world units, world units/s)
	Position     vmath.Vec2
	Velocity     vmath.Vec2
	Acceleration vmath.Vec2

	// Angular motion (radians, rad/s)
	Angle               float64
	AngularVelocity     float64
	AngularAcceleration float64

	// Geometry
	Width  float64
	Height float64

	// Physical properties
	Material Material
	BodyType BodyType

	// Derived mass data, fixed at construction
	InvMass    float64
	Inertia    float64
	InvInertia float64

	// Resting is the settle signal maintained by the world's stability
	// phase. It never gates simulation.
	Resting bool

	accumulatedForce  vmath.Vec2
	accumulatedTorque float64
}

// NewRigidBody creates a rigid body with the given geometry and material.
// Static bodies get infinite mass and inertia regardless of material.Mass.
func NewRigidBody(position vmath.Vec2, width, height float64, material Material, bodyType BodyType) *RigidBody {
	rb := &RigidBody{
		Position: position,
		Width:    width,
		Height:   height,
		Material: material,
		BodyType: bodyType,
	}

	if bodyType == BodyTypeStatic {
		rb.Material.Mass = math.Inf(1)
		rb.InvMass = 0
		rb.Inertia = math.Inf(1)
		rb.InvInertia = 0
		return rb
	}

	rb.InvMass = 1.0 / material.Mass
	rb.Inertia = computeInertia(material.Mass, width, height)
	rb.InvInertia = 1.0 / rb.Inertia

	return rb
}

// computeInertia uses the rectangle formula I = (m/12) * (w² + h²).
// Degenerate geometry falls back to a nominal mass-proportional value.
func computeInertia(mass, width, height float64) float64 {
	if width == 0 || height == 0 {
		return mass * 0.1
	}
	return mass / 12.0 * (width*width + height*height)
}

// IsStatic reports whether the body is immovable
func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}

// ApplyForce accumulates a force for the next integration
func (rb *RigidBody) ApplyForce(force vmath.Vec2) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.accumulatedForce.SetAdd(force)
}

// ApplyTorque accumulates a torque for the next integration
func (rb *RigidBody) ApplyTorque(torque float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.accumulatedTorque += torque
}

// ApplyForceAtPoint applies a force acting at a world-space point,
// accumulating both the force and its torque about Position
func (rb *RigidBody) ApplyForceAtPoint(force, worldPoint vmath.Vec2) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.accumulatedForce.SetAdd(force)
	rb.accumulatedTorque += ComputeTorque(worldPoint.Sub(rb.Position), force)
}

// ApplyImpulse changes the velocity immediately, scaled by inverse mass
func (rb *RigidBody) ApplyImpulse(impulse vmath.Vec2) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.Velocity.SetAdd(impulse.Mul(rb.InvMass))
}

// ApplyAngularImpulse changes the angular velocity immediately,
// scaled by inverse inertia
func (rb *RigidBody) ApplyAngularImpulse(impulse float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.AngularVelocity += impulse * rb.InvInertia
}

// Integrate advances the body one substep with semi-implicit Euler:
// the velocity update uses the fresh acceleration, the position update
// uses the fresh velocity. Angular motion is delegated to the
// integrator, then forces are cleared and linear damping applied.
func (rb *RigidBody) Integrate(dt float64, angular *AngularIntegrator) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.Acceleration = rb.accumulatedForce.Mul(rb.InvMass)
	rb.Velocity.SetAdd(rb.Acceleration.Mul(dt))
	rb.Position.SetAdd(rb.Velocity.Mul(dt))

	angular.UpdateAngularMotion(rb, dt)

	rb.accumulatedForce = vmath.Vec2{}

	rb.dampLinear(dt, angular.Damping.LinearStop)
}

// dampLinear applies the friction-proportional velocity decay:
// v -= v * friction * mass * dt, with the factor capped at 1 so heavy
// high-friction bodies stop instead of reversing. Components below the
// stop threshold are zeroed to suppress jitter.
func (rb *RigidBody) dampLinear(dt, stopThreshold float64) {
	factor := rb.Material.Friction * rb.Material.Mass * dt
	if factor > 1 {
		factor = 1
	}
	rb.Velocity.SetSub(rb.Velocity.Mul(factor))

	if math.Abs(rb.Velocity[0]) < stopThreshold {
		rb.Velocity[0] = 0
	}
	if math.Abs(rb.Velocity[1]) < stopThreshold {
		rb.Velocity[1] = 0
	}
}

// ClearForces resets the force and torque accumulators
func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = vmath.Vec2{}
	rb.accumulatedTorque = 0
}

// AABB computes the world-space bounding box from the four rotated
// corners. A tilted rectangle yields a looser box than its true
// footprint; downstream tolerances assume this.
func (rb *RigidBody) AABB() AABB {
	corners := [4]vmath.Vec2{
		{0, 0},
		{rb.Width, 0},
		{rb.Width, rb.Height},
		{0, rb.Height},
	}

	world := rb.LocalToWorld(corners[0])
	min := world
	max := world

	for i := 1; i < 4; i++ {
		world = rb.LocalToWorld(corners[i])
		min[0] = math.Min(min[0], world[0])
		min[1] = math.Min(min[1], world[1])
		max[0] = math.Max(max[0], world[0])
		max[1] = math.Max(max[1], world[1])
	}

	return AABB{Min: min, Max: max}
}

// LocalToWorld maps a point in the body's local frame to world space
func (rb *RigidBody) LocalToWorld(point vmath.Vec2) vmath.Vec2 {
	return rb.Position.Add(point.Rotate(rb.Angle))
}

// WorldToLocal maps a world-space point into the body's local frame
func (rb *RigidBody) WorldToLocal(point vmath.Vec2) vmath.Vec2 {
	return point.Sub(rb.Position).Rotate(-rb.Angle)
}

// CenterOfMass returns the world-space center of the rectangle
func (rb *RigidBody) CenterOfMass() vmath.Vec2 {
	return rb.LocalToWorld(vmath.V(rb.Width/2, rb.Height/2))
}

// Clone returns a deep copy with a new identity. Accumulators are
// copied as-is; the clone is not registered anywhere.
func (rb *RigidBody) Clone() *RigidBody {
	clone := *rb
	return &clone
}

// Validate reports why the body cannot enter a simulation, or nil.
func (rb *RigidBody) Validate() error {
	if !rb.Position.Finite() || !rb.Velocity.Finite() {
		return fmt.Errorf("non-finite position or velocity")
	}
	if math.IsNaN(rb.Angle) || math.IsInf(rb.Angle, 0) ||
		math.IsNaN(rb.AngularVelocity) || math.IsInf(rb.AngularVelocity, 0) {
		return fmt.Errorf("non-finite angle or angular velocity")
	}
	if rb.Width < 0 || rb.Height < 0 ||
		math.IsNaN(rb.Width) || math.IsInf(rb.Width, 0) ||
		math.IsNaN(rb.Height) || math.IsInf(rb.Height, 0) {
		return fmt.Errorf("invalid dimensions %vx%v", rb.Width, rb.Height)
	}
	if rb.Material.Friction < 0 || rb.Material.Friction > 1 || math.IsNaN(rb.Material.Friction) {
		return fmt.Errorf("friction %v outside [0, 1]", rb.Material.Friction)
	}
	if rb.Material.Restitution < 0 || math.IsNaN(rb.Material.Restitution) {
		return fmt.Errorf("negative restitution %v", rb.Material.Restitution)
	}
	if rb.BodyType == BodyTypeDynamic {
		if rb.Material.Mass <= 0 || math.IsNaN(rb.Material.Mass) || math.IsInf(rb.Material.Mass, 0) {
			return fmt.Errorf("dynamic body mass %v must be positive and finite", rb.Material.Mass)
		}
	}
	return nil
}
