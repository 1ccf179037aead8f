package actor

import (
	"math"

	"github.com/SeongUk52/tumble/vmath"
)

// Damping bundles the velocity-decay thresholds applied every substep.
// The angular tiers are what let the contact solver's micro-impulses
// converge to rest instead of oscillating indefinitely.
type Damping struct {
	// Angular speeds below AngularSnap are zeroed outright
	AngularSnap float64 `yaml:"angular_snap"`
	// Speeds in [AngularSnap, AngularSlow) decay by SlowDecay per substep
	AngularSlow float64 `yaml:"angular_slow"`
	SlowDecay   float64 `yaml:"slow_decay"`
	// Speeds at or above AngularSlow decay by FastDecay per substep
	FastDecay float64 `yaml:"fast_decay"`
	// Hard ceiling on |angular velocity| (rad/s)
	MaxAngularSpeed float64 `yaml:"max_angular_speed"`
	// Linear velocity components below this are zeroed after damping
	LinearStop float64 `yaml:"linear_stop"`
}

// DefaultDamping returns the tuning the engine ships with.
func DefaultDamping() Damping {
	return Damping{
		AngularSnap:     0.05,
		AngularSlow:     0.5,
		SlowDecay:       0.80,
		FastDecay:       0.88,
		MaxAngularSpeed: 3.0,
		LinearStop:      0.01,
	}
}

// ComputeTorque returns the torque produced by a force applied at
// lever arm r: the scalar cross product r x f.
func ComputeTorque(r, force vmath.Vec2) float64 {
	return r.Cross(force)
}

// AngularIntegrator advances angular state with tiered damping.
type AngularIntegrator struct {
	Damping Damping
}

// NewAngularIntegrator builds an integrator with the given damping.
// Zero-valued damping fields are replaced by defaults.
func NewAngularIntegrator(damping Damping) *AngularIntegrator {
	def := DefaultDamping()
	if damping.AngularSnap <= 0 {
		damping.AngularSnap = def.AngularSnap
	}
	if damping.AngularSlow <= 0 {
		damping.AngularSlow = def.AngularSlow
	}
	if damping.SlowDecay <= 0 || damping.SlowDecay > 1 {
		damping.SlowDecay = def.SlowDecay
	}
	if damping.FastDecay <= 0 || damping.FastDecay > 1 {
		damping.FastDecay = def.FastDecay
	}
	if damping.MaxAngularSpeed <= 0 {
		damping.MaxAngularSpeed = def.MaxAngularSpeed
	}
	if damping.LinearStop <= 0 {
		damping.LinearStop = def.LinearStop
	}
	return &AngularIntegrator{Damping: damping}
}

// UpdateAngularMotion integrates torque into angular velocity and angle
// for one substep, applying the tiered damping and the speed clamp in
// between. The torque accumulator is consumed.
func (ai *AngularIntegrator) UpdateAngularMotion(rb *RigidBody, dt float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.AngularAcceleration = rb.accumulatedTorque * rb.InvInertia
	rb.AngularVelocity += rb.AngularAcceleration * dt

	// Tiered damping: snap small speeds to zero, brake mid speeds hard,
	// bleed fast speeds gently so impacts still read as spins
	speed := math.Abs(rb.AngularVelocity)
	d := ai.Damping
	switch {
	case speed < d.AngularSnap:
		rb.AngularVelocity = 0
	case speed < d.AngularSlow:
		rb.AngularVelocity *= d.SlowDecay
	default:
		rb.AngularVelocity *= d.FastDecay
	}

	if rb.AngularVelocity > d.MaxAngularSpeed {
		rb.AngularVelocity = d.MaxAngularSpeed
	} else if rb.AngularVelocity < -d.MaxAngularSpeed {
		rb.AngularVelocity = -d.MaxAngularSpeed
	}

	rb.Angle += rb.AngularVelocity * dt
	rb.accumulatedTorque = 0
}
