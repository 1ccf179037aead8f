package actor

import (
	"testing"

	"github.com/SeongUk52/tumble/vmath"
)

// =============================================================================
// Torque
// =============================================================================

func TestComputeTorque(t *testing.T) {
	tests := []struct {
		name  string
		r     vmath.Vec2
		force vmath.Vec2
		want  float64
	}{
		{"perpendicular lever", vmath.V(3, 0), vmath.V(0, 5), 15},
		{"opposite sense", vmath.V(0, 2), vmath.V(4, 0), -8},
		{"parallel force", vmath.V(2, 0), vmath.V(7, 0), 0},
		{"zero arm", vmath.V(0, 0), vmath.V(10, 10), 0},
		{"oblique", vmath.V(1, 2), vmath.V(3, 4), 1*4 - 2*3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTorque(tt.r, tt.force); !almostEqual(got, tt.want, epsilon) {
				t.Errorf("ComputeTorque(%v, %v) = %v, want %v", tt.r, tt.force, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Damping tiers
// =============================================================================

func TestUpdateAngularMotion_DampingTiers(t *testing.T) {
	dt := 1.0 / 60

	tests := []struct {
		name  string
		omega float64
		want  float64
	}{
		{"below snap zeroes", 0.04, 0},
		{"negative below snap zeroes", -0.04, 0},
		{"slow band decays hard", 0.3, 0.3 * 0.80},
		{"negative slow band", -0.3, -0.3 * 0.80},
		{"fast band decays gently", 1.5, 1.5 * 0.88},
		{"snap boundary is slow band", 0.05, 0.05 * 0.80},
		{"slow boundary is fast band", 0.5, 0.5 * 0.88},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody(vmath.V(0, 0), 10, 10, Material{Mass: 1}, BodyTypeDynamic)
			rb.AngularVelocity = tt.omega

			testIntegrator().UpdateAngularMotion(rb, dt)

			if !almostEqual(rb.AngularVelocity, tt.want, epsilon) {
				t.Errorf("AngularVelocity = %v, want %v", rb.AngularVelocity, tt.want)
			}
		})
	}
}

func TestUpdateAngularMotion_SpeedClamp(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 10, 10, Material{Mass: 1}, BodyTypeDynamic)

	rb.AngularVelocity = 50
	testIntegrator().UpdateAngularMotion(rb, 1.0/60)
	if rb.AngularVelocity != 3.0 {
		t.Errorf("AngularVelocity = %v, want clamp at 3", rb.AngularVelocity)
	}

	rb.AngularVelocity = -50
	testIntegrator().UpdateAngularMotion(rb, 1.0/60)
	if rb.AngularVelocity != -3.0 {
		t.Errorf("AngularVelocity = %v, want clamp at -3", rb.AngularVelocity)
	}
}

func TestUpdateAngularMotion_TorqueAndAngle(t *testing.T) {
	dt := 0.5
	rb := NewRigidBody(vmath.V(0, 0), 4, 2, Material{Mass: 12}, BodyTypeDynamic)
	rb.ApplyTorque(rb.Inertia * 2) // angular acceleration of 2

	testIntegrator().UpdateAngularMotion(rb, dt)

	if !almostEqual(rb.AngularAcceleration, 2, epsilon) {
		t.Errorf("AngularAcceleration = %v, want 2", rb.AngularAcceleration)
	}
	// w = 2*0.5 = 1, fast band decay, then angle advances by w*dt
	wantOmega := 1.0 * 0.88
	if !almostEqual(rb.AngularVelocity, wantOmega, epsilon) {
		t.Errorf("AngularVelocity = %v, want %v", rb.AngularVelocity, wantOmega)
	}
	if !almostEqual(rb.Angle, wantOmega*dt, epsilon) {
		t.Errorf("Angle = %v, want %v", rb.Angle, wantOmega*dt)
	}
	if rb.accumulatedTorque != 0 {
		t.Errorf("torque accumulator = %v, want consumed", rb.accumulatedTorque)
	}
}

func TestUpdateAngularMotion_StaticUntouched(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 10, 10, Material{}, BodyTypeStatic)
	rb.ApplyTorque(100)

	testIntegrator().UpdateAngularMotion(rb, 1.0/60)

	if rb.Angle != 0 || rb.AngularVelocity != 0 || rb.AngularAcceleration != 0 {
		t.Errorf("static angular state changed: %+v", rb)
	}
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewAngularIntegrator_NormalizesConfig(t *testing.T) {
	ai := NewAngularIntegrator(Damping{})
	def := DefaultDamping()

	if ai.Damping != def {
		t.Errorf("zero config normalized to %+v, want %+v", ai.Damping, def)
	}

	// Invalid decay factors fall back as well
	ai = NewAngularIntegrator(Damping{SlowDecay: 1.5, FastDecay: -1})
	if ai.Damping.SlowDecay != def.SlowDecay || ai.Damping.FastDecay != def.FastDecay {
		t.Errorf("invalid decays normalized to %+v, want defaults", ai.Damping)
	}

	// Explicit values survive
	custom := Damping{
		AngularSnap:     0.1,
		AngularSlow:     1.0,
		SlowDecay:       0.5,
		FastDecay:       0.9,
		MaxAngularSpeed: 6,
		LinearStop:      0.02,
	}
	ai = NewAngularIntegrator(custom)
	if ai.Damping != custom {
		t.Errorf("custom config altered to %+v", ai.Damping)
	}
}

func TestDampingTiersConverge(t *testing.T) {
	// From the clamp down to rest within a bounded number of steps
	rb := NewRigidBody(vmath.V(0, 0), 50, 50, Material{Mass: 20}, BodyTypeDynamic)
	rb.AngularVelocity = 2.0

	ai := testIntegrator()
	steps := 0
	for rb.AngularVelocity != 0 {
		ai.UpdateAngularMotion(rb, 1.0/60)
		steps++
		if steps > 100 {
			t.Fatalf("angular velocity failed to reach rest, still %v after %d steps", rb.AngularVelocity, steps)
		}
	}

	if steps > 40 {
		t.Errorf("took %d steps to rest, expected the decay tiers to finish sooner", steps)
	}
}
