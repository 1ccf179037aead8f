package actor

import (
	"math"
	"testing"

	"github.com/SeongUk52/tumble/vmath"
)

const epsilon = 1e-9

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func vecAlmostEqual(a, b vmath.Vec2, eps float64) bool {
	return almostEqual(a.X(), b.X(), eps) && almostEqual(a.Y(), b.Y(), eps)
}

func testIntegrator() *AngularIntegrator {
	return NewAngularIntegrator(DefaultDamping())
}

// =============================================================================
// Construction and mass data
// =============================================================================

func TestNewRigidBody_MassData(t *testing.T) {
	tests := []struct {
		name           string
		width, height  float64
		material       Material
		bodyType       BodyType
		wantInvMass    float64
		wantInertia    float64
		wantInvInertia float64
	}{
		{
			name:  "dynamic rectangle",
			width: 4, height: 2,
			material:       Material{Mass: 12},
			bodyType:       BodyTypeDynamic,
			wantInvMass:    1.0 / 12,
			wantInertia:    12.0 / 12 * (16 + 4),
			wantInvInertia: 1.0 / 20,
		},
		{
			name:  "square",
			width: 50, height: 50,
			material:       Material{Mass: 20},
			bodyType:       BodyTypeDynamic,
			wantInvMass:    0.05,
			wantInertia:    20.0 / 12 * 5000,
			wantInvInertia: 12.0 / (20 * 5000),
		},
		{
			name:  "zero width falls back to nominal inertia",
			width: 0, height: 10,
			material:       Material{Mass: 5},
			bodyType:       BodyTypeDynamic,
			wantInvMass:    0.2,
			wantInertia:    0.5,
			wantInvInertia: 2.0,
		},
		{
			name:  "zero height falls back to nominal inertia",
			width: 10, height: 0,
			material:       Material{Mass: 5},
			bodyType:       BodyTypeDynamic,
			wantInvMass:    0.2,
			wantInertia:    0.5,
			wantInvInertia: 2.0,
		},
		{
			name:  "static has no inverse mass data",
			width: 400, height: 30,
			material:       Material{Mass: 1000},
			bodyType:       BodyTypeStatic,
			wantInvMass:    0,
			wantInertia:    math.Inf(1),
			wantInvInertia: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody(vmath.V(0, 0), tt.width, tt.height, tt.material, tt.bodyType)

			if !almostEqual(rb.InvMass, tt.wantInvMass, epsilon) {
				t.Errorf("InvMass = %v, want %v", rb.InvMass, tt.wantInvMass)
			}
			if math.IsInf(tt.wantInertia, 1) {
				if !math.IsInf(rb.Inertia, 1) {
					t.Errorf("Inertia = %v, want +Inf", rb.Inertia)
				}
			} else if !almostEqual(rb.Inertia, tt.wantInertia, 1e-6) {
				t.Errorf("Inertia = %v, want %v", rb.Inertia, tt.wantInertia)
			}
			if !almostEqual(rb.InvInertia, tt.wantInvInertia, 1e-9) {
				t.Errorf("InvInertia = %v, want %v", rb.InvInertia, tt.wantInvInertia)
			}
		})
	}

	// Static bodies report infinite mass regardless of the material
	static := NewRigidBody(vmath.V(0, 0), 1, 1, Material{Mass: 7}, BodyTypeStatic)
	if !math.IsInf(static.Material.Mass, 1) {
		t.Errorf("static Material.Mass = %v, want +Inf", static.Material.Mass)
	}
}

// =============================================================================
// Force and impulse application
// =============================================================================

func TestApplyForce_Accumulates(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 2, 2, Material{Mass: 4}, BodyTypeDynamic)
	rb.ApplyForce(vmath.V(1, 2))
	rb.ApplyForce(vmath.V(3, -1))

	if want := vmath.V(4, 1); !vecAlmostEqual(rb.accumulatedForce, want, epsilon) {
		t.Errorf("accumulatedForce = %v, want %v", rb.accumulatedForce, want)
	}

	rb.ClearForces()
	if rb.accumulatedForce != (vmath.Vec2{}) || rb.accumulatedTorque != 0 {
		t.Error("ClearForces() left residual accumulators")
	}
}

func TestApplyForceAtPoint_Torque(t *testing.T) {
	rb := NewRigidBody(vmath.V(10, 10), 4, 4, Material{Mass: 1}, BodyTypeDynamic)

	// Force along +y at a point offset along +x produces positive torque
	rb.ApplyForceAtPoint(vmath.V(0, 5), vmath.V(13, 10))

	if want := vmath.V(0, 5); !vecAlmostEqual(rb.accumulatedForce, want, epsilon) {
		t.Errorf("accumulatedForce = %v, want %v", rb.accumulatedForce, want)
	}
	// torque = r x f = (3, 0) x (0, 5) = 15
	if !almostEqual(rb.accumulatedTorque, 15, epsilon) {
		t.Errorf("accumulatedTorque = %v, want 15", rb.accumulatedTorque)
	}
}

func TestApplyImpulse(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 2, 2, Material{Mass: 4}, BodyTypeDynamic)
	rb.ApplyImpulse(vmath.V(8, -4))

	if want := vmath.V(2, -1); !vecAlmostEqual(rb.Velocity, want, epsilon) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, want)
	}

	rb.AngularVelocity = 0
	rb.ApplyAngularImpulse(rb.Inertia * 0.5)
	if !almostEqual(rb.AngularVelocity, 0.5, epsilon) {
		t.Errorf("AngularVelocity = %v, want 0.5", rb.AngularVelocity)
	}
}

func TestStaticBody_IgnoresAllInputs(t *testing.T) {
	rb := NewRigidBody(vmath.V(5, 5), 10, 2, Material{}, BodyTypeStatic)

	rb.ApplyForce(vmath.V(100, 100))
	rb.ApplyTorque(50)
	rb.ApplyForceAtPoint(vmath.V(1, 1), vmath.V(0, 0))
	rb.ApplyImpulse(vmath.V(100, 100))
	rb.ApplyAngularImpulse(100)
	rb.Integrate(1.0, testIntegrator())

	if rb.Position != vmath.V(5, 5) {
		t.Errorf("static Position moved to %v", rb.Position)
	}
	if rb.Velocity != (vmath.Vec2{}) {
		t.Errorf("static Velocity = %v, want zero", rb.Velocity)
	}
	if rb.Angle != 0 || rb.AngularVelocity != 0 {
		t.Errorf("static angular state changed: angle=%v w=%v", rb.Angle, rb.AngularVelocity)
	}
}

// =============================================================================
// Integration
// =============================================================================

func TestIntegrate_MatchesClosedFormEuler(t *testing.T) {
	// Zero friction: one integration must match
	// v = v0 + a*dt, x = x0 + v*dt exactly
	rb := NewRigidBody(vmath.V(10, 20), 2, 2, Material{Mass: 2, Friction: 0}, BodyTypeDynamic)
	rb.Velocity = vmath.V(1, 0)
	rb.ApplyForce(vmath.V(4, -6))

	rb.Integrate(0.5, testIntegrator())

	if want := vmath.V(2, -3); !vecAlmostEqual(rb.Acceleration, want, epsilon) {
		t.Errorf("Acceleration = %v, want %v", rb.Acceleration, want)
	}
	if want := vmath.V(2, -1.5); !vecAlmostEqual(rb.Velocity, want, epsilon) {
		t.Errorf("Velocity = %v, want %v", rb.Velocity, want)
	}
	if want := vmath.V(11, 19.25); !vecAlmostEqual(rb.Position, want, epsilon) {
		t.Errorf("Position = %v, want %v", rb.Position, want)
	}
}

func TestIntegrate_ClearsForce(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 2, 2, Material{Mass: 1}, BodyTypeDynamic)
	rb.ApplyForce(vmath.V(10, 0))
	rb.Integrate(0.1, testIntegrator())

	if rb.accumulatedForce != (vmath.Vec2{}) {
		t.Errorf("force accumulator = %v, want zero after integration", rb.accumulatedForce)
	}

	// A second integration without new force must not accelerate
	v := rb.Velocity
	rb.Integrate(0.1, testIntegrator())
	if rb.Acceleration != (vmath.Vec2{}) {
		t.Errorf("Acceleration = %v, want zero", rb.Acceleration)
	}
	if !vecAlmostEqual(rb.Velocity, v, epsilon) {
		t.Errorf("Velocity drifted from %v to %v with no force", v, rb.Velocity)
	}
}

func TestIntegrate_LinearDamping(t *testing.T) {
	dt := 1.0 / 60

	rb := NewRigidBody(vmath.V(0, 0), 50, 50, Material{Mass: 20, Friction: 0.8}, BodyTypeDynamic)
	rb.Velocity = vmath.V(30, 0)
	rb.Integrate(dt, testIntegrator())

	// v -= v * friction * mass * dt, position updated before damping
	factor := 0.8 * 20 * dt
	want := 30 * (1 - factor)
	if !almostEqual(rb.Velocity.X(), want, 1e-9) {
		t.Errorf("Velocity.X = %v, want %v", rb.Velocity.X(), want)
	}
	if !almostEqual(rb.Position.X(), 30*dt, 1e-9) {
		t.Errorf("Position.X = %v, want %v (pre-damping velocity)", rb.Position.X(), 30*dt)
	}
}

func TestIntegrate_DampingFactorCapped(t *testing.T) {
	// friction * mass * dt > 1 must stop the body, never reverse it
	rb := NewRigidBody(vmath.V(0, 0), 10, 10, Material{Mass: 500, Friction: 1}, BodyTypeDynamic)
	rb.Velocity = vmath.V(40, -25)
	rb.Integrate(1.0/60, testIntegrator())

	if rb.Velocity != (vmath.Vec2{}) {
		t.Errorf("Velocity = %v, want zero when damping factor saturates", rb.Velocity)
	}
}

func TestIntegrate_HardZeroThreshold(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 2, 2, Material{Mass: 1, Friction: 0}, BodyTypeDynamic)
	rb.Velocity = vmath.V(0.009, -0.009)
	rb.Integrate(1.0/60, testIntegrator())

	if rb.Velocity != (vmath.Vec2{}) {
		t.Errorf("Velocity = %v, want both components zeroed below threshold", rb.Velocity)
	}

	// Components are zeroed independently
	rb.Velocity = vmath.V(5, 0.009)
	rb.Integrate(1.0/60, testIntegrator())
	if rb.Velocity.X() == 0 {
		t.Error("fast component must survive the threshold")
	}
	if rb.Velocity.Y() != 0 {
		t.Errorf("Velocity.Y = %v, want 0", rb.Velocity.Y())
	}
}

// =============================================================================
// Geometry
// =============================================================================

func TestAABB_AxisAligned(t *testing.T) {
	rb := NewRigidBody(vmath.V(400, 545), 50, 50, Material{Mass: 20}, BodyTypeDynamic)
	aabb := rb.AABB()

	if want := vmath.V(400, 545); !vecAlmostEqual(aabb.Min, want, epsilon) {
		t.Errorf("AABB.Min = %v, want %v", aabb.Min, want)
	}
	if want := vmath.V(450, 595); !vecAlmostEqual(aabb.Max, want, epsilon) {
		t.Errorf("AABB.Max = %v, want %v", aabb.Max, want)
	}
}

func TestAABB_TiltedIsLooser(t *testing.T) {
	rb := NewRigidBody(vmath.V(0, 0), 10, 10, Material{Mass: 1}, BodyTypeDynamic)
	rb.Angle = math.Pi / 4

	aabb := rb.AABB()
	diag := 10 * math.Sqrt2

	if !almostEqual(aabb.Width(), diag, 1e-9) {
		t.Errorf("tilted AABB width = %v, want %v", aabb.Width(), diag)
	}
	if !almostEqual(aabb.Height(), diag, 1e-9) {
		t.Errorf("tilted AABB height = %v, want %v", aabb.Height(), diag)
	}
}

func TestLocalWorldRoundTrip(t *testing.T) {
	rb := NewRigidBody(vmath.V(100, 200), 30, 40, Material{Mass: 5}, BodyTypeDynamic)
	rb.Angle = 0.7

	points := []vmath.Vec2{
		{0, 0},
		{30, 40},
		{15, 20},
		{-5, 7},
	}

	for _, p := range points {
		back := rb.WorldToLocal(rb.LocalToWorld(p))
		if !vecAlmostEqual(back, p, 1e-9) {
			t.Errorf("round trip of %v = %v", p, back)
		}
	}
}

func TestCenterOfMass(t *testing.T) {
	rb := NewRigidBody(vmath.V(400, 545), 50, 50, Material{Mass: 20}, BodyTypeDynamic)

	if want := vmath.V(425, 570); !vecAlmostEqual(rb.CenterOfMass(), want, epsilon) {
		t.Errorf("CenterOfMass() = %v, want %v", rb.CenterOfMass(), want)
	}

	// Rotation about Position swings the center of mass
	rb.Angle = math.Pi / 2
	if want := vmath.V(375, 570); !vecAlmostEqual(rb.CenterOfMass(), want, 1e-9) {
		t.Errorf("rotated CenterOfMass() = %v, want %v", rb.CenterOfMass(), want)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestClone_NewIdentity(t *testing.T) {
	rb := NewRigidBody(vmath.V(1, 2), 3, 4, Material{Mass: 5, Friction: 0.5}, BodyTypeDynamic)
	rb.Velocity = vmath.V(6, 7)
	rb.Angle = 0.3

	clone := rb.Clone()
	if clone == rb {
		t.Fatal("Clone() must return a new pointer")
	}
	if *clone != *rb {
		t.Errorf("clone state = %+v, want %+v", clone, rb)
	}

	// Mutating the clone leaves the original untouched
	clone.Position = vmath.V(99, 99)
	if rb.Position != vmath.V(1, 2) {
		t.Error("mutating the clone changed the original")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *RigidBody {
		return NewRigidBody(vmath.V(0, 0), 10, 10, Material{Mass: 1, Friction: 0.5}, BodyTypeDynamic)
	}

	tests := []struct {
		name    string
		mutate  func(*RigidBody)
		wantErr bool
	}{
		{"valid body", func(rb *RigidBody) {}, false},
		{"nan position", func(rb *RigidBody) { rb.Position[0] = math.NaN() }, true},
		{"inf velocity", func(rb *RigidBody) { rb.Velocity[1] = math.Inf(1) }, true},
		{"nan angle", func(rb *RigidBody) { rb.Angle = math.NaN() }, true},
		{"negative width", func(rb *RigidBody) { rb.Width = -1 }, true},
		{"friction above one", func(rb *RigidBody) { rb.Material.Friction = 1.5 }, true},
		{"negative friction", func(rb *RigidBody) { rb.Material.Friction = -0.1 }, true},
		{"negative restitution", func(rb *RigidBody) { rb.Material.Restitution = -1 }, true},
		{"zero dynamic mass", func(rb *RigidBody) { rb.Material.Mass = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := valid()
			tt.mutate(rb)
			err := rb.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// Static bodies skip the mass check
	static := NewRigidBody(vmath.V(0, 0), 10, 10, Material{}, BodyTypeStatic)
	if err := static.Validate(); err != nil {
		t.Errorf("static Validate() = %v, want nil", err)
	}
}
