package constraint

import (
	"math"

	"github.com/SeongUk52/tumble/actor"
)

// Tuning collects the empirically chosen solver constants. They are
// configuration, not physics: the defaults converge the stacking scenarios
// this engine targets, and taller stacks may want more iterations rather
// than different constants.
type Tuning struct {
	// Slop is the penetration depth left uncorrected so contacts stay in
	// touch between substeps.
	Slop float64 `yaml:"slop"`
	// CorrectionRatio is the fraction of the remaining penetration removed
	// per pass.
	CorrectionRatio float64 `yaml:"correction_ratio"`
	// StaticMargin amplifies positional correction against static bodies as
	// a tunneling guard.
	StaticMargin float64 `yaml:"static_margin"`
	// InnerIterations is the per-pair pass count, doubled when a static
	// body is involved.
	InnerIterations int `yaml:"inner_iterations"`
	// RestingBoost amplifies the minimum resting impulse that cancels the
	// velocity gravity reintroduces each substep.
	RestingBoost float64 `yaml:"resting_boost"`
	// RestingPenetration is the depth beyond which the resting impulse
	// floor engages.
	RestingPenetration float64 `yaml:"resting_penetration"`
	// FrictionBoost amplifies the Coulomb friction bound.
	FrictionBoost float64 `yaml:"friction_boost"`
	// StaticFrictionMultiplier widens the friction bound below
	// StaticFrictionSpeed.
	StaticFrictionMultiplier float64 `yaml:"static_friction_multiplier"`
	// StaticFrictionSpeed is the tangential speed under which contacts are
	// treated as sticking.
	StaticFrictionSpeed float64 `yaml:"static_friction_speed"`
	// SnapTolerance is the angular distance from an axis-aligned rest
	// within which orientation snapping engages.
	SnapTolerance float64 `yaml:"snap_tolerance"`
	// SnapMaxSpin is the angular speed above which snapping never engages.
	SnapMaxSpin float64 `yaml:"snap_max_spin"`
}

// DefaultTuning returns the solver constants the engine ships with.
func DefaultTuning() Tuning {
	return Tuning{
		Slop:                     0.05,
		CorrectionRatio:          0.4,
		StaticMargin:             1.2,
		InnerIterations:          4,
		RestingBoost:             1.0,
		RestingPenetration:       0.15,
		FrictionBoost:            1.2,
		StaticFrictionMultiplier: 2.0,
		StaticFrictionSpeed:      1.0,
		SnapTolerance:            0.08,
		SnapMaxSpin:              0.5,
	}
}

// Solver resolves a contact pair by sequential impulses: positional
// correction, then a normal impulse, then Coulomb friction at the contact
// point, repeated over a small number of Gauss-Seidel passes with the
// manifold recomputed each pass.
type Solver struct {
	Tuning Tuning
}

// NewSolver builds a solver, replacing zero or invalid tuning fields with
// their defaults so a zero Tuning value is usable.
func NewSolver(t Tuning) *Solver {
	def := DefaultTuning()

	if t.Slop <= 0 {
		t.Slop = def.Slop
	}
	if t.CorrectionRatio <= 0 || t.CorrectionRatio > 1 {
		t.CorrectionRatio = def.CorrectionRatio
	}
	if t.StaticMargin <= 0 {
		t.StaticMargin = def.StaticMargin
	}
	if t.InnerIterations <= 0 {
		t.InnerIterations = def.InnerIterations
	}
	if t.RestingBoost <= 0 {
		t.RestingBoost = def.RestingBoost
	}
	if t.RestingPenetration <= 0 {
		t.RestingPenetration = def.RestingPenetration
	}
	if t.FrictionBoost <= 0 {
		t.FrictionBoost = def.FrictionBoost
	}
	if t.StaticFrictionMultiplier <= 0 {
		t.StaticFrictionMultiplier = def.StaticFrictionMultiplier
	}
	if t.StaticFrictionSpeed <= 0 {
		t.StaticFrictionSpeed = def.StaticFrictionSpeed
	}
	if t.SnapTolerance <= 0 {
		t.SnapTolerance = def.SnapTolerance
	}
	if t.SnapMaxSpin <= 0 {
		t.SnapMaxSpin = def.SnapMaxSpin
	}

	return &Solver{Tuning: t}
}

// ComputeRestitution combines two materials' restitution as their average.
func ComputeRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

// ComputeFriction combines two materials' friction as the geometric mean.
func ComputeFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.Friction * matB.Friction)
}

// ResolvePair runs the full resolution for one body pair and reports
// whether the bodies were in contact at any point. gravityStep is the speed
// gravity adds over the current substep (|g|·dt); outerIterations is the
// stepper's outer pass count, needed to size the resting impulse floor.
//
// Any non-finite value in either body's state aborts the pair without
// mutating it.
func (s *Solver) ResolvePair(a, b *actor.RigidBody, gravityStep float64, outerIterations int) bool {
	if a.IsStatic() && b.IsStatic() {
		return false
	}
	if !stateFinite(a) || !stateFinite(b) {
		return false
	}
	if outerIterations < 1 {
		outerIterations = 1
	}

	hasStatic := a.IsStatic() || b.IsStatic()
	inner := s.Tuning.InnerIterations
	if hasStatic {
		inner *= 2
	}

	collided := false
	for i := 0; i < inner; i++ {
		m := ComputeManifold(a, b)
		if !m.Collided {
			break
		}
		if !m.Normal.Finite() || math.IsNaN(m.Penetration) || math.IsInf(m.Penetration, 0) {
			return collided
		}
		collided = true

		// ========== 1. Positional correction ==========
		s.correctPositions(a, b, m, gravityStep)

		// ========== 2. Normal impulse ==========
		j := s.applyNormalImpulse(a, b, m, gravityStep, outerIterations*inner)

		// ========== 3. Friction at the contact point ==========
		if j > 0 {
			s.applyFriction(a, b, m, j)
		}
	}

	// ========== 4. Orientation snapping against static supports ==========
	if collided && hasStatic {
		if a.IsStatic() {
			s.snapOrientation(b)
		} else {
			s.snapOrientation(a)
		}
	}

	return collided
}

// correctPositions separates the pair along the normal by the penetration
// beyond the slop, scaled by the correction ratio. A dynamic pair splits the
// correction by inverse mass; against a static body the dynamic member takes
// the full correction with the static margin applied, and in the resting
// regime any remaining approach velocity is zeroed so the correction cannot
// be re-entered on the next pass. Fast approaches keep their velocity: those
// are impacts, and restitution handles them.
func (s *Solver) correctPositions(a, b *actor.RigidBody, m Manifold, gravityStep float64) {
	depth := m.Penetration - s.Tuning.Slop
	if depth <= 0 {
		return
	}

	if a.IsStatic() || b.IsStatic() {
		correction := m.Normal.Mul(depth * s.Tuning.CorrectionRatio * s.Tuning.StaticMargin)
		if a.IsStatic() {
			b.Position = b.Position.Add(correction)
		} else {
			a.Position = a.Position.Sub(correction)
		}

		vn := b.Velocity.Sub(a.Velocity).Dot(m.Normal)
		if vn < 0 && vn*vn < gravityStep*gravityStep+restingEpsilon {
			if a.IsStatic() {
				b.Velocity = b.Velocity.Sub(m.Normal.Mul(vn))
			} else {
				a.Velocity = a.Velocity.Add(m.Normal.Mul(vn))
			}
		}
		return
	}

	invSum := a.InvMass + b.InvMass
	if invSum <= 0 {
		return
	}
	total := depth * s.Tuning.CorrectionRatio
	a.Position = a.Position.Sub(m.Normal.Mul(total * a.InvMass / invSum))
	b.Position = b.Position.Add(m.Normal.Mul(total * b.InvMass / invSum))
}

const restingEpsilon = 1e-4

// applyNormalImpulse resolves the relative velocity along the normal and
// returns the scalar impulse it applied. Contacts whose approach speed is
// below what gravity adds in one substep count as resting: restitution is
// forced to zero there, and while the pair is still deeply penetrated a
// minimum impulse floor cancels the velocity gravity keeps reintroducing,
// split across the iteration budget so the total over one substep comes out
// to roughly g·dt.
func (s *Solver) applyNormalImpulse(a, b *actor.RigidBody, m Manifold, gravityStep float64, iterationBudget int) float64 {
	invSum := a.InvMass + b.InvMass
	if invSum <= 0 {
		return 0
	}

	vn := b.Velocity.Sub(a.Velocity).Dot(m.Normal)
	resting := vn*vn < gravityStep*gravityStep+restingEpsilon

	restitution := ComputeRestitution(a.Material, b.Material)
	if resting {
		restitution = 0
	}

	var j float64
	if vn < 0 {
		j = -(1 + restitution) * vn / invSum
	}

	if resting && m.Penetration > s.Tuning.RestingPenetration {
		floor := gravityStep * s.Tuning.RestingBoost / (invSum * float64(iterationBudget))
		if j < floor {
			j = floor
		}
	}

	if j <= 0 {
		return 0
	}

	impulse := m.Normal.Mul(j)
	a.ApplyImpulse(impulse.Mul(-1))
	b.ApplyImpulse(impulse)

	return j
}

// applyFriction applies a Coulomb friction impulse along the contact
// tangent. The tangential relative velocity is taken at the contact point,
// including each body's spin contribution, so friction both slows sliding
// and bleeds off rotation.
func (s *Solver) applyFriction(a, b *actor.RigidBody, m Manifold, normalImpulse float64) {
	invSum := a.InvMass + b.InvMass
	if invSum <= 0 {
		return
	}

	point := contactPointFor(a, b, m)
	rA := point.Sub(a.Position)
	rB := point.Sub(b.Position)

	velA := a.Velocity.Add(rA.Perp().Mul(a.AngularVelocity))
	velB := b.Velocity.Add(rB.Perp().Mul(b.AngularVelocity))

	tangent := m.Normal.Perp()
	vt := velB.Sub(velA).Dot(tangent)
	if math.Abs(vt) < 1e-8 {
		return
	}

	jt := -vt / invSum

	bound := ComputeFriction(a.Material, b.Material) * normalImpulse * s.Tuning.FrictionBoost
	if math.Abs(vt) < s.Tuning.StaticFrictionSpeed {
		bound *= s.Tuning.StaticFrictionMultiplier
	}
	if jt > bound {
		jt = bound
	} else if jt < -bound {
		jt = -bound
	}

	impulse := tangent.Mul(jt)
	a.ApplyImpulse(impulse.Mul(-1))
	a.ApplyAngularImpulse(actor.ComputeTorque(rA, impulse.Mul(-1)))
	b.ApplyImpulse(impulse)
	b.ApplyAngularImpulse(actor.ComputeTorque(rB, impulse))
}

// snapOrientation locks a slowly spinning body onto the nearest axis-aligned
// orientation. Square bodies resting on a static support otherwise keep
// micro-rotating forever from inertia noise in the impulse train.
func (s *Solver) snapOrientation(rb *actor.RigidBody) {
	if rb.IsStatic() {
		return
	}
	if math.Abs(rb.AngularVelocity) > s.Tuning.SnapMaxSpin {
		return
	}

	const quarter = math.Pi / 2
	nearest := math.Round(rb.Angle/quarter) * quarter
	if math.Abs(rb.Angle-nearest) <= s.Tuning.SnapTolerance {
		rb.Angle = nearest
		rb.AngularVelocity = 0
	}
}

func stateFinite(rb *actor.RigidBody) bool {
	return rb.Position.Finite() && rb.Velocity.Finite() &&
		!math.IsNaN(rb.Angle) && !math.IsInf(rb.Angle, 0) &&
		!math.IsNaN(rb.AngularVelocity) && !math.IsInf(rb.AngularVelocity, 0)
}
