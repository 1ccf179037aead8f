package constraint

import (
	"math"

	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/vmath"
)

// Manifold describes a single contact between two bodies. It is recomputed
// from the current AABBs on every solver pass and never cached, so there is
// no warm-starting.
type Manifold struct {
	Collided    bool
	Normal      vmath.Vec2
	Penetration float64
}

// ComputeManifold builds the contact manifold for a pair of bodies from
// their AABBs. The normal points from a's center of mass toward b's along
// the axis of least overlap, so ComputeManifold(a, b) and
// ComputeManifold(b, a) report opposite normals.
//
// Both axis overlaps must be strictly positive: boxes that merely share an
// edge are not in contact.
func ComputeManifold(a, b *actor.RigidBody) Manifold {
	boxA := a.AABB()
	boxB := b.AABB()

	overlapX := math.Min(boxA.Max.X(), boxB.Max.X()) - math.Max(boxA.Min.X(), boxB.Min.X())
	overlapY := math.Min(boxA.Max.Y(), boxB.Max.Y()) - math.Max(boxA.Min.Y(), boxB.Min.Y())

	if overlapX <= 0 || overlapY <= 0 {
		return Manifold{}
	}

	// Least overlap picks the separation axis, ties go vertical. Contacts
	// involving a static body always resolve vertically: grazing contacts at
	// a support's edge would otherwise resolve along a thin horizontal
	// sliver and eject a resting body sideways.
	vertical := overlapY <= overlapX
	if a.IsStatic() || b.IsStatic() {
		vertical = true
	}

	comA := a.CenterOfMass()
	comB := b.CenterOfMass()

	m := Manifold{Collided: true}
	if vertical {
		m.Penetration = overlapY
		if comB.Y() >= comA.Y() {
			m.Normal = vmath.V(0, 1)
		} else {
			m.Normal = vmath.V(0, -1)
		}
	} else {
		m.Penetration = overlapX
		if comB.X() >= comA.X() {
			m.Normal = vmath.V(1, 0)
		} else {
			m.Normal = vmath.V(-1, 0)
		}
	}

	return m
}

// contactPointFor places the contact at the centroid of the overlapping
// AABB region. Along the non-normal axis the point is pinned to the dynamic
// body's center of mass (mass-weighted between the two centers for a
// dynamic pair), which keeps a perfectly flat rest from manufacturing
// spurious torque.
func contactPointFor(a, b *actor.RigidBody, m Manifold) vmath.Vec2 {
	region, ok := a.AABB().Intersection(b.AABB())
	if !ok {
		return a.CenterOfMass().Add(b.CenterOfMass()).Mul(0.5)
	}

	point := region.Center()

	axis := 0
	if m.Normal.X() != 0 {
		axis = 1
	}

	switch {
	case a.IsStatic():
		point[axis] = b.CenterOfMass()[axis]
	case b.IsStatic():
		point[axis] = a.CenterOfMass()[axis]
	default:
		massA := a.Material.Mass
		massB := b.Material.Mass
		weighted := a.CenterOfMass()[axis]*massA + b.CenterOfMass()[axis]*massB
		point[axis] = weighted / (massA + massB)
	}

	return point
}
