// Package tumble is a 2D rigid-body physics engine for rectangular bodies
// falling under gravity, colliding, and coming to stable rest on top of one
// another. Collision detection works on AABBs only; stable stacking comes
// from the resolution heuristics (vertical axis bias, resting impulses,
// orientation snapping) and the tolerance-widened support intervals of the
// stability evaluator.
//
// Coordinates are screen space: +y points down. A body's Position is its
// local-frame origin, the top-left corner at angle 0, and rotation pivots
// about it.
package tumble

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/constraint"
	"github.com/SeongUk52/tumble/vmath"
)

// World owns the body registry and the fixed-substep stepping loop. It is
// single-threaded from the caller's point of view: Step runs to completion,
// and all events are delivered from inside it, after the substeps.
type World struct {
	// Bodies is the insertion-ordered registry. Resolution visits pairs in
	// this order, making runs deterministic for a fixed registry and
	// timestep sequence but not invariant to insertion order.
	Bodies []*actor.RigidBody
	// Gravity acceleration field, freely tunable between steps
	Gravity *GravityField
	// Workers sizes the worker pipeline for the per-body phases. The
	// resolution and stability phases always run sequentially.
	Workers int

	Events Events

	cfg       Config
	solver    *constraint.Solver
	angular   *actor.AngularIntegrator
	stability *StabilityEvaluator
	grid      *SpatialGrid
	ground    *groundPlane
	stepping  bool
}

type groundPlane struct {
	y          float64
	minX, maxX float64
}

// NewWorld builds a world from cfg. Zero or invalid numeric fields fall
// back to their defaults, so NewWorld(Config{}) is usable.
func NewWorld(cfg Config) *World {
	cfg = cfg.withDefaults()

	w := &World{
		Bodies:    make([]*actor.RigidBody, 0, 64),
		Gravity:   NewGravityField(cfg.Gravity.Magnitude, vmath.V(cfg.Gravity.DirectionX, cfg.Gravity.DirectionY)),
		Workers:   cfg.Workers,
		Events:    NewEvents(),
		cfg:       cfg,
		solver:    constraint.NewSolver(cfg.Solver),
		angular:   actor.NewAngularIntegrator(cfg.Damping),
		stability: NewStabilityEvaluator(cfg.Stability),
	}
	if cfg.Grid.Enabled {
		w.grid = NewSpatialGrid(cfg.Grid.CellSize, cfg.Grid.Cells)
	}
	return w
}

// Config returns the effective configuration the world runs with.
func (w *World) Config() Config {
	return w.cfg
}

// AddBody registers a rigid body. Nil bodies, bodies failing validation and
// bodies already registered are rejected.
func (w *World) AddBody(body *actor.RigidBody) error {
	if body == nil {
		return errors.New("tumble: nil body")
	}
	if err := body.Validate(); err != nil {
		return fmt.Errorf("tumble: invalid body: %w", err)
	}
	for _, b := range w.Bodies {
		if b == body {
			return errors.New("tumble: body already registered")
		}
	}

	w.Bodies = append(w.Bodies, body)
	return nil
}

// RemoveBody removes a body from the registry, preserving the order of the
// rest, and scrubs the event state referencing it.
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}
	if k == -1 {
		return
	}

	w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	w.Events.forget(body)
}

// ClearBodies empties the registry and all per-body event state.
func (w *World) ClearBodies() {
	w.Bodies = w.Bodies[:0]
	w.Events.forgetAll()
}

// StaticBodies returns a copy of the registry filtered to static bodies.
func (w *World) StaticBodies() []*actor.RigidBody {
	return w.filterBodies(actor.BodyTypeStatic)
}

// DynamicBodies returns a copy of the registry filtered to dynamic bodies.
func (w *World) DynamicBodies() []*actor.RigidBody {
	return w.filterBodies(actor.BodyTypeDynamic)
}

func (w *World) filterBodies(bodyType actor.BodyType) []*actor.RigidBody {
	var out []*actor.RigidBody
	for _, body := range w.Bodies {
		if body.BodyType == bodyType {
			out = append(out, body)
		}
	}
	return out
}

// BodiesAt returns the bodies whose AABB, inflated by radius, contains the
// point. Radius 0 is exact AABB containment.
func (w *World) BodiesAt(point vmath.Vec2, radius float64) []*actor.RigidBody {
	var out []*actor.RigidBody
	for _, body := range w.Bodies {
		if body.AABB().Inflate(radius).ContainsPoint(point) {
			out = append(out, body)
		}
	}
	return out
}

// SetGround configures a ground plane segment for the support search.
func (w *World) SetGround(y, minX, maxX float64) {
	w.ground = &groundPlane{y: y, minX: minX, maxX: maxX}
}

// ClearGround removes the ground plane.
func (w *World) ClearGround() {
	w.ground = nil
}

// OnCollision subscribes a callback fired once per colliding pair per Step,
// while the contact is active.
func (w *World) OnCollision(fn func(bodyA, bodyB *actor.RigidBody)) {
	handler := func(event Event) {
		switch e := event.(type) {
		case CollisionEnterEvent:
			fn(e.BodyA, e.BodyB)
		case CollisionStayEvent:
			fn(e.BodyA, e.BodyB)
		}
	}
	w.Events.Subscribe(COLLISION_ENTER, handler)
	w.Events.Subscribe(COLLISION_STAY, handler)
}

// OnTopple subscribes a callback fired once per unstable body per Step with
// the most recent stability result.
func (w *World) OnTopple(fn func(body *actor.RigidBody, result StabilityResult)) {
	w.Events.Subscribe(BODY_TOPPLE, func(event Event) {
		if e, ok := event.(ToppleEvent); ok {
			fn(e.Body, e.Result)
		}
	})
}

// Step advances the simulation by deltaTime seconds, split into substeps of
// exactly FixedStep each, capped at MaxSubSteps. It never returns an error;
// events buffered during the substeps are delivered before it returns.
//
// Step is not reentrant. A listener calling back into Step is ignored with
// a log line.
func (w *World) Step(deltaTime float64) {
	if w.stepping {
		log.Printf("tumble: Step called from inside Step, ignoring")
		return
	}
	w.stepping = true
	defer func() { w.stepping = false }()

	h := w.cfg.FixedStep
	substeps := 0
	if deltaTime > 0 && !math.IsNaN(deltaTime) && !math.IsInf(deltaTime, 0) {
		substeps = int(math.Ceil(deltaTime / h))
		if substeps > w.cfg.MaxSubSteps {
			substeps = w.cfg.MaxSubSteps
		}
	}

	// Phase order is load-bearing: gravity before integration, integration
	// before resolution, resolution before stability. Reordering breaks
	// resting contacts.
	for s := 0; s < substeps; s++ {
		w.applyGravity()
		w.integrate(h)
		w.resolveCollisions(h)
		w.evaluateStability()
	}

	w.Events.processRestingEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) applyGravity() {
	task(w.workers(), w.Bodies, func(body *actor.RigidBody) {
		w.Gravity.Apply(body)
	})
}

func (w *World) integrate(h float64) {
	task(w.workers(), w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.angular)
	})
}

// evaluateStability re-evaluates every dynamic body against its support,
// records topples and maintains the Resting flag. Bodies in free fall are
// skipped.
func (w *World) evaluateStability() {
	for _, body := range w.Bodies {
		if body.IsStatic() {
			continue
		}

		support, ok := w.SupportFor(body)
		if !ok {
			body.Resting = false
			continue
		}

		result := w.stability.Evaluate(body, support, -1)
		if !result.Stable {
			w.Events.recordTopple(body, result)
			body.Resting = false
			continue
		}

		body.Resting = body.Velocity.Len() < w.stability.Config.SettleSpeed &&
			math.Abs(body.AngularVelocity) < w.stability.Config.SettleSpin
	}
}

// SupportFor locates what the body rests on: the nearest body whose top
// edge lies within the support band of this body's bottom edge, on either
// side so shallow penetration still counts, and whose footprint overlaps it
// horizontally. Ties resolve to registry order. Falls back to the ground
// plane; with neither, the body's own footprint is returned and the second
// result is false (free fall).
func (w *World) SupportFor(body *actor.RigidBody) (Interval, bool) {
	box := body.AABB()
	band := w.stability.Config.SupportBand

	var best *actor.RigidBody
	bestDist := math.Inf(1)
	for _, other := range w.Bodies {
		if other == body {
			continue
		}
		otherBox := other.AABB()

		dist := math.Abs(otherBox.Min.Y() - box.Max.Y())
		if dist > band {
			continue
		}
		if otherBox.Max.X() <= box.Min.X() || otherBox.Min.X() >= box.Max.X() {
			continue
		}
		if dist < bestDist {
			best = other
			bestDist = dist
		}
	}
	if best != nil {
		bestBox := best.AABB()
		return Interval{Min: bestBox.Min.X(), Max: bestBox.Max.X()}, true
	}

	if w.ground != nil && math.Abs(w.ground.y-box.Max.Y()) <= band {
		return Interval{Min: w.ground.minX, Max: w.ground.maxX}, true
	}

	return w.stability.DefaultSupportBounds(body), false
}

func (w *World) workers() int {
	return max(1, w.Workers)
}
