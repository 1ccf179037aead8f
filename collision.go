package tumble

import "github.com/SeongUk52/tumble/actor"

// resolveCollisions runs the outer Gauss-Seidel passes for one substep.
// Every pass visits every candidate pair in registry order; the nesting
// with the solver's inner passes is what converges multi-body stacks within
// a handful of substeps.
//
// The brute-force path enumerates pairs fresh each pass. With the grid
// enabled and enough bodies, candidates come from the grid once per
// substep in the identical order; bodies moved into contact by the
// corrections of the same substep are picked up one substep later.
func (w *World) resolveCollisions(h float64) {
	gravityStep := w.Gravity.StepSpeed(h)

	if w.grid != nil && len(w.Bodies) >= w.cfg.Grid.MinBodies {
		candidates := w.gridCandidates()
		for iter := 0; iter < w.cfg.Iterations; iter++ {
			for _, p := range candidates {
				w.resolvePair(w.Bodies[p.A], w.Bodies[p.B], gravityStep)
			}
		}
		return
	}

	for iter := 0; iter < w.cfg.Iterations; iter++ {
		for i := 0; i < len(w.Bodies); i++ {
			for j := i + 1; j < len(w.Bodies); j++ {
				w.resolvePair(w.Bodies[i], w.Bodies[j], gravityStep)
			}
		}
	}
}

func (w *World) resolvePair(bodyA, bodyB *actor.RigidBody, gravityStep float64) {
	if bodyA.IsStatic() && bodyB.IsStatic() {
		return
	}
	if w.solver.ResolvePair(bodyA, bodyB, gravityStep, w.cfg.Iterations) {
		w.Events.recordCollision(bodyA, bodyB)
	}
}

// gridCandidates rebuilds the grid from the current AABBs and returns the
// candidate pairs.
func (w *World) gridCandidates() []Pair {
	w.grid.Clear()
	for i, body := range w.Bodies {
		w.grid.Insert(i, body)
	}
	return w.grid.FindPairs(w.Bodies)
}
