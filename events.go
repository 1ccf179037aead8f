package tumble

import (
	"log"
	"unsafe"

	"github.com/SeongUk52/tumble/actor"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	BODY_TOPPLE
	BODY_SETTLE
	BODY_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Collision events
type CollisionEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// ToppleEvent fires when a body's stability evaluation fails, carrying the
// most recent result for that body.
type ToppleEvent struct {
	Body   *actor.RigidBody
	Result StabilityResult
}

func (e ToppleEvent) Type() EventType { return BODY_TOPPLE }

// Settle/Wake events track Resting transitions
type SettleEvent struct {
	Body *actor.RigidBody
}

func (e SettleEvent) Type() EventType { return BODY_SETTLE }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return BODY_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	ptrA := uintptr(unsafe.Pointer(bodyA))
	ptrB := uintptr(unsafe.Pointer(bodyB))

	if ptrB < ptrA {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

// Events buffers everything the simulation wants to report and delivers it
// after the step completes. Listeners therefore never observe the world
// mid-resolution, and a listener calling back into it cannot corrupt an
// in-flight substep.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	// Resting tracking for Settle/Wake detection
	restingStates map[*actor.RigidBody]bool

	// Topple dedup: one event per body per step, last result wins,
	// delivered in first-recorded order
	toppleResults map[*actor.RigidBody]StabilityResult
	toppleOrder   []*actor.RigidBody
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		restingStates:       make(map[*actor.RigidBody]bool),
		toppleResults:       make(map[*actor.RigidBody]StabilityResult),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollision marks a pair active for the current step. Called from the
// resolution phase; the map deduplicates repeat contacts across iterations
// and substeps.
func (e *Events) recordCollision(bodyA, bodyB *actor.RigidBody) {
	e.currentActivePairs[makePairKey(bodyA, bodyB)] = true
}

// recordTopple stores a failed stability result. A body toppling in several
// substeps of one step produces a single event carrying the last result.
func (e *Events) recordTopple(body *actor.RigidBody, result StabilityResult) {
	if _, recorded := e.toppleResults[body]; !recorded {
		e.toppleOrder = append(e.toppleOrder, body)
	}
	e.toppleResults[body] = result
}

// processCollisionEvents compares current and previous pairs to detect
// Enter/Stay/Exit. Called once per step, from flush.
func (e *Events) processCollisionEvents() {
	for pair := range e.currentActivePairs {
		if e.previousActivePairs[pair] {
			// Pair was active before and still is, Stay
			e.buffer = append(e.buffer, CollisionStayEvent{
				BodyA: pair.bodyA,
				BodyB: pair.bodyB,
			})
		} else {
			// New pair, Enter
			e.buffer = append(e.buffer, CollisionEnterEvent{
				BodyA: pair.bodyA,
				BodyB: pair.bodyB,
			})
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			// Pair was active but is no longer, Exit
			e.buffer = append(e.buffer, CollisionExitEvent{
				BodyA: pair.bodyA,
				BodyB: pair.bodyB,
			})
		}
	}

	// Swap for next step and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// processToppleEvents drains the deduplicated topples into the buffer in
// first-recorded order.
func (e *Events) processToppleEvents() {
	for _, body := range e.toppleOrder {
		e.buffer = append(e.buffer, ToppleEvent{Body: body, Result: e.toppleResults[body]})
	}
	e.toppleOrder = e.toppleOrder[:0]
	clear(e.toppleResults)
}

// processRestingEvents turns Resting transitions into Settle/Wake events.
// The first sighting of a body only records its state.
func (e *Events) processRestingEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.restingStates[body]
		if !exists {
			e.restingStates[body] = body.Resting
			continue
		}

		if !trackedState && body.Resting {
			e.buffer = append(e.buffer, SettleEvent{Body: body})
			e.restingStates[body] = true
		} else if trackedState && !body.Resting {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.restingStates[body] = false
		}
	}
}

// flush turns the tracked pair and topple state into events and delivers
// the whole buffer. Listener panics are logged and swallowed, never
// propagated into the simulation.
func (e *Events) flush() {
	e.processCollisionEvents()
	e.processToppleEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			e.dispatch(listener, event)
		}
	}
	e.buffer = e.buffer[:0]
}

func (e *Events) dispatch(listener EventListener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tumble: event listener panic: %v", r)
		}
	}()
	listener(event)
}

// forget scrubs all tracking state referencing a removed body.
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.restingStates, body)

	if _, recorded := e.toppleResults[body]; recorded {
		delete(e.toppleResults, body)
		for i, b := range e.toppleOrder {
			if b == body {
				e.toppleOrder = append(e.toppleOrder[:i], e.toppleOrder[i+1:]...)
				break
			}
		}
	}

	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, pair)
		}
	}
}

// forgetAll resets every piece of tracking state, keeping listeners.
func (e *Events) forgetAll() {
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
	clear(e.restingStates)
	clear(e.toppleResults)
	e.toppleOrder = e.toppleOrder[:0]
	e.buffer = e.buffer[:0]
}
