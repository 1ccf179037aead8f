package main

import (
	"fmt"
	"math"

	"github.com/SeongUk52/tumble"
	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/vmath"
)

// SetupScene builds a world with a floor and a slightly misaligned tower
// of four blocks above it.
func SetupScene() (*tumble.World, []*actor.RigidBody) {
	world := tumble.NewWorld(tumble.DefaultConfig())

	floor := actor.NewRigidBody(
		vmath.V(0, 520),
		800, 40,
		actor.Material{Friction: 0.8},
		actor.BodyTypeStatic,
	)
	if err := world.AddBody(floor); err != nil {
		panic(err)
	}
	world.SetGround(520, 0, 800)

	offsets := []float64{0, 10, -15, 6}
	blocks := make([]*actor.RigidBody, 0, len(offsets))

	x := 380.0
	for i, dx := range offsets {
		x += dx
		block := actor.NewRigidBody(
			vmath.V(x, 470-float64(i)*55),
			50, 50,
			actor.Material{Mass: 20, Friction: 0.8},
			actor.BodyTypeDynamic,
		)
		if err := world.AddBody(block); err != nil {
			panic(err)
		}
		blocks = append(blocks, block)
	}

	return world, blocks
}

// RunStackingScene drops the tower and narrates what the event queue
// reports while it settles.
func RunStackingScene() {
	fmt.Println("Stacking scene: four blocks, small offsets")
	fmt.Println("==========================================")

	world, blocks := SetupScene()

	// OnCollision fires every step while a contact is active, so count
	// instead of printing
	contacts := 0
	world.OnCollision(func(bodyA, bodyB *actor.RigidBody) { contacts++ })

	world.Events.Subscribe(tumble.COLLISION_ENTER, func(event tumble.Event) {
		e := event.(tumble.CollisionEnterEvent)
		fmt.Printf("  impact: %.0f,%.0f touches %.0f,%.0f\n",
			e.BodyA.Position.X(), e.BodyA.Position.Y(),
			e.BodyB.Position.X(), e.BodyB.Position.Y())
	})
	world.OnTopple(func(body *actor.RigidBody, result tumble.StabilityResult) {
		fmt.Printf("  topple: block at %.0f,%.0f is off its support by %.1f\n",
			body.Position.X(), body.Position.Y(), result.Offset)
	})
	world.Events.Subscribe(tumble.BODY_SETTLE, func(event tumble.Event) {
		e := event.(tumble.SettleEvent)
		fmt.Printf("  settle: block at %.0f,%.0f came to rest\n",
			e.Body.Position.X(), e.Body.Position.Y())
	})

	const dt = 1.0 / 60.0
	const maxSteps = 600

	for step := 0; step < maxSteps; step++ {
		world.Step(dt)

		if (step+1)%120 == 0 {
			fmt.Printf("--- %.0fs ---\n", float64(step+1)*dt)
			for i, block := range blocks {
				fmt.Printf("  block %d: pos (%.1f, %.1f), speed %.2f, angle %.1f deg, resting %v\n",
					i,
					block.Position.X(), block.Position.Y(),
					block.Velocity.Len(),
					block.Angle*180/math.Pi,
					block.Resting)
			}
		}
	}

	fmt.Println()
	fmt.Printf("contact callbacks over %d steps: %d\n", maxSteps, contacts)
	fmt.Println("Final tower:")
	for i, block := range blocks {
		support, ok := world.SupportFor(block)
		if ok {
			fmt.Printf("  block %d rests on [%.1f, %.1f]\n", i, support.Min, support.Max)
		} else {
			fmt.Printf("  block %d has no support\n", i)
		}
	}
}

func main() {
	RunStackingScene()
}
