package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SeongUk52/tumble"
	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/vmath"
)

const (
	sceneWidth  = 800.0
	sceneHeight = 600.0
	floorY      = 520.0
	floorDepth  = 40.0
)

var (
	configFile string
	// Block parameters
	size        float64
	mass        float64
	friction    float64
	restitution float64
	// Drop parameters
	height   float64
	duration float64
	// Stack parameters
	blocks  int
	offset  float64
	seed    int64
	gridOn  bool
	workers int
	// Watch parameters
	frameRate int
	// Config output
	outFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tumble",
		Short: "rigid body sandbox for falling blocks",
		RunE:  runWatch,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	dropCmd := &cobra.Command{
		Use:   "drop",
		Short: "drop a single block and report how it settles",
		RunE:  runDrop,
	}
	dropCmd.Flags().Float64Var(&height, "height", 400, "drop height above the floor")
	dropCmd.Flags().Float64Var(&size, "size", 40, "block edge length")
	dropCmd.Flags().Float64Var(&mass, "mass", 5, "block mass")
	dropCmd.Flags().Float64Var(&friction, "friction", 0.4, "block friction")
	dropCmd.Flags().Float64Var(&restitution, "restitution", 0, "block restitution")
	dropCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated seconds")

	stackCmd := &cobra.Command{
		Use:   "stack",
		Short: "drop a tower of blocks and report its stability",
		RunE:  runStack,
	}
	stackCmd.Flags().IntVar(&blocks, "blocks", 5, "number of blocks")
	stackCmd.Flags().Float64Var(&size, "size", 40, "block edge length")
	stackCmd.Flags().Float64Var(&mass, "mass", 5, "block mass")
	stackCmd.Flags().Float64Var(&friction, "friction", 0.4, "block friction")
	stackCmd.Flags().Float64Var(&restitution, "restitution", 0, "block restitution")
	stackCmd.Flags().Float64Var(&offset, "offset", 12, "max horizontal offset between blocks")
	stackCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	stackCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated seconds")
	stackCmd.Flags().BoolVar(&gridOn, "grid", false, "force the spatial grid broad phase")
	stackCmd.Flags().IntVar(&workers, "workers", 0, "worker count for the per-body phases")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "watch the sandbox live in the terminal",
		RunE:  runWatch,
	}
	watchCmd.Flags().IntVar(&blocks, "blocks", 5, "blocks dropped at start")
	watchCmd.Flags().Float64Var(&size, "size", 40, "block edge length")
	watchCmd.Flags().Float64Var(&mass, "mass", 5, "block mass")
	watchCmd.Flags().Float64Var(&friction, "friction", 0.4, "block friction")
	watchCmd.Flags().Float64Var(&restitution, "restitution", 0, "block restitution")
	watchCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		RunE:  showConfig,
	}
	configCmd.Flags().StringVar(&outFile, "out", "", "write to a file instead of stdout")

	rootCmd.AddCommand(dropCmd, stackCmd, watchCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadEngineConfig() (tumble.Config, error) {
	if configFile == "" {
		return tumble.DefaultConfig(), nil
	}
	return tumble.LoadConfig(configFile)
}

// buildWorld creates a world with a static floor spanning the scene and the
// matching ground plane for support evaluation.
func buildWorld(cfg tumble.Config) (*tumble.World, error) {
	world := tumble.NewWorld(cfg)

	floor := actor.NewRigidBody(
		vmath.V(0, floorY),
		sceneWidth, floorDepth,
		actor.Material{Friction: 0.8},
		actor.BodyTypeStatic,
	)
	if err := world.AddBody(floor); err != nil {
		return nil, err
	}
	world.SetGround(floorY, 0, sceneWidth)

	return world, nil
}

func makeBlock(x, y float64) *actor.RigidBody {
	return actor.NewRigidBody(
		vmath.V(x, y),
		size, size,
		actor.Material{Mass: mass, Friction: friction, Restitution: restitution},
		actor.BodyTypeDynamic,
	)
}

func runDrop(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	world, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	block := makeBlock((sceneWidth-size)/2, floorY-height-size)
	if err := world.AddBody(block); err != nil {
		return err
	}

	var impacts, topples int
	world.Events.Subscribe(tumble.COLLISION_ENTER, func(e tumble.Event) { impacts++ })
	world.Events.Subscribe(tumble.BODY_TOPPLE, func(e tumble.Event) { topples++ })

	steps := int(duration / cfg.FixedStep)
	perSecond := int(1.0 / cfg.FixedStep)
	if perSecond < 1 {
		perSecond = 1
	}
	speeds := make([]float64, 0, steps)
	settledAt := -1

	start := time.Now()
	for i := 0; i < steps; i++ {
		world.Step(cfg.FixedStep)
		speeds = append(speeds, block.Velocity.Len())
		if settledAt < 0 && block.Resting {
			settledAt = i + 1
		}
		if (i+1)%perSecond == 0 {
			fmt.Printf("t=%.0fs  height %.1f  speed %.2f  resting %v\n",
				float64(i+1)*cfg.FixedStep,
				floorY-block.AABB().Max.Y(),
				block.Velocity.Len(),
				block.Resting)
		}
	}
	elapsed := time.Since(start)

	fmt.Println()
	fmt.Printf("simulated %.2fs in %v\n", duration, elapsed)
	if settledAt >= 0 {
		fmt.Printf("settled after %.2fs (%d steps)\n", float64(settledAt)*cfg.FixedStep, settledAt)
	} else {
		fmt.Println("did not settle")
	}
	box := block.AABB()
	fmt.Printf("final position: (%.1f, %.1f), angle %.1f deg\n",
		block.Position.X(), block.Position.Y(), block.Angle*180/math.Pi)
	fmt.Printf("rest height above floor: %.2f\n", floorY-box.Max.Y())
	fmt.Printf("impacts: %d\n", impacts)
	fmt.Printf("topples: %d\n", topples)

	if len(speeds) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(speeds,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("speed (px/s) vs step"),
		))
	}

	return nil
}

func runStack(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	if gridOn {
		cfg.Grid.Enabled = true
		cfg.Grid.MinBodies = 1
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	world, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	x := (sceneWidth - size) / 2
	for i := 0; i < blocks; i++ {
		if i > 0 {
			x += (rng.Float64()*2 - 1) * offset
		}
		block := makeBlock(x, floorY-float64(i+1)*(size+4))
		if err := world.AddBody(block); err != nil {
			return err
		}
	}

	var impacts, topples, settles int
	world.Events.Subscribe(tumble.COLLISION_ENTER, func(e tumble.Event) { impacts++ })
	world.Events.Subscribe(tumble.BODY_TOPPLE, func(e tumble.Event) { topples++ })
	world.Events.Subscribe(tumble.BODY_SETTLE, func(e tumble.Event) { settles++ })

	steps := int(duration / cfg.FixedStep)
	towerTops := make([]float64, 0, steps)

	start := time.Now()
	for i := 0; i < steps; i++ {
		world.Step(cfg.FixedStep)
		towerTops = append(towerTops, stackTop(world))
	}
	elapsed := time.Since(start)

	fmt.Printf("simulated %.2fs in %v (seed %d)\n", duration, elapsed, seed)
	fmt.Printf("stack top: %.1f above the floor\n", stackTop(world))
	fmt.Printf("impacts: %d\n", impacts)
	fmt.Printf("topples: %d\n", topples)
	fmt.Printf("settles: %d\n", settles)
	fmt.Println()

	evaluator := tumble.NewStabilityEvaluator(cfg.Stability)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tX\tY\tANGLE\tRESTING\tSTABLE")
	for i, block := range world.DynamicBodies() {
		stable := "-"
		if support, ok := world.SupportFor(block); ok {
			if evaluator.Evaluate(block, support, -1).Stable {
				stable = "yes"
			} else {
				stable = "no"
			}
		}
		resting := "no"
		if block.Resting {
			resting = "yes"
		}
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%.1f\t%s\t%s\n",
			i,
			block.Position.X(),
			block.Position.Y(),
			block.Angle*180/math.Pi,
			resting,
			stable,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(towerTops) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(towerTops,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("tower top above floor vs step"),
		))
	}

	return nil
}

// stackTop measures the highest dynamic body top edge above the floor.
func stackTop(world *tumble.World) float64 {
	top := 0.0
	for _, block := range world.DynamicBodies() {
		if h := floorY - block.AABB().Min.Y(); h > top {
			top = h
		}
	}
	return top
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	m, err := newWatchModel(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := tumble.SaveConfig(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
