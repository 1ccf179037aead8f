package tumble

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/constraint"
)

const (
	DefaultFixedStep   = 1.0 / 60
	DefaultMaxSubSteps = 10
	DefaultIterations  = 10
	DefaultWorkers     = 1

	DefaultGridCellSize  = 64.0
	DefaultGridMinBodies = 24
	DefaultGridCells     = 1024
)

// GravityConfig describes the gravity field.
type GravityConfig struct {
	Magnitude  float64 `yaml:"magnitude"`
	DirectionX float64 `yaml:"direction_x"`
	DirectionY float64 `yaml:"direction_y"`
}

// GridConfig describes the optional spatial grid broad phase. Disabled by
// default: at a few dozen bodies the brute-force pass is cheaper than
// rebuilding the grid.
type GridConfig struct {
	Enabled   bool    `yaml:"enabled"`
	CellSize  float64 `yaml:"cell_size"`
	MinBodies int     `yaml:"min_bodies"`
	Cells     int     `yaml:"cells"`
}

// Config collects every tunable of the engine.
type Config struct {
	// FixedStep is the substep length in seconds.
	FixedStep float64 `yaml:"fixed_step"`
	// MaxSubSteps caps the substeps of a single Step call.
	MaxSubSteps int `yaml:"max_substeps"`
	// Iterations is the outer resolution pass count. Taller stacks converge
	// with more, 40-50 for the extremes.
	Iterations int `yaml:"iterations"`
	// Workers sizes the worker pipeline for the per-body phases.
	Workers int `yaml:"workers"`

	Gravity   GravityConfig     `yaml:"gravity"`
	Solver    constraint.Tuning `yaml:"solver"`
	Damping   actor.Damping     `yaml:"damping"`
	Stability StabilityConfig   `yaml:"stability"`
	Grid      GridConfig        `yaml:"grid"`
}

// DefaultConfig returns the configuration the engine ships with.
func DefaultConfig() Config {
	return Config{
		FixedStep:   DefaultFixedStep,
		MaxSubSteps: DefaultMaxSubSteps,
		Iterations:  DefaultIterations,
		Workers:     DefaultWorkers,
		Gravity: GravityConfig{
			Magnitude:  DefaultGravityMagnitude,
			DirectionX: 0,
			DirectionY: 1,
		},
		Solver:    constraint.DefaultTuning(),
		Damping:   actor.DefaultDamping(),
		Stability: DefaultStabilityConfig(),
		Grid: GridConfig{
			Enabled:   false,
			CellSize:  DefaultGridCellSize,
			MinBodies: DefaultGridMinBodies,
			Cells:     DefaultGridCells,
		},
	}
}

// LoadConfig reads a YAML file over the defaults, so partial files are
// fine, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// SaveConfig writes the configuration as YAML.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	if c.FixedStep <= 0 || !finite(c.FixedStep) {
		return fmt.Errorf("fixed_step must be a positive finite number, got %v", c.FixedStep)
	}
	if c.MaxSubSteps < 1 {
		return fmt.Errorf("max_substeps must be at least 1, got %d", c.MaxSubSteps)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Gravity.Magnitude < 0 || !finite(c.Gravity.Magnitude) {
		return fmt.Errorf("gravity magnitude must be non-negative and finite, got %v", c.Gravity.Magnitude)
	}
	if !finite(c.Gravity.DirectionX) || !finite(c.Gravity.DirectionY) {
		return fmt.Errorf("gravity direction must be finite, got (%v, %v)", c.Gravity.DirectionX, c.Gravity.DirectionY)
	}
	if c.Damping.SlowDecay <= 0 || c.Damping.SlowDecay > 1 {
		return fmt.Errorf("damping slow_decay must be in (0,1], got %v", c.Damping.SlowDecay)
	}
	if c.Damping.FastDecay <= 0 || c.Damping.FastDecay > 1 {
		return fmt.Errorf("damping fast_decay must be in (0,1], got %v", c.Damping.FastDecay)
	}
	if c.Stability.ToleranceRatio < 0 {
		return fmt.Errorf("stability tolerance_ratio must be non-negative, got %v", c.Stability.ToleranceRatio)
	}
	if c.Grid.Enabled && c.Grid.CellSize <= 0 {
		return fmt.Errorf("grid cell_size must be positive when the grid is enabled, got %v", c.Grid.CellSize)
	}
	return nil
}

// withDefaults replaces zero or invalid numeric fields with their defaults.
// The sub-configs are normalized by their own constructors down the line.
func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.FixedStep <= 0 || !finite(c.FixedStep) {
		c.FixedStep = def.FixedStep
	}
	if c.MaxSubSteps < 1 {
		c.MaxSubSteps = def.MaxSubSteps
	}
	if c.Iterations < 1 {
		c.Iterations = def.Iterations
	}
	if c.Workers < 1 {
		c.Workers = def.Workers
	}
	if c.Gravity.Magnitude <= 0 || !finite(c.Gravity.Magnitude) {
		c.Gravity.Magnitude = def.Gravity.Magnitude
	}
	if (c.Gravity.DirectionX == 0 && c.Gravity.DirectionY == 0) ||
		!finite(c.Gravity.DirectionX) || !finite(c.Gravity.DirectionY) {
		c.Gravity.DirectionX = def.Gravity.DirectionX
		c.Gravity.DirectionY = def.Gravity.DirectionY
	}
	if c.Grid.CellSize <= 0 {
		c.Grid.CellSize = def.Grid.CellSize
	}
	if c.Grid.MinBodies < 1 {
		c.Grid.MinBodies = def.Grid.MinBodies
	}
	if c.Grid.Cells < 1 {
		c.Grid.Cells = def.Grid.Cells
	}

	return c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
