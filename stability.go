package tumble

import (
	"math"

	"github.com/SeongUk52/tumble/actor"
	"github.com/SeongUk52/tumble/vmath"
)

// Interval is a horizontal support segment in world x coordinates.
type Interval struct {
	Min float64
	Max float64
}

// Widen grows the interval by r on both sides.
func (i Interval) Widen(r float64) Interval {
	return Interval{Min: i.Min - r, Max: i.Max + r}
}

// Contains reports whether x lies inside the interval, inclusive.
func (i Interval) Contains(x float64) bool {
	return x >= i.Min && x <= i.Max
}

// Width returns the interval length.
func (i Interval) Width() float64 {
	return i.Max - i.Min
}

// StabilityResult is the outcome of one evaluation, consumed once via the
// event queue.
type StabilityResult struct {
	Stable       bool
	Offset       float64
	CenterOfMass vmath.Vec2
	Support      Interval
}

// StabilityConfig collects the tolerances of the evaluator.
type StabilityConfig struct {
	// ToleranceRatio scales the body's footprint width into the base
	// support tolerance.
	ToleranceRatio float64 `yaml:"tolerance_ratio"`
	// TiltSlack adds extra tolerance proportional to the current tilt.
	TiltSlack float64 `yaml:"tilt_slack"`
	// TiltThreshold is the tilt beyond which a body counts as falling over
	// regardless of its center of mass.
	TiltThreshold float64 `yaml:"tilt_threshold"`
	// TiltAmplifier scales the reported offset once the threshold is
	// exceeded.
	TiltAmplifier float64 `yaml:"tilt_amplifier"`
	// SupportBand is the vertical distance within which another body's top
	// edge counts as supporting this body's bottom edge.
	SupportBand float64 `yaml:"support_band"`
	// SettleSpeed and SettleSpin bound the velocity of a body considered
	// at rest.
	SettleSpeed float64 `yaml:"settle_speed"`
	SettleSpin  float64 `yaml:"settle_spin"`
}

// DefaultStabilityConfig returns the tolerances the engine ships with.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		ToleranceRatio: 0.1,
		TiltSlack:      0.5,
		TiltThreshold:  math.Pi / 6,
		TiltAmplifier:  2.0,
		SupportBand:    5.0,
		SettleSpeed:    1.0,
		SettleSpin:     0.05,
	}
}

// StabilityEvaluator decides whether a body's center of mass projects onto
// its support interval.
type StabilityEvaluator struct {
	Config StabilityConfig
}

// NewStabilityEvaluator builds an evaluator, replacing zero or invalid
// config fields with their defaults.
func NewStabilityEvaluator(cfg StabilityConfig) *StabilityEvaluator {
	def := DefaultStabilityConfig()

	if cfg.ToleranceRatio <= 0 {
		cfg.ToleranceRatio = def.ToleranceRatio
	}
	if cfg.TiltSlack < 0 {
		cfg.TiltSlack = def.TiltSlack
	}
	if cfg.TiltThreshold <= 0 {
		cfg.TiltThreshold = def.TiltThreshold
	}
	if cfg.TiltAmplifier <= 0 {
		cfg.TiltAmplifier = def.TiltAmplifier
	}
	if cfg.SupportBand <= 0 {
		cfg.SupportBand = def.SupportBand
	}
	if cfg.SettleSpeed <= 0 {
		cfg.SettleSpeed = def.SettleSpeed
	}
	if cfg.SettleSpin <= 0 {
		cfg.SettleSpin = def.SettleSpin
	}

	return &StabilityEvaluator{Config: cfg}
}

// DefaultSupportBounds flattens the body's own footprint to a horizontal
// segment, the fallback when no real support is known.
func (s *StabilityEvaluator) DefaultSupportBounds(body *actor.RigidBody) Interval {
	box := body.AABB()
	return Interval{Min: box.Min.X(), Max: box.Max.X()}
}

// Evaluate checks the body against a support interval. A negative tolerance
// selects the automatic one: proportional to the footprint width, plus
// slack growing with the current tilt so a leaning body is not condemned
// the instant its center drifts.
//
// Stable requires the center of mass x inside the widened interval and the
// tilt below the threshold. Offset reports the signed distance outside the
// un-widened interval; past the tilt threshold it is amplified, and a pure
// tilt failure reports sign(tilt)·(|tilt|−threshold)·width so the caller
// always sees a nonzero offset on failure.
func (s *StabilityEvaluator) Evaluate(body *actor.RigidBody, support Interval, tolerance float64) StabilityResult {
	box := body.AABB()
	width := box.Width()
	tilt := tiltOf(body.Angle)

	if tolerance < 0 {
		tolerance = width*s.Config.ToleranceRatio + math.Abs(tilt)*width*s.Config.TiltSlack
	}

	com := body.CenterOfMass()
	tilted := math.Abs(tilt) >= s.Config.TiltThreshold
	stable := support.Widen(tolerance).Contains(com.X()) && !tilted

	var offset float64
	switch {
	case com.X() < support.Min:
		offset = com.X() - support.Min
	case com.X() > support.Max:
		offset = com.X() - support.Max
	}
	if tilted {
		offset *= s.Config.TiltAmplifier
		if offset == 0 {
			offset = math.Copysign((math.Abs(tilt)-s.Config.TiltThreshold)*width, tilt)
		}
	}

	return StabilityResult{
		Stable:       stable,
		Offset:       offset,
		CenterOfMass: com,
		Support:      support,
	}
}

// WillTopple is the boolean convenience wrapper around Evaluate.
func (s *StabilityEvaluator) WillTopple(body *actor.RigidBody, support Interval, tolerance float64) bool {
	return !s.Evaluate(body, support, tolerance).Stable
}

// tiltOf is the signed angular distance from the nearest axis-aligned
// orientation. Rectangles are symmetric under quarter turns, so a body
// resting at 90 degrees is not tilted.
func tiltOf(angle float64) float64 {
	const quarter = math.Pi / 2
	return angle - math.Round(angle/quarter)*quarter
}
