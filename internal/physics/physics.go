package physics

import (
	"math"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/schedule"
)

// #region state

// State is the full pendulum state advanced once per tick. All fields are
// kept finite; Step sanitizes pathological values before they propagate.
type State struct {
	Angle            float64 // radians, signed, 0 = upright; unbounded, never wrapped
	AngularVelocity  float64 // radians per tick
	BasePosition     float64
	PrevBasePosition float64
}

// Input is the control input for one tick: the target base position the
// operator is steering toward. Base position is the only externally
// observable force.
type Input struct {
	BasePosition float64
}

// #endregion state

// #region config

// Config holds the fixed tuning constants of the integrator.
type Config struct {
	ForceMultiplier float64 // scales base acceleration into inertial torque
	Damping         float64 // applied to angular velocity after integration, < 1
	FailAngle       float64 // radians; non-finite states clamp just past this
}

// DefaultConfig returns the production tuning constants.
func DefaultConfig() Config {
	return Config{
		ForceMultiplier: 0.1,
		Damping:         0.985,
		FailAngle:       1.4,
	}
}

// #endregion config

// #region step

// Step advances the pendulum by one fixed timestep. Pure function of the
// current state, the schedule frame active at this tick, and the control
// input; no hidden randomness, so a fixed input sequence replays
// bit-for-bit.
func Step(s State, frame schedule.Frame, in Input, cfg Config) State {
	base := in.BasePosition
	if !isFinite(base) {
		// Pathological control input: hold the base still for this tick.
		base = s.PrevBasePosition
	}

	baseAccel := base - s.PrevBasePosition

	gravityTorque := (frame.Gravity / frame.Length) * math.Sin(s.Angle)
	inertialTorque := (-cfg.ForceMultiplier * baseAccel / frame.Length) * math.Cos(s.Angle)

	// The jolt is the server's per-tick disturbance, injected verbatim.
	angularAccel := gravityTorque + inertialTorque + frame.ForceJolt

	next := State{
		AngularVelocity:  (s.AngularVelocity + angularAccel) * cfg.Damping,
		BasePosition:     base,
		PrevBasePosition: base,
	}
	next.Angle = s.Angle + next.AngularVelocity

	return sanitize(next, cfg)
}

// sanitize clamps non-finite physics state to just past the fail threshold
// so the session machine degrades to a Failed run, never to an accept.
func sanitize(s State, cfg Config) State {
	if isFinite(s.Angle) && isFinite(s.AngularVelocity) {
		return s
	}
	sign := 1.0
	if isFinite(s.Angle) && s.Angle < 0 {
		sign = -1.0
	}
	s.Angle = sign * (cfg.FailAngle + 1e-6)
	s.AngularVelocity = 0
	if !isFinite(s.BasePosition) {
		s.BasePosition = 0
		s.PrevBasePosition = 0
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion step
