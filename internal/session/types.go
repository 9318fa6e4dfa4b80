package session

import (
	"github.com/danielpatrickdp/reactor-stabilizer/internal/input"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/physics"
)

// #region state

// State enumerates the session lifecycle. Exactly one session is active
// per Machine; there are no concurrent runs.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingStart State = "awaiting_start"
	StateRunning       State = "running"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// #endregion state

// #region config

// Config holds the thresholds and tuning constants governing a session.
// Nothing here is hard-coded at use sites; tests override freely.
type Config struct {
	FailAngle     float64 // radians; |angle| beyond this fails the run
	SuccessFrames int     // ticks survived to succeed
	InitialTilt   float64 // radians; reset magnitude, sign chosen per run
	Physics       physics.Config
	Input         input.Config
}

// DefaultConfig returns the production session constants.
func DefaultConfig() Config {
	return Config{
		FailAngle:     1.4,
		SuccessFrames: 300,
		InitialTilt:   0.05,
		Physics:       physics.DefaultConfig(),
		Input:         input.DefaultConfig(),
	}
}

// #endregion config

// #region commands

// CommandKind identifies an outbound request the machine asks its driver
// to perform. The machine itself never touches the network.
type CommandKind string

const (
	CommandAcquireSchedule CommandKind = "acquire_schedule"
	CommandSubmitTelemetry CommandKind = "submit_telemetry"
)

// Command is an outbound request emitted by an event handler. For
// CommandSubmitTelemetry the trace is a frozen copy; the machine never
// hands out a slice it might still mutate.
type Command struct {
	Kind         CommandKind
	SessionToken string
	Trace        []float64
}

// #endregion commands
