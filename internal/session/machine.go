package session

import (
	"log"
	"math"
	"math/rand"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/client"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/input"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/physics"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/schedule"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/telemetry"
	"github.com/google/uuid"
)

// #region machine

// Machine owns the single session context (state, pendulum, trace) and
// advances it in response to explicit events. All mutation happens through
// the event methods, which must be called from one goroutine; handlers are
// synchronous and side-effect-free except for the commands they return.
type Machine struct {
	cfg Config
	rng *rand.Rand

	state      State
	sched      *schedule.Model
	sampler    *input.Sampler
	pendulum   physics.State
	recorder   *telemetry.Recorder
	frameCount int

	runID     string
	submitted bool
	verdict   *client.VerificationResult
	lastErr   error
}

// New creates a machine in Idle. The rng chooses the initial tilt sign per
// run; seed it for deterministic replays.
func New(cfg Config, rng *rand.Rand) *Machine {
	sampler := input.NewSampler(cfg.Input)
	center := sampler.Center()
	return &Machine{
		cfg:     cfg,
		rng:     rng,
		state:   StateIdle,
		sampler: sampler,
		pendulum: physics.State{
			BasePosition:     center,
			PrevBasePosition: center,
		},
		recorder: telemetry.NewRecorder(cfg.SuccessFrames),
	}
}

// #endregion machine

// #region accessors

// State returns the current session state.
func (m *Machine) State() State { return m.state }

// RunID returns the identifier of the current or most recent run.
func (m *Machine) RunID() string { return m.runID }

// FrameCount returns the number of ticks simulated in the current run.
func (m *Machine) FrameCount() int { return m.frameCount }

// Pendulum returns a copy of the current pendulum state.
func (m *Machine) Pendulum() physics.State { return m.pendulum }

// Trace returns a copy of the telemetry trace recorded so far.
func (m *Machine) Trace() []float64 { return m.recorder.Samples() }

// Verdict returns the verification result for the last completed run, or
// nil if none has arrived.
func (m *Machine) Verdict() *client.VerificationResult { return m.verdict }

// Err returns the most recent initialization or verification error.
func (m *Machine) Err() error { return m.lastErr }

// #endregion accessors

// #region reset

// Reset moves a fresh or terminal session back to Idle and emits a
// schedule acquisition. Stale session tokens are never carried across
// runs; the whole schedule is re-acquired. Ignored while a run is live.
func (m *Machine) Reset() []Command {
	switch m.state {
	case StateIdle, StateSucceeded, StateFailed:
	default:
		log.Printf("[SESSION] reset ignored in state %s", m.state)
		return nil
	}
	m.state = StateIdle
	m.sched = nil
	m.verdict = nil
	m.lastErr = nil
	m.submitted = false
	return []Command{{Kind: CommandAcquireSchedule}}
}

// Abort abandons an in-progress session: back to Idle, trace discarded.
// Partial traces are never submitted.
func (m *Machine) Abort() {
	switch m.state {
	case StateAwaitingStart, StateRunning:
	default:
		return
	}
	log.Printf("[SESSION] run %s aborted at frame %d", m.runID, m.frameCount)
	m.state = StateIdle
	m.sched = nil
	m.recorder.Reset(m.cfg.SuccessFrames)
	m.frameCount = 0
}

// #endregion reset

// #region schedule-arrival

// OnScheduleReceived delivers the result of a schedule acquisition. On
// success the session becomes AwaitingStart; on failure it stays Idle with
// a retriable error. Never fatal.
func (m *Machine) OnScheduleReceived(model schedule.Model, err error) {
	if m.state != StateIdle {
		log.Printf("[SESSION] schedule ignored in state %s", m.state)
		return
	}
	if err != nil {
		m.lastErr = err
		log.Printf("[SESSION] schedule acquisition failed: %v", err)
		return
	}
	if verr := model.Validate(); verr != nil {
		m.lastErr = &client.InitializationError{Reason: "invalid schedule", Err: verr}
		log.Printf("[SESSION] schedule rejected: %v", verr)
		return
	}
	m.sched = &model
	m.lastErr = nil
	m.state = StateAwaitingStart
	log.Printf("[SESSION] schedule ready: %d frames", model.Frames())
}

// #endregion schedule-arrival

// #region pointer

// OnPointerMove feeds a raw pointer position into the sampler. Outside
// Running the base tracks the target directly so that starting a run never
// imparts a spurious instantaneous acceleration.
func (m *Machine) OnPointerMove(raw float64) {
	target := m.sampler.Sample(raw)
	if m.state != StateRunning {
		m.pendulum.BasePosition = target
		m.pendulum.PrevBasePosition = target
	}
}

// #endregion pointer

// #region start

// OnStartRequested begins a run from AwaitingStart: pendulum reset to a
// near-upright tilt with a uniformly chosen sign, trace cleared, frame
// count zeroed. The base is synced to the current target, so the first
// tick computes zero base acceleration.
func (m *Machine) OnStartRequested() {
	if m.state != StateAwaitingStart {
		log.Printf("[SESSION] start ignored in state %s", m.state)
		return
	}

	sign := 1.0
	if m.rng.Intn(2) == 0 {
		sign = -1.0
	}
	target := m.sampler.Target()
	m.pendulum = physics.State{
		Angle:            sign * m.cfg.InitialTilt,
		AngularVelocity:  0,
		BasePosition:     target,
		PrevBasePosition: target,
	}
	m.recorder.Reset(m.cfg.SuccessFrames)
	m.frameCount = 0
	m.runID = uuid.New().String()
	m.submitted = false
	m.verdict = nil
	m.state = StateRunning
	log.Printf("[SESSION] run %s started, tilt=%+.4f", m.runID, m.pendulum.Angle)
}

// #endregion start

// #region tick

// Tick advances the run by exactly one simulator step and one telemetry
// append — the 1:1 correspondence the verification service relies on.
// Termination order matters: the fail-angle check runs before the
// success-frame check, so failure wins a tied tick.
func (m *Machine) Tick() []Command {
	if m.state != StateRunning {
		return nil
	}

	frame := m.sched.At(m.frameCount)
	in := physics.Input{BasePosition: m.sampler.Target()}
	m.pendulum = physics.Step(m.pendulum, frame, in, m.cfg.Physics)

	if err := m.recorder.Append(m.pendulum.Angle); err != nil {
		// Should not occur: the recorder is only frozen at terminal
		// transitions. Degrade to reject.
		log.Printf("[SESSION] run %s telemetry append refused: %v", m.runID, err)
		m.fail()
		return nil
	}
	m.frameCount++

	if m.recorder.Len() != m.frameCount {
		log.Printf("[SESSION] run %s trace length %d diverged from frame count %d",
			m.runID, m.recorder.Len(), m.frameCount)
		m.fail()
		return nil
	}

	if math.Abs(m.pendulum.Angle) > m.cfg.FailAngle {
		m.fail()
		return nil
	}

	if m.frameCount >= m.cfg.SuccessFrames {
		m.recorder.Freeze()
		m.state = StateSucceeded
		m.submitted = true
		log.Printf("[SESSION] run %s succeeded after %d frames", m.runID, m.frameCount)
		return []Command{{
			Kind:         CommandSubmitTelemetry,
			SessionToken: m.sched.SessionToken,
			Trace:        m.recorder.Samples(),
		}}
	}

	return nil
}

func (m *Machine) fail() {
	m.recorder.Freeze()
	m.state = StateFailed
	log.Printf("[SESSION] run %s failed at frame %d, angle=%+.4f",
		m.runID, m.frameCount, m.pendulum.Angle)
}

// #endregion tick

// #region verification-arrival

// OnVerificationReceived delivers the service's verdict for the submitted
// trace. Errors leave the run unverified; they are never treated as a
// success.
func (m *Machine) OnVerificationReceived(result client.VerificationResult, err error) {
	if m.state != StateSucceeded {
		log.Printf("[SESSION] verdict ignored in state %s", m.state)
		return
	}
	if err != nil {
		m.lastErr = err
		log.Printf("[SESSION] run %s verification failed: %v", m.runID, err)
		return
	}
	m.verdict = &result
	m.lastErr = nil
	log.Printf("[SESSION] run %s verdict: verified=%v (%s)", m.runID, result.Verified, result.Message)
}

// #endregion verification-arrival
