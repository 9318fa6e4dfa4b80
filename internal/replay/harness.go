package replay

import (
	"math/rand"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/session"
)

// #region types

// Result captures the outcome of replaying one fixture through the full
// client pipeline.
type Result struct {
	Outcome  string // "succeeded" | "failed"
	Frames   int
	Trace    []float64
	Commands []session.Command // outbound commands the run emitted
}

// Matches reports whether the result meets the fixture's expectations.
func (r Result) Matches(expected FixtureExpected) bool {
	return r.Outcome == expected.Outcome && r.Frames == expected.Frames
}

// #endregion types

// #region replay

// Replay runs a fixture through the session machine tick by tick, entirely
// in memory. The pointer sequence is applied one entry per tick; when it
// runs out, the last position holds. A fixture's seed pins the initial
// tilt sign, so replays are bit-reproducible.
func Replay(f *Fixture) Result {
	cfg := f.Config.ToSessionConfig()
	rng := rand.New(rand.NewSource(f.Seed))
	m := session.New(cfg, rng)

	var commands []session.Command
	commands = append(commands, m.Reset()...)

	m.OnScheduleReceived(f.Schedule.ToModel(), nil)
	m.OnStartRequested()

	tick := 0
	for m.State() == session.StateRunning {
		if tick < len(f.Pointer) {
			m.OnPointerMove(f.Pointer[tick])
		}
		commands = append(commands, m.Tick()...)
		tick++
	}

	outcome := "failed"
	if m.State() == session.StateSucceeded {
		outcome = "succeeded"
	}

	return Result{
		Outcome:  outcome,
		Frames:   m.FrameCount(),
		Trace:    m.Trace(),
		Commands: commands,
	}
}

// #endregion replay
