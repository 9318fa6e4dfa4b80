package schedule

import (
	"fmt"
	"math"
)

// #region model

// Model is a session's chaos schedule: the server-issued, per-frame physics
// parameters plus the session identity they were issued under. Pure data.
type Model struct {
	SessionToken string
	Gravity      []float64
	Length       []float64
	ForceJolts   []float64
}

// Frame bundles the schedule values active at a single simulated frame.
type Frame struct {
	Gravity   float64
	Length    float64
	ForceJolt float64
}

// #endregion model

// #region frames

// Frames returns the number of frames the schedule covers.
func (m *Model) Frames() int {
	return len(m.Gravity)
}

// At returns the schedule frame for the given tick. Indexing past the end
// clamps to the last entry (the schedule holds after expiry); negative
// indices clamp to the first.
func (m *Model) At(frame int) Frame {
	n := m.Frames()
	if frame < 0 {
		frame = 0
	}
	if frame >= n {
		frame = n - 1
	}
	return Frame{
		Gravity:   m.Gravity[frame],
		Length:    m.Length[frame],
		ForceJolt: m.ForceJolts[frame],
	}
}

// #endregion frames

// #region validate

// Validate checks the structural invariants of a schedule payload: a
// non-empty token, three non-empty sequences of identical length, and
// finite values throughout.
func (m *Model) Validate() error {
	if m.SessionToken == "" {
		return fmt.Errorf("schedule missing session token")
	}
	n := len(m.Gravity)
	if n == 0 {
		return fmt.Errorf("schedule is empty")
	}
	if len(m.Length) != n || len(m.ForceJolts) != n {
		return fmt.Errorf("schedule sequence lengths differ: gravity=%d length=%d force_jolts=%d",
			n, len(m.Length), len(m.ForceJolts))
	}
	for i := 0; i < n; i++ {
		if !isFinite(m.Gravity[i]) || !isFinite(m.Length[i]) || !isFinite(m.ForceJolts[i]) {
			return fmt.Errorf("schedule contains non-finite value at frame %d", i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion validate
