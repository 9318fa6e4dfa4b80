package telemetry

import "fmt"

// #region recorder

// Recorder accumulates the per-tick angle trace of one run. Samples are
// append-only and chronological: index i is the angle after tick i. The
// trace freezes at the terminal transition and is cleared only by Reset at
// the start of the next run.
type Recorder struct {
	samples []float64
	frozen  bool
}

// NewRecorder creates a recorder sized for the expected run length.
func NewRecorder(capacity int) *Recorder {
	if capacity < 0 {
		capacity = 0
	}
	return &Recorder{samples: make([]float64, 0, capacity)}
}

// Reset empties the trace and unfreezes the recorder for a new run.
func (r *Recorder) Reset(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	r.samples = make([]float64, 0, capacity)
	r.frozen = false
}

// Append records one angle sample. Appending to a frozen trace is an
// internal invariant violation and is refused.
func (r *Recorder) Append(angle float64) error {
	if r.frozen {
		return fmt.Errorf("telemetry trace is frozen")
	}
	r.samples = append(r.samples, angle)
	return nil
}

// Freeze marks the trace immutable. Called at the terminal transition.
func (r *Recorder) Freeze() {
	r.frozen = true
}

// Frozen reports whether the trace has been frozen.
func (r *Recorder) Frozen() bool {
	return r.frozen
}

// Len returns the number of recorded samples.
func (r *Recorder) Len() int {
	return len(r.samples)
}

// Samples returns a copy of the trace so callers can never mutate the
// recorded history.
func (r *Recorder) Samples() []float64 {
	out := make([]float64, len(r.samples))
	copy(out, r.samples)
	return out
}

// #endregion recorder
