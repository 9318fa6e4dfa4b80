package verify

import (
	"fmt"
	"math"
)

// #region config

// ScoringConfig holds the thresholds of the trace-scoring pipeline. These
// are service policy, never exposed on the wire.
type ScoringConfig struct {
	TargetFPS         float64 // tick rate the trace was captured at
	MinSurvivalFrames int     // traces shorter than this are unstable
	PerfectAngle      float64 // |angle| below this counts as "perfect"
	MaxPerfectFrames  int     // more perfect frames than this is inhuman
	SignificantAngle  float64 // |angle| above this counts toward reflex analysis
	MinReflexFrames   int     // significant frames needed before the reflex check applies
	MaxReflexRatio    float64 // immediate-correction share above this is superhuman
	UniformVariance   float64 // variance of |Δangle| below this is a dead pattern
	UniformMeanChange float64 // mean |Δangle| below this is a dead pattern
	MaxCreditedAngle  float64 // radians mapped to a zero stability score
}

// DefaultScoringConfig returns the production thresholds.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TargetFPS:         60,
		MinSurvivalFrames: 150,
		PerfectAngle:      0.001,
		MaxPerfectFrames:  30,
		SignificantAngle:  0.02,
		MinReflexFrames:   30,
		MaxReflexRatio:    0.92,
		UniformVariance:   1e-10,
		UniformMeanChange: 1e-8,
		MaxCreditedAngle:  1.2,
	}
}

// #endregion config

// #region verdict

// Reason categorizes why a trace was rejected.
type Reason string

const (
	ReasonNone       Reason = "none"
	ReasonTooShort   Reason = "too_short"
	ReasonUniform    Reason = "uniform_pattern"
	ReasonTooPerfect Reason = "too_perfect"
	ReasonSuperhuman Reason = "superhuman_reflex"
)

// Stats summarizes a verified trace for display.
type Stats struct {
	DurationSeconds     float64
	MaxDeviationDegrees float64
	Oscillations        int
	StabilityScore      int
}

// Verdict is the scoring outcome for one trace.
type Verdict struct {
	Verified bool
	Message  string
	Reason   Reason
	Stats    *Stats
}

// #endregion verdict

// #region score

// Score runs the full pipeline over an angle trace: survival, uniformity,
// perfection, then the reflex trap. Checks run in order and the first
// failing one decides the verdict.
func Score(angles []float64, cfg ScoringConfig) Verdict {
	// 1. Survival: did the run last long enough at all.
	if len(angles) < cfg.MinSurvivalFrames {
		return Verdict{
			Verified: false,
			Reason:   ReasonTooShort,
			Message: fmt.Sprintf("STABILIZATION FAILED: Reactor unstable after %.1f seconds.",
				float64(len(angles))/cfg.TargetFPS),
		}
	}

	// 2. Uniformity: crashed or perfectly-still bots produce a degenerate
	// change profile.
	if len(angles) >= 2 {
		changes := make([]float64, 0, len(angles)-1)
		for i := 1; i < len(angles); i++ {
			changes = append(changes, math.Abs(angles[i]-angles[i-1]))
		}
		mean, variance := meanAndVariance(changes)
		if variance < cfg.UniformVariance && mean < cfg.UniformMeanChange {
			return Verdict{
				Verified: false,
				Reason:   ReasonUniform,
				Message:  "ANOMALY DETECTED: Input pattern too uniform.",
			}
		}
	}

	// 3. Perfection: humans cannot pin the angle at zero for long.
	perfect := 0
	for _, a := range angles {
		if math.Abs(a) < cfg.PerfectAngle {
			perfect++
		}
	}
	if perfect > cfg.MaxPerfectFrames {
		return Verdict{
			Verified: false,
			Reason:   ReasonTooPerfect,
			Message:  "ANOMALY DETECTED: Impossibly precise stabilization detected.",
		}
	}

	// 4. The reflex trap. PID-style bots correct every leaning frame
	// immediately; humans let the pole slide and catch it in bursts.
	ratio, significant := reflexRatio(angles, cfg.SignificantAngle)
	if significant > cfg.MinReflexFrames && ratio > cfg.MaxReflexRatio {
		return Verdict{
			Verified: false,
			Reason:   ReasonSuperhuman,
			Message:  "ANOMALY DETECTED: Reflexes exceed biological limits.",
		}
	}

	// 5. Verified.
	signChanges := 0
	maxAngle := 0.0
	for i, a := range angles {
		if abs := math.Abs(a); abs > maxAngle {
			maxAngle = abs
		}
		if i > 0 && angles[i]*angles[i-1] < 0 {
			signChanges++
		}
	}

	score := int(100 * (1 - maxAngle/cfg.MaxCreditedAngle))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return Verdict{
		Verified: true,
		Reason:   ReasonNone,
		Message:  "REACTOR STABILIZED: Human operator confirmed.",
		Stats: &Stats{
			DurationSeconds:     float64(len(angles)) / cfg.TargetFPS,
			MaxDeviationDegrees: maxAngle * 180 / math.Pi,
			Oscillations:        signChanges,
			StabilityScore:      score,
		},
	}
}

// #endregion score

// #region helpers

// reflexRatio measures the share of leaning frames where the very next
// frame already moves back toward zero.
func reflexRatio(angles []float64, significantAngle float64) (float64, int) {
	immediate := 0
	significant := 0
	for i := 1; i < len(angles)-1; i++ {
		current := angles[i]
		next := angles[i+1]
		if math.Abs(current) <= significantAngle {
			continue
		}
		significant++
		correcting := (current > 0 && next < current) || (current < 0 && next > current)
		if correcting {
			immediate++
		}
	}
	if significant == 0 {
		return 0, 0
	}
	return float64(immediate) / float64(significant), significant
}

// meanAndVariance computes the population mean and variance.
func meanAndVariance(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, variance / float64(len(values))
}

// #endregion helpers
