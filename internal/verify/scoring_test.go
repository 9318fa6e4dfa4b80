package verify

import (
	"math"
	"testing"
)

// humanTrace is a wobbly trace a real operator could plausibly produce:
// offset sinusoid, never pinned at zero, never leaning far enough to arm
// the reflex analysis.
func humanTrace(n int) []float64 {
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = 0.008 + 0.006*math.Sin(2*math.Pi*float64(i)/50)
	}
	return angles
}

func TestScoreRejectsShortTrace(t *testing.T) {
	cfg := DefaultScoringConfig()
	v := Score(humanTrace(100), cfg)

	if v.Verified {
		t.Fatal("short trace verified")
	}
	if v.Reason != ReasonTooShort {
		t.Fatalf("reason = %s, want %s", v.Reason, ReasonTooShort)
	}
	if v.Stats != nil {
		t.Fatal("rejected trace should carry no stats")
	}
}

func TestScoreAcceptsExactlyMinimumSurvival(t *testing.T) {
	cfg := DefaultScoringConfig()
	v := Score(humanTrace(cfg.MinSurvivalFrames), cfg)

	if !v.Verified {
		t.Fatalf("minimum-length trace rejected: %s (%s)", v.Reason, v.Message)
	}
}

func TestScoreRejectsUniformTrace(t *testing.T) {
	cfg := DefaultScoringConfig()
	angles := make([]float64, 200)
	for i := range angles {
		angles[i] = 0.05
	}
	v := Score(angles, cfg)

	if v.Verified {
		t.Fatal("frozen trace verified")
	}
	if v.Reason != ReasonUniform {
		t.Fatalf("reason = %s, want %s", v.Reason, ReasonUniform)
	}
}

func TestScoreRejectsTooPerfectTrace(t *testing.T) {
	// Alternating hair-width wobble around zero: every frame is inside the
	// perfection band, but the changes are large enough to dodge the
	// uniformity check.
	cfg := DefaultScoringConfig()
	angles := make([]float64, 200)
	for i := range angles {
		if i%2 == 0 {
			angles[i] = 0.0005
		} else {
			angles[i] = -0.0005
		}
	}
	v := Score(angles, cfg)

	if v.Verified {
		t.Fatal("pinned trace verified")
	}
	if v.Reason != ReasonTooPerfect {
		t.Fatalf("reason = %s, want %s", v.Reason, ReasonTooPerfect)
	}
}

func TestScoreRejectsSuperhumanReflexes(t *testing.T) {
	// A controller-style trace: leaning hard the whole time, yet every
	// single frame already moves back toward zero.
	cfg := DefaultScoringConfig()
	angles := make([]float64, 200)
	for i := range angles {
		angles[i] = 0.5 - float64(i)*0.001
	}
	v := Score(angles, cfg)

	if v.Verified {
		t.Fatal("controller trace verified")
	}
	if v.Reason != ReasonSuperhuman {
		t.Fatalf("reason = %s, want %s", v.Reason, ReasonSuperhuman)
	}
}

func TestScoreVerifiesHumanTraceWithStats(t *testing.T) {
	cfg := DefaultScoringConfig()
	v := Score(humanTrace(300), cfg)

	if !v.Verified {
		t.Fatalf("human trace rejected: %s (%s)", v.Reason, v.Message)
	}
	if v.Reason != ReasonNone {
		t.Fatalf("reason = %s, want %s", v.Reason, ReasonNone)
	}
	if v.Stats == nil {
		t.Fatal("verified trace missing stats")
	}
	if v.Stats.DurationSeconds != 5.0 {
		t.Fatalf("duration = %v, want 5.0", v.Stats.DurationSeconds)
	}
	if v.Stats.Oscillations != 0 {
		t.Fatalf("oscillations = %d for a trace that never crosses zero", v.Stats.Oscillations)
	}
	if v.Stats.MaxDeviationDegrees <= 0 || v.Stats.MaxDeviationDegrees > 1 {
		t.Fatalf("max deviation = %v degrees, want small positive", v.Stats.MaxDeviationDegrees)
	}
	if v.Stats.StabilityScore < 95 || v.Stats.StabilityScore > 100 {
		t.Fatalf("stability score = %d, want near 100 for a tiny wobble", v.Stats.StabilityScore)
	}
}

func TestScoreCountsOscillations(t *testing.T) {
	// Slow swings across zero. Crossings are genuine sign changes; the
	// amplitude stays below the significance threshold so the reflex
	// analysis never arms.
	cfg := DefaultScoringConfig()
	angles := make([]float64, 180)
	for i := range angles {
		angles[i] = 0.012 * math.Sin(2*math.Pi*float64(i)/60)
	}
	v := Score(angles, cfg)

	if !v.Verified {
		t.Fatalf("swinging trace rejected: %s (%s)", v.Reason, v.Message)
	}
	if v.Stats.Oscillations < 4 || v.Stats.Oscillations > 8 {
		t.Fatalf("oscillations = %d, want roughly one per half-period", v.Stats.Oscillations)
	}
}

func TestScoreClampsStabilityScore(t *testing.T) {
	// Max deviation beyond the credited range maps to a zero score, never
	// negative.
	cfg := DefaultScoringConfig()
	angles := humanTrace(300)
	angles[150] = 1.39
	v := Score(angles, cfg)

	if !v.Verified {
		t.Fatalf("trace rejected: %s (%s)", v.Reason, v.Message)
	}
	if v.Stats.StabilityScore != 0 {
		t.Fatalf("score = %d, want clamp to 0", v.Stats.StabilityScore)
	}
}

func TestReflexRatioIgnoresCalmFrames(t *testing.T) {
	angles := []float64{0.001, 0.002, 0.001, 0.003, 0.002}
	ratio, significant := reflexRatio(angles, 0.02)
	if significant != 0 || ratio != 0 {
		t.Fatalf("calm trace produced ratio=%v significant=%d", ratio, significant)
	}
}

func TestMeanAndVariance(t *testing.T) {
	mean, variance := meanAndVariance([]float64{1, 2, 3, 4})
	if mean != 2.5 {
		t.Fatalf("mean = %v, want 2.5", mean)
	}
	if variance != 1.25 {
		t.Fatalf("variance = %v, want 1.25", variance)
	}
}
