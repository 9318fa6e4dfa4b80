package chaos

import (
	"math"
	"math/rand"
	"testing"
)

func TestGenerateLengthsMatchFrameCount(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg, rand.New(rand.NewSource(1)))
	set := g.Generate()

	if len(set.Gravity) != cfg.FrameCount ||
		len(set.Length) != cfg.FrameCount ||
		len(set.ForceJolts) != cfg.FrameCount {
		t.Fatalf("sequence lengths: gravity=%d length=%d jolts=%d, want %d",
			len(set.Gravity), len(set.Length), len(set.ForceJolts), cfg.FrameCount)
	}
}

func TestGenerateValuesStayInBounds(t *testing.T) {
	cfg := DefaultConfig()
	for seed := int64(0); seed < 20; seed++ {
		set := NewGenerator(cfg, rand.New(rand.NewSource(seed))).Generate()
		for i, gv := range set.Gravity {
			if gv < cfg.GravityMin || gv > cfg.GravityMax {
				t.Fatalf("seed %d frame %d: gravity %v outside [%v, %v]", seed, i, gv, cfg.GravityMin, cfg.GravityMax)
			}
		}
		for i, lv := range set.Length {
			if lv < cfg.LengthMin || lv > cfg.LengthMax {
				t.Fatalf("seed %d frame %d: length %v outside [%v, %v]", seed, i, lv, cfg.LengthMin, cfg.LengthMax)
			}
		}
		for i, jv := range set.ForceJolts {
			if math.Abs(jv) > cfg.JoltAmplitude {
				t.Fatalf("seed %d frame %d: jolt %v exceeds amplitude %v", seed, i, jv, cfg.JoltAmplitude)
			}
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	a := NewGenerator(cfg, rand.New(rand.NewSource(42))).Generate()
	b := NewGenerator(cfg, rand.New(rand.NewSource(42))).Generate()

	for i := range a.Gravity {
		if a.Gravity[i] != b.Gravity[i] || a.Length[i] != b.Length[i] || a.ForceJolts[i] != b.ForceJolts[i] {
			t.Fatalf("seeded generation diverged at frame %d", i)
		}
	}
}

func TestGenerateProducesJolts(t *testing.T) {
	cfg := DefaultConfig()
	set := NewGenerator(cfg, rand.New(rand.NewSource(7))).Generate()

	nonzero := 0
	for _, jv := range set.ForceJolts {
		if jv != 0 {
			nonzero++
		}
	}
	// At least one cluster fits in 300 frames given a 70..100 interval.
	if nonzero == 0 {
		t.Fatal("no jolts generated")
	}
}

func TestJoltDecayTailHalves(t *testing.T) {
	cfg := DefaultConfig()
	set := NewGenerator(cfg, rand.New(rand.NewSource(7))).Generate()

	// Find a jolt peak: a nonzero value whose predecessor is zero.
	peak := -1
	for i, jv := range set.ForceJolts {
		if jv != 0 && (i == 0 || set.ForceJolts[i-1] == 0) {
			peak = i
			break
		}
	}
	if peak < 0 {
		t.Fatal("no jolt peak found")
	}

	for decay := 1; decay <= cfg.JoltDecayFrames && peak+decay < len(set.ForceJolts); decay++ {
		want := set.ForceJolts[peak] * math.Pow(0.5, float64(decay))
		got := set.ForceJolts[peak+decay]
		if math.Abs(got-want) > 1e-15 {
			t.Fatalf("decay frame %d: jolt %v, want %v", decay, got, want)
		}
	}
}

func TestSmoothScheduleAnchorsEndpoints(t *testing.T) {
	// With two keyframes the curve is a single segment from the first to
	// the last frame, so it must be monotone between its endpoint values.
	cfg := DefaultConfig()
	cfg.GravityKeyframes = 2
	set := NewGenerator(cfg, rand.New(rand.NewSource(3))).Generate()

	first, last := set.Gravity[0], set.Gravity[len(set.Gravity)-1]
	lo, hi := math.Min(first, last), math.Max(first, last)
	for i, gv := range set.Gravity {
		if gv < lo-1e-12 || gv > hi+1e-12 {
			t.Fatalf("frame %d: value %v outside segment [%v, %v]", i, gv, lo, hi)
		}
	}
}
