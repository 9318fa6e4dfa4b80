package chaos

import (
	"math/rand"
	"sort"
)

// #region config

// Config bounds the schedule generator. Values here are service policy,
// not protocol: clients treat whatever arrives as opaque.
type Config struct {
	FrameCount int

	GravityMin       float64
	GravityMax       float64
	GravityKeyframes int

	LengthMin       float64
	LengthMax       float64
	LengthKeyframes int

	JoltIntervalMin int     // min frames between jolt clusters
	JoltIntervalMax int     // max frames between jolt clusters
	JoltAmplitude   float64 // jolts drawn uniformly from ±amplitude
	JoltDecayFrames int     // trailing frames carrying geometric half-decay
}

// DefaultConfig returns the production generation parameters.
func DefaultConfig() Config {
	return Config{
		FrameCount:       300,
		GravityMin:       0.08,
		GravityMax:       0.20,
		GravityKeyframes: 6,
		LengthMin:        90.0,
		LengthMax:        120.0,
		LengthKeyframes:  4,
		JoltIntervalMin:  70,
		JoltIntervalMax:  100,
		JoltAmplitude:    0.004,
		JoltDecayFrames:  4,
	}
}

// #endregion config

// #region generator

// Set is one generated chaos schedule: three sequences of FrameCount
// entries each.
type Set struct {
	Gravity    []float64
	Length     []float64
	ForceJolts []float64
}

// Generator produces chaos schedules. Deterministic given its rand source,
// which makes generated sessions reproducible in tests.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a generator over the given rand source.
func NewGenerator(cfg Config, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Generate produces one schedule set.
func (g *Generator) Generate() Set {
	return Set{
		Gravity:    g.smoothSchedule(g.cfg.GravityMin, g.cfg.GravityMax, g.cfg.GravityKeyframes),
		Length:     g.smoothSchedule(g.cfg.LengthMin, g.cfg.LengthMax, g.cfg.LengthKeyframes),
		ForceJolts: g.forceJolts(),
	}
}

// #endregion generator

// #region smooth-schedule

// smoothSchedule draws random keyframe values at random frame positions
// (always anchoring the first and last frame) and linearly interpolates
// between them, yielding a slowly drifting parameter curve.
func (g *Generator) smoothSchedule(minVal, maxVal float64, keyframes int) []float64 {
	frames := g.cfg.FrameCount
	if keyframes < 2 {
		keyframes = 2
	}

	positions := make([]int, 0, keyframes)
	positions = append(positions, 0)
	if interior := keyframes - 2; interior > 0 && frames > 2 {
		perm := g.rng.Perm(frames - 2)
		for _, p := range perm[:interior] {
			positions = append(positions, p+1)
		}
	}
	positions = append(positions, frames-1)
	sort.Ints(positions)

	values := make([]float64, len(positions))
	for i := range values {
		values[i] = minVal + g.rng.Float64()*(maxVal-minVal)
	}

	sched := make([]float64, frames)
	idx := 0
	for frame := 0; frame < frames; frame++ {
		for idx < len(positions)-1 && frame >= positions[idx+1] {
			idx++
		}
		if idx >= len(positions)-1 {
			sched[frame] = values[len(values)-1]
			continue
		}
		start, end := positions[idx], positions[idx+1]
		t := 0.0
		if end != start {
			t = float64(frame-start) / float64(end-start)
		}
		sched[frame] = lerp(values[idx], values[idx+1], t)
	}
	return sched
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// #endregion smooth-schedule

// #region force-jolts

// forceJolts places a random disturbance every JoltInterval frames or so,
// each followed by a short geometric half-decay tail.
func (g *Generator) forceJolts() []float64 {
	frames := g.cfg.FrameCount
	jolts := make([]float64, frames)

	interval := g.cfg.JoltIntervalMin
	if span := g.cfg.JoltIntervalMax - g.cfg.JoltIntervalMin; span > 0 {
		interval += g.rng.Intn(span + 1)
	}
	if interval < 1 {
		interval = 1
	}

	for i := 0; i < frames; i += interval {
		jitterMax := frames - i - 1
		if jitterMax > 20 {
			jitterMax = 20
		}
		if jitterMax < 0 {
			break
		}
		joltFrame := i
		if jitterMax > 0 {
			joltFrame += g.rng.Intn(jitterMax + 1)
		}
		if joltFrame >= frames {
			continue
		}
		jolts[joltFrame] = (g.rng.Float64()*2 - 1) * g.cfg.JoltAmplitude
		for decay := 1; decay <= g.cfg.JoltDecayFrames; decay++ {
			if joltFrame+decay < frames {
				jolts[joltFrame+decay] = jolts[joltFrame] * pow2inv(decay)
			}
		}
	}
	return jolts
}

// pow2inv returns 0.5^n for small n.
func pow2inv(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 0.5
	}
	return v
}

// #endregion force-jolts
