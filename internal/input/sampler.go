package input

// #region config

// Config describes the playfield geometry the cart travels in.
type Config struct {
	FieldWidth float64 // total playfield width in spatial units
	CartWidth  float64 // cart width; travel is inset half a cart from each edge
}

// DefaultConfig returns the production playfield geometry.
func DefaultConfig() Config {
	return Config{
		FieldWidth: 600,
		CartWidth:  60,
	}
}

// #endregion config

// #region sampler

// Sampler converts raw pointer positions into clamped base targets. The
// target snaps directly to the clamped pointer in every session state; no
// smoothing is applied, so the control signal is a pure function of the
// pointer sequence.
type Sampler struct {
	cfg    Config
	target float64
}

// NewSampler creates a sampler with the target centered in the playfield.
func NewSampler(cfg Config) *Sampler {
	return &Sampler{cfg: cfg, target: cfg.FieldWidth / 2}
}

// Sample clamps a raw pointer position to the cart's valid travel range,
// stores it as the current target, and returns it.
func (s *Sampler) Sample(raw float64) float64 {
	lo := s.cfg.CartWidth / 2
	hi := s.cfg.FieldWidth - s.cfg.CartWidth/2
	if raw != raw { // NaN pointer: hold the current target
		return s.target
	}
	if raw < lo {
		raw = lo
	}
	if raw > hi {
		raw = hi
	}
	s.target = raw
	return raw
}

// Target returns the current clamped target.
func (s *Sampler) Target() float64 {
	return s.target
}

// Center returns the resting position used before any pointer input.
func (s *Sampler) Center() float64 {
	return s.cfg.FieldWidth / 2
}

// #endregion sampler
