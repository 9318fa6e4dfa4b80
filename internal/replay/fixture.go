package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/input"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/physics"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/schedule"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/session"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a chaos
// schedule, the session configuration, a per-tick pointer sequence, and
// the expected outcome.
type Fixture struct {
	Description string          `json:"description"`
	Seed        int64           `json:"seed"`
	Schedule    FixtureSchedule `json:"schedule"`
	Config      FixtureConfig   `json:"config"`
	Pointer     []float64       `json:"pointer"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureSchedule mirrors schedule.Model with JSON tags.
type FixtureSchedule struct {
	SessionToken string    `json:"session_token"`
	Gravity      []float64 `json:"gravity"`
	Length       []float64 `json:"length"`
	ForceJolts   []float64 `json:"force_jolts"`
}

// FixtureConfig mirrors session.Config with JSON tags.
type FixtureConfig struct {
	FailAngle       float64 `json:"fail_angle"`
	SuccessFrames   int     `json:"success_frames"`
	InitialTilt     float64 `json:"initial_tilt"`
	Damping         float64 `json:"damping"`
	ForceMultiplier float64 `json:"force_multiplier"`
	FieldWidth      float64 `json:"field_width"`
	CartWidth       float64 `json:"cart_width"`
}

// FixtureExpected captures the expected run outcome.
type FixtureExpected struct {
	Outcome string `json:"outcome"` // "succeeded" | "failed"
	Frames  int    `json:"frames"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToModel converts the fixture schedule to a domain schedule.Model.
func (fs *FixtureSchedule) ToModel() schedule.Model {
	return schedule.Model{
		SessionToken: fs.SessionToken,
		Gravity:      fs.Gravity,
		Length:       fs.Length,
		ForceJolts:   fs.ForceJolts,
	}
}

// ToSessionConfig converts the fixture config to a domain session.Config.
func (fc *FixtureConfig) ToSessionConfig() session.Config {
	return session.Config{
		FailAngle:     fc.FailAngle,
		SuccessFrames: fc.SuccessFrames,
		InitialTilt:   fc.InitialTilt,
		Physics: physics.Config{
			ForceMultiplier: fc.ForceMultiplier,
			Damping:         fc.Damping,
			FailAngle:       fc.FailAngle,
		},
		Input: input.Config{
			FieldWidth: fc.FieldWidth,
			CartWidth:  fc.CartWidth,
		},
	}
}

// #endregion fixture-loader
