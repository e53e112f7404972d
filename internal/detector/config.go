package detector

import (
	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/profile"
)

type Mode string

const (
	ModeSpeed    Mode = "speed"
	ModeAccuracy Mode = "accuracy"
)

const (
	minPoses = 1
	maxPoses = 10
)

// Config selects the model and filters its output. Out-of-range values are
// clamped rather than rejected; an unknown mode falls back to speed.
type Config struct {
	Mode                  Mode
	MaxPoses              int
	MinConfidence         float64
	EstimateDepth         bool
	PreferredAcceleration backend.Mode
	RuntimeClass          profile.RuntimeClass
}

func DefaultConfig() Config {
	return Config{
		Mode:          ModeSpeed,
		MaxPoses:      1,
		MinConfidence: 0.3,
		RuntimeClass:  profile.RuntimeRemote,
	}
}

func (c Config) normalized() Config {
	if c.Mode != ModeSpeed && c.Mode != ModeAccuracy {
		c.Mode = ModeSpeed
	}
	if c.MaxPoses < minPoses {
		c.MaxPoses = minPoses
	}
	if c.MaxPoses > maxPoses {
		c.MaxPoses = maxPoses
	}
	if c.MinConfidence < 0 {
		c.MinConfidence = 0
	}
	if c.MinConfidence > 1 {
		c.MinConfidence = 1
	}
	c.PreferredAcceleration = backend.ParseMode(string(c.PreferredAcceleration))
	if c.RuntimeClass != profile.RuntimeLocal && c.RuntimeClass != profile.RuntimeRemote {
		c.RuntimeClass = profile.RuntimeRemote
	}
	return c
}

func (c Config) tier() profile.Tier {
	if c.Mode == ModeAccuracy {
		return profile.TierAccuracy
	}
	return profile.TierSpeed
}

// selectProfile resolves the model this configuration runs.
func (c Config) selectProfile() profile.Profile {
	return profile.Select(c.tier(), c.EstimateDepth, c.RuntimeClass)
}
