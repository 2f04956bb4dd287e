package scheduler

import (
	"time"
)

// Config controls scheduler intervals and retention windows.
type Config struct {
	RunInterval time.Duration
	StaleAfter  time.Duration
	PruneAfter  time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		StaleAfter:  60 * time.Minute,
		PruneAfter:  30 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaults.StaleAfter
	}
	if c.PruneAfter <= 0 {
		c.PruneAfter = defaults.PruneAfter
	}
	return c
}
