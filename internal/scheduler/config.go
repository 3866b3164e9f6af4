package scheduler

import "time"

// Config tunes the background billing sweep.
type Config struct {
	// PollInterval is the pause between sweeps.
	PollInterval time.Duration
	// BatchSize caps how many documents and templates one sweep touches.
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}
