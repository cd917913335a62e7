// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package recommend

import (
	"fmt"
)

// Config contains the engine's operational settings. Scoring weights are
// per request and live in ScoreParams.
type Config struct {
	// Seed seeds the candidate sampler. If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`

	// ScoreConcurrency bounds how many videos are scored at once.
	ScoreConcurrency int `json:"score_concurrency"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Seed:             42,
		ScoreConcurrency: 16,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ScoreConcurrency < 1 {
		return fmt.Errorf("score_concurrency must be at least 1, got %d", c.ScoreConcurrency)
	}
	return nil
}
