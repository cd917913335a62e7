// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package services

import (
	"context"
	"time"
)

// Janitor periodically evicts expired cache entries.
type Janitor interface {
	RunJanitor(ctx context.Context, interval time.Duration) error
}

// CacheJanitorService runs the video cache janitor.
type CacheJanitorService struct {
	janitor  Janitor
	interval time.Duration
}

// NewCacheJanitorService creates the service. A non-positive interval
// means one minute.
func NewCacheJanitorService(janitor Janitor, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{janitor: janitor, interval: interval}
}

// Serve runs the janitor until ctx is canceled.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
	return s.janitor.RunJanitor(ctx, s.interval)
}

func (s *CacheJanitorService) String() string {
	return "cache-janitor"
}
