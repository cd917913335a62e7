// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
)

const (
	tierLRU   = "lru"
	tierRedis = "redis"
)

// Fetcher is the upstream metadata source.
type Fetcher interface {
	FetchVideos(ctx context.Context, ids []string) (map[string]models.Video, error)
}

// VideoCache is a read-through Fetcher backed by an LRU and Redis.
type VideoCache struct {
	lru      *LRUCache[models.Video]
	redis    *RedisCache
	upstream Fetcher
	logger   zerolog.Logger
}

// NewVideoCache wraps upstream. redis may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewVideoCache(upstream Fetcher, lru *LRUCache[models.Video], redis *RedisCache, logger zerolog.Logger) *VideoCache {
	if redis == nil {
		redis = &RedisCache{}
	}
	return &VideoCache{
		lru:      lru,
		redis:    redis,
		upstream: upstream,
		logger:   logger.With().Str("component", "video-cache").Logger(),
	}
}

// FetchVideos serves ids from the LRU, then Redis, then upstream. When
// upstream fails the cached subset is still returned; the error is only
// surfaced if nothing was cached.
func (vc *VideoCache) FetchVideos(ctx context.Context, ids []string) (map[string]models.Video, error) {
	result := make(map[string]models.Video, len(ids))

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if v, ok := vc.lru.Get(id); ok {
			result[id] = v
			metrics.RecordCacheLookup(tierLRU, true)
			continue
		}
		metrics.RecordCacheLookup(tierLRU, false)
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	if vc.redis.Enabled() {
		shared, err := vc.redis.GetVideos(ctx, missing)
		if err != nil {
			vc.logger.Warn().Err(err).Msg("redis lookup failed, treating as miss")
		}
		stillMissing := missing[:0:0]
		for _, id := range missing {
			if v, ok := shared[id]; ok {
				result[id] = v
				vc.lru.Add(id, v)
				metrics.RecordCacheLookup(tierRedis, true)
				continue
			}
			metrics.RecordCacheLookup(tierRedis, false)
			stillMissing = append(stillMissing, id)
		}
		missing = stillMissing
		if len(missing) == 0 {
			return result, nil
		}
	}

	fetched, err := vc.upstream.FetchVideos(ctx, missing)
	if err != nil {
		if len(result) == 0 || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		vc.logger.Warn().Err(err).Int("cached", len(result)).Int("missing", len(missing)).
			Msg("upstream fetch failed, serving cached subset")
		return result, nil
	}

	fresh := make([]models.Video, 0, len(fetched))
	for id, v := range fetched {
		result[id] = v
		vc.lru.Add(id, v)
		fresh = append(fresh, v)
	}
	if err := vc.redis.SetVideos(ctx, fresh); err != nil {
		vc.logger.Warn().Err(err).Int("videos", len(fresh)).Msg("redis write failed")
	}

	return result, nil
}

// Invalidate drops id from both tiers.
func (vc *VideoCache) Invalidate(ctx context.Context, id string) error {
	vc.lru.Remove(id)
	return vc.redis.Invalidate(ctx, id)
}

// Ping reports the health of the shared tier.
func (vc *VideoCache) Ping(ctx context.Context) error {
	return vc.redis.Ping(ctx)
}

// RunJanitor sweeps expired LRU entries every interval until ctx is done.
func (vc *VideoCache) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := vc.lru.CleanupExpired(); removed > 0 {
				vc.logger.Debug().Int("removed", removed).Msg("expired cache entries swept")
			}
		}
	}
}
