// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/models"
)

// DefaultRedisTTL is used when no TTL is configured.
const DefaultRedisTTL = 6 * time.Hour

// RedisCache stores videos in Redis. A RedisCache with a nil client is a
// valid disabled tier: reads miss and writes are dropped.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache connects to redisURL. An empty URL, a bad URL or a failed
// ping yields a disabled tier and is logged, never returned.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	logger = logger.With().Str("component", "redis-cache").Logger()
	disabled := &RedisCache{ttl: ttl, logger: logger}

	if redisURL == "" {
		logger.Info().Msg("No Redis URL configured, shared video cache disabled")
		return disabled
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid Redis URL, shared video cache disabled")
		return disabled
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Warn().Err(err).Msg("Redis connection failed, shared video cache disabled")
		return disabled
	}

	logger.Info().Str("addr", opts.Addr).Msg("Redis connected, shared video cache enabled")
	return NewRedisCacheFromClient(rdb, ttl, logger)
}

// NewRedisCacheFromClient wraps an existing client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRedisCacheFromClient(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Enabled reports whether a Redis client is configured.
func (c *RedisCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetVideos returns the cached videos among ids. Undecodable entries are
// skipped.
func (c *RedisCache) GetVideos(ctx context.Context, ids []string) (map[string]models.Video, error) {
	found := make(map[string]models.Video, len(ids))
	if !c.Enabled() || len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = videoKey(id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return found, fmt.Errorf("redis mget: %w", err)
	}

	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var v models.Video
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			c.logger.Debug().Err(err).Str("video_id", ids[i]).Msg("dropping undecodable cache entry")
			continue
		}
		found[ids[i]] = v
	}
	return found, nil
}

// SetVideos writes videos with the configured TTL in one pipeline.
func (c *RedisCache) SetVideos(ctx context.Context, videos []models.Video) error {
	if !c.Enabled() || len(videos) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for i := range videos {
		b, err := json.Marshal(&videos[i])
		if err != nil {
			return fmt.Errorf("encode video %s: %w", videos[i].ID, err)
		}
		pipe.Set(ctx, videoKey(videos[i].ID), b, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// Invalidate removes a video.
func (c *RedisCache) Invalidate(ctx context.Context, id string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, videoKey(id)).Err()
}

// Ping checks connectivity. A disabled tier is always healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (c *RedisCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func videoKey(id string) string {
	return "video:" + id
}
