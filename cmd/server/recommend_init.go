// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/helios/internal/bias"
	"github.com/tomtom215/helios/internal/cache"
	"github.com/tomtom215/helios/internal/catalog"
	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/logging"
	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/recommend"
	"github.com/tomtom215/helios/internal/youtube"
)

// recommendComponents holds everything the recommendation path needs.
type recommendComponents struct {
	engine *recommend.Engine
	videos *cache.VideoCache
	redis  *cache.RedisCache
	bias   *bias.Table
	pool   *catalog.Pool
}

// initRecommend loads the bias table and the candidate pool, builds the
// video metadata chain and the engine. Any error is fatal to startup.
func initRecommend(ctx context.Context, cfg *config.Config) (*recommendComponents, error) {
	table, err := bias.LoadCSV(ctx, cfg.Bias.Path, cfg.Bias.Criterion, logging.WithComponent("bias"))
	if err != nil {
		return nil, fmt.Errorf("load bias table: %w", err)
	}
	metrics.BiasEntries.Set(float64(table.Len()))

	pool, err := catalog.Load(cfg.Catalog.Path, logging.WithComponent("catalog"))
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}

	if cfg.YouTube.APIKey == "" {
		logging.Warn().Msg("No YouTube API key configured, video metadata lookups will fail")
	}
	upstream := youtube.NewCircuitBreakerClient(youtube.NewClient(&cfg.YouTube, logging.Logger()))

	redisCache := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.RedisTTL, logging.Logger())
	lru := cache.NewLRUCache[models.Video](cfg.Cache.LRUCapacity, cfg.Cache.LRUTTL)
	videos := cache.NewVideoCache(upstream, lru, redisCache, logging.Logger())

	engineCfg := &recommend.Config{
		Seed:             cfg.Recommend.Seed,
		ScoreConcurrency: cfg.Recommend.ScoreConcurrency,
	}
	engine, err := recommend.NewEngine(engineCfg, videos, recommend.NewScorer(recommend.DefaultPlatform, table), logging.Logger())
	if err != nil {
		_ = redisCache.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	logging.Info().
		Int("bias_entries", table.Len()).
		Str("criterion", table.Criterion()).
		Int("candidates", pool.Len()).
		Bool("redis", redisCache.Enabled()).
		Msg("Recommendation engine initialized")

	return &recommendComponents{
		engine: engine,
		videos: videos,
		redis:  redisCache,
		bias:   table,
		pool:   pool,
	}, nil
}

// close releases the shared cache connection.
func (c *recommendComponents) close() {
	if err := c.redis.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing Redis client")
	}
}
