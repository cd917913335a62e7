// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateRateLimits,
		c.validateYouTube,
		c.validateBias,
		c.validateRecommend,
		c.validateCache,
		c.validateStore,
		c.validateEvents,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// maxYouTubeBatch is the videos.list id limit.
const maxYouTubeBatch = 50

func (c *Config) validateYouTube() error {
	yt := c.YouTube
	if strings.TrimSpace(yt.APIKey) == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}
	if _, err := url.ParseRequestURI(yt.BaseURL); err != nil {
		return fmt.Errorf("YOUTUBE_BASE_URL is not a valid URL: %w", err)
	}
	if yt.BatchSize < 1 || yt.BatchSize > maxYouTubeBatch {
		return fmt.Errorf("YOUTUBE_BATCH_SIZE must be between 1 and %d", maxYouTubeBatch)
	}
	if yt.MaxConcurrentBatches < 1 {
		return fmt.Errorf("YOUTUBE_MAX_CONCURRENT_BATCHES must be at least 1")
	}
	if yt.RequestsPerSecond <= 0 || yt.Burst < 1 {
		return fmt.Errorf("YOUTUBE_REQUESTS_PER_SECOND and YOUTUBE_BURST must be positive")
	}
	if yt.MaxRetries < 0 {
		return fmt.Errorf("YOUTUBE_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) validateBias() error {
	if c.Bias.Path == "" {
		return fmt.Errorf("TOURNESOL_CSV is required")
	}
	if c.Bias.Criterion == "" {
		return fmt.Errorf("TOURNESOL_CRITERION must not be empty")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultCount < 1 || r.DefaultCount > r.MaxCount {
		return fmt.Errorf("RECOMMEND_DEFAULT_COUNT must be between 1 and RECOMMEND_MAX_COUNT (%d)", r.MaxCount)
	}
	if r.ScoreConcurrency < 1 {
		return fmt.Errorf("RECOMMEND_SCORE_CONCURRENCY must be at least 1")
	}
	if r.LambdaG < 0 || r.LambdaU < 0 || r.LambdaA < 0 {
		return fmt.Errorf("RECOMMEND_LAMBDA_G, RECOMMEND_LAMBDA_U and RECOMMEND_LAMBDA_A must not be negative")
	}
	if r.DefaultUser == "" || r.FallbackUser == "" {
		return fmt.Errorf("RECOMMEND_DEFAULT_USER and RECOMMEND_FALLBACK_USER must not be empty")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.LRUCapacity < 1 {
		return fmt.Errorf("CACHE_LRU_CAPACITY must be at least 1")
	}
	if c.Cache.RedisEnabled() {
		if !strings.HasPrefix(c.Cache.RedisURL, "redis://") && !strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
			return fmt.Errorf("REDIS_URL must use the redis:// or rediss:// scheme")
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := c.Events
	switch e.Transport {
	case TransportGoChannel:
	case TransportNATS:
		if e.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_TRANSPORT=nats")
		}
		if e.EmbeddedServer && e.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
		}
		if e.SubscribersCount < 1 {
			return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
		}
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: %s, %s", TransportGoChannel, TransportNATS)
	}
	if e.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC must not be empty")
	}
	if e.RetryCount < 0 {
		return fmt.Errorf("EVENTS_RETRY_COUNT must not be negative")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
