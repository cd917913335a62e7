// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package config loads Helios configuration from layered sources:
// built-in defaults, an optional YAML file, then environment variables.
//
// Environment variables use the historical flat names (YOUTUBE_API_KEY,
// HTTP_PORT, REDIS_URL, ...) and are mapped onto the nested koanf keys by
// envTransformFunc. Variables that are not in the mapping table are ignored.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	YouTube   YouTubeConfig   `koanf:"youtube"`
	Bias      BiasConfig      `koanf:"bias"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	Store     StoreConfig     `koanf:"store"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"` // upper bound for one recommendation request
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// YouTubeConfig holds YouTube Data API v3 client settings.
type YouTubeConfig struct {
	APIKey               string        `koanf:"api_key"`
	BaseURL              string        `koanf:"base_url"`
	Timeout              time.Duration `koanf:"timeout"`
	BatchSize            int           `koanf:"batch_size"` // ids per videos.list call, API maximum is 50
	MaxConcurrentBatches int           `koanf:"max_concurrent_batches"`
	RequestsPerSecond    float64       `koanf:"requests_per_second"`
	Burst                int           `koanf:"burst"`
	MaxRetries           int           `koanf:"max_retries"`
}

// BiasConfig points at the Tournesol CSV export.
type BiasConfig struct {
	Path      string `koanf:"path"`
	Criterion string `koanf:"criterion"`
}

// CatalogConfig points at the newline-delimited candidate id file.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// RecommendConfig holds engine settings and the service-wide score defaults.
type RecommendConfig struct {
	DefaultCount     int     `koanf:"default_count"`
	MaxCount         int     `koanf:"max_count"`
	Seed             int64   `koanf:"seed"`
	ScoreConcurrency int     `koanf:"score_concurrency"`
	LambdaG          float64 `koanf:"lambda_g"`
	LambdaU          float64 `koanf:"lambda_u"`
	LambdaA          float64 `koanf:"lambda_a"`
	DefaultUser      string  `koanf:"default_user"`
	FallbackUser     string  `koanf:"fallback_user"`
}

// CacheConfig configures the two video metadata cache tiers. An empty
// RedisURL disables the shared tier.
type CacheConfig struct {
	LRUCapacity int           `koanf:"lru_capacity"`
	LRUTTL      time.Duration `koanf:"lru_ttl"`
	RedisURL    string        `koanf:"redis_url"`
	RedisTTL    time.Duration `koanf:"redis_ttl"`
}

// StoreConfig configures the Badger user store.
type StoreConfig struct {
	Path             string `koanf:"path"`
	InMemory         bool   `koanf:"in_memory"`
	SeedDefaultUsers bool   `koanf:"seed_default_users"`
}

// EventsConfig configures the watch event bus.
type EventsConfig struct {
	// Transport is "gochannel" (in-process) or "nats" (JetStream).
	Transport          string        `koanf:"transport"`
	NATSURL            string        `koanf:"nats_url"`
	EmbeddedServer     bool          `koanf:"embedded_server"`
	StoreDir           string        `koanf:"store_dir"`
	MaxMemory          int64         `koanf:"max_memory"`
	MaxStore           int64         `koanf:"max_store"`
	Topic              string        `koanf:"topic"`
	DurableName        string        `koanf:"durable_name"`
	QueueGroup         string        `koanf:"queue_group"`
	SubscribersCount   int           `koanf:"subscribers_count"`
	RetryCount         int           `koanf:"retry_count"`
	RetryInterval      time.Duration `koanf:"retry_interval"`
	PoisonQueueTopic   string        `koanf:"poison_queue_topic"`
	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RedisEnabled reports whether the shared cache tier is configured.
func (c CacheConfig) RedisEnabled() bool {
	return c.RedisURL != ""
}

// UsesNATS reports whether watch events travel over NATS JetStream.
func (e EventsConfig) UsesNATS() bool {
	return e.Transport == TransportNATS
}

// Event transports.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)
