// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/helios/config.yaml",
	"/etc/helios/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		YouTube: YouTubeConfig{
			APIKey:               "",
			BaseURL:              "https://www.googleapis.com/youtube/v3",
			Timeout:              10 * time.Second,
			BatchSize:            50,
			MaxConcurrentBatches: 4,
			RequestsPerSecond:    10,
			Burst:                20,
			MaxRetries:           3,
		},
		Bias: BiasConfig{
			Path:      "assets/tournesol.csv",
			Criterion: "largely_recommended",
		},
		Catalog: CatalogConfig{
			Path: "assets/videos.txt",
		},
		Recommend: RecommendConfig{
			DefaultCount:     50,
			MaxCount:         200,
			Seed:             42,
			ScoreConcurrency: 16,
			LambdaG:          1,
			LambdaU:          1,
			LambdaA:          1,
			DefaultUser:      "dev",
			FallbackUser:     "guest",
		},
		Cache: CacheConfig{
			LRUCapacity: 5000,
			LRUTTL:      30 * time.Minute,
			RedisURL:    "", // shared tier disabled unless configured
			RedisTTL:    6 * time.Hour,
		},
		Store: StoreConfig{
			Path:             "/data/helios/users",
			InMemory:         false,
			SeedDefaultUsers: true,
		},
		Events: EventsConfig{
			Transport:          TransportGoChannel,
			NATSURL:            "nats://127.0.0.1:4222",
			EmbeddedServer:     false,
			StoreDir:           "/data/helios/nats",
			MaxMemory:          256 << 20, // 256MB
			MaxStore:           1 << 30,   // 1GB
			Topic:              "helios_watch",
			DurableName:        "helios-history",
			QueueGroup:         "history-writers",
			SubscribersCount:   2,
			RetryCount:         3,
			RetryInterval:      100 * time.Millisecond,
			PoisonQueueTopic:   "helios_watch_poison",
			RouterCloseTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with the precedence ENV > file > defaults
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as
// plain strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names onto koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"port":                  "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_request_timeout":  "server.request_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// YouTube Data API
	"youtube_api_key":                "youtube.api_key",
	"key":                            "youtube.api_key",
	"youtube_base_url":               "youtube.base_url",
	"youtube_timeout":                "youtube.timeout",
	"youtube_batch_size":             "youtube.batch_size",
	"youtube_max_concurrent_batches": "youtube.max_concurrent_batches",
	"youtube_requests_per_second":    "youtube.requests_per_second",
	"youtube_burst":                  "youtube.burst",
	"youtube_max_retries":            "youtube.max_retries",

	// Bias table and candidate pool
	"tournesol_csv":       "bias.path",
	"tournesol_criterion": "bias.criterion",
	"videos_path":         "catalog.path",

	// Recommendation engine
	"recommend_default_count":     "recommend.default_count",
	"recommend_max_count":         "recommend.max_count",
	"recommend_seed":              "recommend.seed",
	"recommend_score_concurrency": "recommend.score_concurrency",
	"recommend_lambda_g":          "recommend.lambda_g",
	"recommend_lambda_u":          "recommend.lambda_u",
	"recommend_lambda_a":          "recommend.lambda_a",
	"recommend_default_user":      "recommend.default_user",
	"recommend_fallback_user":     "recommend.fallback_user",

	// Caches
	"cache_lru_capacity": "cache.lru_capacity",
	"cache_lru_ttl":      "cache.lru_ttl",
	"redis_url":          "cache.redis_url",
	"redis_ttl":          "cache.redis_ttl",

	// User store
	"badger_path":        "store.path",
	"badger_in_memory":   "store.in_memory",
	"seed_default_users": "store.seed_default_users",

	// Watch events
	"events_transport":       "events.transport",
	"nats_url":               "events.nats_url",
	"nats_embedded":          "events.embedded_server",
	"nats_store_dir":         "events.store_dir",
	"nats_max_memory":        "events.max_memory",
	"nats_max_store":         "events.max_store",
	"events_topic":           "events.topic",
	"nats_durable_name":      "events.durable_name",
	"nats_queue_group":       "events.queue_group",
	"nats_subscribers":       "events.subscribers_count",
	"events_retry_count":     "events.retry_count",
	"events_retry_interval":  "events.retry_interval",
	"events_poison_topic":    "events.poison_queue_topic",
	"events_router_shutdown": "events.router_close_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped names return "" so koanf skips them.
//
//   - YOUTUBE_API_KEY -> youtube.api_key
//   - HTTP_PORT -> server.port
//   - REDIS_URL -> cache.redis_url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
