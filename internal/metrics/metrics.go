// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package metrics holds the Prometheus collectors for Helios. Collectors are
// registered on the default registry at package init and served by the API
// router on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_recommend_requests_total",
			Help: "Total number of recommendation runs by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helios_recommend_duration_seconds",
			Help:    "End-to-end duration of a recommendation run",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_candidates_filtered_total",
			Help: "Candidates dropped by content filters",
		},
		[]string{"filter"}, // "child_mode", "sensitive", "language", "missing"
	)

	ComponentUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_score_component_unavailable_total",
			Help: "Score components that had no data and were dropped from the weighting",
		},
		[]string{"component"}, // "g", "u", "a"
	)

	AggregateScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helios_aggregate_score",
			Help:    "Distribution of aggregate video scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// Upstream Metadata Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_upstream_requests_total",
			Help: "Requests to the video metadata API",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helios_upstream_request_duration_seconds",
			Help:    "Latency of video metadata API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	VideosNotFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "helios_upstream_videos_not_found_total",
			Help: "Requested video ids the metadata API did not return",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_cache_hits_total",
			Help: "Video metadata cache hits by tier",
		},
		[]string{"tier"}, // "lru", "redis"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_cache_misses_total",
			Help: "Video metadata cache misses by tier",
		},
		[]string{"tier"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helios_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "helios_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Watch Event Metrics
	WatchEventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "helios_watch_events_published_total",
			Help: "Watch events published to the event bus",
		},
	)

	WatchEventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_watch_events_processed_total",
			Help: "Watch events consumed by the history writer",
		},
		[]string{"result"}, // "applied", "malformed", "failed"
	)

	// Store Metrics
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helios_users_total",
			Help: "Users in the user store",
		},
	)

	BiasEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helios_bias_table_entries",
			Help: "Entries loaded into the recommendability bias table",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records the outcome of one recommendation run.
func RecordRecommendation(results int, duration time.Duration, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "empty"
	}
	RecommendRequests.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordUpstreamRequest records a metadata API call.
func RecordUpstreamRequest(endpoint, status string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, status).Inc()
	UpstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a hit or miss on a cache tier.
func RecordCacheLookup(tier string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(tier).Inc()
		return
	}
	CacheMisses.WithLabelValues(tier).Inc()
}
