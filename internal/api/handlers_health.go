// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package api

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// HealthStatus is the readiness body.
type HealthStatus struct {
	Ready          bool    `json:"ready"`
	StoreConnected bool    `json:"store_connected"`
	CacheConnected *bool   `json:"cache_connected,omitempty"`
	BiasEntries    int     `json:"bias_entries"`
	Candidates     int     `json:"candidates"`
	Uptime         float64 `json:"uptime"`
}

// HealthLive handles GET /api/health/live. It succeeds while the process
// can serve requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/health/ready. The user store must answer;
// the shared cache is reported but never blocks readiness since the
// service runs without it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := HealthStatus{
		StoreConnected: h.deps.Users.Ping(ctx) == nil,
		Candidates:     h.deps.Pool.Len(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if h.deps.Bias != nil {
		status.BiasEntries = h.deps.Bias.Len()
	}
	if h.deps.Cache != nil {
		ok := h.deps.Cache.Ping(ctx) == nil
		status.CacheConnected = &ok
	}
	status.Ready = status.StoreConnected

	if !status.Ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", status)
		return
	}
	rw.Success(status)
}
