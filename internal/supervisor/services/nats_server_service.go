// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package services

import (
	"context"
	"fmt"
	"time"
)

// Shutdowner stops a component that was started elsewhere.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// NATSServerService owns the shutdown of the embedded NATS server. The
// server is started before the tree because the event bus needs its URL.
type NATSServerService struct {
	server          Shutdowner
	shutdownTimeout time.Duration
}

// NewNATSServerService wraps an already running server.
func NewNATSServerService(server Shutdowner, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve waits for ctx to end and shuts the server down.
func (s *NATSServerService) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("nats server shutdown: %w", err)
	}
	return ctx.Err()
}

func (s *NATSServerService) String() string {
	return "nats-server"
}
