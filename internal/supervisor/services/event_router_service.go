// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package services

import (
	"context"
	"fmt"
)

// RouterRunner runs a message router until ctx ends.
type RouterRunner interface {
	Run(ctx context.Context) error
}

// RouterFactory builds a fresh router. Watermill routers cannot be run
// again once closed, so every restart needs a new one.
type RouterFactory func() (RouterRunner, error)

// EventRouterService runs the watch event consumer.
type EventRouterService struct {
	newRouter RouterFactory
}

// NewEventRouterService creates the service.
func NewEventRouterService(newRouter RouterFactory) *EventRouterService {
	return &EventRouterService{newRouter: newRouter}
}

// Serve builds a router and runs it until ctx is canceled.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.newRouter()
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router stopped: %w", err)
	}
	// Run also returns nil when the router is closed from outside.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("event router exited unexpectedly")
}

func (s *EventRouterService) String() string {
	return "event-router"
}
