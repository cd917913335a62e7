// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/store"
)

const historyHandlerName = "watch-history"

// HistoryWriter persists watched videos. Implemented by store.UserStore.
type HistoryWriter interface {
	AppendHistory(ctx context.Context, username string, entry models.HistoryEntry) error
}

// Router consumes watch events and appends them to user history.
type Router struct {
	router *message.Router
	writer HistoryWriter
	logger watermill.LoggerAdapter
}

// NewRouter wires the history handler onto bus.
//
// Middleware runs outer to inner: the poison queue catches what is still
// failing once retries are exhausted, and the recoverer turns handler
// panics into errors the retry can see.
func NewRouter(cfg *config.EventsConfig, bus *Bus, writer HistoryWriter, logger watermill.LoggerAdapter) (*Router, error) {
	if writer == nil {
		return nil, errors.New("events: history writer is required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.RouterCloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	if cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(bus.Publisher(), cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInterval,
		MaxInterval:     10 * cfg.RetryInterval,
		Multiplier:      2.0,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware, middleware.Recoverer)

	r := &Router{router: wmRouter, writer: writer, logger: logger}
	wmRouter.AddConsumerHandler(historyHandlerName, bus.Topic(), bus.Subscriber(), r.handleWatch)
	return r, nil
}

// handleWatch applies one event. Malformed events and unknown users are
// acked and dropped since redelivery cannot fix them.
func (r *Router) handleWatch(msg *message.Message) error {
	e, err := UnmarshalWatchEvent(msg.Payload)
	if err != nil {
		metrics.WatchEventsProcessed.WithLabelValues("malformed").Inc()
		r.logger.Error("Dropping malformed watch event", err, watermill.LogFields{"message_uuid": msg.UUID})
		return nil
	}

	err = r.writer.AppendHistory(msg.Context(), e.Username, e.HistoryEntry())
	switch {
	case err == nil:
		metrics.WatchEventsProcessed.WithLabelValues("applied").Inc()
		return nil
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrInvalidUsername):
		metrics.WatchEventsProcessed.WithLabelValues("malformed").Inc()
		r.logger.Info("Dropping watch event for unknown user", watermill.LogFields{
			"event_id": e.EventID,
			"username": e.Username,
		})
		return nil
	default:
		metrics.WatchEventsProcessed.WithLabelValues("failed").Inc()
		return fmt.Errorf("append history for %s: %w", e.Username, err)
	}
}

// Run blocks until ctx is canceled or the router stops.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router has started.
func (r *Router) IsRunning() bool {
	return r.router.IsRunning()
}

// Close stops the router, waiting up to the configured close timeout.
func (r *Router) Close() error {
	return r.router.Close()
}

// WaitRunning waits for the router to start or for timeout to pass.
func (r *Router) WaitRunning(timeout time.Duration) bool {
	select {
	case <-r.Running():
		return true
	case <-time.After(timeout):
		return false
	}
}
