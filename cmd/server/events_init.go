// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/events"
	"github.com/tomtom215/helios/internal/logging"
	"github.com/tomtom215/helios/internal/supervisor"
	"github.com/tomtom215/helios/internal/supervisor/services"
)

// eventsComponents holds the watch event bus and the optional embedded
// NATS server behind it.
type eventsComponents struct {
	cfg    *config.EventsConfig
	server *events.EmbeddedServer
	bus    *events.Bus
}

// initEvents starts the embedded NATS server when configured and connects
// the bus. The server must accept connections before the bus dials it, so
// it starts here rather than inside the supervisor tree.
func initEvents(cfg *config.EventsConfig) (*eventsComponents, error) {
	c := &eventsComponents{cfg: cfg}

	if cfg.UsesNATS() && cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		c.server = srv
		cfg.NATSURL = srv.ClientURL()
		logging.Info().
			Str("url", cfg.NATSURL).
			Bool("jetstream", srv.JetStreamEnabled()).
			Msg("Embedded NATS server started")
	}

	bus, err := events.NewBus(cfg, logging.NewWatermillLogger("event-bus"))
	if err != nil {
		if c.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.server.Shutdown(ctx)
			cancel()
		}
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	c.bus = bus

	logging.Info().
		Str("transport", bus.Transport()).
		Str("topic", bus.Topic()).
		Msg("Event bus initialized")
	return c, nil
}

// addServices registers the event consumer and the embedded server with
// the messaging layer.
func (c *eventsComponents) addServices(tree *supervisor.Tree, writer events.HistoryWriter, shutdownTimeout time.Duration) {
	if c.server != nil {
		tree.Add(supervisor.LayerMessaging, services.NewNATSServerService(c.server, shutdownTimeout))
	}

	logger := logging.NewWatermillLogger("event-router")
	tree.Add(supervisor.LayerMessaging, services.NewEventRouterService(func() (services.RouterRunner, error) {
		return events.NewRouter(c.cfg, c.bus, writer, logger)
	}))
}

// close shuts the bus down. The embedded server is stopped by its service.
func (c *eventsComponents) close() {
	if err := c.bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event bus")
	}
}
