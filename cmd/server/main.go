// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/helios/internal/api"
	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/logging"
	"github.com/tomtom215/helios/internal/store"
	"github.com/tomtom215/helios/internal/supervisor"
	"github.com/tomtom215/helios/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().Msg("Starting Helios with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec, err := initRecommend(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	defer rec.close()

	users, err := store.Open(ctx, &cfg.Store, logging.Logger())
	if err != nil {
		rec.close()
		logging.Fatal().Err(err).Msg("Failed to open user store")
	}
	defer func() {
		if err := users.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing user store")
		}
	}()

	ev, err := initEvents(&cfg.Events)
	if err != nil {
		_ = users.Close()
		rec.close()
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer ev.close()

	handler, err := api.NewHandler(cfg, api.Deps{
		Engine: rec.engine,
		Users:  users,
		Events: ev.bus,
		Pool:   rec.pool,
		Bias:   rec.bias,
		Cache:  rec.videos,
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API handler")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, handler).Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), treeCfg)

	// Data layer
	tree.Add(supervisor.LayerData, services.NewCacheJanitorService(rec.videos, cfg.Cache.LRUTTL))

	// Messaging layer
	ev.addServices(tree, users, cfg.Server.ShutdownTimeout)

	// API layer
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
