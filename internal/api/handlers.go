// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package api

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/events"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/recommend"
)

// Recommender produces ranked recommendations. Implemented by
// recommend.Engine.
type Recommender interface {
	RecommendFromPool(ctx context.Context, pool []string, n int, user *models.User, params recommend.ScoreParams) ([]recommend.VideoData, error)
}

// UserStore is the subset of store.UserStore the handlers use.
type UserStore interface {
	Get(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, username string) (bool, error)
	Follow(ctx context.Context, username, author string) error
	Unfollow(ctx context.Context, username, author string) error
	Ping(ctx context.Context) error
}

// WatchPublisher publishes watch events. Implemented by events.Bus.
type WatchPublisher interface {
	PublishWatch(ctx context.Context, e *events.WatchEvent) error
}

// CandidatePool supplies candidate video ids. Implemented by catalog.Pool.
type CandidatePool interface {
	IDs() []string
	Len() int
}

// BiasInfo reports the size of the loaded bias table.
type BiasInfo interface {
	Len() int
}

// Pinger is an optional readiness dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handler dependencies. Cache may be nil.
type Deps struct {
	Engine Recommender
	Users  UserStore
	Events WatchPublisher
	Pool   CandidatePool
	Bias   BiasInfo
	Cache  Pinger
}

// Handler serves the API routes.
type Handler struct {
	deps      Deps
	server    config.ServerConfig
	recommend config.RecommendConfig
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler validates deps and creates a Handler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(cfg *config.Config, deps Deps, logger zerolog.Logger) (*Handler, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("api: config is required")
	case deps.Engine == nil:
		return nil, errors.New("api: recommender is required")
	case deps.Users == nil:
		return nil, errors.New("api: user store is required")
	case deps.Events == nil:
		return nil, errors.New("api: watch publisher is required")
	case deps.Pool == nil:
		return nil, errors.New("api: candidate pool is required")
	}

	return &Handler{
		deps:      deps,
		server:    cfg.Server,
		recommend: cfg.Recommend,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}, nil
}
