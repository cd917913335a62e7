// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/recommend/sample"
)

// Engine fetches, filters, scores and ranks candidate videos.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	fetcher VideoFetcher
	scorer  *Scorer
	sampler *sample.Sampler

	requestCount atomic.Int64
	fetchErrors  atomic.Int64
	errorCount   atomic.Int64
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	FetchErrors int64 `json:"fetch_errors"`
	Errors      int64 `json:"errors"`
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, fetcher VideoFetcher, scorer *Scorer, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", ErrInvalidParameter)
	}
	if scorer == nil {
		scorer = NewScorer(nil, nil)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Engine{
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		fetcher: fetcher,
		scorer:  scorer,
		sampler: sample.NewSampler(seed),
	}, nil
}

// Recommend returns at most n scored videos from ids, best first.
//
// A failed metadata fetch is logged and treated as an empty candidate set.
// Errors are returned only for an invalid n or params and for ctx
// cancellation. The result is never nil.
//
//nolint:gocritic // hugeParam: params passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, ids []string, n int, user *models.User, params ScoreParams) (result []VideoData, err error) {
	start := time.Now()
	e.requestCount.Add(1)
	defer func() {
		if err != nil {
			e.errorCount.Add(1)
		}
		metrics.RecordRecommendation(len(result), time.Since(start), err)
	}()

	if n < 0 {
		return nil, fmt.Errorf("%w: n=%d must not be negative", ErrInvalidParameter, n)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if user == nil {
		empty := models.NewUser("")
		user = &empty
	}

	logger := e.logger.With().
		Str("username", user.Username).
		Int("ids", len(ids)).
		Int("n", n).
		Logger()

	ids = dedupe(ids)
	if n == 0 || len(ids) == 0 {
		return []VideoData{}, nil
	}

	videos, fetchErr := e.fetcher.FetchVideos(ctx, ids)
	if fetchErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.fetchErrors.Add(1)
		logger.Warn().Err(fetchErr).Msg("video fetch failed, returning no candidates")
		return []VideoData{}, nil
	}

	candidates := make([]models.Video, 0, len(videos))
	for _, id := range ids {
		if v, ok := videos[id]; ok {
			candidates = append(candidates, v)
		}
	}
	if missing := len(ids) - len(candidates); missing > 0 {
		logger.Debug().Int("missing", missing).Msg("some videos were not returned by the fetcher")
	}
	candidates = filterCandidates(candidates, &params)
	if len(candidates) == 0 {
		logger.Debug().Msg("no candidates after filtering")
		return []VideoData{}, nil
	}

	scored, err := e.scoreAll(ctx, candidates, user, params)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(scored, func(a, b VideoData) int {
		return cmp.Compare(b.Scores.Score, a.Scores.Score)
	})
	if len(scored) > n {
		scored = scored[:n]
	}

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(scored)).
		Dur("latency", time.Since(start)).
		Msg("recommendation complete")

	return scored, nil
}

// RecommendFromPool samples min(n, len(pool)) ids from pool with the
// default boundary and recommends among them.
//
//nolint:gocritic // hugeParam: params passed by value for immutability
func (e *Engine) RecommendFromPool(ctx context.Context, pool []string, n int, user *models.User, params ScoreParams) ([]VideoData, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n=%d must not be negative", ErrInvalidParameter, n)
	}
	ids, err := e.sampler.Strings(pool, min(n, len(pool)))
	if err != nil {
		return nil, fmt.Errorf("sample candidates: %w", err)
	}
	return e.Recommend(ctx, ids, n, user, params)
}

// Stats returns the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:    e.requestCount.Load(),
		FetchErrors: e.fetchErrors.Load(),
		Errors:      e.errorCount.Load(),
	}
}

// scoreAll scores every candidate with bounded parallelism. The output keeps
// the candidate order so the later stable sort breaks ties by input order.
//
//nolint:gocritic // hugeParam: params passed by value for immutability
func (e *Engine) scoreAll(ctx context.Context, candidates []models.Video, user *models.User, params ScoreParams) ([]VideoData, error) {
	scored := make([]VideoData, len(candidates))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.config.ScoreConcurrency)
	for i := range candidates {
		eg.Go(func() error {
			video := &candidates[i]
			s, err := e.scorer.Score(egCtx, video, user, params)
			if err != nil {
				return err
			}
			scored[i] = VideoData{Video: *video, Scores: s}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// filterCandidates applies the child mode, sensitivity and language filters
// in that order.
func filterCandidates(videos []models.Video, params *ScoreParams) []models.Video {
	out := videos[:0:0]
	for i := range videos {
		v := &videos[i]
		switch {
		case params.StrictChildMode && !v.Childish:
			metrics.CandidatesFiltered.WithLabelValues("child_mode").Inc()
		case !params.AllowSensitive && v.Sensitive:
			metrics.CandidatesFiltered.WithLabelValues("sensitive").Inc()
		case !params.AcceptsLanguage(v.Language):
			metrics.CandidatesFiltered.WithLabelValues("language").Inc()
		default:
			out = append(out, *v)
		}
	}
	return out
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
