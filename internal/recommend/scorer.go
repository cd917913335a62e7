// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package recommend

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/recommend/normalize"
)

const (
	// followBoost is added when the user follows the video's author.
	followBoost = 0.5

	// authorAffinityMax is the most prior videos from one author contribute,
	// reached at authorAffinitySaturation videos.
	authorAffinityMax        = 0.5
	authorAffinitySaturation = 3

	// seenPenalty dampens videos the user has already watched.
	seenPenalty = 0.2

	// biasScale maps the stored [-100, 100] recommendability onto [-1, 1].
	biasScale = 100
)

// Scorer computes the component scores and the weighted aggregate for a
// video. It holds only read-only collaborators and is safe for concurrent use.
type Scorer struct {
	platform PlatformSignal
	bias     BiasSource
}

// NewScorer builds a Scorer. A nil platform uses DefaultPlatform; a nil bias
// source makes U unavailable for every video.
func NewScorer(platform PlatformSignal, source BiasSource) *Scorer {
	if platform == nil {
		platform = DefaultPlatform
	}
	return &Scorer{platform: platform, bias: source}
}

// G returns the platform performance component.
func (s *Scorer) G(ctx context.Context, video *models.Video) Signal {
	sig := s.platform.Performance(ctx, video)
	if v, ok := sig.Value(); ok {
		return Available(normalize.ClampUnit(v))
	}
	return sig
}

// U returns the external recommendability component. Missing entries and
// non-positive scores are unavailable.
func (s *Scorer) U(video *models.Video) Signal {
	if s.bias == nil {
		return Unavailable()
	}
	entry, ok := s.bias.Lookup(video.ID)
	if !ok || !(entry.Score > 0) || math.IsInf(entry.Score, 0) {
		return Unavailable()
	}
	return Available(normalize.ClampUnit(entry.Score / biasScale))
}

// A returns the predicted appreciation of video by user. It is unavailable
// when the user follows nobody and has watched nothing.
func (s *Scorer) A(video *models.Video, user *models.User) Signal {
	if !user.HasActivity() {
		return Unavailable()
	}

	proba := 0.0
	if user.Follows(video.Author) {
		proba += followBoost
	}

	affinity, err := normalize.MinMax(
		float64(user.PriorVideosBy(video.Author, video.ID)),
		0, authorAffinitySaturation,
		normalize.WithRange(0, authorAffinityMax),
	)
	if err == nil {
		proba += affinity
	}

	if video.IsSeenBy(user) {
		proba *= seenPenalty
	}

	return Available(normalize.ClampUnit(proba))
}

// Score runs G, A and U concurrently, waits for all three, then aggregates
// them with params' weights. The only error is ctx cancellation.
//
//nolint:gocritic // hugeParam: params passed by value for immutability
func (s *Scorer) Score(ctx context.Context, video *models.Video, user *models.User, params ScoreParams) (VideoScore, error) {
	var g, a, u Signal

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := egCtx.Err(); err != nil {
			return err
		}
		g = s.G(egCtx, video)
		return nil
	})
	eg.Go(func() error {
		if err := egCtx.Err(); err != nil {
			return err
		}
		a = s.A(video, user)
		return nil
	})
	eg.Go(func() error {
		if err := egCtx.Err(); err != nil {
			return err
		}
		u = s.U(video)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return VideoScore{}, err
	}

	recordUnavailable(g, a, u)

	score := VideoScore{
		PlatformPerformance:       g,
		PredictedAppreciation:     a,
		TournesolRecommendability: u,
		Score:                     Aggregate(params, g, u, a),
	}
	metrics.AggregateScore.Observe(score.Score)
	return score, nil
}

// Aggregate combines the three components. Weights of unavailable
// components are zeroed in a copy; a component contributes only when its
// configured weight is positive and it is available. The sum is rescaled
// from [0, total of zeroed weights] onto [0, 1], and is 0 when that total
// is 0.
//
//nolint:gocritic // hugeParam: params passed by value for immutability
func Aggregate(params ScoreParams, g, u, a Signal) float64 {
	components := [3]struct {
		weight float64
		signal Signal
	}{
		{params.LambdaG, g},
		{params.LambdaU, u},
		{params.LambdaA, a},
	}

	var acc, total float64
	for _, c := range components {
		effective := c.weight
		if !c.signal.IsAvailable() {
			effective = 0
		}
		total += effective

		if v, ok := c.signal.Value(); ok && c.weight > 0 {
			acc += effective * v
		}
	}

	if !(total > 0) {
		return 0
	}
	scaled, err := normalize.MinMax(acc, 0, total)
	if err != nil {
		return 0
	}
	return scaled
}

func recordUnavailable(g, a, u Signal) {
	if !g.IsAvailable() {
		metrics.ComponentUnavailable.WithLabelValues("g").Inc()
	}
	if !a.IsAvailable() {
		metrics.ComponentUnavailable.WithLabelValues("a").Inc()
	}
	if !u.IsAvailable() {
		metrics.ComponentUnavailable.WithLabelValues("u").Inc()
	}
}
