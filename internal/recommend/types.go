// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/tomtom215/helios/internal/bias"
	"github.com/tomtom215/helios/internal/models"
)

// ErrInvalidParameter is returned for structurally invalid requests:
// negative counts or negative or non-finite weights.
var ErrInvalidParameter = errors.New("recommend: invalid parameter")

// ScoreParams are the caller's weights and content filters for one request.
// The JSON names follow the public API.
type ScoreParams struct {
	LambdaG         float64  `json:"lG"`
	LambdaU         float64  `json:"lU"`
	LambdaA         float64  `json:"lA"`
	AllowSensitive  bool     `json:"allow_sensitive"`
	StrictChildMode bool     `json:"strict_child_mode"`
	ContentLanguage []string `json:"content_language"`
}

// DefaultScoreParams weights every component equally, hides sensitive
// videos and applies no child or language restriction.
func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		LambdaG:         1,
		LambdaU:         1,
		LambdaA:         1,
		AllowSensitive:  false,
		StrictChildMode: false,
		ContentLanguage: []string{},
	}
}

// Validate rejects negative and non-finite weights.
func (p *ScoreParams) Validate() error {
	weights := []struct {
		name string
		w    float64
	}{{"lG", p.LambdaG}, {"lU", p.LambdaU}, {"lA", p.LambdaA}}
	for _, w := range weights {
		if w.w < 0 || math.IsNaN(w.w) || math.IsInf(w.w, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidParameter, w.name, w.w)
		}
	}
	return nil
}

// AcceptsLanguage reports whether lang passes the language filter.
func (p *ScoreParams) AcceptsLanguage(lang string) bool {
	return len(p.ContentLanguage) == 0 || slices.Contains(p.ContentLanguage, lang)
}

// VideoScore is the breakdown of one video's score.
type VideoScore struct {
	PlatformPerformance       Signal  `json:"platform_performance"`
	PredictedAppreciation     Signal  `json:"predicted_appreciation"`
	TournesolRecommendability Signal  `json:"tournesol_recommendability"`
	Score                     float64 `json:"score"`
}

// VideoData pairs a video with its score; it is the unit returned to callers.
type VideoData struct {
	Video  models.Video `json:"video"`
	Scores VideoScore   `json:"scores"`
}

// PlatformSignal supplies the platform performance component (G).
// Implementations return Unavailable when they have no data for a video.
type PlatformSignal interface {
	Performance(ctx context.Context, video *models.Video) Signal
}

// ConstantPlatform returns the same performance for every video.
type ConstantPlatform float64

// DefaultPlatform is the placeholder performance used until a real
// engagement signal is wired in.
const DefaultPlatform ConstantPlatform = 0.5

// Performance implements PlatformSignal.
func (c ConstantPlatform) Performance(context.Context, *models.Video) Signal {
	return Available(float64(c))
}

// BiasSource supplies the external recommendability entries (U).
// *bias.Table satisfies it.
type BiasSource interface {
	Lookup(videoID string) (bias.Entry, bool)
}

// VideoFetcher resolves video ids to metadata. Ids that could not be
// resolved are simply absent from the returned map; a non-nil error means
// the whole call failed.
type VideoFetcher interface {
	FetchVideos(ctx context.Context, ids []string) (map[string]models.Video, error)
}
