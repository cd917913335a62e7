// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/helios/internal/logging"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/recommend"
	"github.com/tomtom215/helios/internal/store"
	"github.com/tomtom215/helios/internal/validation"
)

// videosQuery holds the optional score overrides of a recommendation request.
type videosQuery struct {
	Count           int      `validate:"gte=0"`
	Username        string   `validate:"omitempty,username,max=64"`
	LambdaG         *float64 `validate:"omitempty,gte=0,lte=1000"`
	LambdaU         *float64 `validate:"omitempty,gte=0,lte=1000"`
	LambdaA         *float64 `validate:"omitempty,gte=0,lte=1000"`
	AllowSensitive  *bool
	StrictChildMode *bool
	ContentLanguage []string `validate:"omitempty,max=20,dive,min=1,max=16"`
}

// Videos handles GET /api/videos/{n}.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q, err := h.parseVideosQuery(chi.URLParam(r, "n"), r.URL.Query())
	if err != nil {
		rw.ValidationError(err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(q); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	user, err := h.resolveUser(r.Context(), q.Username)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.server.RequestTimeout)
	defer cancel()

	videos, err := h.deps.Engine.RecommendFromPool(ctx, h.deps.Pool.IDs(), q.Count, user, h.scoreParams(q))
	switch {
	case err == nil:
	case errors.Is(err, recommend.ErrInvalidParameter):
		rw.ValidationError(err.Error(), nil)
		return
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Warn().Dur("timeout", h.server.RequestTimeout).Msg("Recommendation timed out")
		rw.ServiceUnavailable("Recommendation timed out")
		return
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Recommendation failed")
		rw.InternalError("Recommendation failed")
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("username", user.Username).
		Int("requested", q.Count).
		Int("returned", len(videos)).
		Msg("Served recommendations")

	rw.SuccessWithCount(videos, len(videos))
}

// parseVideosQuery reads the count and score overrides. A missing, zero or
// non-numeric count means the default count; the result is capped at the
// configured maximum.
func (h *Handler) parseVideosQuery(rawCount string, values url.Values) (*videosQuery, error) {
	q := &videosQuery{Count: h.recommend.DefaultCount}

	if n, err := strconv.Atoi(rawCount); err == nil && n != 0 {
		q.Count = n
	}
	if h.recommend.MaxCount > 0 && q.Count > h.recommend.MaxCount {
		q.Count = h.recommend.MaxCount
	}

	q.Username = values.Get("username")

	var err error
	if q.LambdaG, err = parseFloatParam(values, "lambda_g"); err != nil {
		return nil, err
	}
	if q.LambdaU, err = parseFloatParam(values, "lambda_u"); err != nil {
		return nil, err
	}
	if q.LambdaA, err = parseFloatParam(values, "lambda_a"); err != nil {
		return nil, err
	}
	if q.AllowSensitive, err = parseBoolParam(values, "allow_sensitive"); err != nil {
		return nil, err
	}
	if q.StrictChildMode, err = parseBoolParam(values, "strict_child_mode"); err != nil {
		return nil, err
	}

	if raw := values.Get("content_language"); raw != "" {
		for lang := range strings.SplitSeq(raw, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				q.ContentLanguage = append(q.ContentLanguage, lang)
			}
		}
	}
	return q, nil
}

func parseFloatParam(values url.Values, name string) (*float64, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(name + " must be a number")
	}
	return &v, nil
}

func parseBoolParam(values url.Values, name string) (*bool, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(name + " must be a boolean")
	}
	return &v, nil
}

// scoreParams applies the query overrides to the configured defaults.
func (h *Handler) scoreParams(q *videosQuery) recommend.ScoreParams {
	p := recommend.DefaultScoreParams()
	p.LambdaG = h.recommend.LambdaG
	p.LambdaU = h.recommend.LambdaU
	p.LambdaA = h.recommend.LambdaA

	if q.LambdaG != nil {
		p.LambdaG = *q.LambdaG
	}
	if q.LambdaU != nil {
		p.LambdaU = *q.LambdaU
	}
	if q.LambdaA != nil {
		p.LambdaA = *q.LambdaA
	}
	if q.AllowSensitive != nil {
		p.AllowSensitive = *q.AllowSensitive
	}
	if q.StrictChildMode != nil {
		p.StrictChildMode = *q.StrictChildMode
	}
	if len(q.ContentLanguage) > 0 {
		p.ContentLanguage = q.ContentLanguage
	}
	return p
}

// resolveUser loads the named user, falling back to the configured fallback
// user and then to an empty user. Only store failures are errors.
func (h *Handler) resolveUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		username = h.recommend.DefaultUser
	}

	for _, name := range []string{username, h.recommend.FallbackUser} {
		user, err := h.deps.Users.Get(ctx, name)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
	}

	logging.Ctx(ctx).Warn().
		Str("username", username).
		Str("fallback", h.recommend.FallbackUser).
		Msg("Neither requested nor fallback user exists, scoring for an empty user")
	u := models.NewUser(h.recommend.FallbackUser)
	return &u, nil
}
