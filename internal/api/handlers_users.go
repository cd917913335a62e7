// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/helios/internal/events"
	"github.com/tomtom215/helios/internal/logging"
	"github.com/tomtom215/helios/internal/store"
	"github.com/tomtom215/helios/internal/validation"
)

const maxBodyBytes = 64 << 10

type usernameParam struct {
	Username string `validate:"required,username,max=64"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,username,max=64"`
}

type watchRequest struct {
	Username string `json:"-" validate:"required,username,max=64"`
	VideoID  string `json:"video_id" validate:"required,videoid"`
	Author   string `json:"author" validate:"max=200"`
}

type followRequest struct {
	Username string `validate:"required,username,max=64"`
	Author   string `validate:"required,max=200"`
}

// validate writes a 400 and returns false when s fails validation.
func validate(rw *ResponseWriter, s any) bool {
	if verr := validation.ValidateStruct(s); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// decodeBody decodes a bounded JSON body into dst.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

// Users handles GET /api/users.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	users, err := h.deps.Users.List(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithCount(users, len(users))
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if !validate(rw, &req) {
		return
	}

	created, err := h.deps.Users.Create(r.Context(), req.Username)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if !created {
		rw.Conflict("User already exists")
		return
	}

	user, err := h.deps.Users.Get(r.Context(), req.Username)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("username", req.Username).Msg("User created")
	rw.Created(user)
}

// User handles GET /api/user/{username}.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	p := usernameParam{Username: chi.URLParam(r, "username")}
	if !validate(rw, &p) {
		return
	}

	user, err := h.deps.Users.Get(r.Context(), p.Username)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		rw.NotFound("User not found")
	case err != nil:
		rw.DatabaseError(err)
	default:
		rw.Success(user)
	}
}

// Watch handles POST /api/user/{username}/watch. The history update is
// applied asynchronously by the event consumer.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req watchRequest
	if err := decodeBody(r, &req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	req.Username = chi.URLParam(r, "username")
	if !validate(rw, &req) {
		return
	}

	if _, err := h.deps.Users.Get(r.Context(), req.Username); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			rw.NotFound("User not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	event := events.NewWatchEvent(req.Username, req.VideoID, req.Author)
	if err := h.deps.Events.PublishWatch(r.Context(), event); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("event_id", event.EventID).Msg("Failed to publish watch event")
		rw.ServiceUnavailable("Event bus unavailable")
		return
	}

	rw.Accepted(map[string]string{"event_id": event.EventID})
}

// Follow handles PUT /api/user/{username}/following/{author}.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	h.updateFollowing(w, r, h.deps.Users.Follow)
}

// Unfollow handles DELETE /api/user/{username}/following/{author}.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.updateFollowing(w, r, h.deps.Users.Unfollow)
}

func (h *Handler) updateFollowing(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, username, author string) error) {
	rw := NewResponseWriter(w, r)

	// Channel titles often contain spaces, so the author arrives escaped.
	author, err := url.PathUnescape(chi.URLParam(r, "author"))
	if err != nil {
		rw.BadRequest("Invalid author")
		return
	}
	req := followRequest{
		Username: chi.URLParam(r, "username"),
		Author:   author,
	}
	if !validate(rw, &req) {
		return
	}

	if err := apply(r.Context(), req.Username, req.Author); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			rw.NotFound("User not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	user, err := h.deps.Users.Get(r.Context(), req.Username)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(user)
}
