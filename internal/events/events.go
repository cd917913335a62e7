// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package events carries watch events from the API to the user store.
//
// The API publishes a WatchEvent when a user watches a video. A Watermill
// router consumes the topic and appends the video to the user's history.
// Transport is either an in-process gochannel or NATS JetStream, optionally
// served by an embedded nats-server.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/helios/internal/models"
)

// ErrInvalidEvent is returned for events missing required fields.
var ErrInvalidEvent = errors.New("events: invalid watch event")

// WatchEvent records that Username watched VideoID by Author.
type WatchEvent struct {
	EventID   string    `json:"event_id"`
	Username  string    `json:"username"`
	VideoID   string    `json:"video_id"`
	Author    string    `json:"author"`
	WatchedAt time.Time `json:"watched_at"`
}

// NewWatchEvent creates an event with a fresh id and the current time.
func NewWatchEvent(username, videoID, author string) *WatchEvent {
	return &WatchEvent{
		EventID:   uuid.New().String(),
		Username:  username,
		VideoID:   videoID,
		Author:    author,
		WatchedAt: time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *WatchEvent) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case e.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidEvent)
	case e.VideoID == "":
		return fmt.Errorf("%w: video_id is required", ErrInvalidEvent)
	case e.WatchedAt.IsZero():
		return fmt.Errorf("%w: watched_at is required", ErrInvalidEvent)
	}
	return nil
}

// HistoryEntry converts the event to the stored history form.
func (e *WatchEvent) HistoryEntry() models.HistoryEntry {
	at := e.WatchedAt
	return models.HistoryEntry{ID: e.VideoID, Author: e.Author, WatchedAt: &at}
}

// Marshal encodes the event after validating it.
func (e *WatchEvent) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// UnmarshalWatchEvent decodes and validates a payload.
func UnmarshalWatchEvent(data []byte) (*WatchEvent, error) {
	var e WatchEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
