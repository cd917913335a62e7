// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package models

import (
	"slices"
	"time"
)

// Built-in users created on first start.
const (
	DevUsername   = "dev"
	GuestUsername = "guest"
)

// HistoryEntry is one watched video.
type HistoryEntry struct {
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	WatchedAt *time.Time `json:"watched_at,omitempty"`
}

// User is an end user. Followers is informational and not used for scoring.
type User struct {
	Username  string         `json:"username"`
	History   []HistoryEntry `json:"history"`
	Following []string       `json:"following"`
	Followers []string       `json:"followers"`
}

// NewUser returns a user with empty, non-nil lists so it encodes as
// [] rather than null.
func NewUser(username string) User {
	return User{
		Username:  username,
		History:   []HistoryEntry{},
		Following: []string{},
		Followers: []string{},
	}
}

// DefaultUsers returns the dev and guest users.
func DefaultUsers() []User {
	return []User{NewUser(DevUsername), NewUser(GuestUsername)}
}

// HasActivity reports whether there is anything to infer preferences from.
func (u *User) HasActivity() bool {
	return len(u.Following) > 0 || len(u.History) > 0
}

// Follows reports whether author is in the following list.
func (u *User) Follows(author string) bool {
	return slices.Contains(u.Following, author)
}

// PriorVideosBy counts history entries by author, excluding videoID.
func (u *User) PriorVideosBy(author, videoID string) int {
	n := 0
	for _, h := range u.History {
		if h.Author == author && h.ID != videoID {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (u *User) Clone() User {
	return User{
		Username:  u.Username,
		History:   slices.Clone(u.History),
		Following: slices.Clone(u.Following),
		Followers: slices.Clone(u.Followers),
	}
}
