// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package models holds the Helios domain records shared across packages.
package models

import "time"

// AvatarUnknown is the avatar value used when the channel lookup fails.
const AvatarUnknown = "none"

// Video is the metadata of one video as returned by the metadata API.
// Values are immutable once fetched.
type Video struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"` // channel title
	ChannelID string    `json:"channel_id"`
	Thumbnail string    `json:"thumbnail"`
	Avatar    string    `json:"avatar"`
	Language  string    `json:"language"`
	Tags      []string  `json:"tags"`
	Release   time.Time `json:"release"`
	Duration  string    `json:"duration"` // ISO-8601, e.g. PT4M13S
	Sensitive bool      `json:"sensitive"`
	Childish  bool      `json:"childish"`
}

// IsSeenBy reports whether the video id appears in the user's history.
func (v *Video) IsSeenBy(u *User) bool {
	for _, h := range u.History {
		if h.ID == v.ID {
			return true
		}
	}
	return false
}
