// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package youtube

import (
	"time"

	"github.com/tomtom215/helios/internal/models"
)

// videoListResponse is the subset of videos.list we read.
type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string         `json:"id"`
	Snippet        videoSnippet   `json:"snippet"`
	ContentDetails contentDetails `json:"contentDetails"`
	Status         videoStatus    `json:"status"`
}

type videoSnippet struct {
	Title                string     `json:"title"`
	ChannelID            string     `json:"channelId"`
	ChannelTitle         string     `json:"channelTitle"`
	Tags                 []string   `json:"tags"`
	DefaultAudioLanguage string     `json:"defaultAudioLanguage"`
	PublishedAt          string     `json:"publishedAt"`
	Thumbnails           thumbnails `json:"thumbnails"`
}

type contentDetails struct {
	Duration string `json:"duration"`
}

type videoStatus struct {
	Embeddable  bool `json:"embeddable"`
	MadeForKids bool `json:"madeForKids"`
}

type thumbnails struct {
	Default *thumbnail `json:"default,omitempty"`
	High    *thumbnail `json:"high,omitempty"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// channelListResponse is the subset of channels.list we read.
type channelListResponse struct {
	Items []channelItem `json:"items"`
}

type channelItem struct {
	ID      string         `json:"id"`
	Snippet channelSnippet `json:"snippet"`
}

type channelSnippet struct {
	Thumbnails thumbnails `json:"thumbnails"`
}

// toVideo maps an API item onto the domain model. The avatar is filled in
// separately.
func (item *videoItem) toVideo() models.Video {
	s := &item.Snippet

	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}

	var thumb string
	if s.Thumbnails.High != nil {
		thumb = s.Thumbnails.High.URL
	}

	// An unparsable date leaves Release zero.
	release, _ := time.Parse(time.RFC3339, s.PublishedAt)

	return models.Video{
		ID:        item.ID,
		Title:     s.Title,
		Author:    s.ChannelTitle,
		ChannelID: s.ChannelID,
		Thumbnail: thumb,
		Avatar:    models.AvatarUnknown,
		Language:  s.DefaultAudioLanguage,
		Tags:      tags,
		Release:   release,
		Duration:  item.ContentDetails.Duration,
		Sensitive: !item.Status.Embeddable,
		Childish:  item.Status.MadeForKids,
	}
}

// avatarURL returns the default-size thumbnail of a channel.
func (c *channelItem) avatarURL() string {
	if c.Snippet.Thumbnails.Default == nil || c.Snippet.Thumbnails.Default.URL == "" {
		return models.AvatarUnknown
	}
	return c.Snippet.Thumbnails.Default.URL
}
