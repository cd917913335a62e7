// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

/*
Package youtube fetches video metadata from the YouTube Data API v3.

Ids are looked up with videos.list in batches of up to 50, the API maximum,
and batches run concurrently up to a configured limit. Channel avatars are
resolved with one channels.list call per batch. An avatar that cannot be
resolved is reported as models.AvatarUnknown rather than failing the video.

Partial failure is normal: FetchVideos returns whatever it could resolve and
logs the rest. It only returns an error when every batch failed.

Field mapping:

	snippet.title                -> Title
	snippet.channelTitle         -> Author
	snippet.channelId            -> ChannelID
	snippet.tags                 -> Tags
	snippet.thumbnails.high.url  -> Thumbnail
	snippet.defaultAudioLanguage -> Language
	snippet.publishedAt          -> Release
	contentDetails.duration      -> Duration
	!status.embeddable           -> Sensitive
	status.madeForKids           -> Childish

All requests go through a token bucket limiter and retry HTTP 429 with
exponential backoff, honoring Retry-After. CircuitBreakerClient adds a
breaker in front of the client.
*/
package youtube
