// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

/*
Package models defines the data shared across Helios packages.

Key Components:

  - Video: YouTube metadata for one video, resolved through the video cache
  - User: a named viewer with a watch history and followed authors
  - HistoryEntry: one watched video, appended by the watch event consumer

Models carry JSON tags for the API and for the Badger and Redis encodings.
They hold no references to storage or transport.
*/
package models
