// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package services adapts Helios components to suture.Service.
//
// Each wrapper blocks in Serve until its context is canceled, then shuts
// its component down within a timeout and returns ctx.Err(). Wrappers
// depend on small interfaces so they can be tested with mocks.
package services
