// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package recommend scores and ranks candidate videos for a user.
//
// Each candidate gets three component scores in [0, 1]:
//
//   - G, platform performance (currently a constant).
//   - U, external recommendability from the bias table.
//   - A, predicted appreciation from the user's follows and history.
//
// A component may be unavailable, in which case its weight is dropped from
// the aggregate instead of being treated as zero. The aggregate is a
// weighted mean rescaled onto [0, 1].
//
// Engine.Recommend fetches metadata for a list of ids, applies the content
// filters from ScoreParams, scores the survivors concurrently and returns
// the top n in descending score order. Ties keep the order of the input ids.
//
// Candidate pools are usually drawn with the sample subpackage and the
// score shaping functions live in normalize.
package recommend
