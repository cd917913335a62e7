// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package api serves the Helios HTTP API on a chi router.
//
// Routes:
//
//	GET    /api/videos/{n}                          n recommendations from the candidate pool
//	GET    /api/videos                              same, with the default count
//	GET    /api/users                               all users
//	POST   /api/users                               create a user
//	GET    /api/user/{username}                     one user
//	POST   /api/user/{username}/watch               record a watched video (202, async)
//	PUT    /api/user/{username}/following/{author}  follow a channel
//	DELETE /api/user/{username}/following/{author}  unfollow a channel
//	GET    /api/health/live                         liveness
//	GET    /api/health/ready                        readiness
//	GET    /metrics                                 Prometheus
//
// Every JSON response is wrapped in APIResponse.
//
// Recommendation query parameters override the configured score defaults:
// username, lambda_g, lambda_u, lambda_a, allow_sensitive,
// strict_child_mode and content_language (comma-separated). An unknown
// username falls back to the configured fallback user.
package api
