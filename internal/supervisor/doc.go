// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package supervisor runs the long-lived Helios services under a suture
// supervisor tree.
//
// The tree has three layers under the root:
//
//	helios
//	├── data-layer       cache janitor
//	├── messaging-layer  embedded NATS server, watch event router
//	└── api-layer        HTTP server
//
// A failing service is restarted with backoff. A layer that keeps failing
// is restarted as a whole without touching its siblings. Supervisor events
// are logged through sutureslog into zerolog.
package supervisor
