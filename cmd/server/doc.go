// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

/*
Package main is the entry point for the Helios server.

Helios ranks YouTube videos for a user. It samples a candidate pool with a
probability bell centred on each video's normalized Tournesol score, scores
the sample on platform performance (G), external recommendability (U) and
user affinity (A), and returns the best N videos.

# Application Architecture

Long running components run under a Suture v4 supervisor tree:

	RootSupervisor ("helios")
	├── DataSupervisor ("data-layer")
	│   └── Cache janitor (expires in-process video metadata)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Embedded NATS server (optional, shutdown only)
	│   └── Watch event router (Watermill, appends watch history)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON or console output
 3. Bias table: Tournesol CSV export, read once via DuckDB
 4. Candidate pool: newline separated video ids
 5. Video metadata: YouTube Data API client behind a circuit breaker,
    an in-process LRU and an optional Redis tier
 6. User store: BadgerDB
 7. Event bus: Watermill over Go channels or NATS JetStream
 8. Supervisor tree and HTTP server

# Configuration

Configuration is layered with Koanf v2 (highest priority wins):
  - Environment variables (YOUTUBE_API_KEY, HTTP_PORT, REDIS_URL, ...)
  - Config file (config.yaml, or the path in CONFIG_PATH)
  - Built-in defaults

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service, then the event bus, the user store and the Redis client are closed.
*/
package main
