// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

/*
Package cache keeps fetched video metadata close to the recommender.

VideoCache decorates any video fetcher with two tiers:

 1. An in-process LRUCache with a TTL, checked first.
 2. An optional Redis tier shared between instances. With no Redis URL
    configured the tier is a no-op.

Misses on both tiers go to the upstream fetcher in one batch call, and the
results are written back to both tiers. Redis errors are logged and treated
as misses so a Redis outage degrades to upstream traffic instead of failing
requests.

Keys in Redis are "video:<id>" and values are the JSON encoding of
models.Video.
*/
package cache
