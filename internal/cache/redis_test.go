// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/models"
)

// newMiniredis starts an in-memory Redis for the test.
func newMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func newTestRedisCache(t *testing.T, mr *miniredis.Miniredis) *RedisCache {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCacheFromClient(rdb, time.Hour, zerolog.Nop())
}

func TestRedisCache_RoundTrip(t *testing.T) {
	t.Parallel()

	mr := newMiniredis(t)
	rc := newTestRedisCache(t, mr)
	ctx := t.Context()

	videos := []models.Video{
		{ID: "a", Title: "A", Author: "chan", Tags: []string{"x"}, Release: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: "b", Title: "B", Sensitive: true},
	}
	if err := rc.SetVideos(ctx, videos); err != nil {
		t.Fatalf("SetVideos: %v", err)
	}

	if !mr.Exists("video:a") {
		t.Fatal("expected key video:a")
	}
	if ttl := mr.TTL("video:a"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	got, err := rc.GetVideos(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetVideos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got["a"].Author != "chan" || !got["a"].Release.Equal(videos[0].Release) {
		t.Errorf("a = %+v", got["a"])
	}
	if !got["b"].Sensitive {
		t.Error("b lost its sensitive flag")
	}
}

func TestRedisCache_SkipsCorruptEntries(t *testing.T) {
	t.Parallel()

	mr := newMiniredis(t)
	rc := newTestRedisCache(t, mr)

	if err := mr.Set("video:bad", "{not json"); err != nil {
		t.Fatal(err)
	}
	got, err := rc.GetVideos(t.Context(), []string{"bad"})
	if err != nil {
		t.Fatalf("GetVideos: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("corrupt entry returned: %v", got)
	}
}

func TestRedisCache_Invalidate(t *testing.T) {
	t.Parallel()

	mr := newMiniredis(t)
	rc := newTestRedisCache(t, mr)

	if err := rc.SetVideos(t.Context(), []models.Video{{ID: "a"}}); err != nil {
		t.Fatal(err)
	}
	if err := rc.Invalidate(t.Context(), "a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("video:a") {
		t.Error("key still present")
	}
}

func TestRedisCache_Disabled(t *testing.T) {
	t.Parallel()

	rc := NewRedisCache(t.Context(), "", time.Hour, zerolog.Nop())
	if rc.Enabled() {
		t.Fatal("empty URL must disable the tier")
	}

	ctx := t.Context()
	if got, err := rc.GetVideos(ctx, []string{"a"}); err != nil || len(got) != 0 {
		t.Errorf("GetVideos = %v, %v", got, err)
	}
	if err := rc.SetVideos(ctx, []models.Video{{ID: "a"}}); err != nil {
		t.Errorf("SetVideos: %v", err)
	}
	if err := rc.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	var nilCache *RedisCache
	if nilCache.Enabled() {
		t.Error("nil cache reports enabled")
	}
}

func TestNewRedisCache(t *testing.T) {
	t.Parallel()

	mr := newMiniredis(t)

	rc := NewRedisCache(t.Context(), "redis://"+mr.Addr()+"/0", 0, zerolog.Nop())
	t.Cleanup(func() { _ = rc.Close() })
	if !rc.Enabled() {
		t.Fatal("expected enabled tier")
	}
	if rc.ttl != DefaultRedisTTL {
		t.Errorf("ttl = %v, want default", rc.ttl)
	}

	if bad := NewRedisCache(t.Context(), "://nope", time.Hour, zerolog.Nop()); bad.Enabled() {
		t.Error("invalid URL must disable the tier")
	}
}
