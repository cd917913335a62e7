// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/models"
)

// mockFetcher implements Fetcher and records requested ids.
type mockFetcher struct {
	mu     sync.Mutex
	videos map[string]models.Video
	err    error
	calls  [][]string
}

func (m *mockFetcher) FetchVideos(_ context.Context, ids []string) (map[string]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, slices.Clone(ids))
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]models.Video)
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (m *mockFetcher) requested() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func videosByID(ids ...string) map[string]models.Video {
	out := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		out[id] = models.Video{ID: id, Title: "title " + id}
	}
	return out
}

func TestVideoCache_ReadThrough(t *testing.T) {
	t.Parallel()

	upstream := &mockFetcher{videos: videosByID("a", "b", "c")}
	vc := NewVideoCache(upstream, NewLRUCache[models.Video](10, time.Minute), nil, zerolog.Nop())

	got, err := vc.FetchVideos(t.Context(), []string{"a", "b"})
	if err != nil || len(got) != 2 {
		t.Fatalf("first fetch = %v, %v", got, err)
	}

	got, err = vc.FetchVideos(t.Context(), []string{"a", "b", "c"})
	if err != nil || len(got) != 3 {
		t.Fatalf("second fetch = %v, %v", got, err)
	}

	calls := upstream.requested()
	if len(calls) != 2 {
		t.Fatalf("upstream calls = %d, want 2", len(calls))
	}
	if !slices.Equal(calls[1], []string{"c"}) {
		t.Errorf("second upstream call = %v, want only the miss", calls[1])
	}
}

func TestVideoCache_RedisTier(t *testing.T) {
	t.Parallel()

	mr := newMiniredis(t)
	shared := newTestRedisCache(t, mr)

	upstream := &mockFetcher{videos: videosByID("a", "b")}
	first := NewVideoCache(upstream, NewLRUCache[models.Video](10, time.Minute), shared, zerolog.Nop())
	if _, err := first.FetchVideos(t.Context(), []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("video:a") || !mr.Exists("video:b") {
		t.Fatal("fetched videos were not written to redis")
	}

	// A second instance with a cold LRU is served from redis.
	second := NewVideoCache(upstream, NewLRUCache[models.Video](10, time.Minute), shared, zerolog.Nop())
	got, err := second.FetchVideos(t.Context(), []string{"a", "b"})
	if err != nil || len(got) != 2 {
		t.Fatalf("fetch = %v, %v", got, err)
	}
	if n := len(upstream.requested()); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestVideoCache_RedisOutage(t *testing.T) {
	t.Parallel()

	mr := newMiniredis(t)
	shared := newTestRedisCache(t, mr)
	mr.Close()

	upstream := &mockFetcher{videos: videosByID("a")}
	vc := NewVideoCache(upstream, NewLRUCache[models.Video](10, time.Minute), shared, zerolog.Nop())

	got, err := vc.FetchVideos(t.Context(), []string{"a"})
	if err != nil || len(got) != 1 {
		t.Errorf("redis outage must fall through to upstream: %v, %v", got, err)
	}
}

func TestVideoCache_UpstreamFailure(t *testing.T) {
	t.Parallel()

	upstream := &mockFetcher{videos: videosByID("a")}
	vc := NewVideoCache(upstream, NewLRUCache[models.Video](10, time.Minute), nil, zerolog.Nop())
	if _, err := vc.FetchVideos(t.Context(), []string{"a"}); err != nil {
		t.Fatal(err)
	}

	upstream.mu.Lock()
	upstream.err = errors.New("quota exceeded")
	upstream.mu.Unlock()

	got, err := vc.FetchVideos(t.Context(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("cached subset should be served: %v", err)
	}
	if _, ok := got["a"]; !ok || len(got) != 1 {
		t.Errorf("got %v, want only a", got)
	}

	if _, err := vc.FetchVideos(t.Context(), []string{"b"}); err == nil {
		t.Error("expected error when nothing is cached")
	}
}

func TestVideoCache_Invalidate(t *testing.T) {
	t.Parallel()

	upstream := &mockFetcher{videos: videosByID("a")}
	vc := NewVideoCache(upstream, NewLRUCache[models.Video](10, time.Minute), nil, zerolog.Nop())
	if _, err := vc.FetchVideos(t.Context(), []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := vc.Invalidate(t.Context(), "a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := vc.FetchVideos(t.Context(), []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if n := len(upstream.requested()); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}
}

func TestVideoCache_RunJanitor(t *testing.T) {
	t.Parallel()

	lru, clock := newTestLRUVideos()
	vc := NewVideoCache(&mockFetcher{}, lru, nil, zerolog.Nop())
	lru.Add("a", models.Video{ID: "a"})
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- vc.RunJanitor(ctx, time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for lru.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunJanitor = %v, want context.Canceled", err)
	}
	if lru.Len() != 0 {
		t.Error("janitor did not sweep expired entry")
	}
}

func newTestLRUVideos() (*LRUCache[models.Video], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[models.Video](10, time.Minute)
	c.now = clock.Now
	return c, clock
}
