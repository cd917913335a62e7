// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/models"
)

// fakeAPI serves videos.list and channels.list from in-memory fixtures.
type fakeAPI struct {
	mu            sync.Mutex
	videos        map[string]videoItem
	channels      map[string]channelItem
	failVideos    map[string]bool // any batch containing one of these ids gets a 500
	failChannels  bool
	videoBatches  [][]string
	rateLimitLeft atomic.Int32
	apiKeys       []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if f.rateLimitLeft.Add(-1) >= 0 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		ids := strings.Split(r.URL.Query().Get("id"), ",")
		f.mu.Lock()
		f.videoBatches = append(f.videoBatches, ids)
		f.apiKeys = append(f.apiKeys, r.URL.Query().Get("key"))
		f.mu.Unlock()

		if got := r.URL.Query().Get("part"); got != "snippet,contentDetails,status" {
			t.Errorf("videos part = %q", got)
		}

		resp := videoListResponse{Items: []videoItem{}}
		for _, id := range ids {
			if f.failVideos[id] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if item, ok := f.videos[id]; ok {
				resp.Items = append(resp.Items, item)
			}
		}
		writeJSON(t, w, resp)
	})

	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		if f.failChannels {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		resp := channelListResponse{Items: []channelItem{}}
		for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
			if item, ok := f.channels[id]; ok {
				resp.Items = append(resp.Items, item)
			}
		}
		writeJSON(t, w, resp)
	})

	return mux
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func item(id, channel string) videoItem {
	return videoItem{
		ID: id,
		Snippet: videoSnippet{
			Title:                "Title " + id,
			ChannelID:            "UC" + channel,
			ChannelTitle:         channel,
			Tags:                 []string{"science"},
			DefaultAudioLanguage: "en",
			PublishedAt:          "2023-04-01T12:00:00Z",
			Thumbnails:           thumbnails{High: &thumbnail{URL: "https://i.ytimg.com/vi/" + id + "/hq.jpg"}},
		},
		ContentDetails: contentDetails{Duration: "PT4M13S"},
		Status:         videoStatus{Embeddable: true},
	}
}

func channel(name string) channelItem {
	return channelItem{
		ID:      "UC" + name,
		Snippet: channelSnippet{Thumbnails: thumbnails{Default: &thumbnail{URL: "https://yt3.ggpht.com/" + name}}},
	}
}

func newTestClient(t *testing.T, api *fakeAPI, batchSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	c := NewClient(&config.YouTubeConfig{
		APIKey:               "test-key",
		BaseURL:              srv.URL + "/",
		Timeout:              5 * time.Second,
		BatchSize:            batchSize,
		MaxConcurrentBatches: 2,
		MaxRetries:           2,
	}, zerolog.Nop())
	c.retryBaseDelay = time.Millisecond
	return c
}

func TestFetchVideosMapping(t *testing.T) {
	t.Parallel()

	kids := item("kid1", "cartoons")
	kids.Status = videoStatus{Embeddable: false, MadeForKids: true}
	kids.Snippet.Tags = nil

	api := &fakeAPI{
		videos:   map[string]videoItem{"v1": item("v1", "veritasium"), "kid1": kids},
		channels: map[string]channelItem{"UCveritasium": channel("veritasium")},
	}
	c := newTestClient(t, api, 50)

	got, err := c.FetchVideos(t.Context(), []string{"v1", "kid1", "missing"})
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing id must be absent")
	}

	v := got["v1"]
	want := models.Video{
		ID:        "v1",
		Title:     "Title v1",
		Author:    "veritasium",
		ChannelID: "UCveritasium",
		Thumbnail: "https://i.ytimg.com/vi/v1/hq.jpg",
		Avatar:    "https://yt3.ggpht.com/veritasium",
		Language:  "en",
		Tags:      []string{"science"},
		Release:   time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		Duration:  "PT4M13S",
	}
	if v.ID != want.ID || v.Title != want.Title || v.Author != want.Author ||
		v.ChannelID != want.ChannelID || v.Thumbnail != want.Thumbnail ||
		v.Avatar != want.Avatar || v.Language != want.Language ||
		v.Duration != want.Duration || !v.Release.Equal(want.Release) ||
		len(v.Tags) != 1 || v.Tags[0] != "science" {
		t.Errorf("video = %+v\nwant    %+v", v, want)
	}
	if v.Sensitive || v.Childish {
		t.Errorf("flags = sensitive %v childish %v", v.Sensitive, v.Childish)
	}

	k := got["kid1"]
	if !k.Sensitive || !k.Childish {
		t.Errorf("kid1 flags = sensitive %v childish %v, want both", k.Sensitive, k.Childish)
	}
	if k.Avatar != models.AvatarUnknown {
		t.Errorf("unknown channel avatar = %q, want %q", k.Avatar, models.AvatarUnknown)
	}
	if k.Tags == nil {
		t.Error("tags must not be nil")
	}

	if api.apiKeys[0] != "test-key" {
		t.Errorf("api key = %q", api.apiKeys[0])
	}
}

func TestFetchVideosBatching(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{videos: map[string]videoItem{}}
	ids := make([]string, 0, 7)
	for i := range 7 {
		id := fmt.Sprintf("v%d", i)
		ids = append(ids, id)
		api.videos[id] = item(id, "chan")
	}
	c := newTestClient(t, api, 3)

	got, err := c.FetchVideos(t.Context(), ids)
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if len(got) != 7 {
		t.Errorf("len = %d, want 7", len(got))
	}
	if len(api.videoBatches) != 3 {
		t.Fatalf("batches = %d, want 3", len(api.videoBatches))
	}
	for _, b := range api.videoBatches {
		if len(b) > 3 {
			t.Errorf("batch of %d exceeds batch size", len(b))
		}
	}
}

func TestFetchVideosPartialFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		videos:     map[string]videoItem{"a": item("a", "x"), "b": item("b", "x"), "c": item("c", "x")},
		failVideos: map[string]bool{"c": true},
	}
	c := newTestClient(t, api, 2)

	got, err := c.FetchVideos(t.Context(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestFetchVideosTotalFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{failVideos: map[string]bool{"a": true}}
	c := newTestClient(t, api, 50)

	_, err := c.FetchVideos(t.Context(), []string{"a"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestFetchVideosAvatarFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		videos:       map[string]videoItem{"a": item("a", "x")},
		channels:     map[string]channelItem{"UCx": channel("x")},
		failChannels: true,
	}
	c := newTestClient(t, api, 50)

	got, err := c.FetchVideos(t.Context(), []string{"a"})
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if got["a"].Avatar != models.AvatarUnknown {
		t.Errorf("avatar = %q, want %q", got["a"].Avatar, models.AvatarUnknown)
	}
}

func TestFetchVideosEmpty(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := newTestClient(t, api, 50)

	got, err := c.FetchVideos(t.Context(), nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("got %v, %v; want empty map", got, err)
	}
	if len(api.videoBatches) != 0 {
		t.Error("no request expected for empty ids")
	}
}

func TestFetchVideosRetriesRateLimit(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{videos: map[string]videoItem{"a": item("a", "x")}}
	api.rateLimitLeft.Store(2)
	c := newTestClient(t, api, 50)

	got, err := c.FetchVideos(t.Context(), []string{"a"})
	if err != nil {
		t.Fatalf("FetchVideos: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestFetchVideosRateLimitExhausted(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{videos: map[string]videoItem{"a": item("a", "x")}}
	api.rateLimitLeft.Store(10)
	c := newTestClient(t, api, 50)

	if _, err := c.FetchVideos(t.Context(), []string{"a"}); !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestFetchVideosCanceled(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{videos: map[string]videoItem{"a": item("a", "x")}}
	c := newTestClient(t, api, 50)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := c.FetchVideos(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFetchVideo(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{videos: map[string]videoItem{"a": item("a", "x")}}
	c := newTestClient(t, api, 50)

	v, err := c.FetchVideo(t.Context(), "a")
	if err != nil {
		t.Fatalf("FetchVideo: %v", err)
	}
	if v.ID != "a" {
		t.Errorf("ID = %q", v.ID)
	}

	if _, err := c.FetchVideo(t.Context(), "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNewClientBatchSizeBounds(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, 51, 500} {
		c := NewClient(&config.YouTubeConfig{BatchSize: size}, zerolog.Nop())
		if c.batchSize != MaxBatchSize {
			t.Errorf("batch size %d -> %d, want %d", size, c.batchSize, MaxBatchSize)
		}
	}
}
