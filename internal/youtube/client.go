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
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/metrics"
	"github.com/tomtom215/helios/internal/models"
)

var (
	// ErrNotFound is returned by FetchVideo for ids the API does not know.
	ErrNotFound = errors.New("youtube: video not found")

	// ErrUpstream wraps transport failures and non-200 responses.
	ErrUpstream = errors.New("youtube: upstream error")
)

const (
	// MaxBatchSize is the most ids videos.list and channels.list accept.
	MaxBatchSize = 50

	endpointVideos   = "videos"
	endpointChannels = "channels"
)

// Client talks to the YouTube Data API v3. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	batchSize      int
	maxConcurrent  int
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a client from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg *config.YouTubeConfig, logger zerolog.Logger) *Client {
	batch := cfg.BatchSize
	if batch <= 0 || batch > MaxBatchSize {
		batch = MaxBatchSize
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(limit, burst),
		logger:         logger.With().Str("component", "youtube").Logger(),
		batchSize:      batch,
		maxConcurrent:  max(cfg.MaxConcurrentBatches, 1),
		maxRetries:     max(cfg.MaxRetries, 0),
		retryBaseDelay: time.Second,
	}
}

// FetchVideos resolves ids in concurrent batches. Ids that the API does not
// return, or whose batch failed, are absent from the result. An error is
// returned only when every batch failed or ctx was canceled.
func (c *Client) FetchVideos(ctx context.Context, ids []string) (map[string]models.Video, error) {
	result := make(map[string]models.Video, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var (
		mu       sync.Mutex
		batchErr []error
		batches  int
	)

	var eg errgroup.Group
	eg.SetLimit(c.maxConcurrent)
	for batch := range slices.Chunk(ids, c.batchSize) {
		batches++
		eg.Go(func() error {
			videos, err := c.fetchBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batchErr = append(batchErr, err)
				c.logger.Warn().Err(err).Strs("video_ids", batch).Msg("video batch failed")
				return nil
			}
			for _, v := range videos {
				result[v.ID] = v
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(batchErr) == batches {
		return nil, fmt.Errorf("fetch videos: %w", errors.Join(batchErr...))
	}

	for _, id := range ids {
		if _, ok := result[id]; !ok {
			metrics.VideosNotFound.Inc()
			c.logger.Warn().Str("video_id", id).Msg("video unavailable, excluding")
		}
	}
	return result, nil
}

// FetchVideo resolves a single id.
func (c *Client) FetchVideo(ctx context.Context, id string) (*models.Video, error) {
	videos, err := c.fetchBatch(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	for i := range videos {
		if videos[i].ID == id {
			return &videos[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// fetchBatch runs one videos.list call and one channels.list call for the
// avatars. An avatar failure only downgrades the avatars.
func (c *Client) fetchBatch(ctx context.Context, ids []string) ([]models.Video, error) {
	var resp videoListResponse
	query := url.Values{
		"part": {"snippet,contentDetails,status"},
		"id":   {strings.Join(ids, ",")},
	}
	if err := c.get(ctx, endpointVideos, query, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(resp.Items))
	channelIDs := make([]string, 0, len(resp.Items))
	for i := range resp.Items {
		v := resp.Items[i].toVideo()
		videos = append(videos, v)
		if v.ChannelID != "" && !slices.Contains(channelIDs, v.ChannelID) {
			channelIDs = append(channelIDs, v.ChannelID)
		}
	}
	if len(channelIDs) == 0 {
		return videos, nil
	}

	avatars, err := c.channelAvatars(ctx, channelIDs)
	if err != nil {
		c.logger.Warn().Err(err).Int("channels", len(channelIDs)).Msg("avatar lookup failed")
		return videos, nil
	}
	for i := range videos {
		if a, ok := avatars[videos[i].ChannelID]; ok {
			videos[i].Avatar = a
		}
	}
	return videos, nil
}

// channelAvatars maps channel ids to their default thumbnail url.
func (c *Client) channelAvatars(ctx context.Context, channelIDs []string) (map[string]string, error) {
	var resp channelListResponse
	query := url.Values{
		"part": {"snippet"},
		"id":   {strings.Join(channelIDs, ",")},
	}
	if err := c.get(ctx, endpointChannels, query, &resp); err != nil {
		return nil, err
	}

	avatars := make(map[string]string, len(resp.Items))
	for i := range resp.Items {
		avatars[resp.Items[i].ID] = resp.Items[i].avatarURL()
	}
	return avatars, nil
}

// get performs a rate limited GET against endpoint and decodes the JSON body.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	query.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d %s", ErrUpstream, endpoint, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrUpstream, endpoint, err)
	}
	return nil
}

// doRequestWithRateLimit waits for a limiter token before every attempt and
// retries HTTP 429 with exponential backoff.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", c.maxRetries)
		}

		retryDelay := c.retryBaseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				retryDelay = time.Duration(seconds) * time.Second
			}
		}

		c.logger.Warn().
			Dur("retry_delay", retryDelay).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("YouTube API rate limited (HTTP 429), retrying")

		timer := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
