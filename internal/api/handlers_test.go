// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package api

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/helios/internal/config"
	"github.com/tomtom215/helios/internal/events"
	"github.com/tomtom215/helios/internal/models"
	"github.com/tomtom215/helios/internal/recommend"
	"github.com/tomtom215/helios/internal/store"
)

// mockRecommender records its last call and returns canned results.
type mockRecommender struct {
	mu       sync.Mutex
	n        int
	user     *models.User
	params   recommend.ScoreParams
	pool     []string
	results  []recommend.VideoData
	err      error
	block    bool
	hasValue bool
}

func (m *mockRecommender) RecommendFromPool(ctx context.Context, pool []string, n int, user *models.User, params recommend.ScoreParams) ([]recommend.VideoData, error) {
	m.mu.Lock()
	m.n, m.user, m.params, m.pool, m.hasValue = n, user, params, pool, true
	block, results, err := m.block, m.results, m.err
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if n < len(results) {
		results = results[:n]
	}
	return results, nil
}

type mockUsers struct {
	mu      sync.Mutex
	users   map[string]*models.User
	err     error
	pingErr error
}

func newMockUsers(names ...string) *mockUsers {
	m := &mockUsers{users: make(map[string]*models.User)}
	for _, n := range names {
		u := models.NewUser(n)
		m.users[n] = &u
	}
	return m
}

func (m *mockUsers) Get(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b models.User) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func (m *mockUsers) Create(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.users[username]; ok {
		return false, nil
	}
	u := models.NewUser(username)
	m.users[username] = &u
	return true, nil
}

func (m *mockUsers) Follow(_ context.Context, username, author string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return store.ErrUserNotFound
	}
	if !slices.Contains(u.Following, author) {
		u.Following = append(u.Following, author)
	}
	return nil
}

func (m *mockUsers) Unfollow(_ context.Context, username, author string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Following = slices.DeleteFunc(u.Following, func(a string) bool { return a == author })
	return nil
}

func (m *mockUsers) Ping(context.Context) error {
	return m.pingErr
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*events.WatchEvent
	err    error
}

func (m *mockPublisher) PublishWatch(_ context.Context, e *events.WatchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

type staticPool []string

func (p staticPool) IDs() []string { return slices.Clone(p) }
func (p staticPool) Len() int      { return len(p) }

type fixedLen int

func (f fixedLen) Len() int { return int(f) }

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: time.Second},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
		Recommend: config.RecommendConfig{
			DefaultCount: 50,
			MaxCount:     200,
			LambdaG:      1,
			LambdaU:      1,
			LambdaA:      1,
			DefaultUser:  models.DevUsername,
			FallbackUser: models.GuestUsername,
		},
	}
}

type testEnv struct {
	engine *mockRecommender
	users  *mockUsers
	pub    *mockPublisher
	deps   Deps
	cfg    *config.Config
}

func newTestEnv() *testEnv {
	env := &testEnv{
		engine: &mockRecommender{},
		users:  newMockUsers(models.DevUsername, models.GuestUsername),
		pub:    &mockPublisher{},
		cfg:    testConfig(),
	}
	env.deps = Deps{
		Engine: env.engine,
		Users:  env.users,
		Events: env.pub,
		Pool:   staticPool{"a", "b", "c"},
		Bias:   fixedLen(7),
	}
	return env
}

func (env *testEnv) handler(t *testing.T) http.Handler {
	t.Helper()
	h, err := NewHandler(env.cfg, env.deps, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return NewRouter(env.cfg, h).Setup()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestNewHandler_RequiresDeps(t *testing.T) {
	t.Parallel()

	full := newTestEnv().deps
	tests := []struct {
		name   string
		modify func(*Deps)
	}{
		{"no engine", func(d *Deps) { d.Engine = nil }},
		{"no users", func(d *Deps) { d.Users = nil }},
		{"no events", func(d *Deps) { d.Events = nil }},
		{"no pool", func(d *Deps) { d.Pool = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := full
			tt.modify(&d)
			if _, err := NewHandler(testConfig(), d, zerolog.Nop()); err == nil {
				t.Error("NewHandler() should fail")
			}
		})
	}

	if _, err := NewHandler(nil, full, zerolog.Nop()); err == nil {
		t.Error("NewHandler(nil config) should fail")
	}
}

func TestVideos_Count(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   int
	}{
		{"/api/videos", 50},
		{"/api/videos/10", 10},
		{"/api/videos/0", 50},
		{"/api/videos/abc", 50},
		{"/api/videos/1000", 200},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			rec, resp := do(t, env.handler(t), http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK || !resp.Success {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if env.engine.n != tt.want {
				t.Errorf("n = %d, want %d", env.engine.n, tt.want)
			}
			if !slices.Equal(env.engine.pool, []string{"a", "b", "c"}) {
				t.Errorf("pool = %v", env.engine.pool)
			}
		})
	}
}

func TestVideos_NegativeCountRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec, resp := do(t, env.handler(t), http.MethodGet, "/api/videos/-3", "")
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.engine.hasValue {
		t.Error("engine should not be called")
	}
}

func TestVideos_ReturnsScoredResults(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.engine.results = []recommend.VideoData{
		{Video: models.Video{ID: "a"}, Scores: recommend.VideoScore{Score: 0.9}},
		{Video: models.Video{ID: "c"}, Scores: recommend.VideoScore{Score: 0.7}},
	}

	rec, _ := do(t, env.handler(t), http.MethodGet, "/api/videos/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Data []recommend.VideoData `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].Video.ID != "a" || body.Data[1].Video.ID != "c" {
		t.Errorf("data = %+v", body.Data)
	}
	if body.Meta.Count != 2 {
		t.Errorf("meta.count = %d, want 2", body.Meta.Count)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestVideos_QueryOverrides(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	target := "/api/videos/5?lambda_g=0&lambda_u=0.5&lambda_a=2&allow_sensitive=true&strict_child_mode=1&content_language=en,%20fr,"
	rec, _ := do(t, env.handler(t), http.MethodGet, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	p := env.engine.params
	if p.LambdaG != 0 || p.LambdaU != 0.5 || p.LambdaA != 2 {
		t.Errorf("lambdas = %v/%v/%v", p.LambdaG, p.LambdaU, p.LambdaA)
	}
	if !p.AllowSensitive || !p.StrictChildMode {
		t.Errorf("flags = %v/%v", p.AllowSensitive, p.StrictChildMode)
	}
	if !slices.Equal(p.ContentLanguage, []string{"en", "fr"}) {
		t.Errorf("ContentLanguage = %v", p.ContentLanguage)
	}
}

func TestVideos_DefaultParams(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.cfg.Recommend.LambdaU = 3
	do(t, env.handler(t), http.MethodGet, "/api/videos/5", "")

	p := env.engine.params
	if p.LambdaG != 1 || p.LambdaU != 3 || p.LambdaA != 1 {
		t.Errorf("lambdas = %v/%v/%v", p.LambdaG, p.LambdaU, p.LambdaA)
	}
	if p.AllowSensitive || p.StrictChildMode || len(p.ContentLanguage) != 0 {
		t.Errorf("params = %+v", p)
	}
	if env.engine.user.Username != models.DevUsername {
		t.Errorf("user = %q, want dev", env.engine.user.Username)
	}
}

func TestVideos_InvalidQuery(t *testing.T) {
	t.Parallel()

	for _, q := range []string{
		"lambda_g=abc",
		"lambda_u=-1",
		"lambda_a=5000",
		"allow_sensitive=maybe",
		"strict_child_mode=2",
		"username=a:b",
	} {
		t.Run(q, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			rec, resp := do(t, env.handler(t), http.MethodGet, "/api/videos/5?"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v", resp.Error)
			}
		})
	}
}

func TestVideos_UserResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		users    []string
		query    string
		wantUser string
	}{
		{"named user", []string{"dev", "guest", "alice"}, "?username=alice", "alice"},
		{"unknown falls back to guest", []string{"dev", "guest"}, "?username=bob", "guest"},
		{"default user", []string{"dev", "guest"}, "", "dev"},
		{"no users at all", nil, "?username=bob", "guest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			env.users = newMockUsers(tt.users...)
			env.deps.Users = env.users

			rec, _ := do(t, env.handler(t), http.MethodGet, "/api/videos/5"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if env.engine.user.Username != tt.wantUser {
				t.Errorf("user = %q, want %q", env.engine.user.Username, tt.wantUser)
			}
		})
	}
}

func TestVideos_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func(*testEnv)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "store failure",
			setup:      func(e *testEnv) { e.users.err = errors.New("badger down") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeDatabaseError,
		},
		{
			name:       "invalid params",
			setup:      func(e *testEnv) { e.engine.err = recommend.ErrInvalidParameter },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidationFailed,
		},
		{
			name: "timeout",
			setup: func(e *testEnv) {
				e.engine.block = true
				e.cfg.Server.RequestTimeout = 10 * time.Millisecond
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeServiceUnavailable,
		},
		{
			name:       "engine failure",
			setup:      func(e *testEnv) { e.engine.err = errors.New("boom") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			tt.setup(env)
			rec, resp := do(t, env.handler(t), http.MethodGet, "/api/videos/5", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	h := env.handler(t)

	rec, _ := do(t, h, http.MethodGet, "/api/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []models.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 || body.Data[0].Username != "dev" || body.Data[1].Username != "guest" {
		t.Errorf("users = %+v", body.Data)
	}

	env.users.err = errors.New("down")
	rec, resp := do(t, h, http.MethodGet, "/api/users", "")
	if rec.Code != http.StatusInternalServerError || resp.Error.Code != ErrCodeDatabaseError {
		t.Errorf("status = %d, error = %+v", rec.Code, resp.Error)
	}
}

func TestUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	h := env.handler(t)

	rec, _ := do(t, h, http.MethodGet, "/api/user/dev", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data models.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Username != "dev" || body.Data.History == nil {
		t.Errorf("user = %+v", body.Data)
	}
	if !strings.Contains(rec.Body.String(), `"history":[]`) {
		t.Errorf("empty history should encode as [], got %s", rec.Body.String())
	}

	rec, resp := do(t, h, http.MethodGet, "/api/user/nobody", "")
	if rec.Code != http.StatusNotFound || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", rec.Code, resp.Error)
	}
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	h := env.handler(t)

	rec, _ := do(t, h, http.MethodPost, "/api/users", `{"username":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec, resp := do(t, h, http.MethodPost, "/api/users", `{"username":"alice"}`)
	if rec.Code != http.StatusConflict || resp.Error.Code != ErrCodeConflict {
		t.Errorf("duplicate: status = %d", rec.Code)
	}

	rec, resp = do(t, h, http.MethodPost, "/api/users", `{"username":"a b"}`)
	if rec.Code != http.StatusBadRequest || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("invalid: status = %d", rec.Code)
	}

	rec, resp = do(t, h, http.MethodPost, "/api/users", `{nope`)
	if rec.Code != http.StatusBadRequest || resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("malformed: status = %d", rec.Code)
	}
}

func TestWatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		body       string
		pubErr     error
		wantStatus int
	}{
		{"accepted", "/api/user/dev/watch", `{"video_id":"dQw4w9WgXcQ","author":"Rick"}`, nil, http.StatusAccepted},
		{"unknown user", "/api/user/nobody/watch", `{"video_id":"dQw4w9WgXcQ"}`, nil, http.StatusNotFound},
		{"missing video id", "/api/user/dev/watch", `{"author":"Rick"}`, nil, http.StatusBadRequest},
		{"bad video id", "/api/user/dev/watch", `{"video_id":"no spaces allowed"}`, nil, http.StatusBadRequest},
		{"malformed body", "/api/user/dev/watch", `{`, nil, http.StatusBadRequest},
		{"bus down", "/api/user/dev/watch", `{"video_id":"dQw4w9WgXcQ"}`, errors.New("closed"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			env.pub.err = tt.pubErr

			rec, resp := do(t, env.handler(t), http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusAccepted {
				if len(env.pub.events) != 0 {
					t.Error("no event should be published")
				}
				return
			}

			if len(env.pub.events) != 1 {
				t.Fatalf("published %d events, want 1", len(env.pub.events))
			}
			e := env.pub.events[0]
			if e.Username != "dev" || e.VideoID != "dQw4w9WgXcQ" || e.Author != "Rick" {
				t.Errorf("event = %+v", e)
			}
			data, ok := resp.Data.(map[string]any)
			if !ok || data["event_id"] != e.EventID {
				t.Errorf("data = %+v", resp.Data)
			}
		})
	}
}

func TestFollowUnfollow(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	h := env.handler(t)

	rec, _ := do(t, h, http.MethodPut, "/api/user/dev/following/My%20Channel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("follow status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := env.users.users["dev"].Following; !slices.Equal(got, []string{"My Channel"}) {
		t.Errorf("Following = %v", got)
	}

	rec, _ = do(t, h, http.MethodDelete, "/api/user/dev/following/My%20Channel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unfollow status = %d", rec.Code)
	}
	if got := env.users.users["dev"].Following; len(got) != 0 {
		t.Errorf("Following = %v, want empty", got)
	}

	rec, _ = do(t, h, http.MethodPut, "/api/user/nobody/following/X", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.deps.Cache = pingFunc(func(context.Context) error { return nil })
	h := env.handler(t)

	rec, _ := do(t, h, http.MethodGet, "/api/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	var body struct {
		Data HealthStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Data.Ready || body.Data.BiasEntries != 7 || body.Data.Candidates != 3 {
		t.Errorf("status = %+v", body.Data)
	}
	if body.Data.CacheConnected == nil || !*body.Data.CacheConnected {
		t.Errorf("cache_connected = %v", body.Data.CacheConnected)
	}
}

func TestHealth_Degraded(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.deps.Cache = pingFunc(func(context.Context) error { return errors.New("redis down") })
	h := env.handler(t)

	rec, _ := do(t, h, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("cache outage should not fail readiness, status = %d", rec.Code)
	}

	env.users.pingErr = errors.New("closed")
	rec, resp := do(t, h, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable || resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("status = %d, error = %+v", rec.Code, resp.Error)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	t.Parallel()

	h := newTestEnv().handler(t)

	rec, resp := do(t, h, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, h, http.MethodDelete, "/api/users", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	h := newTestEnv().handler(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.cfg.Security.RateLimitDisabled = false
	env.cfg.Security.RateLimitReqs = 2
	env.cfg.Security.RateLimitWindow = time.Minute
	h := env.handler(t)

	for i := range 2 {
		if rec, _ := do(t, h, http.MethodGet, "/api/users", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec, resp := do(t, h, http.MethodGet, "/api/users", "")
	if rec.Code != http.StatusTooManyRequests || resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Compression(t *testing.T) {
	t.Parallel()

	h := newTestEnv().handler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}

	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	var resp APIResponse
	if err := json.NewDecoder(zr).Decode(&resp); err != nil {
		t.Fatalf("decode gzipped body: %v", err)
	}
	if !resp.Success {
		t.Errorf("response = %+v", resp)
	}
}
