// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/cache"
	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/models"
	"github.com/tomtom215/retention/internal/pipeline"
)

type fakeStore struct {
	mu        sync.Mutex
	calls     map[string]int
	lastQuery models.RetentionQuery
	err       error
	pingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: map[string]int{}}
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) RetentionMetrics(_ context.Context, q models.RetentionQuery) ([]models.RetentionMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["retention"]++
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	ratio := 40.0
	return []models.RetentionMetric{
		{ID: "total-users", Value: 100, Label: "Total Users"},
		{ID: "d1-retention", Value: 40, Label: "D1 Retention", Ratio: &ratio},
	}, nil
}

func (f *fakeStore) UniqueFilters(context.Context) (*models.FilterFacets, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["filters"]++
	if f.err != nil {
		return nil, f.err
	}
	return &models.FilterFacets{Platforms: []string{"android", "ios"}, Countries: []string{"DE", "US"}}, nil
}

func (f *fakeStore) SessionDateRange(context.Context) (*models.SessionDateRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["date_range"]++
	if f.err != nil {
		return nil, f.err
	}
	earliest := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return &models.SessionDateRange{EarliestDate: &earliest, LatestDate: &latest}, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

type fakeRunner struct {
	mu       sync.Mutex
	startErr error
	started  []pipeline.RunOptions
	hooks    []func(*pipeline.RunSummary)
}

func (f *fakeRunner) Start(opts pipeline.RunOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, opts)
	return nil
}

func (f *fakeRunner) Status() pipeline.Status {
	return pipeline.Status{Running: true, Current: &pipeline.RunSummary{RunID: "run-1", Status: "running"}}
}

func (f *fakeRunner) OnComplete(fn func(*pipeline.RunSummary)) {
	f.hooks = append(f.hooks, fn)
}

func (f *fakeRunner) complete() {
	for _, fn := range f.hooks {
		fn(&pipeline.RunSummary{RunID: "run-1", Status: "success"})
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{RateLimitDisabled: true}
}

func newTestRouter(t *testing.T, store Store, opts ...HandlerOption) http.Handler {
	t.Helper()
	return NewRouter(NewHandler(store, zerolog.Nop(), opts...), testServerConfig())
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (body %q)", method, target, err, w.Body.String())
	}
	return w, env
}

func TestRetention_ParsesFilters(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w, env := do(t, r, http.MethodGet,
		"/api/v1/retention?dateFrom=2024-01-01&dateTo=2024-01-31T10:00:00Z&platforms=ios,android&platforms=ios&countries=US", "")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v, body %s", w.Code, env.Success, w.Body.String())
	}

	q := store.lastQuery
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !q.DateFrom.Equal(want) {
		t.Errorf("DateFrom = %v, want %v", q.DateFrom, want)
	}
	if want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC); !q.DateTo.Equal(want) {
		t.Errorf("DateTo = %v, want %v", q.DateTo, want)
	}
	if want := []string{"android", "ios"}; !reflect.DeepEqual(q.Platforms, want) {
		t.Errorf("Platforms = %v, want %v", q.Platforms, want)
	}
	if want := []string{"US"}; !reflect.DeepEqual(q.Countries, want) {
		t.Errorf("Countries = %v, want %v", q.Countries, want)
	}

	var metrics []models.RetentionMetric
	if err := json.Unmarshal(env.Data, &metrics); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(metrics) != 2 || metrics[0].ID != "total-users" || metrics[1].Ratio == nil || *metrics[1].Ratio != 40 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestRetention_NoFilters(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w, _ := do(t, r, http.MethodGet, "/api/v1/retention", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	q := store.lastQuery
	if !q.DateFrom.IsZero() || !q.DateTo.IsZero() || q.Platforms != nil || q.Countries != nil {
		t.Errorf("query = %+v, want no filters", q)
	}
}

func TestRetention_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"bad dateFrom", "/api/v1/retention?dateFrom=yesterday"},
		{"bad dateTo", "/api/v1/retention?dateTo=2024-13-01"},
		{"from after to", "/api/v1/retention?dateFrom=2024-02-01&dateTo=2024-01-01"},
		{"platform too long", "/api/v1/retention?platforms=" + strings.Repeat("x", 65)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			r := newTestRouter(t, store)

			w, env := do(t, r, http.MethodGet, tt.target, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if env.Success || env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v, want %s", env.Error, ErrCodeValidationFailed)
			}
			if n := store.count("retention"); n != 0 {
				t.Errorf("store called %d times on invalid input", n)
			}
		})
	}
}

func TestRetention_DatabaseErrorIsGeneric(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("pq: relation \"users\" does not exist at 10.0.0.5")
	r := newTestRouter(t, store)

	w, env := do(t, r, http.MethodGet, "/api/v1/retention", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeDatabaseError {
		t.Fatalf("error = %+v, want %s", env.Error, ErrCodeDatabaseError)
	}
	if strings.Contains(w.Body.String(), "relation") || strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Errorf("response leaks internal error: %s", w.Body.String())
	}
}

func TestRetention_CachedUntilRunCompletes(t *testing.T) {
	store := newFakeStore()
	runner := &fakeRunner{}
	c := cache.New("api-test", time.Minute)
	t.Cleanup(c.Close)
	r := newTestRouter(t, store, WithCache(c), WithRunner(runner))

	_, first := do(t, r, http.MethodGet, "/api/v1/retention?platforms=ios,android", "")
	if first.Meta == nil || first.Meta.Cached {
		t.Fatalf("first response meta = %+v, want uncached", first.Meta)
	}

	// Same filters in a different order share the cache entry.
	_, second := do(t, r, http.MethodGet, "/api/v1/retention?platforms=android&platforms=ios", "")
	if second.Meta == nil || !second.Meta.Cached {
		t.Errorf("second response meta = %+v, want cached", second.Meta)
	}
	if n := store.count("retention"); n != 1 {
		t.Errorf("store called %d times, want 1", n)
	}

	do(t, r, http.MethodGet, "/api/v1/retention?platforms=ios", "")
	if n := store.count("retention"); n != 2 {
		t.Errorf("store called %d times after new filter, want 2", n)
	}

	runner.complete()
	_, after := do(t, r, http.MethodGet, "/api/v1/retention?platforms=ios,android", "")
	if after.Meta.Cached {
		t.Error("response served from cache after a completed run")
	}
	if n := store.count("retention"); n != 3 {
		t.Errorf("store called %d times after invalidation, want 3", n)
	}
}

func TestRetention_ErrorsAreNotCached(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	c := cache.New("api-test-errors", time.Minute)
	t.Cleanup(c.Close)
	r := newTestRouter(t, store, WithCache(c))

	do(t, r, http.MethodGet, "/api/v1/retention", "")
	do(t, r, http.MethodGet, "/api/v1/retention", "")
	if n := store.count("retention"); n != 2 {
		t.Errorf("store called %d times, want 2", n)
	}
}

func TestFilters(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w, env := do(t, r, http.MethodGet, "/api/v1/filters", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var facets models.FilterFacets
	if err := json.Unmarshal(env.Data, &facets); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !reflect.DeepEqual(facets.Platforms, []string{"android", "ios"}) || !reflect.DeepEqual(facets.Countries, []string{"DE", "US"}) {
		t.Errorf("facets = %+v", facets)
	}
}

func TestSessionDateRange(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	w, env := do(t, r, http.MethodGet, "/api/v1/sessions/date-range", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rng models.SessionDateRange
	if err := json.Unmarshal(env.Data, &rng); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if rng.EarliestDate == nil || rng.EarliestDate.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("earliestDate = %v", rng.EarliestDate)
	}
	if rng.LatestDate == nil || rng.LatestDate.Format("2006-01-02") != "2024-02-01" {
		t.Errorf("latestDate = %v", rng.LatestDate)
	}
}

func TestSessionDateRange_StoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("database is locked")
	r := newTestRouter(t, store)

	w, env := do(t, r, http.MethodGet, "/api/v1/sessions/date-range", "")
	if w.Code != http.StatusInternalServerError || env.Error == nil || env.Error.Code != ErrCodeDatabaseError {
		t.Errorf("status = %d, error = %+v", w.Code, env.Error)
	}
}

func TestHealthLive(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	w, env := do(t, r, http.MethodGet, "/api/v1/health/live", "")
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d", w.Code)
	}
	var live LivenessResponse
	if err := json.Unmarshal(env.Data, &live); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if live.Status != "alive" {
		t.Errorf("status = %q, want alive", live.Status)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name         string
		storeErr     error
		warehouseErr error
		wantCode     int
		wantChecks   map[string]string
	}{
		{
			name:       "all healthy",
			wantCode:   http.StatusOK,
			wantChecks: map[string]string{"database": "ok", "warehouse": "ok"},
		},
		{
			name:         "warehouse down",
			warehouseErr: errors.New("circuit open"),
			wantCode:     http.StatusServiceUnavailable,
			wantChecks:   map[string]string{"database": "ok", "warehouse": "unavailable"},
		},
		{
			name:       "database down",
			storeErr:   errors.New("closed"),
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "unavailable", "warehouse": "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.pingErr = tt.storeErr
			warehouse := pingFunc(func(context.Context) error { return tt.warehouseErr })
			r := newTestRouter(t, store, WithWarehouse(warehouse))

			w, env := do(t, r, http.MethodGet, "/api/v1/health/ready", "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}

			raw := env.Data
			if env.Error != nil {
				b, err := json.Marshal(env.Error.Details)
				if err != nil {
					t.Fatalf("encode details: %v", err)
				}
				raw = b
			}
			var ready ReadinessResponse
			if err := json.Unmarshal(raw, &ready); err != nil {
				t.Fatalf("decode readiness: %v", err)
			}
			if !reflect.DeepEqual(ready.Checks, tt.wantChecks) {
				t.Errorf("checks = %v, want %v", ready.Checks, tt.wantChecks)
			}
		})
	}
}

func TestHealthReady_WithoutWarehouse(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	w, env := do(t, r, http.MethodGet, "/api/v1/health/ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var ready ReadinessResponse
	if err := json.Unmarshal(env.Data, &ready); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if _, ok := ready.Checks["warehouse"]; ok {
		t.Errorf("checks = %v, want no warehouse entry", ready.Checks)
	}
}

func TestPipelineRun(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		startErr error
		wantCode int
		wantOpts *pipeline.RunOptions
	}{
		{"empty body", "", nil, http.StatusAccepted, &pipeline.RunOptions{}},
		{"table and dry run", `{"table":"events_20240101","dry_run":true}`, nil, http.StatusAccepted,
			&pipeline.RunOptions{Table: "events_20240101", DryRun: true}},
		{"malformed body", `{"table":`, nil, http.StatusBadRequest, nil},
		{"table too long", `{"table":"` + strings.Repeat("t", 65) + `"}`, nil, http.StatusBadRequest, nil},
		{"already running", "", pipeline.ErrRunInProgress, http.StatusConflict, nil},
		{"start failure", "", errors.New("closed"), http.StatusServiceUnavailable, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{startErr: tt.startErr}
			r := newTestRouter(t, newFakeStore(), WithRunner(runner))

			w, _ := do(t, r, http.MethodPost, "/api/v1/pipeline/run", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantOpts == nil {
				if len(runner.started) != 0 {
					t.Errorf("runner started %d times, want 0", len(runner.started))
				}
				return
			}
			if len(runner.started) != 1 || runner.started[0] != *tt.wantOpts {
				t.Errorf("started = %+v, want [%+v]", runner.started, *tt.wantOpts)
			}
		})
	}
}

func TestPipeline_NoRunner(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/api/v1/pipeline/run"},
		{http.MethodGet, "/api/v1/pipeline/status"},
	} {
		w, env := do(t, r, tc.method, tc.target, "")
		if w.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != ErrCodeServiceUnavailable {
			t.Errorf("%s %s: status = %d, error = %+v", tc.method, tc.target, w.Code, env.Error)
		}
	}
}

func TestPipelineStatus(t *testing.T) {
	r := newTestRouter(t, newFakeStore(), WithRunner(&fakeRunner{}))

	w, env := do(t, r, http.MethodGet, "/api/v1/pipeline/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status pipeline.Status
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !status.Running || status.Current == nil || status.Current.RunID != "run-1" {
		t.Errorf("status = %+v", status)
	}
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	w, env := do(t, r, http.MethodGet, "/does-not-exist", "")
	if w.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", w.Code, env.Error)
	}
}

func TestRouter_RequestIDInMeta(t *testing.T) {
	r := newTestRouter(t, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Meta == nil || env.Meta.RequestID != "req-abc" {
		t.Errorf("meta = %+v, want request id req-abc", env.Meta)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Errorf("X-Request-ID header = %q", got)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := &config.ServerConfig{RateLimitReqs: 2, RateLimitWindow: time.Minute}
	r := NewRouter(NewHandler(newFakeStore(), zerolog.Nop()), cfg)

	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/filters", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if !strings.Contains(last.Body.String(), ErrCodeTooManyRequests) {
		t.Errorf("body = %s, want %s", last.Body.String(), ErrCodeTooManyRequests)
	}
}
