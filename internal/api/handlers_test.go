// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/recommend"
	"github.com/tomtom215/plexrec/internal/runqueue"
)

type mockEngine struct {
	items    []recommend.MediaItem
	err      error
	status   recommend.RunStatus
	lastN    int
	playlist int // calls
}

func (m *mockEngine) Playlist(_ context.Context, n int) ([]recommend.MediaItem, error) {
	m.playlist++
	m.lastN = n
	if m.err != nil {
		return nil, m.err
	}
	if n > 0 && len(m.items) > n {
		return m.items[:n], nil
	}
	return m.items, nil
}

func (m *mockEngine) Status() recommend.RunStatus { return m.status }

type mockQueue struct {
	mu   sync.Mutex
	reqs []recommend.RunRequest
	err  error
}

func (m *mockQueue) Enqueue(_ context.Context, req recommend.RunRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.reqs = append(m.reqs, req)
	return fmt.Sprintf("run-%d", len(m.reqs)), nil
}

func (m *mockQueue) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reqs)
}

type mockBreaker struct {
	name, state string
}

func (b mockBreaker) Name() string  { return b.name }
func (b mockBreaker) State() string { return b.state }

func newTestServer(engine *mockEngine, queue *mockQueue, breakers ...BreakerStatus) http.Handler {
	h := NewHandler(engine, queue, breakers, zerolog.Nop())
	return NewRouter(h, NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://example.com"},
		CORSAllowedMethods: []string{"GET", "POST"},
		RateLimitRequests:  0,
	}))
}

// envelope decodes an APIResponse with a typed payload.
type envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error"`
	Meta    *APIMeta  `json:"meta"`
}

func do[T any](t *testing.T, srv http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope[T]) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope[T]
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func sampleItems() []recommend.MediaItem {
	return []recommend.MediaItem{
		{ID: "1", Title: "Y", Kind: recommend.KindMovie, Year: 2001, Link: "https://app.plex.tv/desktop/#!/server/m/details?key=%2Flibrary%2Fmetadata%2F1"},
		{ID: "2", Title: "W", Kind: recommend.KindShow},
		{ID: "3", Title: "Z", Kind: recommend.KindMovie},
	}
}

func TestSuggestionsDefaultsToFive(t *testing.T) {
	engine := &mockEngine{items: sampleItems()}
	srv := newTestServer(engine, &mockQueue{})

	rec, env := do[[]SuggestionView](t, srv, http.MethodGet, "/api/v1/suggestions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if engine.lastN != DefaultSuggestionCount {
		t.Errorf("n = %d, want %d", engine.lastN, DefaultSuggestionCount)
	}
	if !env.Success || len(env.Data) != 3 {
		t.Fatalf("envelope = %+v", env)
	}
	first := env.Data[0]
	if first.Title != "Y" || first.Kind != recommend.KindMovie || first.Year != 2001 || !strings.Contains(first.Link, "details?key=") {
		t.Errorf("first = %+v", first)
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("missing request id in meta")
	}
	if rec.Header().Get("X-Request-ID") != env.Meta.RequestID {
		t.Error("request id header and meta differ")
	}
}

func TestSuggestionsLimit(t *testing.T) {
	engine := &mockEngine{items: sampleItems()}
	srv := newTestServer(engine, &mockQueue{})

	_, env := do[[]SuggestionView](t, srv, http.MethodGet, "/api/v1/suggestions?n=2", "")
	if len(env.Data) != 2 {
		t.Errorf("got %d items, want 2", len(env.Data))
	}
}

func TestSuggestionsEmptyPlaylist(t *testing.T) {
	srv := newTestServer(&mockEngine{items: []recommend.MediaItem{}}, &mockQueue{})

	rec, env := do[[]SuggestionView](t, srv, http.MethodGet, "/api/v1/suggestions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !env.Success || len(env.Data) != 0 {
		t.Errorf("envelope = %+v, want success with no items", env)
	}
}

func TestSuggestionsValidation(t *testing.T) {
	tests := []struct {
		query string
		code  string
	}{
		{"n=abc", ErrCodeValidation},
		{"n=0", ErrCodeValidation},
		{"n=101", ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			engine := &mockEngine{}
			rec, env := do[any](t, newTestServer(engine, &mockQueue{}), http.MethodGet, "/api/v1/suggestions?"+tt.query, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v", env.Error)
			}
			if engine.playlist != 0 {
				t.Error("engine called for invalid request")
			}
		})
	}
}

func TestSuggestionsBackendUnavailable(t *testing.T) {
	engine := &mockEngine{err: fmt.Errorf("find playlist: %w", recommend.ErrBackendUnavailable)}
	rec, env := do[any](t, newTestServer(engine, &mockQueue{}), http.MethodGet, "/api/v1/suggestions", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Error.Code != ErrCodeBackendUnavailable {
		t.Errorf("code = %q", env.Error.Code)
	}
	if strings.Contains(rec.Body.String(), "find playlist") {
		t.Error("internal error text leaked to client")
	}
}

func TestTriggerRun(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantN  int
		status int
	}{
		{"empty body", "", 0, http.StatusAccepted},
		{"with n", `{"n": 12}`, 12, http.StatusAccepted},
		{"n out of range", `{"n": 1000}`, 0, http.StatusBadRequest},
		{"unknown field", `{"count": 3}`, 0, http.StatusBadRequest},
		{"malformed", `{"n":`, 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &mockQueue{}
			rec, env := do[RunAccepted](t, newTestServer(&mockEngine{}, queue), http.MethodPost, "/api/v1/suggestions", tt.body)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if tt.status != http.StatusAccepted {
				if len(queue.reqs) != 0 {
					t.Error("invalid request was enqueued")
				}
				return
			}
			if env.Data.RunID != "run-1" || env.Data.QueueDepth != 1 {
				t.Errorf("data = %+v", env.Data)
			}
			if len(queue.reqs) != 1 || queue.reqs[0].NResults != tt.wantN || queue.reqs[0].Trigger != "api" {
				t.Errorf("enqueued %+v", queue.reqs)
			}
		})
	}
}

func TestTriggerRunQueueErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{runqueue.ErrQueueFull, http.StatusServiceUnavailable, ErrCodeQueueFull},
		{recommend.ErrRunInProgress, http.StatusConflict, ErrCodeRunInProgress},
		{recommend.ErrEmptyInput, http.StatusUnprocessableEntity, ErrCodeEmptyInput},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			queue := &mockQueue{err: tt.err}
			rec, env := do[any](t, newTestServer(&mockEngine{}, queue), http.MethodPost, "/api/v1/suggestions", "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d", rec.Code)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v", env.Error)
			}
		})
	}
}

func TestRunStatus(t *testing.T) {
	engine := &mockEngine{status: recommend.RunStatus{
		TotalRuns: 3,
		LastRun:   &recommend.RunResult{RunID: "abc", Suggestions: []string{"Y", "W"}},
	}}
	queue := &mockQueue{reqs: []recommend.RunRequest{{}}}

	rec, env := do[map[string]any](t, newTestServer(engine, queue), http.MethodGet, "/api/v1/suggestions/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Data["total_runs"] != float64(3) || env.Data["queue_depth"] != float64(1) {
		t.Errorf("data = %v", env.Data)
	}
	last, ok := env.Data["last_run"].(map[string]any)
	if !ok || last["run_id"] != "abc" {
		t.Errorf("last_run = %v", env.Data["last_run"])
	}
}

func TestHealth(t *testing.T) {
	closed := mockBreaker{"plex-api", "closed"}
	open := mockBreaker{"embedding-provider", "open"}

	t.Run("live ignores open breakers", func(t *testing.T) {
		rec, env := do[HealthStatus](t, newTestServer(&mockEngine{}, &mockQueue{}, closed, open), http.MethodGet, "/api/v1/health/live", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if env.Data.Status != "degraded" || env.Data.Breakers["embedding-provider"] != "open" {
			t.Errorf("data = %+v", env.Data)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("security headers missing")
		}
	})

	t.Run("ready fails with open breaker", func(t *testing.T) {
		rec, env := do[any](t, newTestServer(&mockEngine{}, &mockQueue{}, closed, open), http.MethodGet, "/api/v1/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rec.Code)
		}
		if env.Error == nil || env.Error.Code != ErrCodeBackendUnavailable {
			t.Errorf("error = %+v", env.Error)
		}
	})

	t.Run("ready when closed", func(t *testing.T) {
		rec, env := do[HealthStatus](t, newTestServer(&mockEngine{}, &mockQueue{}, closed), http.MethodGet, "/api/v1/health/ready", "")
		if rec.Code != http.StatusOK || env.Data.Status != "healthy" {
			t.Errorf("status = %d, data = %+v", rec.Code, env.Data)
		}
	})
}
