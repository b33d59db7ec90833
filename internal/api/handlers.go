// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/recommend"
	"github.com/tomtom215/plexrec/internal/validation"
)

// DefaultSuggestionCount is the number of playlist items GET returns
// when n is absent.
const DefaultSuggestionCount = 5

// maxRunBody bounds POST bodies.
const maxRunBody = 4 << 10

// SuggestionEngine reads the current suggestions and run state.
// Satisfied by *recommend.Engine.
type SuggestionEngine interface {
	Playlist(ctx context.Context, n int) ([]recommend.MediaItem, error)
	Status() recommend.RunStatus
}

// RunQueue accepts run requests. Satisfied by *runqueue.Queue.
type RunQueue interface {
	Enqueue(ctx context.Context, req recommend.RunRequest) (string, error)
	Depth() int
}

// BreakerStatus reports a circuit breaker. Satisfied by *breaker.Breaker.
type BreakerStatus interface {
	Name() string
	State() string
}

// Handler serves the suggestion and health endpoints.
type Handler struct {
	engine      SuggestionEngine
	queue       RunQueue
	breakers    []BreakerStatus
	trigger     string
	readTimeout time.Duration
	startTime   time.Time
	logger      zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine SuggestionEngine, queue RunQueue, breakers []BreakerStatus, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:      engine,
		queue:       queue,
		breakers:    breakers,
		trigger:     "api",
		readTimeout: 30 * time.Second,
		startTime:   time.Now(),
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// SuggestionView is one playlist entry as returned by the API.
type SuggestionView struct {
	Title string         `json:"title"`
	Kind  recommend.Kind `json:"kind"`
	Year  int            `json:"year,omitempty"`
	Link  string         `json:"link,omitempty"`
}

// suggestionsQuery holds the validated GET parameters.
type suggestionsQuery struct {
	N int `json:"n" validate:"min=1,max=100"`
}

// runBody is the POST body. Every field is optional.
type runBody struct {
	N int `json:"n" validate:"omitempty,min=1,max=100"`
}

// RunAccepted is the 202 payload for POST /suggestions.
type RunAccepted struct {
	RunID      string `json:"run_id"`
	QueueDepth int    `json:"queue_depth"`
}

// Suggestions handles GET /api/v1/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := suggestionsQuery{N: DefaultSuggestionCount}
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "n must be an integer", nil)
			return
		}
		q.N = n
	}
	if !h.validate(w, r, &q) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.readTimeout)
	defer cancel()

	items, err := h.engine.Playlist(ctx, q.N)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	views := make([]SuggestionView, len(items))
	for i, item := range items {
		views[i] = SuggestionView{
			Title: item.Title,
			Kind:  item.Kind,
			Year:  item.Year,
			Link:  item.Link,
		}
	}
	respondData(w, r, http.StatusOK, views)
}

// TriggerRun handles POST /api/v1/suggestions.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var body runBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRunBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return
	}
	if !h.validate(w, r, &body) {
		return
	}

	runID, err := h.queue.Enqueue(r.Context(), recommend.RunRequest{
		NResults: body.N,
		Trigger:  h.trigger,
	})
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	h.logger.Info().Str("run_id", runID).Int("n", body.N).Msg("Run requested")
	respondData(w, r, http.StatusAccepted, RunAccepted{
		RunID:      runID,
		QueueDepth: h.queue.Depth(),
	})
}

// RunStatus handles GET /api/v1/suggestions/status.
func (h *Handler) RunStatus(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, struct {
		recommend.RunStatus
		QueueDepth int `json:"queue_depth"`
	}{
		RunStatus:  h.engine.Status(),
		QueueDepth: h.queue.Depth(),
	})
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status   string            `json:"status"`
	Uptime   float64           `json:"uptime_seconds"`
	Breakers map[string]string `json:"breakers"`
}

func (h *Handler) health() (HealthStatus, bool) {
	status := HealthStatus{
		Status:   "healthy",
		Uptime:   time.Since(h.startTime).Seconds(),
		Breakers: make(map[string]string, len(h.breakers)),
	}
	ready := true
	for _, b := range h.breakers {
		state := b.State()
		status.Breakers[b.Name()] = state
		if state == "open" {
			ready = false
			status.Status = "degraded"
		}
	}
	return status, ready
}

// HealthLive handles GET /api/v1/health/live. It answers 200 while the
// process runs, whatever the backends are doing.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	status, _ := h.health()
	respondData(w, r, http.StatusOK, status)
}

// HealthReady handles GET /api/v1/health/ready: 503 while a breaker is open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status, ready := h.health()
	if !ready {
		respondErrorWithDetails(w, r, http.StatusServiceUnavailable, ErrCodeBackendUnavailable,
			"A backend circuit breaker is open", status)
		return
	}
	respondData(w, r, http.StatusOK, status)
}

// validate writes a 400 and returns false when v fails validation.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	respondErrorWithDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	return false
}
