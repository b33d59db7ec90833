// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/plexrec/internal/recommend"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plexrec_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plexrec_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Suggestion Run Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexrec_runs_total",
			Help: "Total number of suggestion runs by trigger and outcome",
		},
		[]string{"trigger", "result"}, // result: "success", "empty_input", "backend_unavailable", "busy", "error"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plexrec_run_duration_seconds",
			Help:    "Duration of suggestion runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plexrec_run_last_success_timestamp",
			Help: "Unix timestamp of the last successful run",
		},
	)

	RunQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plexrec_run_queue_depth",
			Help: "Run requests waiting for the worker",
		},
	)

	// Catalogue Sync Metrics
	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexrec_sync_items_total",
			Help: "Catalogue items processed by sync, by outcome",
		},
		[]string{"outcome"}, // "added", "metadata_updated", "unchanged", "failed"
	)

	// Retrieval Metrics
	RetrievalCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plexrec_retrieval_candidates",
			Help:    "Candidates returned by the vector index per run",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250},
		},
	)

	ResolutionGaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plexrec_resolution_gaps_total",
			Help: "Indexed titles that could not be found in the catalogue",
		},
	)

	// Playlist Metrics
	PlaylistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexrec_playlist_operations_total",
			Help: "Playlist mutations performed by reconciliation",
		},
		[]string{"operation"}, // "create", "add", "remove"
	)

	// Embedding Metrics
	EmbeddingRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plexrec_embedding_request_duration_seconds",
			Help:    "Duration of embedding provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EmbeddingTexts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plexrec_embedding_texts_total",
			Help: "Documents sent to the embedding provider",
		},
	)

	// Plex API Metrics
	PlexRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plexrec_plex_requests_total",
			Help: "Requests sent to the Plex Media Server",
		},
		[]string{"method", "status_code"},
	)

	PlexRateLimitRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plexrec_plex_rate_limit_retries_total",
			Help: "Requests retried after HTTP 429 from Plex",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RunOutcome classifies a run error into the result label used by RunsTotal.
func RunOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, recommend.ErrRunInProgress):
		return "busy"
	case errors.Is(err, recommend.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, recommend.ErrBackendUnavailable):
		return "backend_unavailable"
	default:
		return "error"
	}
}

// RecordRun records the outcome of one suggestion run. result may be nil
// when the run failed before producing anything.
func RecordRun(trigger string, result *recommend.RunResult, duration time.Duration, err error) {
	RunsTotal.WithLabelValues(trigger, RunOutcome(err)).Inc()
	if errors.Is(err, recommend.ErrRunInProgress) {
		return
	}
	RunDuration.Observe(duration.Seconds())
	if err == nil {
		RunLastSuccess.Set(float64(time.Now().Unix()))
	}
	if result == nil {
		return
	}

	SyncItems.WithLabelValues("added").Add(float64(result.Sync.Added))
	SyncItems.WithLabelValues("metadata_updated").Add(float64(result.Sync.MetadataUpdated))
	SyncItems.WithLabelValues("unchanged").Add(float64(result.Sync.Unchanged))
	SyncItems.WithLabelValues("failed").Add(float64(result.Sync.Failed))

	RetrievalCandidates.Observe(float64(result.Candidates))
	ResolutionGaps.Add(float64(result.ResolutionGaps))

	if result.Playlist.Created {
		PlaylistOperations.WithLabelValues("create").Inc()
	}
	PlaylistOperations.WithLabelValues("add").Add(float64(result.Playlist.Added))
	PlaylistOperations.WithLabelValues("remove").Add(float64(result.Playlist.Removed))
}

// RecordEmbeddingRequest records one call to the embedding provider
func RecordEmbeddingRequest(texts int, duration time.Duration) {
	EmbeddingTexts.Add(float64(texts))
	EmbeddingRequestDuration.Observe(duration.Seconds())
}
