// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages.
// Collaborators are injected through the interfaces in types.go.

// Dependencies are the collaborator handles an Engine drives. They are
// constructed once at process start and outlive every run.
type Dependencies struct {
	Catalogue Catalogue
	Index     Index
	Embedder  Embedder
	Rerankers []Reranker
}

// Engine runs the full sync → build → retrieve → reconcile pipeline.
// At most one run executes at a time.
type Engine struct {
	// Configuration
	config *Config
	logger zerolog.Logger

	// Collaborators
	catalogue Catalogue
	index     Index
	embedder  Embedder
	rerankers []Reranker

	// Run state
	runMu    sync.Mutex
	statusMu sync.RWMutex
	status   RunStatus
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Catalogue == nil || deps.Index == nil || deps.Embedder == nil {
		return nil, fmt.Errorf("catalogue, index and embedder are required")
	}

	e := &Engine{
		config:    cfg.Clone(),
		logger:    logger.With().Str("component", "recommend").Logger(),
		catalogue: deps.Catalogue,
		index:     deps.Index,
		embedder:  deps.Embedder,
		rerankers: deps.Rerankers,
	}

	for _, rr := range e.rerankers {
		e.logger.Info().Str("reranker", rr.Name()).Msg("registered reranker")
	}
	return e, nil
}

// Run executes one recommendation run. It returns ErrRunInProgress when
// another run holds the engine. Empty input and unavailable backends abort
// before the playlist is touched.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if !e.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.runMu.Unlock()

	cfg := e.GetConfig()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.NResults > 0 {
		cfg.Retrieval.NResults = req.NResults
		cfg.Retrieval.NRerank = max(cfg.Retrieval.NRerank, req.NResults)
	}

	logger := e.logger.With().Str("run_id", req.ID).Logger()
	result := &RunResult{RunID: req.ID, StartedAt: time.Now()}
	e.markRunning(req.ID)

	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	logger.Info().
		Str("trigger", req.Trigger).
		Int("n_results", cfg.Retrieval.NResults).
		Int("n_rerank", cfg.Retrieval.NRerank).
		Msg("recommendation run started")

	err := e.run(runCtx, cfg, result, logger)
	result.Duration = time.Since(result.StartedAt)
	e.markFinished(result, err)

	if err != nil {
		logger.Error().Err(err).Dur("duration", result.Duration).Msg("recommendation run failed")
		return result, err
	}

	logger.Info().
		Dur("duration", result.Duration).
		Int("suggestions", len(result.Suggestions)).
		Int("added", result.Playlist.Added).
		Int("removed", result.Playlist.Removed).
		Msg("recommendation run complete")
	return result, nil
}

func (e *Engine) run(ctx context.Context, cfg *Config, result *RunResult, logger zerolog.Logger) error { //nolint:gocritic // logger by value
	kinds := cfg.Retrieval.Kinds

	syncer := NewSyncer(e.index, e.embedder, cfg.Sync, logger)
	for _, kind := range kinds {
		items, err := e.catalogue.ListItems(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s items: %w", kind, err)
		}
		stats, err := syncer.Sync(ctx, items)
		result.Sync = addSyncStats(result.Sync, stats)
		if err != nil {
			return fmt.Errorf("sync %s items: %w", kind, err)
		}
	}

	watched, err := e.index.Find(ctx, WatchedOfKinds(kinds))
	if err != nil {
		return fmt.Errorf("load watched entries: %w", err)
	}
	result.Watched = len(watched)

	preference, err := NewPreferenceBuilder(e.catalogue, logger).Build(ctx, watched, cfg.Weighting.Weighting())
	if err != nil {
		return fmt.Errorf("build preference: %w", err)
	}

	retrieval, err := NewRetriever(e.index, e.catalogue, logger, e.rerankers...).Retrieve(ctx, RetrieveRequest{
		Preference: preference,
		NResults:   cfg.Retrieval.NResults,
		NRerank:    cfg.Retrieval.NRerank,
		Kinds:      kinds,
	})
	if err != nil {
		return fmt.Errorf("retrieve candidates: %w", err)
	}
	result.Candidates = retrieval.Candidates
	result.ResolutionGaps = retrieval.Gaps
	result.Suggestions = make([]string, len(retrieval.Suggestions))
	for i := range retrieval.Suggestions {
		result.Suggestions[i] = retrieval.Suggestions[i].Title
	}

	if len(retrieval.Suggestions) == 0 {
		logger.Warn().Msg("no suggestions resolved, leaving playlist untouched")
		return nil
	}

	stats, err := NewReconciler(e.catalogue, cfg.Playlist.AddBatchSize, logger).
		Reconcile(ctx, cfg.Playlist.Name, retrieval.Suggestions, cfg.Playlist.Prune)
	result.Playlist = stats
	if err != nil {
		return fmt.Errorf("reconcile playlist: %w", err)
	}
	return nil
}

// Playlist returns up to n items of the target playlist. A missing playlist
// yields an empty slice.
func (e *Engine) Playlist(ctx context.Context, n int) ([]MediaItem, error) {
	name := e.GetConfig().Playlist.Name

	pl, err := e.catalogue.FindPlaylist(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return []MediaItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find playlist %q: %w", name, err)
	}

	items, err := pl.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("read playlist %q: %w", name, err)
	}
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items, nil
}

// Status returns a snapshot of the run state.
func (e *Engine) Status() RunStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

func (e *Engine) markRunning(runID string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.Running = true
	e.status.CurrentRun = runID
}

func (e *Engine) markFinished(result *RunResult, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.Running = false
	e.status.CurrentRun = ""
	e.status.TotalRuns++
	e.status.LastRun = result
	e.status.LastRunAt = result.StartedAt
	e.status.LastError = ""
	if err != nil {
		e.status.FailedRuns++
		e.status.LastError = err.Error()
	}
}

func addSyncStats(a, b SyncStats) SyncStats {
	return SyncStats{
		Seen:            a.Seen + b.Seen,
		Added:           a.Added + b.Added,
		MetadataUpdated: a.MetadataUpdated + b.MetadataUpdated,
		Unchanged:       a.Unchanged + b.Unchanged,
		Failed:          a.Failed + b.Failed,
	}
}
