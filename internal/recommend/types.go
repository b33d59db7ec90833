// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind is the closed set of catalogue item kinds the engine understands.
type Kind string

const (
	// KindMovie is a single film.
	KindMovie Kind = "movie"
	// KindShow is a television series, tracked as one item.
	KindShow Kind = "show"
)

// AllKinds lists every supported kind in a stable order.
var AllKinds = []Kind{KindMovie, KindShow}

// String returns the kind discriminator.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMovie, KindShow:
		return true
	default:
		return false
	}
}

// ParseKind converts a string (case-insensitive) into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q (expected movie or show)", s)
	}
	return k, nil
}

// MediaItem is a live catalogue entry.
type MediaItem struct {
	// ID is the catalogue's stable identifier (Plex ratingKey).
	ID      string
	Title   string
	Kind    Kind
	Year    int
	Genres  []string
	Summary string
	Watched bool
	AddedAt time.Time

	// UserRating is nil unless the user rated the item.
	UserRating *float64

	// Link is an optional deep link to the item in the catalogue's web UI.
	Link string
}

// Metadata is the filterable attribute set stored alongside an embedding.
type Metadata struct {
	Title   string    `json:"title"`
	Kind    Kind      `json:"kind"`
	Watched bool      `json:"watched"`
	Year    int       `json:"year,omitempty"`
	AddedAt time.Time `json:"added_at,omitempty"`
}

// IndexEntry is one persisted vector index record. The embedding is written
// once and never refreshed; only Metadata changes afterwards.
type IndexEntry struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
	Document  string    `json:"document"`
}

// QueryResult is a single nearest-neighbour hit.
type QueryResult struct {
	ID       string
	Metadata Metadata
	// Distance is smaller for closer vectors.
	Distance float64
}

// Suggestion is one ranked recommendation. Score is distance-like: lower is better.
type Suggestion struct {
	Title    string
	Kind     Kind
	Score    float64
	Distance float64

	// Item is the live catalogue item the candidate resolved to.
	Item MediaItem
}

// WeightingConfig selects how watched items contribute to the preference vector.
type WeightingConfig struct {
	// Stars weights each item by its live user rating when true, uniform otherwise.
	Stars bool `json:"stars"`

	// DefaultRating is used for items the user has not rated.
	DefaultRating float64 `json:"default_rating"`
}

// RetrieveRequest parameterises a single retrieval.
type RetrieveRequest struct {
	Preference []float32
	NResults   int
	NRerank    int
	Kinds      []Kind
}

// RunRequest asks for a full recommendation run. Zero fields fall back to config.
type RunRequest struct {
	ID       string `json:"id"`
	NResults int    `json:"n_results,omitempty"`
	Trigger  string `json:"trigger,omitempty"`
}

// SyncStats summarises one catalogue sync pass.
type SyncStats struct {
	Seen            int `json:"seen"`
	Added           int `json:"added"`
	MetadataUpdated int `json:"metadata_updated"`
	Unchanged       int `json:"unchanged"`
	Failed          int `json:"failed"`
}

// Writes returns the number of index mutations the pass performed.
func (s SyncStats) Writes() int {
	return s.Added + s.MetadataUpdated
}

// ReconcileStats summarises the playlist mutations of one reconcile.
type ReconcileStats struct {
	Created    bool `json:"created"`
	Added      int  `json:"added"`
	AddBatches int  `json:"add_batches"`
	Removed    int  `json:"removed"`
}

// RunResult is the outcome of one recommendation run.
type RunResult struct {
	RunID          string         `json:"run_id"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	Sync           SyncStats      `json:"sync"`
	Watched        int            `json:"watched"`
	Candidates     int            `json:"candidates"`
	ResolutionGaps int            `json:"resolution_gaps"`
	Suggestions    []string       `json:"suggestions"`
	Playlist       ReconcileStats `json:"playlist"`
}

// RunStatus reports what the engine is doing and how the last run ended.
type RunStatus struct {
	Running    bool       `json:"running"`
	CurrentRun string     `json:"current_run,omitempty"`
	LastRun    *RunResult `json:"last_run,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	LastRunAt  time.Time  `json:"last_run_at,omitempty"`
	TotalRuns  int64      `json:"total_runs"`
	FailedRuns int64      `json:"failed_runs"`
}

// Catalogue is the live media library.
type Catalogue interface {
	// ListItems returns every item of the given kind.
	ListItems(ctx context.Context, kind Kind) ([]MediaItem, error)

	// GetItem returns the item whose title matches exactly, or ErrNotFound.
	GetItem(ctx context.Context, title string, kind Kind) (MediaItem, error)

	// SearchItems returns best-effort matches ordered by backend relevance.
	SearchItems(ctx context.Context, title string, kind Kind) ([]MediaItem, error)

	// UserRating returns the live rating, nil when unrated.
	UserRating(ctx context.Context, title string, kind Kind) (*float64, error)

	// FindPlaylist returns the named playlist, or ErrNotFound.
	FindPlaylist(ctx context.Context, name string) (Playlist, error)

	// CreatePlaylist creates a playlist seeded with items.
	CreatePlaylist(ctx context.Context, name string, items []MediaItem) (Playlist, error)
}

// Playlist is a handle to a mutable, named playlist.
type Playlist interface {
	Name() string
	Items(ctx context.Context) ([]MediaItem, error)
	AddItems(ctx context.Context, items []MediaItem) error
	RemoveItem(ctx context.Context, item MediaItem) error
}

// Embedder maps documents to fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, documents []string) ([][]float32, error)
}

// Index is the persisted vector store.
type Index interface {
	// Get returns the entry for id, or ErrNotFound.
	Get(ctx context.Context, id string) (IndexEntry, error)

	// Find returns every entry matching filter.
	Find(ctx context.Context, filter Filter) ([]IndexEntry, error)

	// Add upserts a complete entry.
	Add(ctx context.Context, entry IndexEntry) error

	// UpdateMetadata replaces the metadata of an existing entry, leaving the
	// embedding and document untouched. Returns ErrNotFound for unknown ids.
	UpdateMetadata(ctx context.Context, id string, md Metadata) error

	// Query returns up to n entries matching filter, nearest first.
	Query(ctx context.Context, embedding []float32, filter Filter, n int) ([]QueryResult, error)
}

// Reranker post-processes retrieved suggestions.
type Reranker interface {
	// Name returns the reranker identifier.
	Name() string

	// Rerank adjusts scores and returns up to k items in final order.
	Rerank(ctx context.Context, items []Suggestion, k int) []Suggestion
}
