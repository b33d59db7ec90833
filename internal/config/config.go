// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/plexrec/internal/recommend"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting via environment variables
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Plex      PlexConfig      `koanf:"plex"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Index     IndexConfig     `koanf:"index"`
	Playlist  PlaylistConfig  `koanf:"playlist"`
	Weighting WeightingConfig `koanf:"weighting"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Worker    WorkerConfig    `koanf:"worker"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PlexConfig holds the Plex Media Server connection settings.
//
// Environment Variables:
//   - PLEX_URL: Base URL of the server, e.g. http://plex.local:32400 (required)
//   - PLEX_TOKEN: X-Plex-Token used for every request (required)
//   - PLEX_MOVIE_SECTION / PLEX_SHOW_SECTION: Library titles to read (default: Movies / TV Shows)
//   - PLEX_REQUESTS_PER_SECOND: Client-side request budget (default: 10)
type PlexConfig struct {
	URL               string        `koanf:"url"`
	Token             string        `koanf:"token"`
	Timeout           time.Duration `koanf:"timeout"`
	MovieSection      string        `koanf:"movie_section"`
	ShowSection       string        `koanf:"show_section"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	MaxRetries        int           `koanf:"max_retries"` // retries after HTTP 429
	Breaker           BreakerConfig `koanf:"breaker"`
}

// EmbeddingConfig describes the OpenAI-compatible embeddings endpoint.
// Any server implementing POST /v1/embeddings works (OpenAI, Ollama,
// text-embeddings-inference, infinity).
type EmbeddingConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Dimensions  int           `koanf:"dimensions"` // 0 lets the provider decide
	BatchSize   int           `koanf:"batch_size"`
	Concurrency int           `koanf:"concurrency"`
	Timeout     time.Duration `koanf:"timeout"`

	// IdleUnload releases the provider client after this long without use.
	// Zero keeps it for the process lifetime.
	IdleUnload time.Duration `koanf:"idle_unload"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes a gobreaker circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"` // probes allowed while half-open
	Interval     time.Duration `koanf:"interval"`     // closed-state count reset
	Timeout      time.Duration `koanf:"timeout"`      // open -> half-open delay
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// IndexConfig holds the embedded vector index settings.
type IndexConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	Metric     string        `koanf:"metric"` // cosine or l2
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// PlaylistConfig names the playlist that receives suggestions.
type PlaylistConfig struct {
	Name         string `koanf:"name"`
	Prune        bool   `koanf:"prune"`
	AddBatchSize int    `koanf:"add_batch_size"`
}

// WeightingConfig controls how watched items contribute to the preference vector.
type WeightingConfig struct {
	Stars StarsConfig `koanf:"stars"`

	// AddedPenalty multiplies each candidate's addedAt (unix seconds) and is
	// added to its distance. Unset disables the recency re-ranker. Positive
	// values demote recent additions, negative values promote them.
	AddedPenalty *float64 `koanf:"added_penalty"`
}

// StarsConfig enables rating-weighted preference vectors.
type StarsConfig struct {
	Include bool    `koanf:"include"`
	Default float64 `koanf:"default"` // weight for unrated items
}

// RetrievalConfig holds candidate retrieval sizes and the kinds considered.
type RetrievalConfig struct {
	NResults int      `koanf:"n_results"`
	NRerank  int      `koanf:"n_rerank"`
	Kinds    []string `koanf:"kinds"`
}

// WorkerConfig controls the single run worker.
type WorkerConfig struct {
	RunOnStartup bool          `koanf:"run_on_startup"`
	RunInterval  time.Duration `koanf:"run_interval"` // 0 disables scheduled runs
	RunTimeout   time.Duration `koanf:"run_timeout"`
	QueueBuffer  int           `koanf:"queue_buffer"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port               int           `koanf:"port"`
	Host               string        `koanf:"host"`
	Timeout            time.Duration `koanf:"timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins        []string      `koanf:"cors_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Recommend converts the user-facing sections into the engine configuration.
func (c *Config) Recommend() (*recommend.Config, error) {
	kinds := make([]recommend.Kind, 0, len(c.Retrieval.Kinds))
	for _, raw := range c.Retrieval.Kinds {
		kind, err := recommend.ParseKind(raw)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}

	rc := recommend.DefaultConfig()
	rc.Playlist.Name = c.Playlist.Name
	rc.Playlist.Prune = c.Playlist.Prune
	rc.Playlist.AddBatchSize = c.Playlist.AddBatchSize
	rc.Weighting.StarsInclude = c.Weighting.Stars.Include
	rc.Weighting.StarsDefault = c.Weighting.Stars.Default
	rc.Retrieval.NResults = c.Retrieval.NResults
	rc.Retrieval.NRerank = c.Retrieval.NRerank
	rc.Retrieval.Kinds = kinds
	rc.Sync.EmbedBatchSize = c.Embedding.BatchSize
	rc.Sync.EmbedConcurrency = c.Embedding.Concurrency
	rc.RunTimeout = c.Worker.RunTimeout

	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

// Load loads configuration using Koanf (defaults, config file, environment).
func Load() (*Config, error) {
	return LoadWithKoanf()
}
