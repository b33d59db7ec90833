// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Playlist controls reconciliation of the target playlist.
	Playlist PlaylistConfig `json:"playlist"`

	// Weighting controls the preference vector and the recency penalty.
	Weighting WeightConfig `json:"weighting"`

	// Retrieval controls candidate retrieval and truncation.
	Retrieval RetrievalConfig `json:"retrieval"`

	// Sync controls how new catalogue items are embedded.
	Sync SyncConfig `json:"sync"`

	// RunTimeout bounds a full sync → build → retrieve → reconcile run.
	RunTimeout time.Duration `json:"run_timeout"`
}

// PlaylistConfig configures the target playlist.
type PlaylistConfig struct {
	// Name identifies the playlist in the catalogue.
	Name string `json:"name"`

	// Prune removes playlist items that are no longer suggested.
	Prune bool `json:"prune"`

	// AddBatchSize is the largest number of items sent in one add call.
	// Plex rejects long URI lists, so keep this small.
	// Default: 5.
	AddBatchSize int `json:"add_batch_size"`
}

// WeightConfig configures preference weighting. Score adjustments such as
// the recency penalty are injected as rerankers.
type WeightConfig struct {
	// StarsInclude switches from uniform to star-rating weights.
	StarsInclude bool `json:"stars_include"`

	// StarsDefault is the weight for unrated items when StarsInclude is set.
	// Default: 2.5.
	StarsDefault float64 `json:"stars_default"`
}

// Weighting returns the preference weighting derived from the config.
func (w WeightConfig) Weighting() WeightingConfig {
	return WeightingConfig{Stars: w.StarsInclude, DefaultRating: w.StarsDefault}
}

// RetrievalConfig configures candidate retrieval.
type RetrievalConfig struct {
	// NResults is the final suggestion count.
	NResults int `json:"n_results"`

	// NRerank is how many nearest candidates are fetched before reranking.
	// Must be >= NResults.
	NRerank int `json:"n_rerank"`

	// Kinds restricts both the preference and the candidates.
	Kinds []Kind `json:"kinds"`
}

// SyncConfig configures catalogue sync.
type SyncConfig struct {
	// EmbedBatchSize is the number of documents per embedding call.
	EmbedBatchSize int `json:"embed_batch_size"`

	// EmbedConcurrency bounds parallel embedding calls. 1 means sequential.
	EmbedConcurrency int `json:"embed_concurrency"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Playlist: PlaylistConfig{
			Name:         "Suggestions",
			Prune:        true,
			AddBatchSize: 5,
		},
		Weighting: WeightConfig{
			StarsInclude: false,
			StarsDefault: 2.5,
		},
		Retrieval: RetrievalConfig{
			NResults: 10,
			NRerank:  30,
			Kinds:    []Kind{KindMovie, KindShow},
		},
		Sync: SyncConfig{
			EmbedBatchSize:   32,
			EmbedConcurrency: 2,
		},
		RunTimeout: 30 * time.Minute,
	}
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c.Playlist.Name == "" {
		return fmt.Errorf("playlist.name must not be empty")
	}
	if c.Playlist.AddBatchSize < 1 {
		return fmt.Errorf("playlist.add_batch_size must be positive, got %d", c.Playlist.AddBatchSize)
	}

	if c.Weighting.StarsDefault < 0 {
		return fmt.Errorf("weighting.stars.default must be non-negative, got %f", c.Weighting.StarsDefault)
	}

	if err := c.Retrieval.validate(); err != nil {
		return err
	}

	if c.Sync.EmbedBatchSize < 1 {
		return fmt.Errorf("sync.embed_batch_size must be positive, got %d", c.Sync.EmbedBatchSize)
	}
	if c.Sync.EmbedConcurrency < 1 {
		return fmt.Errorf("sync.embed_concurrency must be positive, got %d", c.Sync.EmbedConcurrency)
	}

	if c.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be positive, got %v", c.RunTimeout)
	}

	return nil
}

func (r *RetrievalConfig) validate() error {
	if r.NResults < 1 {
		return fmt.Errorf("retrieval.n_results must be positive, got %d", r.NResults)
	}
	if r.NRerank < r.NResults {
		return fmt.Errorf("retrieval.n_rerank (%d) must be >= n_results (%d)", r.NRerank, r.NResults)
	}
	return validateKinds(r.Kinds)
}

func validateKinds(kinds []Kind) error {
	if len(kinds) == 0 {
		return fmt.Errorf("retrieval.kinds must name at least one kind")
	}
	for _, k := range kinds {
		if !k.Valid() {
			return fmt.Errorf("retrieval.kinds: unknown kind %q", k)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Retrieval.Kinds = append([]Kind(nil), c.Retrieval.Kinds...)
	return &out
}
