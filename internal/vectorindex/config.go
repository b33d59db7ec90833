// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

// Package vectorindex provides a persisted nearest-neighbour index backed by
// BadgerDB. Each catalogue item id maps to one JSON record holding its
// embedding, filterable metadata and the document that was embedded.
package vectorindex

import (
	"fmt"
	"time"
)

// Metric names the distance function used by Query.
type Metric string

const (
	// MetricCosine is 1 - cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = "l2"
)

// Config holds index storage configuration.
type Config struct {
	// Path is the directory where BadgerDB stores its files.
	// Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Intended for tests.
	InMemory bool

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// Compression enables Snappy compression of stored entries.
	// Embeddings serialised as JSON compress well.
	Compression bool

	// Metric selects the distance function.
	// Default: cosine
	Metric Metric

	// GCInterval is how often value log garbage collection runs.
	// Zero disables the background collector.
	GCInterval time.Duration

	// GCRatio is the ratio for value log garbage collection.
	// Default: 0.5
	GCRatio float64

	// BadgerDB tuning options
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
}

// DefaultConfig returns a Config suited to a single home library.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/index",
		SyncWrites:       false,
		Compression:      true,
		Metric:           MetricCosine,
		GCInterval:       time.Hour,
		GCRatio:          0.5,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("index path is required unless in_memory is set")
	}
	switch c.Metric {
	case MetricCosine, MetricL2:
	default:
		return fmt.Errorf("unknown index metric %q (expected cosine or l2)", c.Metric)
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return fmt.Errorf("index gc_ratio must be in (0, 1), got %f", c.GCRatio)
	}
	if c.NumCompactors != 0 && c.NumCompactors < 2 {
		return fmt.Errorf("index num_compactors must be at least 2, got %d", c.NumCompactors)
	}
	return nil
}
