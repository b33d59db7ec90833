// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package vectorindex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for index operations
var (
	indexWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectorindex_writes_total",
		Help: "Total number of index writes by operation (add, update)",
	}, []string{"operation"})

	indexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vectorindex_entries",
		Help: "Number of entries in the vector index",
	})

	indexQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vectorindex_query_latency_seconds",
		Help:    "Nearest-neighbour query latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	indexGCRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorindex_gc_runs_total",
		Help: "Total number of value log garbage collection runs",
	})
)

// RecordWrite increments the write counter for an operation.
func RecordWrite(operation string) {
	indexWritesTotal.WithLabelValues(operation).Inc()
}

// RecordQueryLatency records a query duration.
func RecordQueryLatency(seconds float64) {
	indexQueryLatency.Observe(seconds)
}
