// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

// Package recommend implements the embedding-based suggestion engine.
//
// # Architecture
//
// A run is a single unit of work with four stages:
//
//   - Catalogue sync: every catalogue item is looked up in the vector index.
//     Known items get a metadata-only update when their watched flag changed.
//     Unknown items are embedded from a "Title/Genres/Summary" document and added.
//   - Preference: the watched entries of the requested kinds are averaged into
//     one vector, uniformly or weighted by live star ratings.
//   - Retrieval: the n_rerank nearest unwatched entries are resolved back to
//     catalogue items, penalised by the configured rerankers and truncated to
//     n_results with a stable sort.
//   - Reconciliation: the target playlist receives the missing suggestions in
//     small batches and, when pruning, loses everything else.
//
// # Collaborators
//
// The engine never talks to Plex, the embedding provider or the vector store
// directly. It depends on the Catalogue, Playlist, Embedder and Index
// interfaces, satisfied by internal/plex, internal/embedding and
// internal/vectorindex respectively.
//
// # Errors
//
// Per-item faults are logged and skipped. ErrEmptyInput and
// ErrBackendUnavailable abort a run before the playlist is touched.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, recommend.Dependencies{
//	    Catalogue: plexCatalogue,
//	    Index:     index,
//	    Embedder:  embedder,
//	    Rerankers: []recommend.Reranker{reranking.NewRecencyPenalty(0.000001)},
//	}, logger)
//
//	result, err := engine.Run(ctx, recommend.RunRequest{Trigger: "manual"})
//
// # Thread Safety
//
// Run holds an exclusive lock for its whole duration; a concurrent call
// returns ErrRunInProgress. Status, Playlist and GetConfig are safe to call
// at any time.
package recommend
