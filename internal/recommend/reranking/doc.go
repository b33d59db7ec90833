// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

// Package reranking implements score adjustments applied after retrieval.
//
// Rerankers operate on suggestions that already carry a distance-like score
// (lower is better) and return them in final order:
//
//	Index query -> Resolution -> Rerankers -> Stable sort -> Truncate
//
// # Available Rerankers
//
// Recency penalty:
//   - Adds addedAt (Unix seconds) * coefficient to each score
//   - Positive coefficients push recently added items down the list
//   - Negative coefficients favour recently added items
//
// # Interface
//
// All rerankers implement the recommend.Reranker interface:
//
//	type Reranker interface {
//	    Name() string
//	    Rerank(ctx context.Context, items []Suggestion, k int) []Suggestion
//	}
//
// # Thread Safety
//
// Rerankers are stateless and safe for concurrent use. Rerank never mutates
// its input slice. A canceled context returns the input order unchanged.
package reranking
