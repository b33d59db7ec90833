// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package reranking

import (
	"context"
	"sort"

	"github.com/tomtom215/plexrec/internal/recommend"
)

// RecencyPenalty adds addedAt * coefficient to each suggestion's score.
//
// addedAt is measured in Unix seconds, so useful coefficients are tiny:
// 1e-9 shifts the score of an item added today by roughly 1.7 relative to
// one added in 1970. Items with no addedAt are left unpenalised.
type RecencyPenalty struct {
	coefficient float64
}

// NewRecencyPenalty creates a recency penalty reranker.
func NewRecencyPenalty(coefficient float64) *RecencyPenalty {
	return &RecencyPenalty{coefficient: coefficient}
}

// Name returns the reranker identifier.
func (p *RecencyPenalty) Name() string {
	return "recency_penalty"
}

// Coefficient returns the configured multiplier.
func (p *RecencyPenalty) Coefficient() float64 {
	return p.coefficient
}

// Rerank applies the penalty, stable-sorts by score and keeps the first k.
// Equal scores keep their retrieval order.
//
//nolint:gocritic // rangeValCopy: Suggestion copied on purpose, input is not mutated
func (p *RecencyPenalty) Rerank(ctx context.Context, items []recommend.Suggestion, k int) []recommend.Suggestion {
	if k <= 0 || len(items) == 0 {
		return []recommend.Suggestion{}
	}

	out := make([]recommend.Suggestion, len(items))
	copy(out, items)

	for i := range out {
		if ctx.Err() != nil {
			// A partly penalised list would mix two scales.
			return firstK(items, k)
		}
		added := out[i].Item.AddedAt
		if added.IsZero() {
			continue
		}
		out[i].Score += float64(added.Unix()) * p.coefficient
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score < out[j].Score
	})

	return firstK(out, k)
}

// firstK returns a copy of at most the first k items.
func firstK(items []recommend.Suggestion, k int) []recommend.Suggestion {
	n := min(k, len(items))
	out := make([]recommend.Suggestion, n)
	copy(out, items[:n])
	return out
}
