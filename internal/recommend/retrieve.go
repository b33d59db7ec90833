// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Retrieval is the outcome of one Retrieve call.
type Retrieval struct {
	Suggestions []Suggestion
	Candidates  int
	Gaps        int
}

// Retriever fetches unwatched candidates nearest the preference vector,
// resolves them against the live catalogue and applies rerankers.
type Retriever struct {
	index     Index
	catalogue Catalogue
	rerankers []Reranker
	logger    zerolog.Logger
}

// NewRetriever creates a retriever. Rerankers run in the order given.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetriever(index Index, catalogue Catalogue, logger zerolog.Logger, rerankers ...Reranker) *Retriever {
	return &Retriever{
		index:     index,
		catalogue: catalogue,
		rerankers: rerankers,
		logger:    logger.With().Str("component", "retriever").Logger(),
	}
}

func (req *RetrieveRequest) validate() error {
	if len(req.Preference) == 0 {
		return fmt.Errorf("%w: empty preference vector", ErrInvalidRequest)
	}
	if req.NResults < 1 {
		return fmt.Errorf("%w: n_results must be positive, got %d", ErrInvalidRequest, req.NResults)
	}
	if req.NRerank < req.NResults {
		return fmt.Errorf("%w: n_rerank (%d) must be >= n_results (%d)", ErrInvalidRequest, req.NRerank, req.NResults)
	}
	if err := validateKinds(req.Kinds); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Retrieve returns at most NResults suggestions ordered by ascending score.
// Candidates that no longer exist in the catalogue are dropped. A pool
// smaller than NResults is returned as is.
func (r *Retriever) Retrieve(ctx context.Context, req RetrieveRequest) (*Retrieval, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	hits, err := r.index.Query(ctx, req.Preference, UnwatchedOfKinds(req.Kinds), req.NRerank)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	out := &Retrieval{Candidates: len(hits)}
	suggestions := make([]Suggestion, 0, len(hits))

	for i := range hits {
		hit := &hits[i]
		item, err := r.resolve(ctx, hit)
		if err != nil {
			if errors.Is(err, ErrResolutionGap) {
				out.Gaps++
				r.logger.Warn().
					Str("item_id", hit.ID).
					Str("title", hit.Metadata.Title).
					Str("kind", string(hit.Metadata.Kind)).
					Msg("candidate not found in catalogue, dropping")
				continue
			}
			return nil, fmt.Errorf("resolve %q: %w", hit.Metadata.Title, err)
		}

		suggestions = append(suggestions, Suggestion{
			Title:    item.Title,
			Kind:     item.Kind,
			Score:    hit.Distance,
			Distance: hit.Distance,
			Item:     item,
		})
	}

	for _, rr := range r.rerankers {
		suggestions = rr.Rerank(ctx, suggestions, len(suggestions))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score < suggestions[j].Score
	})
	if len(suggestions) > req.NResults {
		suggestions = suggestions[:req.NResults]
	}

	out.Suggestions = suggestions
	return out, nil
}

// resolve maps a hit to a live item: exact title first, then search.
func (r *Retriever) resolve(ctx context.Context, hit *QueryResult) (MediaItem, error) {
	md := hit.Metadata

	item, err := r.catalogue.GetItem(ctx, md.Title, md.Kind)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return MediaItem{}, err
	}

	results, err := r.catalogue.SearchItems(ctx, md.Title, md.Kind)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return MediaItem{}, err
	}
	if len(results) == 0 {
		return MediaItem{}, ErrResolutionGap
	}

	best, exact := pickSearchResult(results, md)
	if !exact {
		r.logger.Warn().
			Str("item_id", hit.ID).
			Str("title", md.Title).
			Str("resolved_title", best.Title).
			Str("resolved_id", best.ID).
			Msg("exact lookup failed, using top search result")
	}
	return best, nil
}

// pickSearchResult prefers a result of the same kind and release year, then
// the same kind, then the backend's top hit. exact is false when neither
// kind nor year could confirm the choice.
func pickSearchResult(results []MediaItem, md Metadata) (MediaItem, bool) {
	firstOfKind := -1
	for i := range results {
		if results[i].Kind != md.Kind {
			continue
		}
		if md.Year > 0 && results[i].Year == md.Year {
			return results[i], true
		}
		if firstOfKind < 0 {
			firstOfKind = i
		}
	}
	if firstOfKind >= 0 {
		return results[firstOfKind], md.Year == 0
	}
	return results[0], false
}
