// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Reconciler brings a named playlist in line with a suggestion set using the
// smallest number of add and remove calls.
//
// Additions go first and are re-read before any removal, so the playlist is
// never emptied mid-run. Titles are the identity used for the diff.
type Reconciler struct {
	catalogue Catalogue
	batchSize int
	logger    zerolog.Logger
}

// NewReconciler creates a reconciler that adds at most batchSize items per call.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReconciler(catalogue Catalogue, batchSize int, logger zerolog.Logger) *Reconciler {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Reconciler{
		catalogue: catalogue,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile applies suggestions to the playlist called name, creating it when
// the catalogue reports it missing. With prune set, items whose title is not
// suggested are removed once every suggestion is confirmed present.
func (r *Reconciler) Reconcile(ctx context.Context, name string, suggestions []Suggestion, prune bool) (ReconcileStats, error) {
	var stats ReconcileStats
	wanted := uniqueByTitle(suggestions)

	pl, err := r.catalogue.FindPlaylist(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		if len(wanted) == 0 {
			r.logger.Info().Str("playlist", name).Msg("playlist missing and nothing to add, not creating")
			return stats, nil
		}
		first := wanted[:min(r.batchSize, len(wanted))]
		pl, err = r.catalogue.CreatePlaylist(ctx, name, first)
		if err != nil {
			return stats, fmt.Errorf("create playlist %q: %w", name, err)
		}
		stats.Created = true
		stats.AddBatches++
		stats.Added += len(first)
		r.logger.Info().Str("playlist", name).Int("items", len(first)).Msg("created playlist")
	default:
		return stats, fmt.Errorf("find playlist %q: %w", name, err)
	}

	current, err := pl.Items(ctx)
	if err != nil {
		return stats, fmt.Errorf("read playlist %q: %w", name, err)
	}

	missing := missingTitles(wanted, titleSet(current))
	for start := 0; start < len(missing); start += r.batchSize {
		batch := missing[start:min(start+r.batchSize, len(missing))]
		if err := pl.AddItems(ctx, batch); err != nil {
			return stats, fmt.Errorf("add %d items to %q: %w", len(batch), name, err)
		}
		stats.AddBatches++
		stats.Added += len(batch)
	}

	if !prune {
		return stats, nil
	}

	// Re-read rather than trusting the earlier snapshot.
	after, err := pl.Items(ctx)
	if err != nil {
		return stats, fmt.Errorf("re-read playlist %q: %w", name, err)
	}
	if absent := missingTitles(wanted, titleSet(after)); len(absent) > 0 {
		return stats, fmt.Errorf("%w: %d of %d suggestions missing from %q",
			ErrReconcileIncomplete, len(absent), len(wanted), name)
	}

	keep := titleSet(wanted)
	for i := range after {
		if _, ok := keep[after[i].Title]; ok {
			continue
		}
		if err := pl.RemoveItem(ctx, after[i]); err != nil {
			return stats, fmt.Errorf("remove %q from %q: %w", after[i].Title, name, err)
		}
		stats.Removed++
	}

	r.logger.Info().
		Str("playlist", name).
		Int("added", stats.Added).
		Int("removed", stats.Removed).
		Msg("playlist reconciled")

	return stats, nil
}

func uniqueByTitle(suggestions []Suggestion) []MediaItem {
	seen := make(map[string]struct{}, len(suggestions))
	out := make([]MediaItem, 0, len(suggestions))
	for i := range suggestions {
		s := &suggestions[i]
		if _, dup := seen[s.Title]; dup {
			continue
		}
		seen[s.Title] = struct{}{}
		item := s.Item
		if item.Title == "" {
			item.Title = s.Title
			item.Kind = s.Kind
		}
		out = append(out, item)
	}
	return out
}

func titleSet(items []MediaItem) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for i := range items {
		set[items[i].Title] = struct{}{}
	}
	return set
}

func missingTitles(wanted []MediaItem, present map[string]struct{}) []MediaItem {
	var out []MediaItem
	for i := range wanted {
		if _, ok := present[wanted[i].Title]; !ok {
			out = append(out, wanted[i])
		}
	}
	return out
}
