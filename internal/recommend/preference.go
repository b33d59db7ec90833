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

// RatingSource provides live user ratings. Ratings are mutable and are
// deliberately not stored in the index.
type RatingSource interface {
	UserRating(ctx context.Context, title string, kind Kind) (*float64, error)
}

// PreferenceBuilder derives a single taste vector from watched entries.
// It never writes to the index.
type PreferenceBuilder struct {
	ratings RatingSource
	logger  zerolog.Logger
}

// NewPreferenceBuilder creates a builder. ratings may be nil when star
// weighting is never used.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPreferenceBuilder(ratings RatingSource, logger zerolog.Logger) *PreferenceBuilder {
	return &PreferenceBuilder{
		ratings: ratings,
		logger:  logger.With().Str("component", "preference").Logger(),
	}
}

// Build returns the weighted element-wise mean of the watched embeddings.
// Uniform weighting gives every entry weight 1. Star weighting uses the live
// rating, falling back to the configured default for unrated items.
func (b *PreferenceBuilder) Build(ctx context.Context, watched []IndexEntry, w WeightingConfig) ([]float32, error) {
	if len(watched) == 0 {
		return nil, ErrEmptyInput
	}

	dim := len(watched[0].Embedding)
	if dim == 0 {
		return nil, fmt.Errorf("%w: entry %s has no embedding", ErrInvalidRequest, watched[0].ID)
	}

	sum := make([]float64, dim)
	var total float64

	for i := range watched {
		e := &watched[i]
		if len(e.Embedding) != dim {
			return nil, fmt.Errorf("%w: entry %s has %d dimensions, expected %d",
				ErrDimensionMismatch, e.ID, len(e.Embedding), dim)
		}

		weight, err := b.weight(ctx, e, w)
		if err != nil {
			return nil, err
		}

		for j, v := range e.Embedding {
			sum[j] += weight * float64(v)
		}
		total += weight
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: preference weights sum to zero", ErrEmptyInput)
	}

	out := make([]float32, dim)
	for j := range sum {
		out[j] = float32(sum[j] / total)
	}
	return out, nil
}

func (b *PreferenceBuilder) weight(ctx context.Context, e *IndexEntry, w WeightingConfig) (float64, error) {
	if !w.Stars {
		return 1.0, nil
	}
	if b.ratings == nil {
		return w.DefaultRating, nil
	}

	rating, err := b.ratings.UserRating(ctx, e.Metadata.Title, e.Metadata.Kind)
	switch {
	case err == nil && rating != nil:
		return *rating, nil
	case err == nil:
		return w.DefaultRating, nil
	case errors.Is(err, ErrNotFound):
		b.logger.Debug().
			Str("item_id", e.ID).
			Str("title", e.Metadata.Title).
			Msg("watched item missing from catalogue, using default rating")
		return w.DefaultRating, nil
	default:
		return 0, fmt.Errorf("rating for %q: %w", e.Metadata.Title, err)
	}
}
