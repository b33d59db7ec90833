// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/breaker"
	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/recommend"
)

// BreakerName labels the embedding circuit breaker in metrics and health output.
const BreakerName = "embedding-provider"

// Guarded runs an embedder behind a circuit breaker. Any failure other than
// cancellation reaches the caller as recommend.ErrBackendUnavailable.
type Guarded struct {
	next    recommend.Embedder
	breaker *breaker.Breaker
}

// NewGuarded wraps next.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGuarded(next recommend.Embedder, cfg config.BreakerConfig, logger zerolog.Logger) *Guarded {
	return &Guarded{
		next:    next,
		breaker: breaker.New(BreakerName, cfg, nil, logger),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (g *Guarded) Breaker() *breaker.Breaker {
	return g.breaker
}

// Embed delegates through the breaker.
func (g *Guarded) Embed(ctx context.Context, documents []string) ([][]float32, error) {
	vectors, err := breaker.Do(g.breaker, func() ([][]float32, error) {
		return g.next.Embed(ctx, documents)
	})
	switch {
	case err == nil:
		return vectors, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", recommend.ErrBackendUnavailable, err)
	}
}

var _ recommend.Embedder = (*Guarded)(nil)
