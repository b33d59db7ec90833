// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package embedding

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/recommend"
)

// Factory builds a provider client.
type Factory func() (recommend.Embedder, error)

// Lazy builds its embedder on first use and releases it after idle time
// without calls. Run Serve under the supervisor to enforce the idle limit.
type Lazy struct {
	factory Factory
	idle    time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	mu       sync.Mutex
	embedder recommend.Embedder
	lastUsed time.Time
	inFlight int
}

// NewLazy creates a lazily built embedder. idle <= 0 never unloads.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLazy(factory Factory, idle time.Duration, logger zerolog.Logger) *Lazy {
	return &Lazy{
		factory: factory,
		idle:    idle,
		now:     time.Now,
		logger:  logger.With().Str("component", "embedding_lazy").Logger(),
	}
}

// Embed builds the provider if needed and delegates.
func (l *Lazy) Embed(ctx context.Context, documents []string) ([][]float32, error) {
	embedder, err := l.acquire()
	if err != nil {
		return nil, err
	}
	defer l.release()
	return embedder.Embed(ctx, documents)
}

func (l *Lazy) acquire() (recommend.Embedder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.embedder == nil {
		embedder, err := l.factory()
		if err != nil {
			return nil, fmt.Errorf("load embedder: %w", err)
		}
		l.embedder = embedder
		l.logger.Info().Msg("Embedding provider loaded")
	}
	l.inFlight++
	return l.embedder, nil
}

func (l *Lazy) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight--
	l.lastUsed = l.now()
}

// Loaded reports whether a provider client is currently held.
func (l *Lazy) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.embedder != nil
}

// UnloadIfIdle drops the provider when it has been unused for the idle
// period and no call is in flight. It reports whether it unloaded.
func (l *Lazy) UnloadIfIdle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.idle <= 0 || l.embedder == nil || l.inFlight > 0 {
		return false
	}
	if l.now().Sub(l.lastUsed) < l.idle {
		return false
	}

	if closer, ok := l.embedder.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to close embedding provider")
		}
	}
	l.embedder = nil
	l.logger.Info().Dur("idle", l.idle).Msg("Embedding provider unloaded after idle period")
	return true
}

// Serve implements suture.Service and checks for idleness until ctx ends.
func (l *Lazy) Serve(ctx context.Context) error {
	if l.idle <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(max(l.idle/4, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.UnloadIfIdle()
		}
	}
}

// String returns the service name for logging.
func (l *Lazy) String() string {
	return "embedding-idle-unloader"
}
