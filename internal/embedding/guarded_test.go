// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/breaker"
	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/recommend"
)

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func TestGuardedPassesThrough(t *testing.T) {
	g := NewGuarded(&stubEmbedder{}, testBreakerConfig(), zerolog.Nop())

	got, err := g.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if g.Breaker().State() != "closed" {
		t.Errorf("state = %s", g.Breaker().State())
	}
}

func TestGuardedMapsFailuresAndTrips(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("connection refused")}
	g := NewGuarded(stub, testBreakerConfig(), zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := g.Embed(context.Background(), []string{"a"})
		if !errors.Is(err, recommend.ErrBackendUnavailable) {
			t.Fatalf("call %d: err = %v, want ErrBackendUnavailable", i, err)
		}
	}
	if g.Breaker().State() != "open" {
		t.Fatalf("state = %s, want open", g.Breaker().State())
	}

	stub.err = nil
	_, err := g.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, recommend.ErrBackendUnavailable) || !errors.Is(err, breaker.ErrOpen) {
		t.Errorf("err = %v, want backend unavailable wrapping ErrOpen", err)
	}
}

func TestGuardedKeepsCancellation(t *testing.T) {
	stub := &stubEmbedder{err: context.Canceled}
	g := NewGuarded(stub, testBreakerConfig(), zerolog.Nop())

	_, err := g.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, recommend.ErrBackendUnavailable) {
		t.Error("cancellation must not be reported as backend unavailable")
	}
}
