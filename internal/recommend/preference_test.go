// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func entry(id, title string, vec ...float32) IndexEntry {
	return IndexEntry{
		ID:        id,
		Embedding: vec,
		Metadata:  Metadata{Title: title, Kind: KindMovie, Watched: true},
	}
}

func approxEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-6 {
			return false
		}
	}
	return true
}

func TestPreferenceBuilder_UniformIsMean(t *testing.T) {
	watched := []IndexEntry{
		entry("a", "A", 1, 0, 3),
		entry("b", "B", 3, 2, 0),
		entry("c", "C", 2, 4, 3),
	}
	b := NewPreferenceBuilder(nil, zerolog.Nop())

	got, err := b.Build(context.Background(), watched, WeightingConfig{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []float32{2, 2, 2}; !approxEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestPreferenceBuilder_UniformIgnoresRatings(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratings["A"] = rating(10)
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	got, err := b.Build(context.Background(), []IndexEntry{entry("a", "A", 0, 2), entry("b", "B", 2, 0)}, WeightingConfig{Stars: false})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []float32{1, 1}; !approxEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestPreferenceBuilder_StarsWeightedAverage(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratings["A"] = rating(3)
	cat.ratings["B"] = rating(1)
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	got, err := b.Build(context.Background(),
		[]IndexEntry{entry("a", "A", 4, 0), entry("b", "B", 0, 4)},
		WeightingConfig{Stars: true, DefaultRating: 100})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// (3*[4,0] + 1*[0,4]) / 4
	if want := []float32{3, 1}; !approxEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestPreferenceBuilder_UnratedUsesDefault(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratings["A"] = rating(2)
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	got, err := b.Build(context.Background(),
		[]IndexEntry{entry("a", "A", 6, 0), entry("b", "Unrated", 0, 6)},
		WeightingConfig{Stars: true, DefaultRating: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// (2*[6,0] + 1*[0,6]) / 3
	if want := []float32{4, 2}; !approxEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestPreferenceBuilder_MissingItemUsesDefault(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratingErr = ErrNotFound
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	got, err := b.Build(context.Background(),
		[]IndexEntry{entry("a", "A", 2, 0), entry("b", "B", 0, 2)},
		WeightingConfig{Stars: true, DefaultRating: 3})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := []float32{1, 1}; !approxEqual(got, want) {
		t.Errorf("Build() = %v, want %v", got, want)
	}
}

func TestPreferenceBuilder_StarsCloserToHigherRated(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratings["A"] = rating(5)
	cat.ratings["B"] = rating(1)
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	a := entry("A", "A", 1, 0, 0)
	bb := entry("B", "B", 0, 1, 0)

	pref, err := b.Build(context.Background(), []IndexEntry{a, bb}, WeightingConfig{Stars: true, DefaultRating: 2.5})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	da := cosineDistance(pref, a.Embedding)
	db := cosineDistance(pref, bb.Embedding)
	if da >= db {
		t.Errorf("distance to A = %f, to B = %f; want A closer", da, db)
	}
}

func TestPreferenceBuilder_EmptyInput(t *testing.T) {
	index := newFakeIndex()
	cat := newFakeCatalogue()
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	watched, _ := index.Find(context.Background(), WatchedOfKinds(AllKinds))
	_, err := b.Build(context.Background(), watched, WeightingConfig{Stars: true, DefaultRating: 1})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Build() error = %v, want ErrEmptyInput", err)
	}
	if index.writes() != 0 {
		t.Errorf("index writes = %d, want 0", index.writes())
	}
	if ops := cat.operations(); len(ops) != 0 {
		t.Errorf("playlist operations = %v, want none", ops)
	}
}

func TestPreferenceBuilder_ZeroWeights(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratings["A"] = rating(0)
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	_, err := b.Build(context.Background(), []IndexEntry{entry("a", "A", 1, 1)}, WeightingConfig{Stars: true})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Build() error = %v, want ErrEmptyInput for zero total weight", err)
	}
}

func TestPreferenceBuilder_DimensionMismatch(t *testing.T) {
	b := NewPreferenceBuilder(nil, zerolog.Nop())

	_, err := b.Build(context.Background(), []IndexEntry{entry("a", "A", 1, 1), entry("b", "B", 1, 1, 1)}, WeightingConfig{})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Build() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestPreferenceBuilder_RatingBackendError(t *testing.T) {
	cat := newFakeCatalogue()
	cat.ratingErr = ErrBackendUnavailable
	b := NewPreferenceBuilder(cat, zerolog.Nop())

	_, err := b.Build(context.Background(), []IndexEntry{entry("a", "A", 1, 1)}, WeightingConfig{Stars: true})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Build() error = %v, want ErrBackendUnavailable", err)
	}
}
