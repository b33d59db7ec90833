// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// mockEmbeddingsService returns one vector per input, optionally reversed
// to check index ordering.
type mockEmbeddingsService struct {
	calls    int
	reverse  bool
	drop     bool
	err      error
	lastArgs openai.EmbeddingNewParams
}

func (m *mockEmbeddingsService) New(_ context.Context, params openai.EmbeddingNewParams, _ ...option.RequestOption) (*openai.CreateEmbeddingResponse, error) {
	m.calls++
	m.lastArgs = params
	if m.err != nil {
		return nil, m.err
	}

	texts, _ := params.Input.Value.(openai.EmbeddingNewParamsInputArrayOfStrings)
	data := make([]openai.Embedding, 0, len(texts))
	for i := range texts {
		data = append(data, openai.Embedding{
			Embedding: []float64{float64(i), float64(len(texts[i])), 1},
			Index:     int64(i),
		})
	}
	if m.reverse {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	if m.drop && len(data) > 0 {
		data = data[:len(data)-1]
	}
	return &openai.CreateEmbeddingResponse{Data: data}, nil
}

func newTestOpenAI(svc EmbeddingsService) *OpenAI {
	return &OpenAI{
		embeddings: svc,
		model:      openai.EmbeddingModel("test-model"),
		logger:     zerolog.Nop(),
	}
}

func TestOpenAIEmbedPreservesInputOrder(t *testing.T) {
	svc := &mockEmbeddingsService{reverse: true}
	o := newTestOpenAI(svc)

	got, err := o.Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, vec := range got {
		if vec[0] != float32(i) {
			t.Errorf("vector %d has index marker %v", i, vec[0])
		}
		if vec[1] != float32(i+1) {
			t.Errorf("vector %d has length marker %v, want %d", i, vec[1], i+1)
		}
	}
	if svc.lastArgs.Model.Value != "test-model" {
		t.Errorf("model = %q", svc.lastArgs.Model.Value)
	}
}

func TestOpenAIEmbedEmptyInput(t *testing.T) {
	svc := &mockEmbeddingsService{}
	o := newTestOpenAI(svc)

	got, err := o.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	if svc.calls != 0 {
		t.Errorf("provider called %d times for empty input", svc.calls)
	}
}

func TestOpenAIEmbedCountMismatch(t *testing.T) {
	o := newTestOpenAI(&mockEmbeddingsService{drop: true})

	if _, err := o.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error when provider returns fewer embeddings")
	}
}

func TestOpenAIEmbedProviderError(t *testing.T) {
	boom := errors.New("boom")
	o := newTestOpenAI(&mockEmbeddingsService{err: boom})

	_, err := o.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapping boom", err)
	}
}

func TestOpenAIDimensionsParam(t *testing.T) {
	svc := &mockEmbeddingsService{}
	o := newTestOpenAI(svc)
	o.dimensions = 256

	if _, err := o.Embed(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !svc.lastArgs.Dimensions.Present || svc.lastArgs.Dimensions.Value != 256 {
		t.Errorf("dimensions param = %+v", svc.lastArgs.Dimensions)
	}
}

