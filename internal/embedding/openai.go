// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package embedding

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/metrics"
	"github.com/tomtom215/plexrec/internal/recommend"
)

// Compile-time interface check
var _ recommend.Embedder = (*OpenAI)(nil)

// EmbeddingsService defines the interface for making embedding API calls.
// This abstraction enables testing without calling a real provider.
type EmbeddingsService interface {
	New(ctx context.Context, params openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

// OpenAI implements recommend.Embedder against an OpenAI-compatible API.
type OpenAI struct {
	embeddings EmbeddingsService
	model      openai.EmbeddingModel
	dimensions int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOpenAI creates an embedding client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOpenAI(cfg *config.EmbeddingConfig, logger zerolog.Logger) *OpenAI {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
	}
	// Local servers usually take no key; the SDK still sends the header.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "unused"
	}
	opts = append(opts, option.WithAPIKey(apiKey))

	client := openai.NewClient(opts...)
	return &OpenAI{
		embeddings: client.Embeddings,
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "embedding").Str("model", cfg.Model).Logger(),
	}
}

// Embed generates one embedding per document, in input order.
func (o *OpenAI) Embed(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return [][]float32{}, nil
	}

	params := openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](
			openai.EmbeddingNewParamsInputArrayOfStrings(documents),
		),
		Model: openai.F(o.model),
	}
	if o.dimensions > 0 {
		params.Dimensions = openai.F(int64(o.dimensions))
	}

	start := time.Now()
	resp, err := o.embeddings.New(ctx, params)
	metrics.RecordEmbeddingRequest(len(documents), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("batch embedding generation failed: %w", err)
	}

	if len(resp.Data) != len(documents) {
		return nil, fmt.Errorf("batch embedding generation failed: expected %d embeddings, got %d", len(documents), len(resp.Data))
	}

	// Sort by index to guarantee order matches input
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) == 0 {
			return nil, fmt.Errorf("batch embedding generation failed: empty embedding at index %d", data.Index)
		}
		if i > 0 && len(data.Embedding) != len(embeddings[0]) {
			return nil, fmt.Errorf("batch embedding generation failed: %w: %d vs %d",
				recommend.ErrDimensionMismatch, len(data.Embedding), len(embeddings[0]))
		}
		embedding := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			embedding[j] = float32(v)
		}
		embeddings[i] = embedding
	}

	o.logger.Debug().
		Int("documents", len(documents)).
		Int("dimensions", len(embeddings[0])).
		Dur("duration", time.Since(start)).
		Msg("Embedded batch")

	return embeddings, nil
}

// Close releases idle provider connections.
func (o *OpenAI) Close() error {
	if o.httpClient != nil {
		o.httpClient.CloseIdleConnections()
	}
	return nil
}
