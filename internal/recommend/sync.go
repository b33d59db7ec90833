// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Syncer keeps the vector index aligned with the catalogue.
//
// Known ids only ever receive metadata updates. Unknown ids are embedded and
// added. A second pass over an unchanged catalogue performs no writes.
type Syncer struct {
	index    Index
	embedder Embedder
	config   SyncConfig
	logger   zerolog.Logger
}

// NewSyncer creates a catalogue syncer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSyncer(index Index, embedder Embedder, cfg SyncConfig, logger zerolog.Logger) *Syncer {
	if cfg.EmbedBatchSize < 1 {
		cfg.EmbedBatchSize = 1
	}
	if cfg.EmbedConcurrency < 1 {
		cfg.EmbedConcurrency = 1
	}
	return &Syncer{
		index:    index,
		embedder: embedder,
		config:   cfg,
		logger:   logger.With().Str("component", "catalogue_sync").Logger(),
	}
}

// BuildDocument renders the text that is embedded for an item.
func BuildDocument(item *MediaItem) string {
	return fmt.Sprintf("Title: %s\nGenres: %s\nSummary: %s",
		item.Title, strings.Join(item.Genres, ", "), item.Summary)
}

func metadataFor(item *MediaItem) Metadata {
	return Metadata{
		Title:   item.Title,
		Kind:    item.Kind,
		Watched: item.Watched,
		Year:    item.Year,
		AddedAt: item.AddedAt,
	}
}

// Sync walks the items once. Per-item index faults are logged and skipped;
// embedding failures and ErrBackendUnavailable abort the pass. Batches
// written before the abort stay in the index and are skipped next pass.
func (s *Syncer) Sync(ctx context.Context, items []MediaItem) (SyncStats, error) {
	stats := SyncStats{Seen: len(items)}
	var pending []*MediaItem

	for i := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		item := &items[i]

		entry, err := s.index.Get(ctx, item.ID)
		switch {
		case err == nil:
			if entry.Metadata.Watched == item.Watched {
				stats.Unchanged++
				continue
			}
			md := entry.Metadata
			md.Watched = item.Watched
			if err := s.index.UpdateMetadata(ctx, item.ID, md); err != nil {
				if errors.Is(err, ErrBackendUnavailable) {
					return stats, fmt.Errorf("update %s: %w", item.ID, err)
				}
				stats.Failed++
				s.itemWarn(item, err, "metadata update failed, skipping item")
				continue
			}
			stats.MetadataUpdated++

		case errors.Is(err, ErrNotFound):
			pending = append(pending, item)

		case errors.Is(err, ErrBackendUnavailable):
			return stats, fmt.Errorf("lookup %s: %w", item.ID, err)

		default:
			stats.Failed++
			s.itemWarn(item, err, "index lookup failed, skipping item")
		}
	}

	if len(pending) == 0 {
		return stats, nil
	}

	if err := s.embedAndAdd(ctx, pending, &stats); err != nil {
		return stats, err
	}

	s.logger.Debug().
		Int("seen", stats.Seen).
		Int("added", stats.Added).
		Int("updated", stats.MetadataUpdated).
		Int("failed", stats.Failed).
		Msg("catalogue sync pass complete")

	return stats, nil
}

// embedAndAdd embeds items in batches, running up to EmbedConcurrency
// batches at once. Each batch is written as soon as its vectors arrive, so a
// later provider failure keeps the batches that already succeeded.
func (s *Syncer) embedAndAdd(ctx context.Context, items []*MediaItem, stats *SyncStats) error {
	size := s.config.EmbedBatchSize
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.EmbedConcurrency)

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batch := items[start:end]

		g.Go(func() error {
			vectors, err := s.embedBatch(gctx, batch, start, end)
			if err != nil {
				return err
			}
			for i, item := range batch {
				added, err := s.add(gctx, item, vectors[i])
				mu.Lock()
				switch {
				case added:
					stats.Added++
				case err == nil:
					stats.Failed++
				}
				mu.Unlock()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Syncer) embedBatch(ctx context.Context, batch []*MediaItem, start, end int) ([][]float32, error) {
	docs := make([]string, 0, len(batch))
	for _, item := range batch {
		docs = append(docs, BuildDocument(item))
	}

	out, err := s.embedder.Embed(ctx, docs)
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return nil, fmt.Errorf("embed documents %d-%d: %w", start, end, err)
		}
		return nil, fmt.Errorf("%w: embed documents %d-%d: %w", ErrBackendUnavailable, start, end, err)
	}
	if len(out) != len(docs) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d documents",
			ErrBackendUnavailable, len(out), len(docs))
	}
	return out, nil
}

// add writes one entry. A per-item fault is logged and reported as
// (false, nil); only an unavailable index or a canceled context is returned.
func (s *Syncer) add(ctx context.Context, item *MediaItem, vector []float32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := s.index.Add(ctx, IndexEntry{
		ID:        item.ID,
		Embedding: vector,
		Metadata:  metadataFor(item),
		Document:  BuildDocument(item),
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrBackendUnavailable):
		return false, fmt.Errorf("add %s: %w", item.ID, err)
	default:
		s.itemWarn(item, err, "index add failed, skipping item")
		return false, nil
	}
}

func (s *Syncer) itemWarn(item *MediaItem, err error, msg string) {
	s.logger.Warn().
		Err(err).
		Str("item_id", item.ID).
		Str("title", item.Title).
		Str("kind", string(item.Kind)).
		Msg(msg)
}
