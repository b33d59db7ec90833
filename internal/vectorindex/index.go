// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package vectorindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/recommend"
)

// Prefix keys for different record types
const (
	prefixEntry = "entry:"
	keyDim      = "meta:dimension"
)

// ErrIndexClosed is returned when the index is closed.
var ErrIndexClosed = fmt.Errorf("%w: index is closed", recommend.ErrBackendUnavailable)

// Compile-time interface check
var _ recommend.Index = (*BadgerIndex)(nil)

// BadgerIndex is a brute-force vector index persisted in BadgerDB.
// Queries scan every entry matching the filter, which is fine for a
// personal library of tens of thousands of items.
type BadgerIndex struct {
	db     *badger.DB
	config Config
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) an index with the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*BadgerIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumCompactors > 0 {
		opts.NumCompactors = cfg.NumCompactors
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	idx := &BadgerIndex{
		db:     db,
		config: cfg,
		logger: logger.With().Str("component", "vectorindex").Logger(),
	}

	count, err := idx.Count(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	indexEntries.Set(float64(count))

	idx.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Str("metric", string(cfg.Metric)).
		Int("entries", count).
		Msg("vector index opened")
	return idx, nil
}

func entryKey(id string) []byte {
	return []byte(prefixEntry + id)
}

func (b *BadgerIndex) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrIndexClosed
	}
	return nil
}

// wrapErr marks storage failures that mean the index cannot be used.
func wrapErr(op string, err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%s: %w: %w", op, recommend.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readEntry(txn *badger.Txn, id string) (recommend.IndexEntry, error) {
	var entry recommend.IndexEntry
	item, err := txn.Get(entryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entry, fmt.Errorf("entry %s: %w", id, recommend.ErrNotFound)
	}
	if err != nil {
		return entry, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	})
	return entry, err
}

// Get returns the entry for id, or recommend.ErrNotFound.
func (b *BadgerIndex) Get(ctx context.Context, id string) (recommend.IndexEntry, error) {
	if err := b.checkOpen(); err != nil {
		return recommend.IndexEntry{}, err
	}

	var entry recommend.IndexEntry
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = readEntry(txn, id)
		return err
	})
	if errors.Is(err, recommend.ErrNotFound) {
		return entry, err
	}
	if err != nil {
		return entry, wrapErr("get entry", err)
	}
	return entry, nil
}

// Add upserts an entry. The first write fixes the index dimensionality;
// later entries of a different length are rejected.
func (b *BadgerIndex) Add(ctx context.Context, entry recommend.IndexEntry) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if entry.ID == "" {
		return fmt.Errorf("%w: entry id is empty", recommend.ErrInvalidRequest)
	}
	if len(entry.Embedding) == 0 {
		return fmt.Errorf("%w: entry %s has no embedding", recommend.ErrInvalidRequest, entry.ID)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	created := false
	err = b.db.Update(func(txn *badger.Txn) error {
		if err := checkDimension(txn, len(entry.Embedding)); err != nil {
			return err
		}
		if _, err := txn.Get(entryKey(entry.ID)); errors.Is(err, badger.ErrKeyNotFound) {
			created = true
		} else if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(entryKey(entry.ID), data))
	})
	if err != nil {
		if errors.Is(err, recommend.ErrDimensionMismatch) {
			return err
		}
		return wrapErr("add entry", err)
	}

	RecordWrite("add")
	if created {
		indexEntries.Inc()
	}
	return nil
}

// checkDimension records the dimensionality on first use and compares later writes.
func checkDimension(txn *badger.Txn, dim int) error {
	item, err := txn.Get([]byte(keyDim))
	if errors.Is(err, badger.ErrKeyNotFound) {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(dim)) //nolint:gosec // embedding sizes fit in uint32
		return txn.Set([]byte(keyDim), buf)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		if len(val) != 4 {
			return fmt.Errorf("corrupt dimension record")
		}
		if stored := int(binary.BigEndian.Uint32(val)); stored != dim {
			return fmt.Errorf("%w: got %d, index holds %d", recommend.ErrDimensionMismatch, dim, stored)
		}
		return nil
	})
}

// UpdateMetadata replaces an entry's metadata; embedding and document are kept.
func (b *BadgerIndex) UpdateMetadata(ctx context.Context, id string, md recommend.Metadata) error {
	if err := b.checkOpen(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		entry, err := readEntry(txn, id)
		if err != nil {
			return err
		}
		entry.Metadata = md
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.SetEntry(badger.NewEntry(entryKey(id), data))
	})
	if errors.Is(err, recommend.ErrNotFound) {
		return err
	}
	if err != nil {
		return wrapErr("update metadata", err)
	}

	RecordWrite("update")
	return nil
}

// scan calls fn for every entry matching filter, in key order.
func (b *BadgerIndex) scan(ctx context.Context, filter recommend.Filter, fn func(*recommend.IndexEntry)) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefixEntry)
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var entry recommend.IndexEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				b.logger.Warn().Err(err).Str("key", string(item.Key())).Msg("failed to decode index entry")
				continue
			}

			if filter == nil || filter.Match(entry.Metadata) {
				fn(&entry)
			}
		}
		return nil
	})
}

// Find returns every entry matching filter.
func (b *BadgerIndex) Find(ctx context.Context, filter recommend.Filter) ([]recommend.IndexEntry, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	var out []recommend.IndexEntry
	err := b.scan(ctx, filter, func(e *recommend.IndexEntry) {
		out = append(out, *e)
	})
	if err != nil {
		return nil, wrapErr("find entries", err)
	}
	return out, nil
}

// Query returns up to n entries matching filter, nearest first. Entries at
// equal distance keep key order.
func (b *BadgerIndex) Query(ctx context.Context, embedding []float32, filter recommend.Filter, n int) ([]recommend.QueryResult, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []recommend.QueryResult{}, nil
	}

	start := time.Now()
	defer func() {
		RecordQueryLatency(time.Since(start).Seconds())
	}()

	var (
		results  []recommend.QueryResult
		mismatch int
	)
	err := b.scan(ctx, filter, func(e *recommend.IndexEntry) {
		if len(e.Embedding) != len(embedding) {
			mismatch++
			return
		}
		results = append(results, recommend.QueryResult{
			ID:       e.ID,
			Metadata: e.Metadata,
			Distance: b.config.Metric.distance(embedding, e.Embedding),
		})
	})
	if err != nil {
		return nil, wrapErr("query entries", err)
	}
	if mismatch > 0 && len(results) == 0 {
		return nil, fmt.Errorf("%w: query has %d dimensions", recommend.ErrDimensionMismatch, len(embedding))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Count returns the number of stored entries.
func (b *BadgerIndex) Count(ctx context.Context) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}

	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, wrapErr("count entries", err)
	}
	return count, nil
}

// RunGC triggers BadgerDB value log garbage collection until nothing is left
// to rewrite. In-memory indexes have no value log and return immediately.
func (b *BadgerIndex) RunGC() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if b.config.InMemory {
		return nil
	}

	indexGCRuns.Inc()
	for {
		err := b.db.RunValueLogGC(b.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// GCInterval returns the configured garbage collection period.
func (b *BadgerIndex) GCInterval() time.Duration {
	return b.config.GCInterval
}

// Close closes the underlying database. Further calls return ErrIndexClosed.
func (b *BadgerIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	b.logger.Info().Msg("vector index closed")
	return nil
}
