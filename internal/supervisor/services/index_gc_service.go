// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// IndexCollector reclaims index storage.
// Satisfied by *vectorindex.BadgerIndex.
type IndexCollector interface {
	RunGC() error
	GCInterval() time.Duration
}

// IndexGCService runs value log garbage collection for the vector index.
//
// Example usage:
//
//	idx, _ := vectorindex.Open(cfg, logger)
//	tree.AddDataService(services.NewIndexGCService(idx, logger))
type IndexGCService struct {
	index  IndexCollector
	logger zerolog.Logger
	name   string
}

// NewIndexGCService creates a new index GC service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIndexGCService(index IndexCollector, logger zerolog.Logger) *IndexGCService {
	return &IndexGCService{
		index:  index,
		logger: logger.With().Str("service", "index-gc").Logger(),
		name:   "index-gc",
	}
}

// Serve implements suture.Service. A zero interval idles until shutdown.
func (s *IndexGCService) Serve(ctx context.Context) error {
	interval := s.index.GCInterval()
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.index.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("index garbage collection failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("index garbage collection complete")
		}
	}
}

// String returns the service name for logging.
func (s *IndexGCService) String() string {
	return s.name
}
