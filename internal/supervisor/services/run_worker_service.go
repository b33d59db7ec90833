// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/metrics"
	"github.com/tomtom215/plexrec/internal/recommend"
)

// RunEngine executes recommendation runs.
// Satisfied by *recommend.Engine.
type RunEngine interface {
	Run(ctx context.Context, req recommend.RunRequest) (*recommend.RunResult, error)
}

// RunConsumer delivers queued run requests to a handler one at a time.
// Satisfied by *runqueue.Queue.
type RunConsumer interface {
	Consume(ctx context.Context, handler func(context.Context, recommend.RunRequest) error) error
}

// RunWorkerService is the single worker draining the run queue.
// Because it is the only subscriber, runs never overlap.
type RunWorkerService struct {
	engine RunEngine
	queue  RunConsumer
	logger zerolog.Logger
	name   string
}

// NewRunWorkerService creates the queue worker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRunWorkerService(engine RunEngine, queue RunConsumer, logger zerolog.Logger) *RunWorkerService {
	return &RunWorkerService{
		engine: engine,
		queue:  queue,
		logger: logger.With().Str("service", "run-worker").Logger(),
		name:   "run-worker",
	}
}

// Serve implements the suture.Service interface.
func (s *RunWorkerService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("run worker starting")
	err := s.queue.Consume(ctx, s.execute)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Info().Msg("run worker shutting down")
	}
	return err
}

func (s *RunWorkerService) execute(ctx context.Context, req recommend.RunRequest) error {
	start := time.Now()
	result, err := s.engine.Run(ctx, req)
	metrics.RecordRun(req.Trigger, result, time.Since(start), err)
	return err
}

// String returns the service name for logging.
func (s *RunWorkerService) String() string {
	return s.name
}
