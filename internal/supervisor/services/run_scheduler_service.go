// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/recommend"
)

// Run triggers recorded in metrics and logs.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
)

// RunEnqueuer accepts run requests. Satisfied by *runqueue.Queue.
type RunEnqueuer interface {
	Enqueue(ctx context.Context, req recommend.RunRequest) (string, error)
}

// RunSchedulerConfig holds configuration for scheduled runs.
type RunSchedulerConfig struct {
	// RunOnStartup enqueues a run when the service starts.
	RunOnStartup bool

	// RunInterval is how often to enqueue a run. Zero disables the schedule.
	RunInterval time.Duration
}

// RunSchedulerService enqueues runs on startup and on a fixed interval.
// It never runs the engine itself; the worker does.
type RunSchedulerService struct {
	queue  RunEnqueuer
	config RunSchedulerConfig
	logger zerolog.Logger
	name   string
}

// NewRunSchedulerService creates the scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRunSchedulerService(queue RunEnqueuer, cfg RunSchedulerConfig, logger zerolog.Logger) *RunSchedulerService {
	return &RunSchedulerService{
		queue:  queue,
		config: cfg,
		logger: logger.With().Str("service", "run-scheduler").Logger(),
		name:   "run-scheduler",
	}
}

// Serve implements the suture.Service interface.
func (s *RunSchedulerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("run_interval", s.config.RunInterval).
		Msg("run scheduler starting")

	if s.config.RunOnStartup {
		s.enqueue(ctx, TriggerStartup)
	}

	if s.config.RunInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("run scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.enqueue(ctx, TriggerSchedule)
		}
	}
}

func (s *RunSchedulerService) enqueue(ctx context.Context, trigger string) {
	id, err := s.queue.Enqueue(ctx, recommend.RunRequest{Trigger: trigger})
	if err != nil {
		// A full queue already holds a run that will pick up the same state.
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("could not enqueue run")
		return
	}
	s.logger.Debug().Str("run_id", id).Str("trigger", trigger).Msg("run enqueued")
}

// String returns the service name for logging.
func (s *RunSchedulerService) String() string {
	return s.name
}
