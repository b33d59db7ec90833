// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/plexrec/internal/api"
	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/logging"
	"github.com/tomtom215/plexrec/internal/plex"
	"github.com/tomtom215/plexrec/internal/recommend"
	"github.com/tomtom215/plexrec/internal/runqueue"
	"github.com/tomtom215/plexrec/internal/supervisor"
	"github.com/tomtom215/plexrec/internal/supervisor/services"
	"github.com/tomtom215/plexrec/internal/vectorindex"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("plex_url", cfg.Plex.URL).
		Str("embedding_model", cfg.Embedding.Model).
		Str("playlist", cfg.Playlist.Name).
		Str("index_path", cfg.Index.Path).
		Msg("Starting plexrec")

	engineCfg, err := cfg.Recommend()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid recommendation settings")
	}

	index, err := vectorindex.Open(indexConfig(&cfg.Index), logging.WithComponent("vectorindex"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open vector index")
	}
	defer func() {
		if err := index.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing vector index")
		}
	}()

	plexLogger := logging.WithComponent("plex")
	catalogue := plex.NewCatalogue(plex.NewClient(&cfg.Plex, plexLogger), &cfg.Plex, plexLogger)

	embedder, lazyEmbedder := newEmbedder(&cfg.Embedding, logging.WithComponent("embedding"))

	engine, err := recommend.NewEngine(engineCfg, recommend.Dependencies{
		Catalogue: catalogue,
		Index:     index,
		Embedder:  embedder,
		Rerankers: rerankers(&cfg.Weighting),
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	queueLogger := logging.WithComponent("runqueue")
	queue, err := runqueue.New(cfg.Worker.QueueBuffer, queueLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create run queue")
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing run queue")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	treeCfg := supervisor.DefaultTreeConfig()
	if cfg.Server.ShutdownTimeout > 0 {
		treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	if cfg.Index.GCInterval > 0 && !cfg.Index.InMemory {
		tree.AddDataService(services.NewIndexGCService(index, logging.WithComponent("index-gc")))
	}

	// Worker layer
	workerLogger := logging.WithComponent("worker")
	tree.AddWorkerService(services.NewRunWorkerService(engine, queue, workerLogger))
	tree.AddWorkerService(services.NewRunSchedulerService(queue, schedulerConfig(&cfg.Worker), workerLogger))
	if cfg.Embedding.IdleUnload > 0 {
		tree.AddWorkerService(lazyEmbedder)
	}

	// API layer
	apiLogger := logging.WithComponent("api")
	handler := api.NewHandler(engine, queue, []api.BreakerStatus{
		catalogue.Breaker(),
		embedder.Breaker(),
	}, apiLogger)
	router := api.NewRouter(handler, api.NewChiMiddleware(middlewareConfig(&cfg.Server)))
	server := newHTTPServer(&cfg.Server, router)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, apiLogger))

	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree configured")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	// The tree only returns once ctx is canceled or the root gives up.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("plexrec stopped")
}
