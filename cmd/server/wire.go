// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/api"
	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/embedding"
	"github.com/tomtom215/plexrec/internal/recommend"
	"github.com/tomtom215/plexrec/internal/recommend/reranking"
	"github.com/tomtom215/plexrec/internal/supervisor/services"
	"github.com/tomtom215/plexrec/internal/vectorindex"
)

// indexConfig maps the user-facing index section onto the store settings.
func indexConfig(cfg *config.IndexConfig) vectorindex.Config {
	ic := vectorindex.DefaultConfig()
	ic.Path = cfg.Path
	ic.InMemory = cfg.InMemory
	ic.SyncWrites = cfg.SyncWrites
	if cfg.Metric != "" {
		ic.Metric = vectorindex.Metric(cfg.Metric)
	}
	ic.GCInterval = cfg.GCInterval
	return ic
}

// middlewareConfig maps the server section onto the chi middleware set.
func middlewareConfig(cfg *config.ServerConfig) *api.ChiMiddlewareConfig {
	mc := api.DefaultChiMiddlewareConfig()
	if len(cfg.CORSOrigins) > 0 {
		mc.CORSAllowedOrigins = cfg.CORSOrigins
	}
	mc.RateLimitRequests = cfg.RateLimitPerMinute
	mc.RateLimitWindow = time.Minute
	return mc
}

// schedulerConfig maps the worker section onto the run scheduler.
func schedulerConfig(cfg *config.WorkerConfig) services.RunSchedulerConfig {
	return services.RunSchedulerConfig{
		RunOnStartup: cfg.RunOnStartup,
		RunInterval:  cfg.RunInterval,
	}
}

// newEmbedder layers the provider as Guarded(Lazy(OpenAI)). The lazy layer
// is returned too so the supervisor can run its idle unloader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newEmbedder(cfg *config.EmbeddingConfig, logger zerolog.Logger) (*embedding.Guarded, *embedding.Lazy) {
	lazy := embedding.NewLazy(func() (recommend.Embedder, error) {
		return embedding.NewOpenAI(cfg, logger), nil
	}, cfg.IdleUnload, logger)
	return embedding.NewGuarded(lazy, cfg.Breaker, logger), lazy
}

// rerankers returns the configured post-retrieval stages in order.
func rerankers(cfg *config.WeightingConfig) []recommend.Reranker {
	var out []recommend.Reranker
	if cfg.AddedPenalty != nil {
		out = append(out, reranking.NewRecencyPenalty(*cfg.AddedPenalty))
	}
	return out
}

// newHTTPServer builds the API server with the configured timeouts.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       2 * timeout,
	}
}
