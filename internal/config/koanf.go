// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/plexrec/config.yaml",
	"/etc/plexrec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Plex: PlexConfig{
			URL:               "",
			Token:             "",
			Timeout:           30 * time.Second,
			MovieSection:      "Movies",
			ShowSection:       "TV Shows",
			RequestsPerSecond: 10,
			Burst:             5,
			MaxRetries:        5,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Embedding: EmbeddingConfig{
			BaseURL:     "http://localhost:7997/v1",
			APIKey:      "",
			Model:       "jinaai/jina-embeddings-v2-small-en",
			Dimensions:  0,
			BatchSize:   32,
			Concurrency: 2,
			Timeout:     2 * time.Minute,
			IdleUnload:  0,
			Breaker: BreakerConfig{
				MaxRequests:  1,
				Interval:     time.Minute,
				Timeout:      time.Minute,
				MinRequests:  3,
				FailureRatio: 0.5,
			},
		},
		Index: IndexConfig{
			Path:       "/data/index",
			InMemory:   false,
			Metric:     "cosine",
			SyncWrites: false,
			GCInterval: time.Hour,
		},
		Playlist: PlaylistConfig{
			Name:         "Suggestions",
			Prune:        true,
			AddBatchSize: 5,
		},
		Weighting: WeightingConfig{
			Stars: StarsConfig{
				Include: false,
				Default: 2.5,
			},
		},
		Retrieval: RetrievalConfig{
			NResults: 10,
			NRerank:  30,
			Kinds:    []string{"movie", "show"},
		},
		Worker: WorkerConfig{
			RunOnStartup: false,
			RunInterval:  24 * time.Hour,
			RunTimeout:   30 * time.Minute,
			QueueBuffer:  8,
		},
		Server: ServerConfig{
			Port:               8484,
			Host:               "0.0.0.0",
			Timeout:            30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// PLEX_URL -> plex.url, N_RERANK -> retrieval.n_rerank
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"retrieval.kinds",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Plex
	"plex_url":                     "plex.url",
	"plex_token":                   "plex.token",
	"plex_timeout":                 "plex.timeout",
	"plex_movie_section":           "plex.movie_section",
	"plex_show_section":            "plex.show_section",
	"plex_requests_per_second":     "plex.requests_per_second",
	"plex_burst":                   "plex.burst",
	"plex_max_retries":             "plex.max_retries",
	"plex_breaker_timeout":         "plex.breaker.timeout",
	"plex_breaker_failure_ratio":   "plex.breaker.failure_ratio",
	"embedding_breaker_timeout":    "embedding.breaker.timeout",
	"embedding_breaker_min_errors": "embedding.breaker.min_requests",

	// Embedding provider
	"embedding_base_url":    "embedding.base_url",
	"embedding_api_key":     "embedding.api_key",
	"openai_api_key":        "embedding.api_key",
	"embedding_model":       "embedding.model",
	"embedding_dimensions":  "embedding.dimensions",
	"embedding_batch_size":  "embedding.batch_size",
	"embedding_concurrency": "embedding.concurrency",
	"embedding_timeout":     "embedding.timeout",
	"embedding_idle_unload": "embedding.idle_unload",

	// Vector index
	"index_path":        "index.path",
	"index_in_memory":   "index.in_memory",
	"index_metric":      "index.metric",
	"index_sync_writes": "index.sync_writes",
	"index_gc_interval": "index.gc_interval",

	// Playlist and weighting
	"playlist_name":           "playlist.name",
	"playlist_prune":          "playlist.prune",
	"playlist_add_batch_size": "playlist.add_batch_size",
	"weighting_stars_include": "weighting.stars.include",
	"weighting_stars_default": "weighting.stars.default",
	"weighting_added_penalty": "weighting.added_penalty",

	// Retrieval
	"n_results": "retrieval.n_results",
	"n_rerank":  "retrieval.n_rerank",
	"kinds":     "retrieval.kinds",

	// Worker
	"run_on_startup":   "worker.run_on_startup",
	"run_interval":     "worker.run_interval",
	"run_timeout":      "worker.run_timeout",
	"run_queue_buffer": "worker.queue_buffer",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"server_timeout":        "server.timeout",
	"shutdown_timeout":      "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_per_minute": "server.rate_limit_per_minute",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PLEX_URL -> plex.url
//   - WEIGHTING_STARS_INCLUDE -> weighting.stars.include
//   - N_RESULTS -> retrieval.n_results
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables
	// never reach the config tree.
	return ""
}
