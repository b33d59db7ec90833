// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	if err := c.validateIndex(); err != nil {
		return err
	}

	if err := c.validateWorker(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	// Playlist, weighting and retrieval are checked by the engine's own rules.
	if _, err := c.Recommend(); err != nil {
		return err
	}
	return nil
}

// validatePlex validates the Plex connection settings
func (c *Config) validatePlex() error {
	if c.Plex.URL == "" {
		return fmt.Errorf("PLEX_URL is required")
	}
	if err := validateHTTPURL(c.Plex.URL, "PLEX_URL"); err != nil {
		return err
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("PLEX_TOKEN is required")
	}
	if containsPlaceholder(c.Plex.Token) {
		return fmt.Errorf("PLEX_TOKEN contains a placeholder value, set a real token")
	}
	if c.Plex.Timeout <= 0 {
		return fmt.Errorf("PLEX_TIMEOUT must be positive")
	}
	if c.Plex.MovieSection == "" || c.Plex.ShowSection == "" {
		return fmt.Errorf("plex.movie_section and plex.show_section must not be empty")
	}
	if c.Plex.RequestsPerSecond <= 0 {
		return fmt.Errorf("PLEX_REQUESTS_PER_SECOND must be positive")
	}
	if c.Plex.Burst < 1 {
		return fmt.Errorf("PLEX_BURST must be at least 1")
	}
	if c.Plex.MaxRetries < 0 {
		return fmt.Errorf("PLEX_MAX_RETRIES must be non-negative")
	}
	return c.Plex.Breaker.validate("plex.breaker")
}

// validateEmbedding validates the embedding provider settings
func (c *Config) validateEmbedding() error {
	if err := validateServiceURL(c.Embedding.BaseURL, "EMBEDDING_BASE_URL"); err != nil {
		return err
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be non-negative")
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT must be positive")
	}
	if c.Embedding.IdleUnload < 0 {
		return fmt.Errorf("EMBEDDING_IDLE_UNLOAD must be non-negative")
	}
	return c.Embedding.Breaker.validate("embedding.breaker")
}

func (b BreakerConfig) validate(section string) error {
	if b.MaxRequests < 1 {
		return fmt.Errorf("%s.max_requests must be at least 1", section)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be positive", section)
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return fmt.Errorf("%s.failure_ratio must be in (0, 1], got %v", section, b.FailureRatio)
	}
	return nil
}

// validateIndex validates the vector index settings
func (c *Config) validateIndex() error {
	if !c.Index.InMemory && c.Index.Path == "" {
		return fmt.Errorf("INDEX_PATH is required unless INDEX_IN_MEMORY=true")
	}
	switch c.Index.Metric {
	case "cosine", "l2":
	default:
		return fmt.Errorf("INDEX_METRIC must be one of: cosine, l2")
	}
	if c.Index.GCInterval < 0 {
		return fmt.Errorf("INDEX_GC_INTERVAL must be non-negative")
	}
	return nil
}

// validateWorker validates the run worker settings
func (c *Config) validateWorker() error {
	if c.Worker.RunInterval < 0 {
		return fmt.Errorf("RUN_INTERVAL must be non-negative")
	}
	if c.Worker.QueueBuffer < 1 {
		return fmt.Errorf("RUN_QUEUE_BUFFER must be at least 1")
	}
	return nil
}

// validateServer validates the HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be non-negative")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_TOKEN",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder reports whether a value looks like an unedited template value.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
