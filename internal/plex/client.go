// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/metrics"
)

// ErrNotFound is returned when Plex answers 404 or a lookup has no match.
var ErrNotFound = errors.New("plex: not found")

// StatusError is a non-success HTTP response from Plex.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plex: %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Client handles communication with the Plex Media Server API.
// All requests share one token-bucket limiter and retry on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	logger     zerolog.Logger

	machineMu sync.Mutex
	machineID string
}

// NewClient creates a Plex client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg *config.PlexConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1)),
		maxRetries: cfg.MaxRetries,
		baseDelay:  time.Second,
		logger:     logger.With().Str("component", "plex").Logger(),
	}
}

// doRequestWithRateLimit executes an HTTP request with automatic retry on rate limiting (HTTP 429)
//
// Retry policy:
//   - Up to maxRetries retry attempts
//   - Exponential backoff from baseDelay: 1s, 2s, 4s, 8s, 16s
//   - Respects Retry-After header (RFC 6585) if present
//   - Only retries on HTTP 429 (Too Many Requests)
//
// newReq builds a fresh request per attempt.
func (c *Client) doRequestWithRateLimit(ctx context.Context, method, path string, newReq func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		metrics.PlexRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()

		if attempt == c.maxRetries {
			break
		}

		retryDelay := c.baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				retryDelay = time.Duration(seconds) * time.Second
			}
		}

		metrics.PlexRateLimitRetries.Inc()
		c.logger.Warn().
			Dur("retry_delay", retryDelay).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("rate limit exceeded after %d retries: %w", c.maxRetries,
		&StatusError{Method: method, Path: path, StatusCode: http.StatusTooManyRequests})
}
