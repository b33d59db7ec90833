// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
request.go - Plex HTTP Request Helpers

Request Configuration:
  - Authentication: X-Plex-Token header on all requests
  - JSON Accept: Accept: application/json so Plex skips XML
  - Status Validation: 200 and 204 succeed, 404 maps to ErrNotFound
  - Rate Limiting: token bucket plus retry with exponential backoff on 429
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

const productName = "plexrec"

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	method string
	path   string
	query  url.Values
}

// doRequest executes a Plex API request and decodes the JSON response into
// result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := c.baseURL + cfg.path
	if len(cfg.query) > 0 {
		reqURL += "?" + cfg.query.Encode()
	}

	resp, err := c.doRequestWithRateLimit(ctx, cfg.method, cfg.path, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Plex-Token", c.token)
		req.Header.Set("X-Plex-Product", productName)
		req.Header.Set("X-Plex-Client-Identifier", productName)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", cfg.method, cfg.path, ErrNotFound)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusCreated:
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: cfg.method, Path: cfg.path, StatusCode: resp.StatusCode}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doJSONRequest is a convenience wrapper for GET requests
func (c *Client) doJSONRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method: http.MethodGet,
		path:   path,
		query:  query,
	}, result)
}
