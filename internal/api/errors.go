// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/plexrec/internal/recommend"
	"github.com/tomtom215/plexrec/internal/runqueue"
)

// errorMapping pairs a sentinel with its HTTP status and code.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{recommend.ErrEmptyInput, http.StatusUnprocessableEntity, ErrCodeEmptyInput, "No watched items to build suggestions from"},
	{recommend.ErrBackendUnavailable, http.StatusServiceUnavailable, ErrCodeBackendUnavailable, "A backend service is unavailable"},
	{recommend.ErrRunInProgress, http.StatusConflict, ErrCodeRunInProgress, "A recommendation run is already in progress"},
	{runqueue.ErrQueueFull, http.StatusServiceUnavailable, ErrCodeQueueFull, "Too many runs are waiting"},
	{runqueue.ErrClosed, http.StatusServiceUnavailable, ErrCodeQueueFull, "The run queue is shutting down"},
	{recommend.ErrInvalidRequest, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request"},
	{recommend.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Not found"},
}

// respondEngineError maps a domain error to an API error response.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			respondError(w, r, m.status, m.code, m.message, err)
			return
		}
	}
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", err)
}
