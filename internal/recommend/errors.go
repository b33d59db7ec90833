// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import "errors"

var (
	// ErrNotFound is returned by collaborators when an item, entry or
	// playlist does not exist. Callers fall back (search, create).
	ErrNotFound = errors.New("not found")

	// ErrEmptyInput means no watched items were available to build a
	// preference vector.
	ErrEmptyInput = errors.New("no watched items to build a preference from")

	// ErrResolutionGap marks a candidate that no longer maps to a catalogue item.
	ErrResolutionGap = errors.New("candidate could not be resolved in the catalogue")

	// ErrBackendUnavailable is fatal for the current run.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInvalidRequest rejects malformed retrieval or run parameters.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRunInProgress is returned when a run is already executing.
	ErrRunInProgress = errors.New("recommendation run already in progress")

	// ErrReconcileIncomplete means additions could not be confirmed, so
	// pruning was skipped.
	ErrReconcileIncomplete = errors.New("playlist additions not confirmed")

	// ErrDimensionMismatch rejects vectors whose length differs from the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
