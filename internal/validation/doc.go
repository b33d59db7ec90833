// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package validation wraps go-playground/validator v10 for API request structs.

The validator is a process-wide singleton (it caches struct metadata) and
reports fields by their JSON name. Besides the built-in tags it registers:

  - mediakind: the value parses as a recommend.Kind ("movie" or "show")

Example:

	type runRequest struct {
	    N    int      `json:"n" validate:"omitempty,min=1,max=100"`
	    Kind []string `json:"kinds" validate:"omitempty,dive,mediakind"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    // respond 400 with apiErr.Code, apiErr.Message, apiErr.Details
	}
*/
package validation
