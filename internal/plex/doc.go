// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package plex is the Plex Media Server adapter.

Client speaks the Plex HTTP API (JSON responses, X-Plex-Token auth) with a
token-bucket limiter and retry on HTTP 429. Catalogue wraps the client behind
a circuit breaker and implements recommend.Catalogue and recommend.Playlist.

# Endpoints

  - GET /identity: machine identifier for item URIs and web links
  - GET /library/sections: section lookup by title and type
  - GET /library/sections/{key}/all: listing and exact title lookup
  - GET /library/sections/{key}/search: fallback resolution
  - GET/POST /playlists, GET/PUT/DELETE /playlists/{key}/items: reconciliation

# Watched State

A movie counts as watched once its viewCount is positive. A show counts as
watched only when every episode has been viewed (viewedLeafCount equals
leafCount).

# Errors

The Catalogue translates ErrNotFound into recommend.ErrNotFound and every
other failure (transport, 5xx, open circuit, auth) into
recommend.ErrBackendUnavailable. Not-found answers and other 4xx responses do
not count against the breaker.
*/
package plex
