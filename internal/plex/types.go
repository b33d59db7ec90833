// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package plex

// Plex API Response Structures
// Every endpoint used here answers with a MediaContainer envelope when the
// request carries Accept: application/json.

// MediaContainerResponse is the top-level response shape for metadata lists
type MediaContainerResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}

// MediaContainer wraps metadata and directory arrays
type MediaContainer struct {
	Size              int         `json:"size"`
	TotalSize         int         `json:"totalSize,omitempty"`
	LibrarySectionID  int         `json:"librarySectionID,omitempty"`
	MachineIdentifier string      `json:"machineIdentifier,omitempty"`
	Metadata          []Metadata  `json:"Metadata,omitempty"`
	Directory         []Directory `json:"Directory,omitempty"`
}

// Metadata is a library item, a playlist, or a playlist entry
type Metadata struct {
	// Primary identifiers
	RatingKey            string `json:"ratingKey"`
	Key                  string `json:"key,omitempty"`
	GrandparentRatingKey string `json:"grandparentRatingKey,omitempty"` // show of an episode
	PlaylistItemID       int64  `json:"playlistItemID,omitempty"`       // only on /playlists/{id}/items

	// Type and titles
	Type             string `json:"type"` // "movie", "show", "episode", "playlist"
	Title            string `json:"title"`
	GrandparentTitle string `json:"grandparentTitle,omitempty"`
	Year             int    `json:"year,omitempty"`
	Summary          string `json:"summary,omitempty"`
	Genre            []Tag  `json:"Genre,omitempty"`

	// User state
	UserRating      *float64 `json:"userRating,omitempty"` // 0-10, absent when unrated
	ViewCount       int      `json:"viewCount,omitempty"`
	LeafCount       int      `json:"leafCount,omitempty"`       // episodes in a show
	ViewedLeafCount int      `json:"viewedLeafCount,omitempty"` // watched episodes in a show
	AddedAt         int64    `json:"addedAt,omitempty"`

	// Playlist fields
	PlaylistType string `json:"playlistType,omitempty"`
	Smart        bool   `json:"smart,omitempty"`
}

// Tag is a Plex tag entry (genre, director, collection, ...)
type Tag struct {
	Tag string `json:"tag"`
}

// Directory is a library section entry from GET /library/sections
type Directory struct {
	Key   string `json:"key"`
	Type  string `json:"type"` // "movie", "show", "artist", "photo"
	Title string `json:"title"`
}

// IdentityResponse represents the response from GET /identity
type IdentityResponse struct {
	MediaContainer struct {
		MachineIdentifier string `json:"machineIdentifier"`
		Version           string `json:"version"`
	} `json:"MediaContainer"`
}

// Plex metadata type codes used by the search endpoint
const (
	typeMovie = 1
	typeShow  = 2
)
