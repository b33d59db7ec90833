// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Playlists retrieves all video playlists
// Endpoint: GET /playlists?playlistType=video
func (c *Client) Playlists(ctx context.Context) ([]Metadata, error) {
	query := url.Values{}
	query.Set("playlistType", "video")

	var resp MediaContainerResponse
	if err := c.doJSONRequest(ctx, "/playlists", query, &resp); err != nil {
		return nil, fmt.Errorf("get playlists: %w", err)
	}
	return resp.MediaContainer.Metadata, nil
}

// PlaylistItems retrieves the entries of a playlist. Each entry carries the
// playlistItemID needed to remove it.
// Endpoint: GET /playlists/{ratingKey}/items
func (c *Client) PlaylistItems(ctx context.Context, playlistKey string) ([]Metadata, error) {
	var resp MediaContainerResponse
	path := fmt.Sprintf("/playlists/%s/items", url.PathEscape(playlistKey))
	if err := c.doJSONRequest(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get playlist %s items: %w", playlistKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}

// CreatePlaylist creates a regular video playlist seeded with ratingKeys.
// Endpoint: POST /playlists?type=video&title=&smart=0&uri=
func (c *Client) CreatePlaylist(ctx context.Context, title string, ratingKeys []string) (*Metadata, error) {
	uri, err := c.itemsURI(ctx, ratingKeys)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("type", "video")
	query.Set("title", title)
	query.Set("smart", "0")
	query.Set("uri", uri)

	var resp MediaContainerResponse
	if err := c.doRequest(ctx, requestConfig{method: http.MethodPost, path: "/playlists", query: query}, &resp); err != nil {
		return nil, fmt.Errorf("create playlist %q: %w", title, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("create playlist %q: empty response", title)
	}
	return &resp.MediaContainer.Metadata[0], nil
}

// AddToPlaylist appends ratingKeys to a playlist in one call.
// Endpoint: PUT /playlists/{ratingKey}/items?uri=
func (c *Client) AddToPlaylist(ctx context.Context, playlistKey string, ratingKeys []string) error {
	uri, err := c.itemsURI(ctx, ratingKeys)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("uri", uri)

	path := fmt.Sprintf("/playlists/%s/items", url.PathEscape(playlistKey))
	if err := c.doRequest(ctx, requestConfig{method: http.MethodPut, path: path, query: query}, nil); err != nil {
		return fmt.Errorf("add %d items to playlist %s: %w", len(ratingKeys), playlistKey, err)
	}
	return nil
}

// RemoveFromPlaylist removes one playlist entry.
// Endpoint: DELETE /playlists/{ratingKey}/items/{playlistItemID}
func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistKey string, playlistItemID int64) error {
	path := fmt.Sprintf("/playlists/%s/items/%d", url.PathEscape(playlistKey), playlistItemID)
	if err := c.doRequest(ctx, requestConfig{method: http.MethodDelete, path: path}, nil); err != nil {
		return fmt.Errorf("remove item %d from playlist %s: %w", playlistItemID, playlistKey, err)
	}
	return nil
}

// itemsURI builds the library URI Plex expects when adding items:
// server://{machineID}/com.plexapp.plugins.library/library/metadata/{k1,k2}
func (c *Client) itemsURI(ctx context.Context, ratingKeys []string) (string, error) {
	if len(ratingKeys) == 0 {
		return "", fmt.Errorf("no items to add")
	}
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(ratingKeys, ",")), nil
}
