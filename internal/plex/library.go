// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package plex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// sectionPageSize is the X-Plex-Container-Size used when paging a section
const sectionPageSize = 500

// Sections retrieves all library sections
// Endpoint: GET /library/sections
func (c *Client) Sections(ctx context.Context) ([]Directory, error) {
	var resp MediaContainerResponse
	if err := c.doJSONRequest(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, fmt.Errorf("get library sections: %w", err)
	}
	return resp.MediaContainer.Directory, nil
}

// SectionItems retrieves every top-level item of a section, paging through
// the container.
// Endpoint: GET /library/sections/{key}/all
func (c *Client) SectionItems(ctx context.Context, sectionKey string) ([]Metadata, error) {
	var items []Metadata
	for start := 0; ; start += sectionPageSize {
		query := url.Values{}
		query.Set("X-Plex-Container-Start", strconv.Itoa(start))
		query.Set("X-Plex-Container-Size", strconv.Itoa(sectionPageSize))

		var resp MediaContainerResponse
		path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
		if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
			return nil, fmt.Errorf("get section %s content: %w", sectionKey, err)
		}

		page := resp.MediaContainer.Metadata
		items = append(items, page...)

		total := resp.MediaContainer.TotalSize
		if len(page) < sectionPageSize || (total > 0 && len(items) >= total) {
			return items, nil
		}
	}
}

// FindByTitle returns the items of a section whose title equals title.
// Plex filters by substring, so the result is narrowed to exact matches.
// Endpoint: GET /library/sections/{key}/all?title=
func (c *Client) FindByTitle(ctx context.Context, sectionKey, title string) ([]Metadata, error) {
	query := url.Values{}
	query.Set("title", title)

	var resp MediaContainerResponse
	path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
	if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("find %q in section %s: %w", title, sectionKey, err)
	}

	var exact []Metadata
	for i := range resp.MediaContainer.Metadata {
		if resp.MediaContainer.Metadata[i].Title == title {
			exact = append(exact, resp.MediaContainer.Metadata[i])
		}
	}
	return exact, nil
}

// Search searches a section, ordered by Plex relevance.
// Endpoint: GET /library/sections/{key}/search
func (c *Client) Search(ctx context.Context, sectionKey, searchQuery string, mediaType int) ([]Metadata, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	if mediaType > 0 {
		query.Set("type", strconv.Itoa(mediaType))
	}

	var resp MediaContainerResponse
	path := fmt.Sprintf("/library/sections/%s/search", url.PathEscape(sectionKey))
	if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("search section %s: %w", sectionKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}
