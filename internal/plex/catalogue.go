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
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/breaker"
	"github.com/tomtom215/plexrec/internal/config"
	"github.com/tomtom215/plexrec/internal/recommend"
)

// BreakerName labels the Plex circuit breaker in metrics and health output.
const BreakerName = "plex-api"

// Catalogue adapts the Plex client to recommend.Catalogue. Every call runs
// behind a circuit breaker, and errors are translated so the engine only
// sees recommend.ErrNotFound or recommend.ErrBackendUnavailable.
type Catalogue struct {
	client        *Client
	breaker       *breaker.Breaker
	sectionTitles map[recommend.Kind]string
	logger        zerolog.Logger

	sectionsMu sync.Mutex
	sections   map[recommend.Kind]string // kind -> section key
}

// NewCatalogue creates the catalogue adapter.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogue(client *Client, cfg *config.PlexConfig, logger zerolog.Logger) *Catalogue {
	return &Catalogue{
		client:  client,
		breaker: breaker.New(BreakerName, cfg.Breaker, isClientError, logger),
		sectionTitles: map[recommend.Kind]string{
			recommend.KindMovie: cfg.MovieSection,
			recommend.KindShow:  cfg.ShowSection,
		},
		logger:   logger.With().Str("component", "plex_catalogue").Logger(),
		sections: make(map[recommend.Kind]string),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Catalogue) Breaker() *breaker.Breaker {
	return c.breaker
}

// isClientError marks answers that say nothing about server health.
func isClientError(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
			statusErr.StatusCode != http.StatusTooManyRequests &&
			statusErr.StatusCode != http.StatusUnauthorized
	}
	return false
}

// translateErr maps Plex errors onto the engine's error taxonomy.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", recommend.ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", recommend.ErrBackendUnavailable, err)
	}
}

// call runs fn behind the breaker and translates its error.
func call[T any](c *Catalogue, fn func() (T, error)) (T, error) {
	result, err := breaker.Do(c.breaker, fn)
	return result, translateErr(err)
}

// sectionKey resolves the library section serving kind. The configured
// section title wins; otherwise the first section of the matching type.
func (c *Catalogue) sectionKey(ctx context.Context, kind recommend.Kind) (string, error) {
	c.sectionsMu.Lock()
	defer c.sectionsMu.Unlock()

	if key, ok := c.sections[kind]; ok {
		return key, nil
	}

	dirs, err := c.client.Sections(ctx)
	if err != nil {
		return "", err
	}

	want := c.sectionTitles[kind]
	var fallback *Directory
	for i := range dirs {
		if dirs[i].Type != string(kind) {
			continue
		}
		if dirs[i].Title == want {
			c.sections[kind] = dirs[i].Key
			return dirs[i].Key, nil
		}
		if fallback == nil {
			fallback = &dirs[i]
		}
	}

	if fallback == nil {
		return "", fmt.Errorf("no %s library section: %w", kind, ErrNotFound)
	}
	c.logger.Warn().
		Str("kind", string(kind)).
		Str("configured", want).
		Str("using", fallback.Title).
		Msg("Configured library section not found, using first section of this type")
	c.sections[kind] = fallback.Key
	return fallback.Key, nil
}

// ListItems returns every item of kind in its library section.
func (c *Catalogue) ListItems(ctx context.Context, kind recommend.Kind) ([]recommend.MediaItem, error) {
	return call(c, func() ([]recommend.MediaItem, error) {
		key, err := c.sectionKey(ctx, kind)
		if err != nil {
			return nil, err
		}
		machineID, err := c.client.MachineIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := c.client.SectionItems(ctx, key)
		if err != nil {
			return nil, err
		}
		return toMediaItems(entries, kind, machineID), nil
	})
}

// GetItem returns the item whose title matches exactly.
func (c *Catalogue) GetItem(ctx context.Context, title string, kind recommend.Kind) (recommend.MediaItem, error) {
	return call(c, func() (recommend.MediaItem, error) {
		key, err := c.sectionKey(ctx, kind)
		if err != nil {
			return recommend.MediaItem{}, err
		}
		machineID, err := c.client.MachineIdentifier(ctx)
		if err != nil {
			return recommend.MediaItem{}, err
		}
		entries, err := c.client.FindByTitle(ctx, key, title)
		if err != nil {
			return recommend.MediaItem{}, err
		}
		items := toMediaItems(entries, kind, machineID)
		if len(items) == 0 {
			return recommend.MediaItem{}, fmt.Errorf("%s %q: %w", kind, title, ErrNotFound)
		}
		return items[0], nil
	})
}

// SearchItems returns Plex search matches for title, most relevant first.
func (c *Catalogue) SearchItems(ctx context.Context, title string, kind recommend.Kind) ([]recommend.MediaItem, error) {
	return call(c, func() ([]recommend.MediaItem, error) {
		key, err := c.sectionKey(ctx, kind)
		if err != nil {
			return nil, err
		}
		machineID, err := c.client.MachineIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := c.client.Search(ctx, key, title, searchType(kind))
		if err != nil {
			return nil, err
		}
		return toMediaItems(entries, kind, machineID), nil
	})
}

// UserRating returns the live star rating (0-5) of the titled item.
func (c *Catalogue) UserRating(ctx context.Context, title string, kind recommend.Kind) (*float64, error) {
	item, err := c.GetItem(ctx, title, kind)
	if err != nil {
		return nil, err
	}
	return item.UserRating, nil
}

// FindPlaylist returns the regular (non-smart) playlist called name.
func (c *Catalogue) FindPlaylist(ctx context.Context, name string) (recommend.Playlist, error) {
	pl, err := call(c, func() (*Metadata, error) {
		playlists, err := c.client.Playlists(ctx)
		if err != nil {
			return nil, err
		}
		for i := range playlists {
			if playlists[i].Title == name && !playlists[i].Smart {
				return &playlists[i], nil
			}
		}
		return nil, fmt.Errorf("playlist %q: %w", name, ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return c.playlist(pl), nil
}

// CreatePlaylist creates name seeded with items.
func (c *Catalogue) CreatePlaylist(ctx context.Context, name string, items []recommend.MediaItem) (recommend.Playlist, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("create playlist %q: %w: no items", name, recommend.ErrInvalidRequest)
	}
	pl, err := call(c, func() (*Metadata, error) {
		return c.client.CreatePlaylist(ctx, name, ratingKeys(items))
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("playlist", name).Int("items", len(items)).Msg("Created playlist")
	return c.playlist(pl), nil
}

func (c *Catalogue) playlist(md *Metadata) *Playlist {
	return &Playlist{catalogue: c, key: md.RatingKey, name: md.Title}
}

// Playlist is a handle to a Plex playlist.
//
// Plex expands a show into its episodes when it is added to a playlist, so
// Items folds episodes back into their show and RemoveItem removes every
// episode of a show.
type Playlist struct {
	catalogue *Catalogue
	key       string
	name      string
}

// Name returns the playlist title.
func (p *Playlist) Name() string {
	return p.name
}

// Key returns the playlist rating key.
func (p *Playlist) Key() string {
	return p.key
}

// Items returns the distinct movies and shows in the playlist, in order.
func (p *Playlist) Items(ctx context.Context) ([]recommend.MediaItem, error) {
	return call(p.catalogue, func() ([]recommend.MediaItem, error) {
		machineID, err := p.catalogue.client.MachineIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := p.catalogue.client.PlaylistItems(ctx, p.key)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]struct{}, len(entries))
		items := make([]recommend.MediaItem, 0, len(entries))
		for i := range entries {
			item := playlistEntryItem(&entries[i], machineID)
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
		return items, nil
	})
}

// AddItems appends items in a single request.
func (p *Playlist) AddItems(ctx context.Context, items []recommend.MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateErr(p.catalogue.breaker.Execute(func() error {
		return p.catalogue.client.AddToPlaylist(ctx, p.key, ratingKeys(items))
	}))
}

// RemoveItem removes every playlist entry belonging to item. Removing an
// item that is no longer present is not an error.
func (p *Playlist) RemoveItem(ctx context.Context, item recommend.MediaItem) error {
	return translateErr(p.catalogue.breaker.Execute(func() error {
		entries, err := p.catalogue.client.PlaylistItems(ctx, p.key)
		if err != nil {
			return err
		}
		for i := range entries {
			if !entryBelongsTo(&entries[i], item) {
				continue
			}
			if err := p.catalogue.client.RemoveFromPlaylist(ctx, p.key, entries[i].PlaylistItemID); err != nil {
				return err
			}
		}
		return nil
	}))
}

// entryBelongsTo matches by rating key, falling back to title when the
// item carries no ID.
func entryBelongsTo(entry *Metadata, item recommend.MediaItem) bool {
	if item.ID != "" {
		return entry.RatingKey == item.ID || (entry.GrandparentRatingKey != "" && entry.GrandparentRatingKey == item.ID)
	}
	return entry.Title == item.Title || (entry.GrandparentTitle != "" && entry.GrandparentTitle == item.Title)
}

// playlistEntryItem converts a playlist entry, folding episodes into shows.
func playlistEntryItem(entry *Metadata, machineID string) recommend.MediaItem {
	if entry.Type == "episode" && entry.GrandparentRatingKey != "" {
		return recommend.MediaItem{
			ID:    entry.GrandparentRatingKey,
			Title: entry.GrandparentTitle,
			Kind:  recommend.KindShow,
			Link:  WebLink(machineID, entry.GrandparentRatingKey),
		}
	}
	return toMediaItem(entry, recommend.Kind(entry.Type), machineID)
}

func toMediaItems(entries []Metadata, kind recommend.Kind, machineID string) []recommend.MediaItem {
	items := make([]recommend.MediaItem, 0, len(entries))
	for i := range entries {
		if entries[i].Type != string(kind) {
			continue
		}
		items = append(items, toMediaItem(&entries[i], kind, machineID))
	}
	return items
}

// toMediaItem converts Plex metadata. A movie is watched once played; a
// show only when every episode has been watched. Plex rates on a 0-10 scale,
// which is halved into stars.
func toMediaItem(md *Metadata, kind recommend.Kind, machineID string) recommend.MediaItem {
	item := recommend.MediaItem{
		ID:      md.RatingKey,
		Title:   md.Title,
		Kind:    kind,
		Year:    md.Year,
		Summary: md.Summary,
	}

	for _, g := range md.Genre {
		item.Genres = append(item.Genres, g.Tag)
	}

	switch kind {
	case recommend.KindMovie:
		item.Watched = md.ViewCount > 0
	case recommend.KindShow:
		item.Watched = md.LeafCount > 0 && md.ViewedLeafCount >= md.LeafCount
	}

	if md.AddedAt > 0 {
		item.AddedAt = time.Unix(md.AddedAt, 0).UTC()
	}
	if md.UserRating != nil {
		stars := *md.UserRating / 2
		item.UserRating = &stars
	}
	if machineID != "" && md.RatingKey != "" {
		item.Link = WebLink(machineID, md.RatingKey)
	}
	return item
}

func ratingKeys(items []recommend.MediaItem) []string {
	keys := make([]string, 0, len(items))
	for i := range items {
		keys = append(keys, items[i].ID)
	}
	return keys
}

func searchType(kind recommend.Kind) int {
	if kind == recommend.KindShow {
		return typeShow
	}
	return typeMovie
}

var (
	_ recommend.Catalogue = (*Catalogue)(nil)
	_ recommend.Playlist  = (*Playlist)(nil)
)
