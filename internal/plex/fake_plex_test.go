// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package plex

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/config"
)

const testMachineID = "abc123"

// fakePlex is an in-memory Plex server covering the endpoints the adapter uses.
type fakePlex struct {
	mu sync.Mutex

	sections      []Directory
	items         map[string][]Metadata // section key -> items
	episodes      map[string][]Metadata // show rating key -> episodes
	playlists     []Metadata
	playlistItems map[string][]Metadata
	nextItemID    int64

	failStatus int // when set, every request answers with this status
	requests   []string
	tokens     []string
}

func newFakePlex() *fakePlex {
	return &fakePlex{
		sections: []Directory{
			{Key: "1", Type: "movie", Title: "Movies"},
			{Key: "2", Type: "show", Title: "TV Shows"},
		},
		items:         map[string][]Metadata{},
		episodes:      map[string][]Metadata{},
		playlistItems: map[string][]Metadata{},
		nextItemID:    100,
	}
}

func (f *fakePlex) addMovie(key, title string, year, viewCount int) {
	f.items["1"] = append(f.items["1"], Metadata{
		RatingKey: key, Type: "movie", Title: title, Year: year, ViewCount: viewCount,
	})
}

func (f *fakePlex) addShow(key, title string, leaves, viewed int) {
	f.items["2"] = append(f.items["2"], Metadata{
		RatingKey: key, Type: "show", Title: title, LeafCount: leaves, ViewedLeafCount: viewed,
	})
	for i := 1; i <= 2; i++ {
		f.episodes[key] = append(f.episodes[key], Metadata{
			RatingKey:            fmt.Sprintf("%s%02d", key, i),
			Type:                 "episode",
			Title:                fmt.Sprintf("Episode %d", i),
			GrandparentRatingKey: key,
			GrandparentTitle:     title,
		})
	}
}

func (f *fakePlex) lookup(ratingKey string) (Metadata, bool) {
	for _, items := range f.items {
		for _, md := range items {
			if md.RatingKey == ratingKey {
				return md, true
			}
		}
	}
	return Metadata{}, false
}

// appendEntries expands shows into episodes like Plex does.
func (f *fakePlex) appendEntries(playlistKey, uri string) {
	keys := uri[strings.LastIndex(uri, "/")+1:]
	for _, key := range strings.Split(keys, ",") {
		md, ok := f.lookup(key)
		if !ok {
			continue
		}
		entries := []Metadata{md}
		if md.Type == "show" {
			entries = f.episodes[key]
		}
		for _, e := range entries {
			f.nextItemID++
			e.PlaylistItemID = f.nextItemID
			f.playlistItems[playlistKey] = append(f.playlistItems[playlistKey], e)
		}
	}
}

func (f *fakePlex) playlistTitles(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var titles []string
	for _, e := range f.playlistItems[key] {
		if e.GrandparentTitle != "" {
			titles = append(titles, e.GrandparentTitle+"/"+e.Title)
			continue
		}
		titles = append(titles, e.Title)
	}
	return titles
}

func (f *fakePlex) writeJSON(w http.ResponseWriter, container MediaContainer) {
	container.Size = len(container.Metadata) + len(container.Directory)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(MediaContainerResponse{MediaContainer: container})
}

func (f *fakePlex) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /identity", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, MediaContainer{MachineIdentifier: testMachineID})
	})

	mux.HandleFunc("GET /library/sections", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, MediaContainer{Directory: f.sections})
	})

	mux.HandleFunc("GET /library/sections/{key}/all", func(w http.ResponseWriter, r *http.Request) {
		all := f.items[r.PathValue("key")]
		if title := r.URL.Query().Get("title"); title != "" {
			var matched []Metadata
			for _, md := range all {
				if strings.Contains(strings.ToLower(md.Title), strings.ToLower(title)) {
					matched = append(matched, md)
				}
			}
			f.writeJSON(w, MediaContainer{Metadata: matched})
			return
		}

		start, _ := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Start"))
		size, err := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Size"))
		if err != nil || size <= 0 {
			size = len(all)
		}
		end := min(start+size, len(all))
		start = min(start, end)
		f.writeJSON(w, MediaContainer{Metadata: all[start:end], TotalSize: len(all)})
	})

	mux.HandleFunc("GET /library/sections/{key}/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(r.URL.Query().Get("query"))
		var matched []Metadata
		for _, md := range f.items[r.PathValue("key")] {
			if strings.Contains(strings.ToLower(md.Title), q) {
				matched = append(matched, md)
			}
		}
		f.writeJSON(w, MediaContainer{Metadata: matched})
	})

	mux.HandleFunc("GET /playlists", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, MediaContainer{Metadata: f.playlists})
	})

	mux.HandleFunc("POST /playlists", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "video" || q.Get("smart") != "0" {
			http.Error(w, "bad playlist request", http.StatusBadRequest)
			return
		}
		if !strings.HasPrefix(q.Get("uri"), "server://"+testMachineID+"/com.plexapp.plugins.library/library/metadata/") {
			http.Error(w, "bad uri", http.StatusBadRequest)
			return
		}
		pl := Metadata{
			RatingKey:    fmt.Sprintf("pl%d", len(f.playlists)+1),
			Type:         "playlist",
			Title:        q.Get("title"),
			PlaylistType: "video",
		}
		f.playlists = append(f.playlists, pl)
		f.appendEntries(pl.RatingKey, q.Get("uri"))
		f.writeJSON(w, MediaContainer{Metadata: []Metadata{pl}})
	})

	mux.HandleFunc("GET /playlists/{key}/items", func(w http.ResponseWriter, r *http.Request) {
		entries, ok := f.playlistItems[r.PathValue("key")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		f.writeJSON(w, MediaContainer{Metadata: entries})
	})

	mux.HandleFunc("PUT /playlists/{key}/items", func(w http.ResponseWriter, r *http.Request) {
		f.appendEntries(r.PathValue("key"), r.URL.Query().Get("uri"))
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("DELETE /playlists/{key}/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		entries := f.playlistItems[key]
		for i := range entries {
			if entries[i].PlaylistItemID == id {
				f.playlistItems[key] = append(entries[:i:i], entries[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.tokens = append(f.tokens, r.Header.Get("X-Plex-Token"))
		if f.failStatus != 0 {
			w.WriteHeader(f.failStatus)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (f *fakePlex) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func testPlexConfig(url string) *config.PlexConfig {
	return &config.PlexConfig{
		URL:               url,
		Token:             "test-token",
		Timeout:           5 * time.Second,
		MovieSection:      "Movies",
		ShowSection:       "TV Shows",
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxRetries:        2,
		Breaker: config.BreakerConfig{
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Hour,
			MinRequests:  3,
			FailureRatio: 0.5,
		},
	}
}

// newTestCatalogue starts f and returns a catalogue pointed at it.
func newTestCatalogue(t *testing.T, f *fakePlex) (*Catalogue, *Client) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := testPlexConfig(srv.URL)
	client := NewClient(cfg, zerolog.Nop())
	client.baseDelay = time.Millisecond
	return NewCatalogue(client, cfg, zerolog.Nop()), client
}
