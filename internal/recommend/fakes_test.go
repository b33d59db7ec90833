// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// fakeIndex is an in-memory Index that counts writes.
type fakeIndex struct {
	mu      sync.Mutex
	entries map[string]IndexEntry
	order   []string

	adds    int
	updates int

	getErr  map[string]error
	addErr  map[string]error
	findErr error
	lastQry Filter
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		entries: make(map[string]IndexEntry),
		getErr:  make(map[string]error),
		addErr:  make(map[string]error),
	}
}

func (f *fakeIndex) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adds + f.updates
}

func (f *fakeIndex) put(e IndexEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[e.ID]; !ok {
		f.order = append(f.order, e.ID)
	}
	f.entries[e.ID] = e
}

func (f *fakeIndex) Get(_ context.Context, id string) (IndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[id]; err != nil {
		return IndexEntry{}, err
	}
	e, ok := f.entries[id]
	if !ok {
		return IndexEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (f *fakeIndex) Find(_ context.Context, filter Filter) ([]IndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []IndexEntry
	for _, id := range f.order {
		e := f.entries[id]
		if filter == nil || filter.Match(e.Metadata) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeIndex) Add(_ context.Context, e IndexEntry) error {
	if err := f.addErr[e.ID]; err != nil {
		return err
	}
	f.put(e)
	f.mu.Lock()
	f.adds++
	f.mu.Unlock()
	return nil
}

func (f *fakeIndex) UpdateMetadata(_ context.Context, id string, md Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.Metadata = md
	f.entries[id] = e
	f.updates++
	return nil
}

func (f *fakeIndex) Query(_ context.Context, vec []float32, filter Filter, n int) ([]QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQry = filter
	var out []QueryResult
	for _, id := range f.order {
		e := f.entries[id]
		if filter != nil && !filter.Match(e.Metadata) {
			continue
		}
		out = append(out, QueryResult{ID: id, Metadata: e.Metadata, Distance: cosineDistance(vec, e.Embedding)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// fakeEmbedder returns a fixed vector per title, parsed from the document.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   [][]string
	err     error
	failOn  int // 1-based call that fails with err; 0 fails every call
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: make(map[string][]float32)}
}

func (f *fakeEmbedder) Embed(_ context.Context, docs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), docs...))
	if f.err != nil && (f.failOn == 0 || f.failOn == len(f.calls)) {
		return nil, f.err
	}
	out := make([][]float32, len(docs))
	for i, d := range docs {
		title := strings.TrimPrefix(strings.SplitN(d, "\n", 2)[0], "Title: ")
		v, ok := f.vectors[title]
		if !ok {
			v = []float32{float32(len(title)), 1, 0}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeCatalogue serves items, ratings and playlists from memory.
type fakeCatalogue struct {
	mu        sync.Mutex
	items     map[Kind][]MediaItem
	search    map[string][]MediaItem
	ratings   map[string]*float64
	playlists map[string]*fakePlaylist

	listErr   error
	ratingErr error
	getErr    error
	findErr   error
	ops       *[]string
}

func newFakeCatalogue() *fakeCatalogue {
	ops := []string{}
	return &fakeCatalogue{
		items:     make(map[Kind][]MediaItem),
		search:    make(map[string][]MediaItem),
		ratings:   make(map[string]*float64),
		playlists: make(map[string]*fakePlaylist),
		ops:       &ops,
	}
}

func (c *fakeCatalogue) add(items ...MediaItem) {
	for _, it := range items {
		c.items[it.Kind] = append(c.items[it.Kind], it)
	}
}

func (c *fakeCatalogue) ListItems(_ context.Context, kind Kind) ([]MediaItem, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]MediaItem(nil), c.items[kind]...), nil
}

func (c *fakeCatalogue) GetItem(_ context.Context, title string, kind Kind) (MediaItem, error) {
	if c.getErr != nil {
		return MediaItem{}, c.getErr
	}
	for _, it := range c.items[kind] {
		if it.Title == title {
			return it, nil
		}
	}
	return MediaItem{}, fmt.Errorf("%q: %w", title, ErrNotFound)
}

func (c *fakeCatalogue) SearchItems(_ context.Context, title string, _ Kind) ([]MediaItem, error) {
	return c.search[title], nil
}

func (c *fakeCatalogue) UserRating(_ context.Context, title string, _ Kind) (*float64, error) {
	if c.ratingErr != nil {
		return nil, c.ratingErr
	}
	return c.ratings[title], nil
}

func (c *fakeCatalogue) FindPlaylist(_ context.Context, name string) (Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return nil, c.findErr
	}
	pl, ok := c.playlists[name]
	if !ok {
		return nil, fmt.Errorf("playlist %q: %w", name, ErrNotFound)
	}
	return pl, nil
}

func (c *fakeCatalogue) CreatePlaylist(_ context.Context, name string, items []MediaItem) (Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.ops = append(*c.ops, "create:"+joinTitles(items))
	pl := &fakePlaylist{name: name, items: append([]MediaItem(nil), items...), ops: c.ops}
	c.playlists[name] = pl
	return pl, nil
}

func (c *fakeCatalogue) playlist(name string, titles ...string) *fakePlaylist {
	pl := &fakePlaylist{name: name, ops: c.ops}
	for _, t := range titles {
		pl.items = append(pl.items, MediaItem{ID: "pl-" + t, Title: t, Kind: KindMovie})
	}
	c.playlists[name] = pl
	return pl
}

func (c *fakeCatalogue) operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), (*c.ops)...)
}

// fakePlaylist records every mutation in the shared ops log.
type fakePlaylist struct {
	mu    sync.Mutex
	name  string
	items []MediaItem
	ops   *[]string

	dropAdds bool
	addSizes []int
}

func (p *fakePlaylist) Name() string { return p.name }

func (p *fakePlaylist) Items(context.Context) ([]MediaItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MediaItem(nil), p.items...), nil
}

func (p *fakePlaylist) AddItems(_ context.Context, items []MediaItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.ops = append(*p.ops, "add:"+joinTitles(items))
	p.addSizes = append(p.addSizes, len(items))
	if !p.dropAdds {
		p.items = append(p.items, items...)
	}
	return nil
}

func (p *fakePlaylist) RemoveItem(_ context.Context, item MediaItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.ops = append(*p.ops, "remove:"+item.Title)
	for i := range p.items {
		if p.items[i].Title == item.Title {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	return nil
}

func (p *fakePlaylist) titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.items))
	for i := range p.items {
		out[i] = p.items[i].Title
	}
	return out
}

func joinTitles(items []MediaItem) string {
	parts := make([]string, len(items))
	for i := range items {
		parts[i] = items[i].Title
	}
	return strings.Join(parts, ",")
}

func rating(v float64) *float64 { return &v }

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
