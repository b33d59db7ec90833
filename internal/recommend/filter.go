// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

package recommend

import (
	"fmt"
	"strings"
)

// Filter is a typed predicate over index metadata. The engine builds filters
// and hands them to the Index; it never deals in backend query syntax.
type Filter interface {
	Match(md Metadata) bool
	String() string
}

// WatchedIs matches entries whose watched flag equals the value.
type WatchedIs bool

// Match implements Filter.
func (f WatchedIs) Match(md Metadata) bool {
	return md.Watched == bool(f)
}

func (f WatchedIs) String() string {
	return fmt.Sprintf("watched = %t", bool(f))
}

// KindIn matches entries whose kind is in the set. An empty set matches nothing.
type KindIn []Kind

// Match implements Filter.
func (f KindIn) Match(md Metadata) bool {
	for _, k := range f {
		if md.Kind == k {
			return true
		}
	}
	return false
}

func (f KindIn) String() string {
	parts := make([]string, len(f))
	for i, k := range f {
		parts[i] = string(k)
	}
	return "kind in [" + strings.Join(parts, ", ") + "]"
}

// And is the conjunction of its operands. An empty And matches everything.
type And []Filter

// Match implements Filter.
func (f And) Match(md Metadata) bool {
	for _, sub := range f {
		if sub != nil && !sub.Match(md) {
			return false
		}
	}
	return true
}

func (f And) String() string {
	if len(f) == 0 {
		return "true"
	}
	parts := make([]string, 0, len(f))
	for _, sub := range f {
		if sub != nil {
			parts = append(parts, sub.String())
		}
	}
	return "(" + strings.Join(parts, " and ") + ")"
}

// MatchAll accepts every entry. A nil Filter is treated the same way by indexes.
var MatchAll Filter = And{}

// WatchedOfKinds selects watched entries of the given kinds.
func WatchedOfKinds(kinds []Kind) Filter {
	return And{WatchedIs(true), KindIn(kinds)}
}

// UnwatchedOfKinds selects unwatched entries of the given kinds.
func UnwatchedOfKinds(kinds []Kind) Filter {
	return And{WatchedIs(false), KindIn(kinds)}
}
