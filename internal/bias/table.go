// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package bias provides the external recommendability table (the Tournesol
// export) as a read-only lookup. A Table is built once at startup, handed to
// the scorer, and never modified afterwards, so concurrent lookups need no
// locking.
package bias

// Entry is the stored recommendability of one video for the loaded criterion.
// Score is on a percentage-like [-100, 100] scale; a missing score loads as 0.
type Entry struct {
	Score       float64 `json:"score"`
	Uncertainty float64 `json:"uncertainty"`
}

// Table maps video ids to entries.
type Table struct {
	entries   map[string]Entry
	criterion string
}

// NewTable builds a table from entries. The map is copied.
func NewTable(criterion string, entries map[string]Entry) *Table {
	t := &Table{
		entries:   make(map[string]Entry, len(entries)),
		criterion: criterion,
	}
	for id, e := range entries {
		t.entries[id] = e
	}
	return t
}

// Lookup returns the entry for a video id.
func (t *Table) Lookup(videoID string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[videoID]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Criterion returns the criterion the table was filtered to.
func (t *Table) Criterion() string {
	if t == nil {
		return ""
	}
	return t.criterion
}
