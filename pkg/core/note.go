package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Note is the central entity of the domain.
// It is immutable once stored: edits are modeled as a delete followed by an add.
type Note struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Content   string `json:"content" yaml:"content"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"` // Unix milliseconds
}

// Created returns the creation time of the note.
func (n Note) Created() time.Time {
	return time.UnixMilli(n.CreatedAt)
}

// Snapshot is the full state of a note collection at a given mutation.
// Notes are ordered by insertion, newest last. A snapshot received from a
// subscription may be shared with other subscribers and must be treated as
// read-only; use Clone before modifying it.
type Snapshot struct {
	// Seq is the number of effective mutations the store had applied when
	// the snapshot was taken. It only grows.
	Seq   uint64 `json:"seq"`
	Notes []Note `json:"notes"`
}

// String implements fmt.Stringer so snapshots can travel as lifecycle events.
func (s Snapshot) String() string {
	return fmt.Sprintf("snapshot seq=%d notes=%d", s.Seq, len(s.Notes))
}

// Clone returns a deep copy of the snapshot. Notes hold only value fields,
// so copying the slice is enough.
func (s Snapshot) Clone() Snapshot {
	notes := slices.Clone(s.Notes)
	if notes == nil {
		notes = []Note{}
	}
	return Snapshot{Seq: s.Seq, Notes: notes}
}

// Contains reports whether a note with the given ID is present.
func (s Snapshot) Contains(id string) bool {
	return slices.ContainsFunc(s.Notes, func(n Note) bool { return n.ID == id })
}

// MatchTitle reports whether a note title matches a doublestar glob pattern
// (e.g. "meeting/**" or "*todo*"). An empty pattern matches everything.
func MatchTitle(pattern, title string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	ok, err := doublestar.Match(pattern, title)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return ok, nil
}

// FilterByTitle returns the notes whose title matches pattern, preserving order.
func FilterByTitle(notes []Note, pattern string) ([]Note, error) {
	if pattern == "" {
		return slices.Clone(notes), nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	filtered := make([]Note, 0, len(notes))
	for _, n := range notes {
		ok, err := MatchTitle(pattern, n.Title)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}
