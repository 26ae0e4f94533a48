package core

import (
	"context"
	"fmt"
)

// ListNotes exposes the note collection as a subscribable sequence of
// snapshots. It holds no state of its own: every Invoke is forwarded to the
// repository unchanged.
type ListNotes struct {
	repo Repository
}

// NewListNotes creates the use case over a repository.
func NewListNotes(repo Repository) *ListNotes {
	return &ListNotes{repo: repo}
}

// Invoke subscribes to the repository. Each call yields an independent
// subscription that sees every snapshot from the moment it was made.
func (uc *ListNotes) Invoke(ctx context.Context) (<-chan Snapshot, error) {
	w, ok := uc.repo.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}

	ch, err := w.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return ch, nil
}
