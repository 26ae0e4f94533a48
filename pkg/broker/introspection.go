package broker

import (
	"github.com/aretw0/introspection"
)

// State exposes internal state for observability.
type State struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	MaxPending  int    `json:"max_pending"`
	Closed      bool   `json:"closed"`
}

// State implements introspection.Introspectable.
func (b *Broker[T]) State() any {
	return b.Snapshot()
}

// Snapshot returns the typed form of State.
func (b *Broker[T]) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	maxPending := 0
	for _, sub := range b.subs {
		if p := sub.pending(); p > maxPending {
			maxPending = p
		}
	}

	return State{
		Name:        b.name,
		Subscribers: len(b.subs),
		Published:   b.published,
		MaxPending:  maxPending,
		Closed:      b.closed,
	}
}

// ComponentType implements introspection.Component.
func (b *Broker[T]) ComponentType() string {
	return "broker"
}

var _ introspection.Introspectable = (*Broker[struct{}])(nil)
var _ introspection.Component = (*Broker[struct{}])(nil)
