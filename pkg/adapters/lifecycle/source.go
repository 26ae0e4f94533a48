package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/toast"
)

type source[T lifecycle.Event] struct {
	events <-chan T
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source from any typed event channel.
// Values are forwarded in order until the channel closes or the source's
// context ends.
func NewSource[T lifecycle.Event](events <-chan T) lifecycle.Source {
	return &source[T]{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

// NewToastSource bridges toast events.
func NewToastSource(events <-chan toast.Event) lifecycle.Source {
	return NewSource(events)
}

// NewSnapshotSource bridges store snapshots.
func NewSnapshotSource(snapshots <-chan core.Snapshot) lifecycle.Source {
	return NewSource(snapshots)
}

func (s *source[T]) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *source[T]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
