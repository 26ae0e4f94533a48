package core

import "context"

// Repository defines the contract for storing and retrieving notes.
// Implementations may suspend the caller (simulated latency or real I/O),
// so every operation takes a context.
type Repository interface {
	// List returns the current collection, ordered by insertion.
	List(ctx context.Context) (Snapshot, error)

	// Add appends a note. The caller assigns ID and CreatedAt.
	// A completed Add is visible to the next List on the same instance.
	Add(ctx context.Context, n Note) error

	// Delete removes every note with the given ID.
	// Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error
}

// Watchable defines an interface for repositories that push a new snapshot
// to live subscribers on every mutation.
type Watchable interface {
	// Subscribe delivers the current snapshot followed by one snapshot per
	// subsequent mutation. The channel is closed when ctx is done or the
	// repository shuts down.
	Subscribe(ctx context.Context) (<-chan Snapshot, error)
}

// Op identifies a repository operation, used for fault injection and logs.
type Op string

const (
	OpList      Op = "list"
	OpAdd       Op = "add"
	OpDelete    Op = "delete"
	OpSubscribe Op = "subscribe"
)
