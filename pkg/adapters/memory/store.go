// Package memory implements core.Repository in process memory, with a
// configurable artificial latency that stands in for network I/O.
package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/notepad/pkg/broker"
	"github.com/aretw0/notepad/pkg/config"
	"github.com/aretw0/notepad/pkg/core"
)

// FaultFunc decides whether an operation fails. A non-nil error is returned
// to the caller wrapped with core.ErrStoreUnavailable.
type FaultFunc func(op core.Op) error

// Config holds the configuration for the in-memory store.
type Config struct {
	Latency     config.Latency
	EventBuffer int
	Logger      *slog.Logger
	Fault       FaultFunc
}

// Store is an observable, in-memory note collection.
//
// Mutations are applied inside a single critical section and replace the
// backing slice (copy-on-write), so readers always see a consistent
// snapshot. Every effective mutation is pushed to all live subscribers in
// the order it was applied.
type Store struct {
	listLatency   atomic.Int64
	mutateLatency atomic.Int64
	fault         atomic.Pointer[FaultFunc]

	logger *slog.Logger
	events *broker.Broker[core.Snapshot]
	done   chan struct{}

	mu     sync.RWMutex
	notes  []core.Note
	seq    uint64
	closed bool
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		logger: logger,
		events: broker.New[core.Snapshot]("notes",
			broker.WithLogger(logger),
			broker.WithBuffer(cfg.EventBuffer),
		),
		done:  make(chan struct{}),
		notes: []core.Note{},
	}
	s.Tune(cfg.Latency)
	if cfg.Fault != nil {
		s.SetFault(cfg.Fault)
	}
	return s
}

// Ensure interfaces are met.
var _ core.Repository = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)

// Tune replaces the artificial latencies. It affects operations that start
// after the call.
func (s *Store) Tune(l config.Latency) {
	s.listLatency.Store(int64(l.List))
	s.mutateLatency.Store(int64(l.Mutate))
	s.logger.Debug("store latency tuned", "list", l.List, "mutate", l.Mutate)
}

// Latency returns the latencies currently in effect.
func (s *Store) Latency() config.Latency {
	return config.Latency{
		List:   time.Duration(s.listLatency.Load()),
		Mutate: time.Duration(s.mutateLatency.Load()),
	}
}

// SetFault installs (or, with nil, removes) a fault injection hook.
func (s *Store) SetFault(fn FaultFunc) {
	if fn == nil {
		s.fault.Store(nil)
		return
	}
	s.fault.Store(&fn)
}

// List returns the current collection after the list latency.
func (s *Store) List(ctx context.Context) (core.Snapshot, error) {
	if err := s.prepare(ctx, core.OpList, time.Duration(s.listLatency.Load())); err != nil {
		return core.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

// Add appends a note after the mutation latency.
func (s *Store) Add(ctx context.Context, n core.Note) error {
	if err := s.prepare(ctx, core.OpAdd, time.Duration(s.mutateLatency.Load())); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.ErrClosed
	}
	if slices.ContainsFunc(s.notes, func(existing core.Note) bool { return existing.ID == n.ID }) {
		return fmt.Errorf("add %s: %w", n.ID, core.ErrDuplicateID)
	}

	next := make([]core.Note, len(s.notes), len(s.notes)+1)
	copy(next, s.notes)
	s.notes = append(next, n)
	s.commitLocked(core.OpAdd, n.ID)
	return nil
}

// Delete removes every note with the given ID after the mutation latency.
// Removing nothing is not an error and emits nothing.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.prepare(ctx, core.OpDelete, time.Duration(s.mutateLatency.Load())); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.ErrClosed
	}

	next := make([]core.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.ID != id {
			next = append(next, n)
		}
	}
	if len(next) == len(s.notes) {
		s.logger.Debug("delete of absent note", "id", id)
		return nil
	}

	s.notes = next
	s.commitLocked(core.OpDelete, id)
	return nil
}

// Subscribe waits for the list latency, then returns a channel that yields
// the current snapshot followed by one snapshot per effective mutation.
func (s *Store) Subscribe(ctx context.Context) (<-chan core.Snapshot, error) {
	if err := s.prepare(ctx, core.OpSubscribe, time.Duration(s.listLatency.Load())); err != nil {
		return nil, err
	}

	// Holding the read lock keeps mutations out until the subscriber is
	// registered, so it cannot miss or duplicate a snapshot.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, core.ErrClosed
	}
	ch, err := s.events.Subscribe(ctx, s.snapshotLocked())
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return ch, nil
}

// Close releases every subscriber and aborts pending operations.
// Subsequent operations return core.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	s.events.Close()
	return nil
}

// prepare runs the shared preamble of every operation: closed check,
// simulated latency, then fault injection.
func (s *Store) prepare(ctx context.Context, op core.Op, latency time.Duration) error {
	if err := s.wait(ctx, latency); err != nil {
		return err
	}

	if fp := s.fault.Load(); fp != nil {
		if err := (*fp)(op); err != nil {
			s.logger.Warn("store operation failed", "op", op, "error", err)
			return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
		}
	}
	return nil
}

func (s *Store) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-s.done:
		return core.ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-s.done:
		return core.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) snapshotLocked() core.Snapshot {
	return core.Snapshot{Seq: s.seq, Notes: slices.Clone(s.notes)}
}

func (s *Store) commitLocked(op core.Op, id string) {
	s.seq++
	s.events.Publish(s.snapshotLocked())
	s.logger.Debug("store mutated", "op", op, "id", id, "seq", s.seq, "notes", len(s.notes))
}
