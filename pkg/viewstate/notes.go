package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/broker"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/toast"
)

// NotesState is what the notes screen observes.
type NotesState struct {
	// Notes is never nil; it starts empty.
	Notes []core.Note `json:"notes"`
	// Seq of the store snapshot the notes came from.
	Seq    uint64 `json:"seq"`
	Loaded bool   `json:"loaded"`
	// LastError is set when the latest operation failed. Notes then still
	// hold the last known good collection.
	LastError string `json:"last_error,omitempty"`
}

// Subscriber is the use case the coordinator listens to.
type Subscriber interface {
	Invoke(ctx context.Context) (<-chan core.Snapshot, error)
}

// Notes coordinates the notes screen.
type Notes struct {
	uc               Subscriber
	repo             core.Repository
	toasts           Notifier
	logger           *slog.Logger
	newID            func() string
	now              func() time.Time
	resubscribeDelay time.Duration

	// ctx bounds background work started on behalf of the coordinator.
	ctx    context.Context
	cancel context.CancelFunc
	worker *subscriptionWorker
	states *broker.Broker[NotesState]

	// opMu serializes mutations together with their follow-up reload.
	opMu sync.Mutex

	mu    sync.RWMutex
	state NotesState
}

// NewNotes creates the coordinator and immediately subscribes to uc.
// The subscription lives until ctx ends or Close is called.
func NewNotes(ctx context.Context, uc Subscriber, repo core.Repository, toasts Notifier, opts ...Option) (*Notes, error) {
	o := applyOptions(opts)

	runCtx, cancel := context.WithCancel(ctx)
	n := &Notes{
		ctx:              runCtx,
		cancel:           cancel,
		uc:               uc,
		repo:             repo,
		toasts:           toasts,
		logger:           o.logger,
		newID:            o.newID,
		now:              o.now,
		resubscribeDelay: o.resubscribeDelay,
		states:           broker.New[NotesState]("notes-state", broker.WithLogger(o.logger), broker.WithBuffer(o.buffer)),
		state:            NotesState{Notes: []core.Note{}},
	}
	n.worker = newSubscriptionWorker(n)

	if err := n.worker.Start(runCtx); err != nil {
		cancel()
		n.states.Close()
		return nil, fmt.Errorf("failed to start notes subscription: %w", err)
	}
	return n, nil
}

// Current returns the latest published state.
func (n *Notes) Current() NotesState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return cloneNotesState(n.state)
}

// Notes returns the latest published notes.
func (n *Notes) Notes() []core.Note {
	return n.Current().Notes
}

// Subscribe delivers the current state followed by every later change.
func (n *Notes) Subscribe(ctx context.Context) (<-chan NotesState, error) {
	// Held so that no publish slips between reading the state and
	// registering the subscriber.
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.states.Subscribe(ctx, cloneNotesState(n.state))
}

// AddNote creates a note with a fresh ID and the current time, stores it,
// then reloads the collection.
func (n *Notes) AddNote(ctx context.Context, title, content string) (core.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		n.toasts.ShowWarning("Title cannot be empty")
		return core.Note{}, core.ErrEmptyTitle
	}

	n.opMu.Lock()
	defer n.opMu.Unlock()

	note := core.Note{
		ID:        n.newID(),
		Title:     title,
		Content:   content,
		CreatedAt: n.now().UnixMilli(),
	}
	if err := n.repo.Add(ctx, note); err != nil {
		n.fail("add note", err)
		return core.Note{}, fmt.Errorf("add note: %w", err)
	}
	if err := n.reloadLocked(ctx); err != nil {
		return note, err
	}

	n.toasts.ShowSuccess("Note added")
	n.logger.Debug("note added", "id", note.ID)
	return note, nil
}

// DeleteNote removes a note, then reloads the collection. Deleting an
// unknown ID succeeds.
func (n *Notes) DeleteNote(ctx context.Context, id string) error {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	if err := n.repo.Delete(ctx, id); err != nil {
		n.fail("delete note", err)
		return fmt.Errorf("delete note: %w", err)
	}
	if err := n.reloadLocked(ctx); err != nil {
		return err
	}

	n.toasts.ShowSuccess("Note deleted")
	n.logger.Debug("note deleted", "id", id)
	return nil
}

// Refresh pulls the collection from the repository and publishes it.
func (n *Notes) Refresh(ctx context.Context) error {
	n.opMu.Lock()
	defer n.opMu.Unlock()
	return n.reloadLocked(ctx)
}

// Close stops the subscription and ends all state subscriptions.
func (n *Notes) Close(ctx context.Context) error {
	n.cancel()
	err := n.worker.Stop(ctx)
	n.states.Close()
	return err
}

func (n *Notes) reloadLocked(ctx context.Context) error {
	snap, err := n.repo.List(ctx)
	if err != nil {
		n.fail("reload notes", err)
		return fmt.Errorf("reload notes: %w", err)
	}
	n.publish(snap)
	return nil
}

// publish adopts snap unless it is older than what is already shown.
// Snapshots arrive both from the subscription and from reloads, so they
// are ordered by Seq. Repositories that do not number their snapshots
// (Seq 0) are always adopted.
func (n *Notes) publish(snap core.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	cur := n.state
	if cur.Loaded && snap.Seq != 0 {
		if snap.Seq < cur.Seq {
			n.logger.Debug("dropping stale snapshot", "seq", snap.Seq, "current", cur.Seq)
			return
		}
		if snap.Seq == cur.Seq && cur.LastError == "" {
			return
		}
	}

	n.state = NotesState{
		Notes:  snap.Clone().Notes,
		Seq:    snap.Seq,
		Loaded: true,
	}
	n.states.Publish(cloneNotesState(n.state))
}

// fail records err, keeps the last known good notes and tells the user.
func (n *Notes) fail(op string, err error) {
	if errors.Is(err, context.Canceled) {
		n.logger.Debug("operation cancelled", "op", op)
		return
	}
	n.logger.Error("notes operation failed", "op", op, "error", err)

	n.mu.Lock()
	n.state.LastError = err.Error()
	n.states.Publish(cloneNotesState(n.state))
	n.mu.Unlock()

	msg := userMessage(op, err)
	if op == "reload notes" || op == "load notes" {
		n.toasts.ShowError(msg, toast.WithAction("RETRY", n.retry))
		return
	}
	n.toasts.ShowError(msg)
}

// retry is a no-op once the coordinator is closed.
func (n *Notes) retry() {
	lifecycle.Go(n.ctx, func(ctx context.Context) error {
		if ctx.Err() != nil {
			n.logger.Debug("retry skipped, coordinator closed")
			return nil
		}
		return n.Refresh(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		n.logger.Error("retry failed", "error", err)
	}))
}

func userMessage(op string, err error) string {
	switch {
	case errors.Is(err, core.ErrStoreUnavailable):
		return fmt.Sprintf("Could not %s: note store unavailable", op)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Could not %s: timed out", op)
	case errors.Is(err, core.ErrClosed):
		return fmt.Sprintf("Could not %s: note store closed", op)
	default:
		return fmt.Sprintf("Could not %s", op)
	}
}

func cloneNotesState(s NotesState) NotesState {
	s.Notes = core.Snapshot{Notes: s.Notes}.Clone().Notes
	return s
}
