// Package toast implements a single-slot transient notification state.
//
// A State is either idle or holds exactly one active notification with a
// pending expiry timer. Showing a notification always replaces the active
// one (last write wins, nothing is queued) and cancels its timer. The timer
// of a replaced or dismissed notification never fires.
//
// Running a notification's action does not dismiss it. Callers that want
// dismiss-on-action call Dismiss (or DismissID) from the action themselves.
package toast

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/notepad/pkg/broker"
	"github.com/aretw0/notepad/pkg/config"
)

// EventType represents a transition of the state machine.
type EventType string

const (
	EventShown     EventType = "SHOWN"
	EventDismissed EventType = "DISMISSED"
)

// Reason tells why a notification left the active slot.
type Reason string

const (
	ReasonExpired   Reason = "expired"
	ReasonDismissed Reason = "dismissed"
)

// Event is emitted on every transition. Replacing a notification emits a
// single EventShown for the newcomer, never a dismissal of the old one.
type Event struct {
	Type         EventType
	ID           uint64
	Notification Notification
	Reason       Reason // only for EventDismissed
	Timestamp    int64  // Unix milliseconds
}

// String implements fmt.Stringer so events can travel as lifecycle events.
func (e Event) String() string {
	if e.Type == EventDismissed {
		return fmt.Sprintf("%s #%d (%s)", e.Type, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s #%d [%s] %s", e.Type, e.ID, e.Notification.Severity, e.Notification.Message)
}

type active struct {
	id           uint64
	notification Notification
	timer        *time.Timer
	expiresAt    time.Time
}

// State is the notification state machine. The zero value is not usable;
// call New.
type State struct {
	logger *slog.Logger
	events *broker.Broker[Event]

	mu              sync.Mutex
	defaultDuration time.Duration
	current         *active
	lastID          uint64
	expired         uint64
	dismissed       uint64
	closed          bool
}

// StateOption configures a State.
type StateOption func(*stateOptions)

type stateOptions struct {
	duration time.Duration
	logger   *slog.Logger
	buffer   int
}

// WithDefaultDuration sets the duration used when a notification has none.
func WithDefaultDuration(d time.Duration) StateOption {
	return func(o *stateOptions) {
		if d > 0 {
			o.duration = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StateOption {
	return func(o *stateOptions) {
		o.logger = logger
	}
}

// WithEventBuffer sets the channel capacity of each subscriber.
func WithEventBuffer(size int) StateOption {
	return func(o *stateOptions) {
		o.buffer = size
	}
}

// New creates an idle State.
func New(opts ...StateOption) *State {
	o := &stateOptions{duration: config.DefaultToastDuration}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &State{
		logger:          o.logger,
		events:          broker.New[Event]("toast", broker.WithLogger(o.logger), broker.WithBuffer(o.buffer)),
		defaultDuration: o.duration,
	}
}

// Show makes n the active notification, replacing and cancelling any
// previous one. It returns the id of the new notification.
func (s *State) Show(n Notification) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}
	if n.Duration <= 0 {
		n.Duration = s.defaultDuration
	}

	if s.current != nil {
		s.current.timer.Stop()
		s.logger.Debug("toast replaced", "id", s.current.id)
	}

	s.lastID++
	id := s.lastID
	s.current = &active{
		id:           id,
		notification: n,
		expiresAt:    time.Now().Add(n.Duration),
	}
	s.current.timer = time.AfterFunc(n.Duration, func() { s.expire(id) })

	s.events.Publish(Event{Type: EventShown, ID: id, Notification: n, Timestamp: time.Now().UnixMilli()})
	s.logger.Debug("toast shown", "id", id, "severity", n.Severity, "duration", n.Duration)
	return id
}

// ShowSuccess shows a success notification.
func (s *State) ShowSuccess(msg string, opts ...Option) uint64 { return s.Show(Success(msg, opts...)) }

// ShowError shows an error notification.
func (s *State) ShowError(msg string, opts ...Option) uint64 { return s.Show(Error(msg, opts...)) }

// ShowWarning shows a warning notification.
func (s *State) ShowWarning(msg string, opts ...Option) uint64 { return s.Show(Warning(msg, opts...)) }

// ShowInfo shows an informational notification.
func (s *State) ShowInfo(msg string, opts ...Option) uint64 { return s.Show(Info(msg, opts...)) }

// Dismiss clears the active notification. It is a no-op when idle and
// reports whether something was dismissed.
func (s *State) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}
	s.clearLocked(ReasonDismissed)
	return true
}

// DismissID clears the active notification only if it is still id. Use it
// from action callbacks so a late click cannot dismiss a newer notification.
func (s *State) DismissID(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.id != id {
		return false
	}
	s.clearLocked(ReasonDismissed)
	return true
}

// Current returns the active notification, if any.
func (s *State) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Notification{}, false
	}
	return s.current.notification, true
}

// CurrentID returns the id of the active notification, or 0 when idle.
func (s *State) CurrentID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0
	}
	return s.current.id
}

// TriggerAction runs the active notification's action, if it has one, and
// reports whether it ran. The notification stays active.
func (s *State) TriggerAction() bool {
	s.mu.Lock()
	var do func()
	if s.current != nil && s.current.notification.HasAction() {
		do = s.current.notification.Action.Do
	}
	s.mu.Unlock()

	if do == nil {
		return false
	}
	// Outside the lock: the action may call back into the State.
	do()
	return true
}

// SetDefaultDuration changes the duration applied to later notifications
// that do not set their own.
func (s *State) SetDefaultDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultDuration = d
}

// Subscribe delivers every transition from now on.
func (s *State) Subscribe(ctx context.Context) (<-chan Event, error) {
	return s.events.Subscribe(ctx)
}

// Close cancels the pending timer and ends all subscriptions.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.current != nil {
		s.current.timer.Stop()
		s.current = nil
	}
	s.events.Close()
}

func (s *State) expire(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A replaced or dismissed notification may still have its callback in
	// flight; only the owner of the slot may clear it.
	if s.current == nil || s.current.id != id {
		return
	}
	s.clearLocked(ReasonExpired)
}

func (s *State) clearLocked(reason Reason) {
	cur := s.current
	cur.timer.Stop()
	s.current = nil

	switch reason {
	case ReasonExpired:
		s.expired++
	case ReasonDismissed:
		s.dismissed++
	}

	s.events.Publish(Event{
		Type:         EventDismissed,
		ID:           cur.id,
		Notification: cur.notification,
		Reason:       reason,
		Timestamp:    time.Now().UnixMilli(),
	})
	s.logger.Debug("toast cleared", "id", cur.id, "reason", reason)
}
