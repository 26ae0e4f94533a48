// Package viewstate holds the per-screen coordinators. Each one owns its
// collaborators' subscriptions and republishes a simplified, observable
// state for the presentation layer. Coordinators are the single place
// where failures become user-visible notifications.
package viewstate

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/notepad/pkg/toast"
)

// Notifier is the part of toast.State the coordinators use.
type Notifier interface {
	ShowSuccess(msg string, opts ...toast.Option) uint64
	ShowError(msg string, opts ...toast.Option) uint64
	ShowWarning(msg string, opts ...toast.Option) uint64
	ShowInfo(msg string, opts ...toast.Option) uint64
}

var _ Notifier = (*toast.State)(nil)

const defaultResubscribeDelay = time.Second

// Option configures a coordinator.
type Option func(*options)

type options struct {
	logger           *slog.Logger
	newID            func() string
	now              func() time.Time
	resubscribeDelay time.Duration
	buffer           int
}

func defaultOptions() *options {
	return &options{
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:            uuid.NewString,
		now:              time.Now,
		resubscribeDelay: defaultResubscribeDelay,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator replaces the note ID generator (uuid v4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithClock replaces the time source used for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithResubscribeDelay sets how long the notes coordinator waits before
// subscribing again after a failed subscription.
func WithResubscribeDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.resubscribeDelay = d
		}
	}
}

// WithEventBuffer sets the channel capacity of each state subscriber.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.buffer = size
	}
}
