// Package broker fans values out to any number of independent subscribers.
//
// Every subscriber owns an unbounded queue drained by its own goroutine, so
// a slow reader never delays a fast one and never misses a value. Values are
// delivered to each subscriber in the order they were published.
package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
)

// ErrClosed is returned when subscribing to a closed broker.
var ErrClosed = errors.New("broker is closed")

// Broker publishes values of type T to its subscribers.
type Broker[T any] struct {
	name   string
	logger *slog.Logger
	buffer int

	mu        sync.Mutex
	subs      map[uint64]*subscriber[T]
	nextID    uint64
	published uint64
	closed    bool
}

// Option configures a Broker.
type Option func(*options)

type options struct {
	logger *slog.Logger
	buffer int
}

// WithLogger sets the logger used to report pump failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBuffer sets the capacity of each subscriber's outbound channel.
// The private queue behind it is unbounded regardless of this value.
func WithBuffer(size int) Option {
	return func(o *options) {
		if size >= 0 {
			o.buffer = size
		}
	}
}

// New creates a broker. The name only appears in logs and introspection.
func New[T any](name string, opts ...Option) *Broker[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Broker[T]{
		name:   name,
		logger: o.logger,
		buffer: o.buffer,
		subs:   make(map[uint64]*subscriber[T]),
	}
}

// Subscribe registers a new subscriber. The initial values are queued before
// anything published afterwards. The returned channel is closed when ctx is
// done or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context, initial ...T) (<-chan T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	sub := newSubscriber[T](b.buffer, initial)
	b.subs[id] = sub
	b.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer b.remove(id)
		return sub.run(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		b.logger.Error("subscriber pump failed", "broker", b.name, "subscriber", id, "error", err)
	}))

	b.logger.Debug("subscriber added", "broker", b.name, "subscriber", id)
	return sub.out, nil
}

// Publish enqueues v for every live subscriber. It never blocks on readers.
// Callers that need a global order must serialize their Publish calls.
func (b *Broker[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.published++
	for _, sub := range b.subs {
		sub.push(v)
	}
}

// Close stops every subscriber. Values still queued are dropped and the
// subscriber channels are closed. Close is idempotent.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.stop()
	}
}

// Len returns the number of live subscribers.
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
	b.logger.Debug("subscriber removed", "broker", b.name, "subscriber", id)
}

type subscriber[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
	out    chan T
}

func newSubscriber[T any](buffer int, initial []T) *subscriber[T] {
	queue := make([]T, 0, len(initial))
	queue = append(queue, initial...)
	return &subscriber[T]{
		queue:  queue,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan T, buffer),
	}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	v := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return v, true
}

func (s *subscriber[T]) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *subscriber[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

// run drains the queue into out until ctx is done or the broker stops it.
func (s *subscriber[T]) run(ctx context.Context) (err error) {
	defer close(s.out)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()

	for {
		v, ok := s.pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return nil
			case <-ctx.Done():
				return nil
			}
		}

		select {
		case s.out <- v:
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
