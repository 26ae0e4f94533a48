package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 50 * time.Millisecond

// Watcher reloads a configuration file whenever it changes on disk.
// A file that fails to parse or validate is logged and ignored; the last
// good configuration stays in effect.
type Watcher struct {
	*worker.BaseWorker
	path     string
	onChange func(Config)
	logger   *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	mu      sync.RWMutex
	current Config
	reloads int
	lastErr error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits for a burst of writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for path. initial is the configuration
// currently in effect. onChange runs on the watcher goroutine after every
// successful reload.
func NewWatcher(path string, initial Config, onChange func(Config), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		BaseWorker: worker.NewBaseWorker("config-watcher"),
		path:       filepath.Clean(path),
		onChange:   onChange,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce:   defaultDebounce,
		current:    initial,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The parent directory is watched rather than the
// file itself so that editors replacing the file are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("config watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.watcher = watcher

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

// Stop ends the watch loop.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

// State reports worker state, tagged as a goroutine worker.
func (w *Watcher) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.path,
		}
	})
}

// Current returns the last configuration that loaded successfully.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reloads returns how many successful reloads happened.
func (w *Watcher) Reloads() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reloads
}

// LastError returns the error of the most recent failed reload, if any.
func (w *Watcher) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

func (w *Watcher) run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.mu.Lock()
		w.lastErr = err
		w.mu.Unlock()
		w.logger.Warn("config reload rejected, keeping previous", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.reloads++
	w.lastErr = nil
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path,
		"list_latency", cfg.Latency.List,
		"mutate_latency", cfg.Latency.Mutate,
		"toast_duration", cfg.Toast.Duration,
	)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
