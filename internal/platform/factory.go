package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/notepad/pkg/adapters/memory"
	"github.com/aretw0/notepad/pkg/auth"
	"github.com/aretw0/notepad/pkg/config"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/prefs"
	"github.com/aretw0/notepad/pkg/toast"
	"github.com/aretw0/notepad/pkg/viewstate"
)

// runner is the part of a lifecycle supervisor the app drives.
type runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// tunable is implemented by repositories whose latency can change at runtime.
type tunable interface {
	Tune(config.Latency)
}

// App is a fully wired notepad: one store, one notification slot and the
// screen coordinators sharing them.
type App struct {
	Repository  core.Repository
	Store       *memory.Store // nil when a custom repository was injected
	UseCase     *core.ListNotes
	Toasts      *toast.State
	Notes       *viewstate.Notes
	Login       *viewstate.Login
	Preferences prefs.Store
	Theme       *prefs.Theme

	logger     *slog.Logger
	opts       *options
	configPath string
	cancel     context.CancelFunc
	sup        runner
	ownsStore  bool

	mu       sync.RWMutex
	config   config.Config
	watcher  *config.Watcher
	restarts int
	closed   bool
}

// New wires and starts an application. Notes live in memory unless
// WithRepository supplies another store.
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg, err := resolveConfig(o)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	app := &App{
		logger:     logger,
		opts:       o,
		configPath: o.configPath,
		cancel:     cancel,
		config:     cfg,
	}

	// 1. Storage
	app.Repository = o.repository
	if app.Repository == nil {
		app.Store = memory.NewStore(memory.Config{
			Latency:     cfg.Latency,
			EventBuffer: cfg.Events.Buffer,
			Logger:      logger.With("component", "store"),
		})
		app.Repository = app.Store
		app.ownsStore = true
	}
	app.UseCase = core.NewListNotes(app.Repository)

	// 2. Notifications and preferences
	app.Toasts = toast.New(
		toast.WithDefaultDuration(cfg.Toast.Duration),
		toast.WithEventBuffer(cfg.Events.Buffer),
		toast.WithLogger(logger.With("component", "toast")),
	)
	app.Preferences = o.preferences
	if app.Preferences == nil {
		app.Preferences = prefs.NewMemory()
	}
	app.Theme = prefs.NewTheme(app.Preferences)

	authenticator := o.authenticator
	if authenticator == nil {
		authenticator = auth.NewMockAuthenticator(auth.NewTokenStore(app.Preferences), logger.With("component", "auth"))
	}

	// 3. Coordinators
	vsOpts := []viewstate.Option{
		viewstate.WithLogger(logger.With("component", "viewstate")),
		viewstate.WithEventBuffer(cfg.Events.Buffer),
	}
	app.Notes, err = viewstate.NewNotes(runCtx, app.UseCase, app.Repository, app.Toasts, vsOpts...)
	if err != nil {
		app.teardown()
		return nil, fmt.Errorf("failed to start notes coordinator: %w", err)
	}
	app.Login = viewstate.NewLogin(authenticator, app.Toasts, vsOpts...)

	// 4. Hot reload
	if o.configPath != "" && o.watchConfig {
		if err := app.startWatcher(runCtx); err != nil {
			_ = app.Close(context.Background())
			return nil, err
		}
	}

	logger.Debug("notepad ready",
		"list_latency", cfg.Latency.List,
		"mutate_latency", cfg.Latency.Mutate,
		"toast_duration", cfg.Toast.Duration,
		"config", o.configPath,
	)
	return app, nil
}

// resolveConfig picks the base config (explicit, file, default), then
// applies the per-field overrides and validates the result.
func resolveConfig(o *options) (config.Config, error) {
	var cfg config.Config
	switch {
	case o.config != nil:
		cfg = *o.config
	case o.configPath != "":
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	default:
		cfg = config.Default()
	}

	cfg = o.override(cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *options) override(cfg config.Config) config.Config {
	if o.latency != nil {
		cfg.Latency = *o.latency
	}
	if o.toastDuration > 0 {
		cfg.Toast.Duration = o.toastDuration
	}
	if o.eventBuffer != nil {
		cfg.Events.Buffer = *o.eventBuffer
	}
	return cfg
}

func (a *App) startWatcher(ctx context.Context) error {
	spec := supervisor.Spec{
		Name: "config-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := config.NewWatcher(a.configPath, a.Config(), a.Reconfigure,
				config.WithWatcherLogger(a.logger.With("component", "config")),
			)
			a.mu.Lock()
			if a.watcher != nil {
				a.restarts++
			}
			a.watcher = w
			a.mu.Unlock()
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     5 * time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("notepad", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}
	a.sup = sup
	return nil
}

// Config returns the tunables currently in effect.
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Reconfigure applies new tunables to the running components. Options given
// to New keep precedence over the values in cfg. Invalid configurations are
// rejected and leave the app untouched. The event buffer is sized at startup,
// so a changed events.buffer is logged and kept for the next start.
func (a *App) Reconfigure(cfg config.Config) {
	cfg = a.opts.override(cfg)
	if err := cfg.Validate(); err != nil {
		a.logger.Warn("ignoring invalid configuration", "error", err)
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	requested, current := cfg.Events.Buffer, a.config.Events.Buffer
	cfg.Events.Buffer = current
	a.config = cfg
	a.mu.Unlock()

	if requested != current {
		a.logger.Warn("events.buffer takes effect on restart",
			"current", current,
			"requested", requested,
		)
	}

	if t, ok := a.Repository.(tunable); ok {
		t.Tune(cfg.Latency)
	}
	a.Toasts.SetDefaultDuration(cfg.Toast.Duration)

	a.logger.Info("configuration applied",
		"list_latency", cfg.Latency.List,
		"mutate_latency", cfg.Latency.Mutate,
		"toast_duration", cfg.Toast.Duration,
	)
}

// Watcher returns the active config watcher, or nil when hot reload is off.
func (a *App) Watcher() *config.Watcher {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.watcher
}

// FindNotes returns the current notes whose title matches a glob pattern.
// An empty pattern matches everything.
func (a *App) FindNotes(pattern string) ([]core.Note, error) {
	return core.FilterByTitle(a.Notes.Notes(), pattern)
}

// Close stops every component. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var errs []error
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("config watcher: %w", err))
		}
	}
	if a.Notes != nil {
		if err := a.Notes.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notes: %w", err))
		}
	}
	if a.Login != nil {
		a.Login.Close()
	}
	errs = append(errs, a.teardown())
	return errors.Join(errs...)
}

func (a *App) teardown() error {
	a.cancel()
	a.Toasts.Close()
	if a.ownsStore {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	return nil
}
