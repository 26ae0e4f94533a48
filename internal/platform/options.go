package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/notepad/pkg/auth"
	"github.com/aretw0/notepad/pkg/config"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/prefs"
)

// options holds the internal configuration for the notepad application.
type options struct {
	logger        *slog.Logger
	config        *config.Config
	configPath    string
	watchConfig   bool
	repository    core.Repository
	authenticator auth.Authenticator
	preferences   prefs.Store
	latency       *config.Latency
	toastDuration time.Duration
	eventBuffer   *int
}

// Option defines a functional option for configuring the application.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		logger:      nil,
		watchConfig: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig supplies the tunables directly. It takes precedence over
// WithConfigFile for the initial values; the file is still watched.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithConfigFile loads the tunables from a YAML file and, unless disabled
// with WithConfigWatch(false), reloads them whenever the file changes.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithConfigWatch enables or disables hot reload of the config file.
// Enabled by default; it has no effect without WithConfigFile.
func WithConfigWatch(enabled bool) Option {
	return func(o *options) {
		o.watchConfig = enabled
	}
}

// WithLatency overrides the artificial store latencies.
func WithLatency(list, mutate time.Duration) Option {
	return func(o *options) {
		o.latency = &config.Latency{List: list, Mutate: mutate}
	}
}

// WithToastDuration overrides how long notifications stay visible.
func WithToastDuration(d time.Duration) Option {
	return func(o *options) {
		o.toastDuration = d
	}
}

// WithRepository allows injecting a custom note repository (e.g. a mock).
// If provided, the in-memory store is skipped and latency tuning has no
// effect.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAuthenticator replaces the mock authenticator.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(o *options) {
		o.authenticator = a
	}
}

// WithPreferences replaces the in-memory preference store.
func WithPreferences(store prefs.Store) Option {
	return func(o *options) {
		o.preferences = store
	}
}

// WithEventBuffer allows specifying the channel capacity of every
// subscriber. It overrides events.buffer from the config.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = &size
	}
}
