package notepad

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/notepad/internal/platform"
	"github.com/aretw0/notepad/pkg/auth"
	"github.com/aretw0/notepad/pkg/config"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/prefs"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// App is a wired notepad application.
type App = platform.App

// Node is one component of App.Topology.
type Node = platform.Node

// Note is a public alias for the domain note.
type Note = core.Note

// --- Configuration ---

// Option defines a functional option for configuring the application.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfig supplies the tunables directly.
func WithConfig(cfg config.Config) Option {
	return platform.WithConfig(cfg)
}

// WithConfigFile loads the tunables from a YAML file and watches it.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithConfigWatch enables or disables hot reload of the config file.
func WithConfigWatch(enabled bool) Option {
	return platform.WithConfigWatch(enabled)
}

// WithLatency overrides the artificial store latencies.
func WithLatency(list, mutate time.Duration) Option {
	return platform.WithLatency(list, mutate)
}

// WithToastDuration overrides how long notifications stay visible.
func WithToastDuration(d time.Duration) Option {
	return platform.WithToastDuration(d)
}

// WithRepository allows injecting a custom note repository.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAuthenticator replaces the mock authenticator.
func WithAuthenticator(a auth.Authenticator) Option {
	return platform.WithAuthenticator(a)
}

// WithPreferences replaces the in-memory preference store.
func WithPreferences(store prefs.Store) Option {
	return platform.WithPreferences(store)
}

// WithEventBuffer allows specifying the channel capacity of every subscriber.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// --- Factory ---

// New creates a running notepad. Call Close to stop it.
func New(ctx context.Context, opts ...Option) (*App, error) {
	return platform.New(ctx, opts...)
}

// ErrConfigNotFound is returned by FindConfig when no config file exists.
var ErrConfigNotFound = platform.ErrConfigNotFound

// FindConfig looks upwards from dir for notepad.yaml or .notepad.yaml.
func FindConfig(dir string) (string, error) {
	return platform.FindConfig(dir)
}
