package platform_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/internal/platform"
	"github.com/aretw0/notepad/pkg/config"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/prefs"
	"github.com/aretw0/notepad/pkg/toast"
)

func newApp(t *testing.T, opts ...platform.Option) *platform.App {
	t.Helper()
	base := []platform.Option{platform.WithLatency(0, 0)}
	app, err := platform.New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestNew_Defaults(t *testing.T) {
	app := newApp(t)

	assert.NotNil(t, app.Store)
	assert.Same(t, app.Store, app.Repository)
	assert.Nil(t, app.Watcher())

	cfg := app.Config()
	assert.Zero(t, cfg.Latency.List)
	assert.Equal(t, config.DefaultToastDuration, cfg.Toast.Duration)
}

func TestApp_AddFindDelete(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()

	for _, title := range []string{"groceries", "go notes", "gym"} {
		_, err := app.Notes.AddNote(ctx, title, "")
		require.NoError(t, err)
	}

	found, err := app.FindNotes("g*s")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "groceries", found[0].Title)
	assert.Equal(t, "go notes", found[1].Title)

	all, err := app.FindNotes("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = app.FindNotes("[")
	assert.Error(t, err)

	require.NoError(t, app.Notes.DeleteNote(ctx, found[0].ID))
	assert.Len(t, app.Notes.Notes(), 2)
}

func TestApp_SharedToastSlot(t *testing.T) {
	app := newApp(t)

	ok, err := app.Login.Login(context.Background(), "x", "y")
	require.NoError(t, err)
	assert.False(t, ok)

	cur, shown := app.Toasts.Current()
	require.True(t, shown)
	assert.Contains(t, cur.Message, "Username")
}

func TestApp_LoginUsesPreferences(t *testing.T) {
	store := prefs.NewMemory()
	app := newApp(t, platform.WithPreferences(store))

	ok, err := app.Login.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.True(t, ok)

	token, found := store.Get("auth_token")
	assert.True(t, found)
	assert.Contains(t, token, "mock_token_")

	app.Theme.SetDarkMode(true)
	assert.Equal(t, "true", store.All()["dark_mode"])
}

type staticRepo struct{}

func (staticRepo) List(ctx context.Context) (core.Snapshot, error) {
	return core.Snapshot{Notes: []core.Note{{ID: "1", Title: "static"}}}, nil
}
func (staticRepo) Add(ctx context.Context, n core.Note) error { return nil }
func (staticRepo) Delete(ctx context.Context, id string) error { return nil }

func TestNew_CustomRepository(t *testing.T) {
	app := newApp(t, platform.WithRepository(staticRepo{}))

	assert.Nil(t, app.Store)
	require.Eventually(t, func() bool { return len(app.Notes.Notes()) == 1 }, time.Second, 5*time.Millisecond)

	// Tuning a repository without latency is a no-op.
	app.Reconfigure(config.Default())
	assert.Equal(t, config.DefaultToastDuration, app.Config().Toast.Duration)
}

func TestNew_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notepad.yaml")
	writeConfig(t, path, "toast:\n  duration: -1s\n")

	_, err := platform.New(context.Background(), platform.WithConfigFile(path))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNew_OptionsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notepad.yaml")
	writeConfig(t, path, "latency:\n  list: 2s\n  mutate: 2s\ntoast:\n  duration: 9s\n")

	app := newApp(t, platform.WithConfigFile(path), platform.WithConfigWatch(false), platform.WithToastDuration(time.Second))

	cfg := app.Config()
	assert.Zero(t, cfg.Latency.List)
	assert.Equal(t, time.Second, cfg.Toast.Duration)
	assert.Nil(t, app.Watcher())
}

func TestApp_ReconfigureRejectsInvalid(t *testing.T) {
	app := newApp(t)

	bad := config.Default()
	bad.Toast.Duration = 0
	app.Reconfigure(bad)
	assert.Equal(t, config.DefaultToastDuration, app.Config().Toast.Duration)

	good := config.Default()
	good.Toast.Duration = 5 * time.Second
	app.Reconfigure(good)
	assert.Equal(t, 5*time.Second, app.Config().Toast.Duration)
	// Latency stays pinned by WithLatency.
	assert.Zero(t, app.Config().Latency.Mutate)
}

// logBuffer is written by component goroutines and read by the test.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestApp_ReconfigureKeepsEventBuffer(t *testing.T) {
	logs := &logBuffer{}
	app := newApp(t, platform.WithLogger(slog.New(slog.NewTextHandler(logs, nil))))

	cfg := config.Default()
	cfg.Events.Buffer = 64
	cfg.Toast.Duration = 4 * time.Second
	app.Reconfigure(cfg)

	assert.Equal(t, config.DefaultEventBuffer, app.Config().Events.Buffer)
	assert.Equal(t, 4*time.Second, app.Config().Toast.Duration)
	assert.Contains(t, logs.String(), "events.buffer takes effect on restart")
	assert.Contains(t, logs.String(), "requested=64")
}

func TestApp_HotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notepad.yaml")
	writeConfig(t, path, "toast:\n  duration: 1s\n")

	app, err := platform.New(context.Background(), platform.WithConfigFile(path))
	require.NoError(t, err)
	defer app.Close(context.Background())

	assert.Equal(t, time.Second, app.Config().Toast.Duration)
	assert.Equal(t, config.DefaultListLatency, app.Store.Latency().List)

	require.Eventually(t, func() bool { return app.Watcher() != nil }, 2*time.Second, 10*time.Millisecond)

	// Rewrite until the watcher picks it up; the first write may land
	// before the watch is registered.
	require.Eventually(t, func() bool {
		if app.Config().Toast.Duration == 2*time.Second {
			return true
		}
		writeConfig(t, path, "latency:\n  list: 5ms\n  mutate: 5ms\ntoast:\n  duration: 2s\n")
		return false
	}, 5*time.Second, 200*time.Millisecond)

	assert.Equal(t, 5*time.Millisecond, app.Store.Latency().List)
	ts, ok := app.Toasts.State().(toast.StateSnapshot)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, ts.DefaultDuration)
}

func TestApp_TopologyAndClose(t *testing.T) {
	app := newApp(t)

	tree := app.Topology()
	assert.Equal(t, "Notepad", tree.Name)
	require.Len(t, tree.Children, 4)
	assert.Equal(t, "Store", tree.Children[0].Name)
	assert.Equal(t, "running", tree.Children[0].Status)

	require.NoError(t, app.Close(context.Background()))
	require.NoError(t, app.Close(context.Background()))

	tree = app.Topology()
	assert.Equal(t, "stopped", tree.Status)
	assert.Equal(t, "stopped", tree.Children[0].Status)
}
