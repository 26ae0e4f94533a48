package viewstate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/adapters/memory"
	"github.com/aretw0/notepad/pkg/config"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/toast"
	"github.com/aretw0/notepad/pkg/viewstate"
)

type fixture struct {
	store  *memory.Store
	toasts *toast.State
	notes  *viewstate.Notes
}

func setup(t *testing.T, latency config.Latency, opts ...viewstate.Option) fixture {
	t.Helper()

	store := memory.NewStore(memory.Config{Latency: latency})
	toasts := toast.New(toast.WithDefaultDuration(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())

	notes, err := viewstate.NewNotes(ctx, core.NewListNotes(store), store, toasts, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = notes.Close(context.Background())
		cancel()
		toasts.Close()
		_ = store.Close()
	})

	require.Eventually(t, func() bool { return notes.Current().Loaded }, 2*time.Second, 5*time.Millisecond)
	return fixture{store: store, toasts: toasts, notes: notes}
}

func TestNotes_StartsEmpty(t *testing.T) {
	f := setup(t, config.Latency{})

	state := f.notes.Current()
	assert.NotNil(t, state.Notes)
	assert.Empty(t, state.Notes)
	assert.Empty(t, state.LastError)
}

func TestNotes_AddThenDelete(t *testing.T) {
	f := setup(t, config.Latency{List: 5 * time.Millisecond, Mutate: 5 * time.Millisecond})
	ctx := context.Background()

	note, err := f.notes.AddNote(ctx, "T", "C")
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.NotZero(t, note.CreatedAt)

	notes := f.notes.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "T", notes[0].Title)
	assert.Equal(t, "C", notes[0].Content)
	assert.Equal(t, note.ID, notes[0].ID)

	cur, ok := f.toasts.Current()
	require.True(t, ok)
	assert.Equal(t, toast.SeveritySuccess, cur.Severity)

	require.NoError(t, f.notes.DeleteNote(ctx, note.ID))
	assert.Empty(t, f.notes.Notes())
}

func TestNotes_DeleteUnknownIsNotAnError(t *testing.T) {
	f := setup(t, config.Latency{})
	require.NoError(t, f.notes.DeleteNote(context.Background(), "missing"))
	assert.Empty(t, f.notes.Current().LastError)
}

func TestNotes_GeneratedFields(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	n := 0
	f := setup(t, config.Latency{},
		viewstate.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		viewstate.WithClock(func() time.Time { return fixed }),
	)

	note, err := f.notes.AddNote(context.Background(), "  padded  ", "")
	require.NoError(t, err)
	assert.Equal(t, "id-1", note.ID)
	assert.Equal(t, "padded", note.Title)
	assert.Equal(t, fixed.UnixMilli(), note.CreatedAt)
	assert.Equal(t, fixed, note.Created())
}

func TestNotes_EmptyTitle(t *testing.T) {
	f := setup(t, config.Latency{})

	_, err := f.notes.AddNote(context.Background(), "   ", "body")
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.Empty(t, f.notes.Notes())

	cur, ok := f.toasts.Current()
	require.True(t, ok)
	assert.Equal(t, toast.SeverityWarning, cur.Severity)
}

func TestNotes_SubscribersSeeOrderedStates(t *testing.T) {
	f := setup(t, config.Latency{Mutate: 2 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states, err := f.notes.Subscribe(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.notes.AddNote(context.Background(), fmt.Sprintf("note %d", i), "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var lastSeq uint64
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			assert.GreaterOrEqual(t, s.Seq, lastSeq, "state went backwards")
			lastSeq = s.Seq
			if len(s.Notes) == 10 {
				assert.Equal(t, uint64(10), s.Seq)
				return
			}
		case <-timeout:
			t.Fatalf("never observed all notes, last seq %d", lastSeq)
		}
	}
}

// Mutations made directly on the store reach the coordinator through its
// subscription, without a reload.
func TestNotes_FollowsStoreEmissions(t *testing.T) {
	f := setup(t, config.Latency{})

	require.NoError(t, f.store.Add(context.Background(), core.Note{ID: "ext", Title: "external"}))

	require.Eventually(t, func() bool {
		notes := f.notes.Notes()
		return len(notes) == 1 && notes[0].ID == "ext"
	}, time.Second, 5*time.Millisecond)
}

func TestNotes_StoreFailureKeepsLastKnownGood(t *testing.T) {
	f := setup(t, config.Latency{})
	ctx := context.Background()

	_, err := f.notes.AddNote(ctx, "kept", "")
	require.NoError(t, err)

	f.store.SetFault(func(op core.Op) error {
		if op == core.OpAdd {
			return errors.New("disk on fire")
		}
		return nil
	})

	_, err = f.notes.AddNote(ctx, "lost", "")
	require.ErrorIs(t, err, core.ErrStoreUnavailable)

	state := f.notes.Current()
	require.Len(t, state.Notes, 1)
	assert.Equal(t, "kept", state.Notes[0].Title)
	assert.Contains(t, state.LastError, "disk on fire")

	cur, ok := f.toasts.Current()
	require.True(t, ok)
	assert.Equal(t, toast.SeverityError, cur.Severity)
	assert.Contains(t, cur.Message, "unavailable")

	// A later success clears the error.
	f.store.SetFault(nil)
	_, err = f.notes.AddNote(ctx, "back", "")
	require.NoError(t, err)
	assert.Empty(t, f.notes.Current().LastError)
	assert.Len(t, f.notes.Notes(), 2)
}

func TestNotes_ReloadFailureOffersRetry(t *testing.T) {
	f := setup(t, config.Latency{})

	var failing sync.Mutex
	fail := true
	f.store.SetFault(func(op core.Op) error {
		failing.Lock()
		defer failing.Unlock()
		if op == core.OpList && fail {
			return errors.New("timeout")
		}
		return nil
	})

	_, err := f.notes.AddNote(context.Background(), "x", "")
	require.ErrorIs(t, err, core.ErrStoreUnavailable)

	cur, ok := f.toasts.Current()
	require.True(t, ok)
	require.True(t, cur.HasAction())
	assert.Equal(t, "RETRY", cur.Action.Label)

	failing.Lock()
	fail = false
	failing.Unlock()

	require.True(t, f.toasts.TriggerAction())
	require.Eventually(t, func() bool {
		s := f.notes.Current()
		return len(s.Notes) == 1 && s.LastError == ""
	}, time.Second, 5*time.Millisecond)
}

// pullOnly is a repository without push support.
type pullOnly struct {
	mu      sync.Mutex
	notes   []core.Note
	listErr error
	lists   int
}

func (p *pullOnly) Lists() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lists
}

func (p *pullOnly) List(ctx context.Context) (core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists++
	if p.listErr != nil {
		return core.Snapshot{}, p.listErr
	}
	return core.Snapshot{Notes: append([]core.Note(nil), p.notes...)}, nil
}

func (p *pullOnly) Add(ctx context.Context, n core.Note) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, n)
	return nil
}

func (p *pullOnly) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.notes[:0]
	for _, n := range p.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	p.notes = kept
	return nil
}

func TestNotes_PullOnlyRepository(t *testing.T) {
	repo := &pullOnly{notes: []core.Note{{ID: "seed", Title: "seed"}}}
	toasts := toast.New()
	defer toasts.Close()

	notes, err := viewstate.NewNotes(context.Background(), core.NewListNotes(repo), repo, toasts)
	require.NoError(t, err)
	defer notes.Close(context.Background())

	require.Eventually(t, func() bool { return len(notes.Notes()) == 1 }, time.Second, 5*time.Millisecond)

	added, err := notes.AddNote(context.Background(), "T", "C")
	require.NoError(t, err)
	require.Len(t, notes.Notes(), 2)

	require.NoError(t, notes.DeleteNote(context.Background(), added.ID))
	require.Len(t, notes.Notes(), 1)
}

func TestNotes_ClosePullOnly(t *testing.T) {
	for range 20 {
		repo := &pullOnly{}
		toasts := toast.New()

		notes, err := viewstate.NewNotes(context.Background(), core.NewListNotes(repo), repo, toasts)
		require.NoError(t, err)
		require.NoError(t, notes.Close(context.Background()))
		require.NoError(t, notes.Close(context.Background()))
		toasts.Close()
	}
}

func TestNotes_RetryAfterCloseIsSkipped(t *testing.T) {
	repo := &pullOnly{listErr: fmt.Errorf("%w: down", core.ErrStoreUnavailable)}
	toasts := toast.New(toast.WithDefaultDuration(time.Minute))
	defer toasts.Close()

	notes, err := viewstate.NewNotes(context.Background(), core.NewListNotes(repo), repo, toasts)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		cur, ok := toasts.Current()
		return ok && cur.HasAction()
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, notes.Close(context.Background()))
	calls := repo.Lists()

	require.True(t, toasts.TriggerAction())
	assert.Never(t, func() bool { return repo.Lists() != calls }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestNotes_Introspection(t *testing.T) {
	f := setup(t, config.Latency{})

	state, ok := f.notes.State().(viewstate.NotesIntrospection)
	require.True(t, ok)
	assert.True(t, state.Loaded)
	assert.Equal(t, "coordinator", f.notes.ComponentType())
}
