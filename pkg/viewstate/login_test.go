package viewstate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/auth"
	"github.com/aretw0/notepad/pkg/prefs"
	"github.com/aretw0/notepad/pkg/toast"
	"github.com/aretw0/notepad/pkg/viewstate"
)

// scriptedAuth answers logins from a fixed result.
type scriptedAuth struct {
	mu     sync.Mutex
	ok     bool
	err    error
	calls  int
	logout error
}

func (s *scriptedAuth) Login(ctx context.Context, username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.ok, s.err
}

func (s *scriptedAuth) Logout(ctx context.Context) error {
	return s.logout
}

func (s *scriptedAuth) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedAuth) Accept() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ok = true
}

func newLogin(t *testing.T, a auth.Authenticator) (*viewstate.Login, *toast.State) {
	t.Helper()
	toasts := toast.New(toast.WithDefaultDuration(time.Minute))
	login := viewstate.NewLogin(a, toasts)
	t.Cleanup(func() {
		login.Close()
		toasts.Close()
	})
	return login, toasts
}

func TestLogin_InvalidInputNeverReachesAuthenticator(t *testing.T) {
	tests := []struct {
		name         string
		username     string
		password     string
		wantUsername string
		wantPassword string
	}{
		{"short username", "ab", "secret1", auth.MsgUsernameTooShort, ""},
		{"password checked before username length", "ab", "", "", auth.MsgPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &scriptedAuth{ok: true}
			login, toasts := newLogin(t, a)

			ok, err := login.Login(context.Background(), tt.username, tt.password)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Zero(t, a.Calls())

			state := login.Current()
			assert.Equal(t, tt.wantUsername, state.UsernameError)
			assert.Equal(t, tt.wantPassword, state.PasswordError)
			assert.False(t, state.LoggedIn)

			cur, shown := toasts.Current()
			require.True(t, shown)
			assert.Equal(t, toast.SeverityWarning, cur.Severity)
			assert.Equal(t, tt.wantUsername+tt.wantPassword, cur.Message)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	tokens := auth.NewTokenStore(prefs.NewMemory())
	login, toasts := newLogin(t, auth.NewMockAuthenticator(tokens, nil))
	assert.False(t, login.Current().LoggedIn)

	ok, err := login.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, login.Current().LoggedIn)
	assert.True(t, tokens.LoggedIn())

	cur, _ := toasts.Current()
	assert.Equal(t, "Login successful!", cur.Message)

	require.NoError(t, login.Logout(context.Background()))
	assert.False(t, login.Current().LoggedIn)
	assert.False(t, tokens.LoggedIn())
}

func TestLogin_RestoresExistingSession(t *testing.T) {
	tokens := auth.NewTokenStore(prefs.NewMemory())
	tokens.Save("mock_token_1")

	login, _ := newLogin(t, auth.NewMockAuthenticator(tokens, nil))
	assert.True(t, login.Current().LoggedIn)
}

func TestLogin_RejectedOffersRetry(t *testing.T) {
	a := &scriptedAuth{}
	login, toasts := newLogin(t, a)

	ok, err := login.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.False(t, ok)

	cur, shown := toasts.Current()
	require.True(t, shown)
	assert.Equal(t, toast.SeverityError, cur.Severity)
	require.True(t, cur.HasAction())

	a.Accept()
	require.True(t, toasts.TriggerAction())
	require.Eventually(t, func() bool { return login.Current().LoggedIn }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, a.Calls())
}

func TestLogin_RetryAfterCloseIsSkipped(t *testing.T) {
	a := &scriptedAuth{}
	login, toasts := newLogin(t, a)

	_, err := login.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.Equal(t, 1, a.Calls())

	login.Close()
	a.Accept()
	require.True(t, toasts.TriggerAction())

	assert.Never(t, func() bool { return a.Calls() > 1 }, 100*time.Millisecond, 5*time.Millisecond)
	assert.False(t, login.Current().LoggedIn)
}

func TestLogin_AuthenticatorError(t *testing.T) {
	boom := errors.New("backend down")
	login, toasts := newLogin(t, &scriptedAuth{err: boom})

	ok, err := login.Login(context.Background(), "alice", "secret1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	state := login.Current()
	assert.False(t, state.InFlight)
	assert.Equal(t, "backend down", state.LastError)

	cur, _ := toasts.Current()
	assert.Equal(t, toast.SeverityError, cur.Severity)
	assert.Contains(t, cur.Message, "backend down")
}

func TestLogin_SubscribeSeesInFlight(t *testing.T) {
	login, _ := newLogin(t, &scriptedAuth{ok: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states, err := login.Subscribe(ctx)
	require.NoError(t, err)

	_, err = login.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	var seen []viewstate.LoginState
	timeout := time.After(time.Second)
	for len(seen) < 3 {
		select {
		case s := <-states:
			seen = append(seen, s)
		case <-timeout:
			t.Fatalf("got %d states", len(seen))
		}
	}
	assert.False(t, seen[0].InFlight)
	assert.True(t, seen[1].InFlight)
	assert.False(t, seen[2].InFlight)
	assert.True(t, seen[2].LoggedIn)
}
