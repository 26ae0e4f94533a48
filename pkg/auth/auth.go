// Package auth holds the login collaborators of the state layer: the pure
// credential validator, the authenticator contract and a token store.
package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/notepad/pkg/prefs"
)

// Authenticator checks credentials. The state layer treats it as opaque:
// it may be local or remote and may persist a token as a side effect.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (bool, error)
	Logout(ctx context.Context) error
}

const tokenKey = "auth_token"

// TokenStore keeps the session token in a preference store.
type TokenStore struct {
	store prefs.Store
}

// NewTokenStore creates a token store backed by store.
func NewTokenStore(store prefs.Store) *TokenStore {
	return &TokenStore{store: store}
}

// Token returns the saved token.
func (t *TokenStore) Token() (string, bool) {
	v, ok := t.store.Get(tokenKey)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Save stores token.
func (t *TokenStore) Save(token string) {
	t.store.Set(tokenKey, token)
}

// Clear removes the token.
func (t *TokenStore) Clear() {
	t.store.Clear(tokenKey)
}

// LoggedIn reports whether a non-empty token is present.
func (t *TokenStore) LoggedIn() bool {
	_, ok := t.Token()
	return ok
}

// MockAuthenticator accepts any pair of non-empty credentials and saves a
// mock token. It stands in for a real identity provider.
type MockAuthenticator struct {
	tokens *TokenStore
	logger *slog.Logger
	now    func() time.Time
}

// NewMockAuthenticator creates a mock authenticator saving into tokens.
func NewMockAuthenticator(tokens *TokenStore, logger *slog.Logger) *MockAuthenticator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MockAuthenticator{tokens: tokens, logger: logger, now: time.Now}
}

var _ Authenticator = (*MockAuthenticator)(nil)

// Login implements Authenticator.
func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if username == "" || password == "" {
		return false, nil
	}

	m.tokens.Save(fmt.Sprintf("mock_token_%d", m.now().UnixMilli()))
	m.logger.Debug("mock login accepted", "username", username)
	return true, nil
}

// Logout implements Authenticator.
func (m *MockAuthenticator) Logout(ctx context.Context) error {
	m.tokens.Clear()
	return nil
}

// LoggedIn reports whether a session token exists.
func (m *MockAuthenticator) LoggedIn() bool {
	return m.tokens.LoggedIn()
}
