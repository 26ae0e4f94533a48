package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/auth"
	"github.com/aretw0/notepad/pkg/broker"
	"github.com/aretw0/notepad/pkg/toast"
)

// LoginState is what the login screen observes.
type LoginState struct {
	UsernameError string `json:"username_error,omitempty"`
	PasswordError string `json:"password_error,omitempty"`
	InFlight      bool   `json:"in_flight"`
	LoggedIn      bool   `json:"logged_in"`
	LastError     string `json:"last_error,omitempty"`
}

// Login coordinates the login screen.
type Login struct {
	auth   auth.Authenticator
	toasts Notifier
	logger *slog.Logger
	states *broker.Broker[LoginState]

	// ctx ends on Close and bounds retries.
	ctx    context.Context
	cancel context.CancelFunc

	// opMu keeps one login or logout in flight at a time.
	opMu sync.Mutex

	mu    sync.RWMutex
	state LoginState
}

// NewLogin creates the coordinator. If the authenticator can report an
// existing session, the initial state reflects it.
func NewLogin(a auth.Authenticator, toasts Notifier, opts ...Option) *Login {
	o := applyOptions(opts)

	ctx, cancel := context.WithCancel(context.Background())
	l := &Login{
		auth:   a,
		toasts: toasts,
		logger: o.logger,
		states: broker.New[LoginState]("login-state", broker.WithLogger(o.logger), broker.WithBuffer(o.buffer)),
		ctx:    ctx,
		cancel: cancel,
	}
	if s, ok := a.(interface{ LoggedIn() bool }); ok {
		l.state.LoggedIn = s.LoggedIn()
	}
	return l
}

// Current returns the latest published state.
func (l *Login) Current() LoginState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Subscribe delivers the current state followed by every later change.
func (l *Login) Subscribe(ctx context.Context) (<-chan LoginState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.states.Subscribe(ctx, l.state)
}

// Login validates the credentials and, when they pass, asks the
// authenticator. Validation failures and rejected credentials are reported
// through the state and a notification, not as errors; the error return is
// reserved for authenticator failures.
func (l *Login) Login(ctx context.Context, username, password string) (bool, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	v := auth.Validate(username, password)
	if !v.Valid {
		l.update(func(s *LoginState) {
			s.UsernameError = v.UsernameError
			s.PasswordError = v.PasswordError
			s.LastError = ""
		})
		l.toasts.ShowWarning(firstNonEmpty(v.UsernameError, v.PasswordError))
		return false, nil
	}

	l.update(func(s *LoginState) {
		s.UsernameError = ""
		s.PasswordError = ""
		s.LastError = ""
		s.InFlight = true
	})

	ok, err := l.auth.Login(ctx, username, password)
	if err != nil {
		l.update(func(s *LoginState) {
			s.InFlight = false
			s.LastError = err.Error()
		})
		if !errors.Is(err, context.Canceled) {
			l.logger.Error("login failed", "username", username, "error", err)
			l.toasts.ShowError(fmt.Sprintf("Login failed: %v", err))
		}
		return false, fmt.Errorf("login: %w", err)
	}

	l.update(func(s *LoginState) {
		s.InFlight = false
		s.LoggedIn = ok
	})
	if !ok {
		l.logger.Info("credentials rejected", "username", username)
		l.toasts.ShowError("Invalid credentials", toast.WithAction("RETRY", func() {
			l.retry(username, password)
		}))
		return false, nil
	}

	l.logger.Info("logged in", "username", username)
	l.toasts.ShowSuccess("Login successful!")
	return true, nil
}

// Logout ends the session.
func (l *Login) Logout(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if err := l.auth.Logout(ctx); err != nil {
		l.update(func(s *LoginState) { s.LastError = err.Error() })
		l.toasts.ShowError(fmt.Sprintf("Logout failed: %v", err))
		return fmt.Errorf("logout: %w", err)
	}

	l.update(func(s *LoginState) {
		*s = LoginState{}
	})
	l.toasts.ShowInfo("Logged out")
	return nil
}

// Close ends all state subscriptions. Pending retries are dropped.
func (l *Login) Close() {
	l.cancel()
	l.states.Close()
}

func (l *Login) update(fn func(*LoginState)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.state)
	l.states.Publish(l.state)
}

func (l *Login) retry(username, password string) {
	lifecycle.Go(l.ctx, func(ctx context.Context) error {
		if ctx.Err() != nil {
			l.logger.Debug("login retry skipped, coordinator closed")
			return nil
		}
		_, err := l.Login(ctx, username, password)
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		l.logger.Error("login retry failed", "error", err)
	}))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
