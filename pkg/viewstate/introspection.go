package viewstate

import (
	"fmt"

	"github.com/aretw0/introspection"
)

// NotesIntrospection exposes internal state for observability.
type NotesIntrospection struct {
	Worker      string `json:"worker"`
	Notes       int    `json:"notes"`
	Seq         uint64 `json:"seq"`
	Loaded      bool   `json:"loaded"`
	LastError   string `json:"last_error,omitempty"`
	Subscribers int    `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (n *Notes) State() any {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return NotesIntrospection{
		Worker:      fmt.Sprint(n.worker.State().Status),
		Notes:       len(n.state.Notes),
		Seq:         n.state.Seq,
		Loaded:      n.state.Loaded,
		LastError:   n.state.LastError,
		Subscribers: n.states.Len(),
	}
}

// ComponentType implements introspection.Component.
func (n *Notes) ComponentType() string {
	return "coordinator"
}

// LoginIntrospection exposes internal state for observability.
type LoginIntrospection struct {
	LoggedIn    bool `json:"logged_in"`
	InFlight    bool `json:"in_flight"`
	Subscribers int  `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (l *Login) State() any {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return LoginIntrospection{
		LoggedIn:    l.state.LoggedIn,
		InFlight:    l.state.InFlight,
		Subscribers: l.states.Len(),
	}
}

// ComponentType implements introspection.Component.
func (l *Login) ComponentType() string {
	return "coordinator"
}

var _ introspection.Introspectable = (*Notes)(nil)
var _ introspection.Component = (*Notes)(nil)
var _ introspection.Introspectable = (*Login)(nil)
var _ introspection.Component = (*Login)(nil)
