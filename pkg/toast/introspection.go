package toast

import (
	"time"

	"github.com/aretw0/introspection"
)

// StateSnapshot exposes internal state for observability.
type StateSnapshot struct {
	Active          bool          `json:"active"`
	ID              uint64        `json:"id,omitempty"`
	Severity        Severity      `json:"severity,omitempty"`
	Message         string        `json:"message,omitempty"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty"`
	DefaultDuration time.Duration `json:"default_duration"`
	Shown           uint64        `json:"shown"`
	Expired         uint64        `json:"expired"`
	Dismissed       uint64        `json:"dismissed"`
	Subscribers     int           `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (s *State) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StateSnapshot{
		DefaultDuration: s.defaultDuration,
		Shown:           s.lastID,
		Expired:         s.expired,
		Dismissed:       s.dismissed,
		Subscribers:     s.events.Len(),
	}
	if s.current != nil {
		expires := s.current.expiresAt
		snap.Active = true
		snap.ID = s.current.id
		snap.Severity = s.current.notification.Severity
		snap.Message = s.current.notification.Message
		snap.ExpiresAt = &expires
	}
	return snap
}

// ComponentType implements introspection.Component.
func (s *State) ComponentType() string {
	return "toast"
}

var _ introspection.Introspectable = (*State)(nil)
var _ introspection.Component = (*State)(nil)
