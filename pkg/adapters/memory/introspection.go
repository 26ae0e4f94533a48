package memory

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Notes         int           `json:"notes"`
	Seq           uint64        `json:"seq"`
	Subscribers   int           `json:"subscribers"`
	Closed        bool          `json:"closed"`
	FaultInjected bool          `json:"fault_injected"`
	ListLatency   time.Duration `json:"list_latency"`
	MutateLatency time.Duration `json:"mutate_latency"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := s.Latency()
	return StoreState{
		Notes:         len(s.notes),
		Seq:           s.seq,
		Subscribers:   s.events.Len(),
		Closed:        s.closed,
		FaultInjected: s.fault.Load() != nil,
		ListLatency:   l.List,
		MutateLatency: l.Mutate,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
