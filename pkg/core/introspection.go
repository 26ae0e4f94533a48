package core

import (
	"github.com/aretw0/introspection"
)

// ListNotesState exposes internal state for observability.
type ListNotesState struct {
	RepositoryType string `json:"repository_type"`
	Watchable      bool   `json:"watchable"`
}

// State implements introspection.Introspectable.
func (uc *ListNotes) State() any {
	repoType := "unknown"
	if uc.repo != nil {
		repoType = "repository"
		if comp, ok := uc.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	_, watchable := uc.repo.(Watchable)
	return ListNotesState{
		RepositoryType: repoType,
		Watchable:      watchable,
	}
}

// ComponentType implements introspection.Component.
func (uc *ListNotes) ComponentType() string {
	return "usecase"
}

var _ introspection.Introspectable = (*ListNotes)(nil)
var _ introspection.Component = (*ListNotes)(nil)
