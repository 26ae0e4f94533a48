package core

import "errors"

// Common errors.
var (
	// ErrStoreUnavailable signals that the backing store could not serve a request.
	ErrStoreUnavailable = errors.New("note store unavailable")
	ErrClosed           = errors.New("note store is closed")
	ErrEmptyTitle       = errors.New("note title cannot be empty")
	ErrDuplicateID      = errors.New("note id already exists")
	ErrNotWatchable     = errors.New("repository does not support subscriptions")
)
