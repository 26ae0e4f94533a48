// Package notepad is the Composition Root for the Notepad application.
//
// It connects the note domain (pkg/core) with the in-memory reactive store,
// the single-slot notification state and the screen coordinators, using
// the same Hexagonal Architecture layout as the rest of the module.
//
// Philosophy:
//
// Notepad keeps one source of truth per concern. The store owns the notes
// and pushes every change to its subscribers; coordinators republish a
// simplified state per screen and are the only place where failures turn
// into user-visible notifications.
//
// Features:
//
//   - **Reactive Store**: every mutation is pushed, in order, to all subscribers.
//   - **Simulated Latency**: list and mutate delays stand in for network I/O and can be tuned at runtime.
//   - **Last Known Good**: failed operations keep the previous notes on screen and raise an error toast.
//   - **Toasts**: one active notification at a time, auto-expiring, with an optional action.
//   - **Hot Reload**: a YAML config file is watched and applied without restarting.
//
// Usage:
//
//	app, err := notepad.New(ctx,
//		notepad.WithConfigFile("notepad.yaml"),
//		notepad.WithLogger(logger),
//	)
//	defer app.Close(ctx)
//
//	note, err := app.Notes.AddNote(ctx, "Groceries", "milk, eggs")
package notepad
