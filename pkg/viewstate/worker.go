package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/notepad/pkg/core"
)

// subscriptionWorker keeps the Notes coordinator attached to the use case.
// It resubscribes after failures and falls back to a single pull when the
// repository cannot push.
type subscriptionWorker struct {
	*worker.BaseWorker
	notes  *Notes
	cancel context.CancelFunc
}

func newSubscriptionWorker(n *Notes) *subscriptionWorker {
	return &subscriptionWorker{
		BaseWorker: worker.NewBaseWorker("notes-subscription"),
		notes:      n,
	}
}

func (w *subscriptionWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("subscription already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

// Stop cancels the run loop and waits for it. BaseWorker.Stop records the
// stop request under its own lock.
func (w *subscriptionWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *subscriptionWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (w *subscriptionWorker) run(ctx context.Context) (err error) {
	logger := w.notes.logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("subscription panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("subscription panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("subscription panic", "error", err)
			}
		}
	}()

	for {
		snapshots, err := w.notes.uc.Invoke(ctx)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrNotWatchable):
			logger.Debug("repository is pull-only, loading once")
			_ = w.notes.Refresh(ctx)
			return nil
		case errors.Is(err, core.ErrClosed), ctx.Err() != nil:
			return nil
		default:
			w.notes.fail("load notes", err)
			if !sleep(ctx, w.notes.resubscribeDelay) {
				return nil
			}
			continue
		}

		for snap := range snapshots {
			w.notes.publish(snap)
		}
		// The channel closes when ctx ends or the store shuts down.
		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
