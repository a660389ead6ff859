package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/config"
)

// ActiveRefReconciler recomputes users' active session and evaluation
// pointers from the authoritative tables.
type ActiveRefReconciler interface {
	ReconcileActiveRefs(ctx context.Context) (int64, error)
}

// ReconcileWorker repairs back-references that a best-effort update
// failed to write.
type ReconcileWorker struct {
	refs     ActiveRefReconciler
	interval time.Duration
	log      zerolog.Logger
}

// DefaultReconcileInterval is used when a non-positive interval is given.
const DefaultReconcileInterval = 5 * time.Minute

func NewReconcileWorker(refs ActiveRefReconciler, interval time.Duration, log zerolog.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &ReconcileWorker{
		refs:     refs,
		interval: interval,
		log: log.With().
			Str("component", "reconcile_worker").
			Str("job", config.WorkerKey.ReconcileActiveRefs).
			Logger(),
	}
}

// Start runs one pass immediately and then every interval until ctx is
// cancelled. Call in a goroutine.
func (w *ReconcileWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ReconcileWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ReconcileWorker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconcile pass and returns the number of users
// whose pointers changed. Errors are logged, not returned.
func (w *ReconcileWorker) RunOnce(ctx context.Context) int64 {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("reconcile pass panicked")
		}
	}()

	start := time.Now()
	changed, err := w.refs.ReconcileActiveRefs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("reconcile pass failed")
		}
		return 0
	}

	if changed > 0 {
		w.log.Warn().Int64("users", changed).Dur("took", time.Since(start)).Msg("Repaired stale active references")
	} else {
		w.log.Debug().Dur("took", time.Since(start)).Msg("Active references consistent")
	}
	return changed
}
