package crawler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// OrphanReconciler removes players that ended a collection run with no
// associated match link. It must run only after every link of the current
// run has been written; the engine is the sole caller and guarantees that
// ordering.
type OrphanReconciler struct {
	sink   Sink
	logger *zap.Logger
}

// NewOrphanReconciler builds an OrphanReconciler.
func NewOrphanReconciler(sink Sink, logger *zap.Logger) *OrphanReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrphanReconciler{sink: sink, logger: logger}
}

// Reconcile deletes orphaned players and returns the count removed. It is
// idempotent; a second run over the same state deletes nothing.
func (r *OrphanReconciler) Reconcile(ctx context.Context) (int64, error) {
	deleted, err := r.sink.DeleteOrphanPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete orphan players: %w", err)
	}
	r.logger.Info("orphan reconciliation finished", zap.Int64("deleted", deleted))
	return deleted, nil
}
