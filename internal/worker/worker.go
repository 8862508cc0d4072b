package worker

import (
	"context"
	"fmt"

	"inventory-sync/internal/broker"
	"inventory-sync/internal/models"
	"inventory-sync/internal/service"
	"inventory-sync/internal/util"

	"go.uber.org/zap"
)

// Reconciler runs balance passes for a scope
type Reconciler interface {
	SyncAll(ctx context.Context, scope string, progress service.Progress) ([]*service.ReconcileResult, error)
}

// ReconcileWorker runs balance reconciliation on command messages
type ReconcileWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	reconciler   Reconciler
	logger       *zap.Logger
}

// NewReconcileWorker creates a new reconcile worker
func NewReconcileWorker(consumer *broker.Consumer, reconciler Reconciler) *ReconcileWorker {
	w := &ReconcileWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		reconciler:   reconciler,
		logger:       util.ComponentLogger("reconcile-worker"),
	}
	w.eventHandler.OnReconcileRequested(w.HandleReconcileRequested)
	return w
}

// HandleReconcileRequested runs the passes named by the event's scope
func (w *ReconcileWorker) HandleReconcileRequested(ctx context.Context, event *models.ReconcileRequestedEvent) error {
	ctx, span := util.StartSpan(ctx, "ReconcileWorker.HandleReconcileRequested")
	defer span.End()

	w.logger.Info("Reconciliation requested",
		zap.String("event_id", event.EventID),
		zap.String("scope", event.Scope),
		zap.String("requested_by", event.RequestedBy))

	results, err := w.reconciler.SyncAll(ctx, event.Scope, func(done, total int) {
		if done == total {
			w.logger.Debug("Pass complete", zap.Int("batches", total))
		}
	})
	if err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("reconciliation failed for scope %s: %w", event.Scope, err)
	}

	for _, r := range results {
		w.logger.Info("Reconciliation pass done",
			zap.String("pass", r.Pass),
			zap.Int("enqueued", r.Enqueued))
	}
	return nil
}

// Start starts the worker
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reconcile worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReconcileWorker) Stop() error {
	w.logger.Info("Stopping reconcile worker")
	return w.consumer.Close()
}
