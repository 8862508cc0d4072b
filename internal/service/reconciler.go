package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-sync/internal/ledger"
	"inventory-sync/internal/models"
	"inventory-sync/internal/syncqueue"
	"inventory-sync/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	PassProducts = "products"
	PassGoods    = "goods"
)

// Progress is called after each batch with the number handled so far
type Progress func(done, total int)

// ReconcileResult summarizes one reconciliation pass
type ReconcileResult struct {
	Pass     string `json:"pass"`
	Batches  int    `json:"batches"`
	Enqueued int    `json:"enqueued"`
	Failed   int    `json:"failed"`
}

// Reconciler rebuilds batch balance snapshots from the intake and
// consumption ledgers. It is only run on request.
type Reconciler struct {
	reader Reader
	queue  WriteQueue
	now    func() time.Time
	logger *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(reader Reader, queue WriteQueue) *Reconciler {
	return &Reconciler{
		reader: reader,
		queue:  queue,
		now:    time.Now,
		logger: util.ComponentLogger("reconciler"),
	}
}

func (r *Reconciler) readLedgers(ctx context.Context, intakeCollection, consumptionCollection string) ([]models.Row, []models.Row, error) {
	var intake, consumption []models.Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		intake = r.reader.BulkRead(gctx, intakeCollection)
		return nil
	})
	g.Go(func() error {
		consumption = r.reader.BulkRead(gctx, consumptionCollection)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return intake, consumption, nil
}

// SyncProductBalances writes one fresh snapshot per product intake batch
func (r *Reconciler) SyncProductBalances(ctx context.Context, progress Progress) (*ReconcileResult, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.SyncProductBalances")
	defer span.End()

	intake, consumption, err := r.readLedgers(ctx, models.CollectionProductIntake, models.CollectionProductConsumption)
	if err != nil {
		return nil, fmt.Errorf("failed to read product ledgers: %w", err)
	}

	balances := ledger.ReconcileProducts(intake, consumption, r.now())
	rows := make([]models.Row, len(balances))
	for i, b := range balances {
		rows[i] = b.ToRow()
	}

	res, err := r.enqueueEach(ctx, PassProducts, models.CollectionProductBalance, rows, progress)
	if err != nil {
		util.RecordError(span, err)
	}
	return res, err
}

// SyncGoodsBalances writes one fresh snapshot per goods intake batch
func (r *Reconciler) SyncGoodsBalances(ctx context.Context, progress Progress) (*ReconcileResult, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.SyncGoodsBalances")
	defer span.End()

	intake, consumption, err := r.readLedgers(ctx, models.CollectionGoodsIntake, models.CollectionGoodsConsumption)
	if err != nil {
		return nil, fmt.Errorf("failed to read goods ledgers: %w", err)
	}

	balances := ledger.ReconcileGoods(intake, consumption, r.now())
	rows := make([]models.Row, len(balances))
	for i, b := range balances {
		rows[i] = b.ToRow()
	}

	res, err := r.enqueueEach(ctx, PassGoods, models.CollectionGoodsBalance, rows, progress)
	if err != nil {
		util.RecordError(span, err)
	}
	return res, err
}

// enqueueEach enqueues every snapshot on its own. The pass keeps going after
// a failure and reports an error if any snapshot was not queued.
func (r *Reconciler) enqueueEach(ctx context.Context, pass, collection string, rows []models.Row, progress Progress) (*ReconcileResult, error) {
	res := &ReconcileResult{Pass: pass, Batches: len(rows)}
	var errs []error

	for i, row := range rows {
		err := r.queue.EnqueueBatch(ctx, []syncqueue.Entry{{Target: collection, Payload: row}})
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("batch %s: %w", row.Str(models.FieldBatchID), err))
			util.ReconciledBatchesTotal.WithLabelValues(pass, "failed").Inc()
		} else {
			res.Enqueued++
			util.ReconciledBatchesTotal.WithLabelValues(pass, "enqueued").Inc()
		}
		if progress != nil {
			progress(i+1, len(rows))
		}
	}

	r.logger.Info("Balance reconciliation finished",
		zap.String("pass", pass),
		zap.Int("batches", res.Batches),
		zap.Int("enqueued", res.Enqueued),
		zap.Int("failed", res.Failed))

	if len(errs) > 0 {
		return res, fmt.Errorf("%s reconciliation incomplete: %w", pass, errors.Join(errs...))
	}
	return res, nil
}

// SyncAll runs the requested passes one after another
func (r *Reconciler) SyncAll(ctx context.Context, scope string, progress Progress) ([]*ReconcileResult, error) {
	var results []*ReconcileResult

	if scope == models.ReconcileScopeProducts || scope == models.ReconcileScopeAll {
		res, err := r.SyncProductBalances(ctx, progress)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	if scope == models.ReconcileScopeGoods || scope == models.ReconcileScopeAll {
		res, err := r.SyncGoodsBalances(ctx, progress)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	if len(results) == 0 {
		return nil, newValidationError("scope", "oneof")
	}
	return results, nil
}
