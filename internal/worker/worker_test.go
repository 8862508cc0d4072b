package worker

import (
	"context"
	"errors"
	"testing"

	"inventory-sync/internal/models"
	"inventory-sync/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	scopes []string
	err    error
}

func (s *stubReconciler) SyncAll(ctx context.Context, scope string, progress service.Progress) ([]*service.ReconcileResult, error) {
	s.scopes = append(s.scopes, scope)
	if s.err != nil {
		return nil, s.err
	}
	progress(1, 1)
	return []*service.ReconcileResult{{Pass: scope, Batches: 1, Enqueued: 1}}, nil
}

func TestHandleReconcileRequested(t *testing.T) {
	stub := &stubReconciler{}
	w := NewReconcileWorker(nil, stub)

	err := w.HandleReconcileRequested(context.Background(), &models.ReconcileRequestedEvent{Scope: models.ReconcileScopeAll})
	require.NoError(t, err)
	assert.Equal(t, []string{models.ReconcileScopeAll}, stub.scopes)
}

func TestHandleReconcileRequestedPropagatesFailure(t *testing.T) {
	stub := &stubReconciler{err: errors.New("queue closed")}
	w := NewReconcileWorker(nil, stub)

	err := w.HandleReconcileRequested(context.Background(), &models.ReconcileRequestedEvent{Scope: models.ReconcileScopeGoods})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue closed")
}
