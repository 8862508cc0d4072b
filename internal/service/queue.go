package service

import (
	"context"

	"inventory-sync/internal/gateway"
	"inventory-sync/internal/models"
	"inventory-sync/internal/syncqueue"
)

// WriteQueue accepts writes for asynchronous delivery
type WriteQueue interface {
	EnqueueBatch(ctx context.Context, entries []syncqueue.Entry) error
}

// Reader is the read side of the remote store
type Reader interface {
	BulkRead(ctx context.Context, collection string) []models.Row
}

var (
	_ WriteQueue = (*syncqueue.Queue)(nil)
	_ Reader     = (gateway.Gateway)(nil)
)

// entries collects queue entries for one logical operation
type entries []syncqueue.Entry

func (e *entries) add(target string, row models.Row) {
	*e = append(*e, syncqueue.Entry{Target: target, Payload: row})
}
