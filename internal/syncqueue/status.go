package syncqueue

import (
	"context"
	"errors"

	"inventory-sync/internal/models"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

const (
	eventStart   = "start"
	eventDrained = "drained"
	eventFail    = "fail"
	eventSettle  = "settle"
)

var (
	stateIdle    = string(models.SyncStatusIdle)
	stateSyncing = string(models.SyncStatusSyncing)
	stateError   = string(models.SyncStatusError)
)

func newStatusMachine() *fsm.FSM {
	return fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{stateIdle, stateError}, Dst: stateSyncing},
			{Name: eventDrained, Src: []string{stateSyncing}, Dst: stateIdle},
			{Name: eventFail, Src: []string{stateSyncing}, Dst: stateError},
			{Name: eventSettle, Src: []string{stateError}, Dst: stateIdle},
		},
		fsm.Callbacks{},
	)
}

// fire applies an event and reports whether the status changed. Caller holds q.mu.
func (q *Queue) fire(event string) bool {
	if !q.status.Can(event) {
		return false
	}
	err := q.status.Event(context.Background(), event)
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		q.logger.Error("Invalid status transition", zap.String("event", event), zap.Error(err))
		return false
	}
	return err == nil
}
