package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"inventory-sync/internal/gateway"
	"inventory-sync/internal/models"
	"inventory-sync/internal/util"

	"github.com/cenkalti/backoff"
	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

var (
	ErrQueueEmpty = errors.New("sync queue is empty")
	ErrClosed     = errors.New("sync queue is shut down")
)

// EventPublisher receives delivery outcomes. Publishing is best-effort.
type EventPublisher interface {
	PublishSyncEvent(ctx context.Context, event *models.SyncEvent) error
}

// Entry is one write waiting to become a task
type Entry struct {
	Target  string
	Payload models.Row
}

// Listener observes status and pending-count changes. Listeners run
// serially and must not call back into the queue.
type Listener func(status models.SyncStatus, pending int)

// Queue delivers writes to the remote store strictly in enqueue order. A
// failed head task blocks the tasks behind it and is retried until it is
// delivered or dropped by an operator.
type Queue struct {
	mu         sync.Mutex
	notifyMu   sync.Mutex
	gateway    gateway.Gateway
	storage    Storage
	publisher  EventPublisher
	tasks      []models.Task
	processing bool
	restored   bool
	started    bool
	closed     bool
	status     *fsm.FSM

	listeners    map[int]Listener
	nextListener int

	backoff        backoff.BackOff
	interTaskDelay time.Duration
	startupDelay   time.Duration
	timer          *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a queue. Call Load to restore persisted tasks and start draining.
func New(gw gateway.Gateway, storage Storage, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		gateway:        gw,
		storage:        storage,
		status:         newStatusMachine(),
		listeners:      make(map[int]Listener),
		backoff:        backoff.NewConstantBackOff(DefaultRetryDelay),
		interTaskDelay: DefaultInterTaskDelay,
		startupDelay:   DefaultStartupDelay,
		ctx:            ctx,
		cancel:         cancel,
		logger:         util.ComponentLogger("syncqueue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.reportMetrics()
	return q
}

// Load restores persisted tasks and schedules the first drain after the
// startup delay. Nothing is delivered before Load is called.
func (q *Queue) Load(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if err := q.restoreLocked(ctx); err != nil {
		q.mu.Unlock()
		return err
	}
	q.started = true
	pending := len(q.tasks)
	q.scheduleLocked(q.startupDelay)
	q.mu.Unlock()

	q.logger.Info("Sync queue loaded", zap.Int("pending", pending), zap.Duration("startup_delay", q.startupDelay))
	q.notify()
	return nil
}

// restoreLocked reads the persisted list once. Caller holds q.mu.
func (q *Queue) restoreLocked(ctx context.Context) error {
	if q.restored {
		return nil
	}
	persisted, err := q.storage.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sync queue: %w", err)
	}
	q.tasks = cloneTasks(persisted)
	q.restored = true
	return nil
}

// Enqueue appends one write and returns once it is persisted locally.
func (q *Queue) Enqueue(ctx context.Context, target string, payload models.Row) error {
	return q.EnqueueBatch(ctx, []Entry{{Target: target, Payload: payload}})
}

// EnqueueBatch appends several writes as one unit. If the snapshot cannot be
// persisted none of them are kept.
func (q *Queue) EnqueueBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if err := q.restoreLocked(ctx); err != nil {
		q.mu.Unlock()
		return err
	}

	before := len(q.tasks)
	now := time.Now().UnixMilli()
	for _, e := range entries {
		q.tasks = append(q.tasks, models.Task{
			ID:        util.NewTaskID(),
			Target:    e.Target,
			Payload:   e.Payload.Clone(),
			Timestamp: now,
		})
	}

	if err := q.storage.SaveTasks(ctx, q.tasks); err != nil {
		q.tasks = q.tasks[:before]
		q.mu.Unlock()
		util.QueuePersistFailuresTotal.Inc()
		return fmt.Errorf("failed to persist sync queue: %w", err)
	}
	q.mu.Unlock()

	q.notify()
	q.kick()
	return nil
}

// Subscribe registers a listener. It fires immediately with the current state
// and again on every change until the returned function is called.
func (q *Queue) Subscribe(l Listener) func() {
	q.mu.Lock()
	id := q.nextListener
	q.nextListener++
	q.listeners[id] = l
	status, pending := q.snapshotLocked()
	q.mu.Unlock()

	l(status, pending)

	return func() {
		q.mu.Lock()
		delete(q.listeners, id)
		q.mu.Unlock()
	}
}

func (q *Queue) Status() models.SyncStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return models.SyncStatus(q.status.Current())
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Tasks returns a copy of the queued tasks, head first.
func (q *Queue) Tasks() []models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneTasks(q.tasks)
}

// DropHead removes the head task without delivering it. It is the only way a
// task leaves the queue undelivered.
func (q *Queue) DropHead(ctx context.Context) (models.Task, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return models.Task{}, ErrClosed
	}
	if err := q.restoreLocked(ctx); err != nil {
		q.mu.Unlock()
		return models.Task{}, err
	}
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return models.Task{}, ErrQueueEmpty
	}

	head := q.tasks[0]
	rest := cloneTasks(q.tasks[1:])
	if err := q.storage.SaveTasks(ctx, rest); err != nil {
		q.mu.Unlock()
		util.QueuePersistFailuresTotal.Inc()
		return models.Task{}, fmt.Errorf("failed to persist sync queue: %w", err)
	}
	q.tasks = rest
	q.backoff.Reset()
	pending := len(q.tasks)
	q.mu.Unlock()

	util.QueueTasksDroppedTotal.Inc()
	q.logger.Warn("Head task dropped by operator",
		zap.String("task_id", head.ID),
		zap.String("target", head.Target),
		zap.Int("retry_count", head.RetryCount))
	q.publish(models.EventTypeTaskDropped, head, pending, "dropped by operator")
	q.notify()
	q.kick()
	return head, nil
}

// Shutdown stops timers and waits for an in-flight delivery to finish.
// Tasks stay persisted for the next Load.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// kick starts a drain loop unless one is already running.
func (q *Queue) kick() {
	q.mu.Lock()
	if q.closed || !q.started || q.processing {
		q.mu.Unlock()
		return
	}
	if len(q.tasks) == 0 {
		changed := q.fire(eventSettle)
		q.mu.Unlock()
		if changed {
			q.notify()
		}
		return
	}

	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.processing = true
	q.fire(eventStart)
	q.wg.Add(1)
	q.mu.Unlock()

	q.notify()
	go q.drain()
}

func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.processing = false
			q.fire(eventDrained)
			q.mu.Unlock()
			q.notify()
			return
		}
		head := q.tasks[0]
		q.mu.Unlock()

		result := q.gateway.Write(q.ctx, head.Target, head.Payload)

		if q.ctx.Err() != nil {
			q.mu.Lock()
			q.processing = false
			q.mu.Unlock()
			return
		}

		if !result.Delivered {
			q.handleFailure(head)
			return
		}

		q.handleDelivered(head)

		select {
		case <-time.After(q.interTaskDelay):
		case <-q.ctx.Done():
			q.mu.Lock()
			q.processing = false
			q.mu.Unlock()
			return
		}
	}
}

func (q *Queue) handleDelivered(head models.Task) {
	q.mu.Lock()
	if len(q.tasks) > 0 && q.tasks[0].ID == head.ID {
		q.tasks = q.tasks[1:]
		q.persistLocked()
	}
	q.backoff.Reset()
	pending := len(q.tasks)
	q.mu.Unlock()

	util.QueueDeliveriesTotal.WithLabelValues(head.Target, "delivered").Inc()
	q.logger.Debug("Task delivered",
		zap.String("task_id", head.ID),
		zap.String("target", head.Target),
		zap.Int("pending", pending))
	q.publish(models.EventTypeTaskDelivered, head, pending, "")
	q.notify()
}

func (q *Queue) handleFailure(head models.Task) {
	q.mu.Lock()
	if len(q.tasks) > 0 && q.tasks[0].ID == head.ID {
		q.tasks[0].RetryCount++
		head.RetryCount = q.tasks[0].RetryCount
		q.persistLocked()
	}
	q.processing = false
	q.fire(eventFail)
	delay := q.backoff.NextBackOff()
	if delay == backoff.Stop {
		delay = DefaultRetryDelay
	}
	if !q.closed {
		q.scheduleLocked(delay)
	}
	pending := len(q.tasks)
	q.mu.Unlock()

	util.QueueDeliveriesTotal.WithLabelValues(head.Target, "failed").Inc()
	q.logger.Warn("Sync failed, retrying",
		zap.String("task_id", head.ID),
		zap.String("target", head.Target),
		zap.Int("retry_count", head.RetryCount),
		zap.Duration("retry_in", delay))
	q.publish(models.EventTypeTaskFailed, head, pending, "not delivered")
	q.notify()
}

// scheduleLocked arms the single retry/startup timer. Caller holds q.mu.
func (q *Queue) scheduleLocked(d time.Duration) {
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(d, q.kick)
}

// persistLocked writes the current snapshot. Failures are logged; the
// in-memory list stays authoritative until the next successful save.
func (q *Queue) persistLocked() {
	if err := q.storage.SaveTasks(context.Background(), q.tasks); err != nil {
		util.QueuePersistFailuresTotal.Inc()
		q.logger.Error("Failed to persist sync queue", zap.Error(err))
	}
}

func (q *Queue) snapshotLocked() (models.SyncStatus, int) {
	return models.SyncStatus(q.status.Current()), len(q.tasks)
}

func (q *Queue) notify() {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	status, pending := q.snapshotLocked()
	listeners := make([]Listener, 0, len(q.listeners))
	for _, l := range q.listeners {
		listeners = append(listeners, l)
	}
	q.mu.Unlock()

	q.reportMetrics()
	for _, l := range listeners {
		l(status, pending)
	}
}

func (q *Queue) reportMetrics() {
	q.mu.Lock()
	status, pending := q.snapshotLocked()
	q.mu.Unlock()

	util.QueuePendingTasks.Set(float64(pending))
	for _, s := range []models.SyncStatus{models.SyncStatusIdle, models.SyncStatusSyncing, models.SyncStatusError} {
		v := 0.0
		if s == status {
			v = 1
		}
		util.QueueStatus.WithLabelValues(string(s)).Set(v)
	}
}

func (q *Queue) publish(eventType string, task models.Task, pending int, reason string) {
	if q.publisher == nil {
		return
	}
	event := &models.SyncEvent{
		BaseEvent: models.BaseEvent{
			EventID:   util.NewTaskID(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		TaskID:     task.ID,
		Target:     task.Target,
		RetryCount: task.RetryCount,
		Pending:    pending,
		Reason:     reason,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := q.publisher.PublishSyncEvent(ctx, event); err != nil {
			q.logger.Warn("Failed to publish sync event",
				zap.String("event_type", eventType),
				zap.Error(err))
		}
	}()
}
