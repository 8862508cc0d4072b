package syncqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inventory-sync/internal/gateway"
	"inventory-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

func fastOptions() []Option {
	return []Option{
		WithInterTaskDelay(time.Millisecond),
		WithRetryDelay(20 * time.Millisecond),
		WithStartupDelay(time.Millisecond),
	}
}

func newTestQueue(t *testing.T, gw gateway.Gateway, storage Storage, opts ...Option) *Queue {
	t.Helper()
	q := New(gw, storage, append(fastOptions(), opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Shutdown(ctx)
	})
	return q
}

func row(id string) models.Row {
	return models.Row{models.FieldBatchID: id}
}

func writtenIDs(gw *gateway.Memory) []string {
	var ids []string
	for _, w := range gw.Writes() {
		ids = append(ids, w.Row.Str(models.FieldBatchID))
	}
	return ids
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.SyncEvent
}

func (p *recordingPublisher) PublishSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func TestQueueDeliversInEnqueueOrder(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	q := newTestQueue(t, gw, NewMemoryStorage())
	require.NoError(t, q.Load(ctx))

	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, q.Enqueue(ctx, models.CollectionProductIntake, row(id)))
	}

	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)
	assert.Equal(t, []string{"A", "B", "C", "D"}, writtenIDs(gw))
	require.Eventually(t, func() bool { return q.Status() == models.SyncStatusIdle }, waitFor, tick)
}

func TestQueueHeadBlocksWhileFailing(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	gw.SetOffline(true)
	q := newTestQueue(t, gw, NewMemoryStorage())
	require.NoError(t, q.Load(ctx))

	require.NoError(t, q.EnqueueBatch(ctx, []Entry{
		{Target: models.CollectionProductIntake, Payload: row("A")},
		{Target: models.CollectionProductBalance, Payload: row("B")},
		{Target: models.CollectionProductIntake, Payload: row("C")},
	}))

	require.Eventually(t, func() bool {
		tasks := q.Tasks()
		return len(tasks) == 3 && tasks[0].RetryCount >= 3
	}, waitFor, tick)

	tasks := q.Tasks()
	assert.Equal(t, "A", tasks[0].Payload.Str(models.FieldBatchID))
	assert.Zero(t, tasks[1].RetryCount)
	assert.Zero(t, tasks[2].RetryCount)
	assert.Empty(t, gw.Writes())
	require.Eventually(t, func() bool { return q.Status() == models.SyncStatusError }, waitFor, tick)

	gw.SetOffline(false)

	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)
	assert.Equal(t, []string{"A", "B", "C"}, writtenIDs(gw))
}

func TestQueueRetriesUntilDelivered(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	gw.FailNextWrites(4)
	pub := &recordingPublisher{}
	q := newTestQueue(t, gw, NewMemoryStorage(), WithPublisher(pub))
	require.NoError(t, q.Load(ctx))

	require.NoError(t, q.Enqueue(ctx, models.CollectionGoods, row("A")))
	require.NoError(t, q.Enqueue(ctx, models.CollectionGoods, row("B")))

	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)
	assert.Equal(t, []string{"A", "B"}, writtenIDs(gw))
	require.Eventually(t, func() bool {
		return pub.count(models.EventTypeTaskDelivered) == 2
	}, waitFor, tick)
	assert.GreaterOrEqual(t, pub.count(models.EventTypeTaskFailed), 1)
}

func TestQueueSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	offline := gateway.NewMemory()
	offline.SetOffline(true)

	first := New(offline, storage, fastOptions()...)
	require.NoError(t, first.Load(ctx))
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, first.Enqueue(ctx, models.CollectionProductIntake, row(id)))
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, first.Shutdown(shutdownCtx))

	persisted, err := storage.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 3)

	gw := gateway.NewMemory()
	second := newTestQueue(t, gw, storage)
	require.NoError(t, second.Load(ctx))
	require.NoError(t, second.Enqueue(ctx, models.CollectionProductIntake, row("D")))

	require.Eventually(t, func() bool { return second.Pending() == 0 }, waitFor, tick)
	assert.Equal(t, []string{"A", "B", "C", "D"}, writtenIDs(gw))

	persisted, err = storage.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestQueueNothingDeliveredBeforeLoad(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	q := newTestQueue(t, gw, NewMemoryStorage())

	require.NoError(t, q.Enqueue(ctx, models.CollectionProducts, row("A")))
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, gw.Writes())
	assert.Equal(t, 1, q.Pending())

	require.NoError(t, q.Load(ctx))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)
}

func TestSubscribeFiresImmediatelyAndOnChange(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	q := newTestQueue(t, gw, NewMemoryStorage())

	var mu sync.Mutex
	var seen []models.SyncStatus
	var counts []int
	unsubscribe := q.Subscribe(func(status models.SyncStatus, pending int) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, status)
		counts = append(counts, pending)
	})

	mu.Lock()
	require.Len(t, seen, 1)
	assert.Equal(t, models.SyncStatusIdle, seen[0])
	assert.Equal(t, 0, counts[0])
	mu.Unlock()

	require.NoError(t, q.Load(ctx))
	require.NoError(t, q.Enqueue(ctx, models.CollectionProducts, row("A")))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 2 && seen[len(seen)-1] == models.SyncStatusIdle && counts[len(counts)-1] == 0
	}, waitFor, tick)

	mu.Lock()
	assert.Contains(t, seen, models.SyncStatusSyncing)
	assert.Contains(t, counts, 1)
	before := len(seen)
	mu.Unlock()

	unsubscribe()
	require.NoError(t, q.Enqueue(ctx, models.CollectionProducts, row("B")))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)

	mu.Lock()
	assert.Equal(t, before, len(seen))
	mu.Unlock()
}

func TestEnqueueBatchIsAtomicOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	gw := gateway.NewMemory()
	gw.SetOffline(true)
	q := newTestQueue(t, gw, storage)

	require.NoError(t, q.Enqueue(ctx, models.CollectionProducts, row("A")))

	storage.FailSaves(errors.New("disk full"))
	err := q.EnqueueBatch(ctx, []Entry{
		{Target: models.CollectionProducts, Payload: row("B")},
		{Target: models.CollectionProducts, Payload: row("C")},
	})
	require.Error(t, err)
	assert.Equal(t, 1, q.Pending())

	storage.FailSaves(nil)
	persisted, err := storage.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "A", persisted[0].Payload.Str(models.FieldBatchID))
}

func TestDropHeadUnblocksQueue(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	gw.SetUnreachable(models.CollectionStaff, true)
	pub := &recordingPublisher{}
	q := newTestQueue(t, gw, NewMemoryStorage(), WithPublisher(pub))
	require.NoError(t, q.Load(ctx))

	require.NoError(t, q.Enqueue(ctx, models.CollectionStaff, row("POISON")))
	require.NoError(t, q.Enqueue(ctx, models.CollectionProducts, row("A")))

	require.Eventually(t, func() bool { return q.Status() == models.SyncStatusError }, waitFor, tick)
	assert.Equal(t, 2, q.Pending())

	dropped, err := q.DropHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, "POISON", dropped.Payload.Str(models.FieldBatchID))

	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)
	assert.Equal(t, []string{"A"}, writtenIDs(gw))
	require.Eventually(t, func() bool { return pub.count(models.EventTypeTaskDropped) == 1 }, waitFor, tick)

	_, err = q.DropHead(ctx)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestConcurrentEnqueueKeepsSingleLoop(t *testing.T) {
	ctx := context.Background()
	gw := &countingGateway{Memory: gateway.NewMemory()}
	q := newTestQueue(t, gw, NewMemoryStorage())
	require.NoError(t, q.Load(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, q.Enqueue(ctx, models.CollectionProducts, row("X")))
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return q.Pending() == 0 }, waitFor, tick)
	assert.Len(t, gw.Writes(), 20)
	assert.Equal(t, int32(1), gw.maxInFlight())
}

func TestShutdownRejectsEnqueue(t *testing.T) {
	ctx := context.Background()
	q := New(gateway.NewMemory(), NewMemoryStorage(), fastOptions()...)
	require.NoError(t, q.Load(ctx))
	require.NoError(t, q.Shutdown(ctx))

	assert.ErrorIs(t, q.Enqueue(ctx, models.CollectionProducts, row("A")), ErrClosed)
	_, err := q.DropHead(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

type countingGateway struct {
	*gateway.Memory
	mu       sync.Mutex
	inFlight int32
	max      int32
}

func (g *countingGateway) Write(ctx context.Context, collection string, r models.Row) models.WriteResult {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.max {
		g.max = g.inFlight
	}
	g.mu.Unlock()

	time.Sleep(time.Millisecond)
	res := g.Memory.Write(ctx, collection, r)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return res
}

func (g *countingGateway) maxInFlight() int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.max
}
