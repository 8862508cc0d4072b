package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inventory-sync/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLog struct {
	events []*models.SyncEvent
	err    error
}

func (m *memoryLog) RecordSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func TestFanoutPublisherReachesEveryPublisher(t *testing.T) {
	ok := &memoryLog{}
	failing := &memoryLog{err: errors.New("closed")}
	fanout := FanoutPublisher{NewSyncLogPublisher(failing), NewSyncLogPublisher(ok), NoopPublisher{}}

	err := fanout.PublishSyncEvent(context.Background(), &models.SyncEvent{TaskID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
	require.Len(t, ok.events, 1)
	assert.Equal(t, "t1", ok.events[0].TaskID)
}

func TestHandleMessageRoutesReconcileRequested(t *testing.T) {
	eh := NewEventHandler()

	var got *models.ReconcileRequestedEvent
	eh.OnReconcileRequested(func(ctx context.Context, e *models.ReconcileRequestedEvent) error {
		got = e
		return nil
	})

	value, err := json.Marshal(models.ReconcileRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e1",
			EventType: models.EventTypeReconcileRequested,
			Timestamp: time.Now(),
		},
		Scope: models.ReconcileScopeGoods,
	})
	require.NoError(t, err)

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, got)
	assert.Equal(t, models.ReconcileScopeGoods, got.Scope)
}

func TestHandleMessageIgnoresUnknownEvents(t *testing.T) {
	eh := NewEventHandler()
	value := []byte(`{"event_type":"TASK_DELIVERED","event_id":"e2"}`)
	assert.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	eh := NewEventHandler()
	assert.Error(t, eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("{")}))
}

func TestKafkaRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires kafka")
}
