package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-sync/internal/models"
	"inventory-sync/internal/syncqueue"
	"inventory-sync/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	_ syncqueue.EventPublisher = (*SyncEventPublisher)(nil)
	_ syncqueue.EventPublisher = NoopPublisher{}
	_ syncqueue.EventPublisher = (*SyncLogPublisher)(nil)
	_ syncqueue.EventPublisher = FanoutPublisher(nil)
)

// SyncEventPublisher publishes queue delivery outcomes keyed by collection
type SyncEventPublisher struct {
	producer *Producer
}

// NewSyncEventPublisher creates a new sync event publisher
func NewSyncEventPublisher(producer *Producer) *SyncEventPublisher {
	return &SyncEventPublisher{producer: producer}
}

// PublishSyncEvent publishes a TASK_* event
func (p *SyncEventPublisher) PublishSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	return p.producer.PublishEvent(ctx, event.Target, event)
}

// NoopPublisher discards events
type NoopPublisher struct{}

func (NoopPublisher) PublishSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	return nil
}

// SyncLog stores sync events locally
type SyncLog interface {
	RecordSyncEvent(ctx context.Context, event *models.SyncEvent) error
}

// SyncLogPublisher writes sync events to the local sync log
type SyncLogPublisher struct {
	log SyncLog
}

// NewSyncLogPublisher creates a publisher backed by a sync log
func NewSyncLogPublisher(log SyncLog) *SyncLogPublisher {
	return &SyncLogPublisher{log: log}
}

func (p *SyncLogPublisher) PublishSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	return p.log.RecordSyncEvent(ctx, event)
}

// FanoutPublisher hands every event to all publishers
type FanoutPublisher []syncqueue.EventPublisher

func (f FanoutPublisher) PublishSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishSyncEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CommandPublisher publishes operator commands
type CommandPublisher struct {
	producer *Producer
}

// NewCommandPublisher creates a new command publisher
func NewCommandPublisher(producer *Producer) *CommandPublisher {
	return &CommandPublisher{producer: producer}
}

// PublishReconcileRequested asks a worker to run balance passes for scope
func (p *CommandPublisher) PublishReconcileRequested(ctx context.Context, scope, requestedBy string) (*models.ReconcileRequestedEvent, error) {
	event := &models.ReconcileRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReconcileRequested,
			Timestamp: time.Now(),
		},
		Scope:       scope,
		RequestedBy: requestedBy,
	}
	if err := p.producer.PublishEvent(ctx, "reconcile-"+scope, event); err != nil {
		return nil, err
	}
	return event, nil
}

// EventHandler routes incoming command messages
type EventHandler struct {
	onReconcileRequested func(context.Context, *models.ReconcileRequestedEvent) error
	logger               *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.ComponentLogger("event-handler")}
}

// OnReconcileRequested registers a handler for RECONCILE_REQUESTED events
func (eh *EventHandler) OnReconcileRequested(handler func(context.Context, *models.ReconcileRequestedEvent) error) {
	eh.onReconcileRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeReconcileRequested:
		if eh.onReconcileRequested != nil {
			var event models.ReconcileRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReconcileRequested event: %w", err)
			}
			return eh.onReconcileRequested(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
