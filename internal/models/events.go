package models

import "time"

// Event types
const (
	EventTypeTaskDelivered      = "TASK_DELIVERED"
	EventTypeTaskFailed         = "TASK_FAILED"
	EventTypeTaskDropped        = "TASK_DROPPED"
	EventTypeReconcileRequested = "RECONCILE_REQUESTED"
)

// Reconcile scopes
const (
	ReconcileScopeProducts = "products"
	ReconcileScopeGoods    = "goods"
	ReconcileScopeAll      = "all"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncEvent reports the outcome of one delivery attempt
type SyncEvent struct {
	BaseEvent
	TaskID     string `json:"task_id"`
	Target     string `json:"target"`
	RetryCount int    `json:"retry_count"`
	Pending    int    `json:"pending"`
	Reason     string `json:"reason,omitempty"`
}

// ReconcileRequestedEvent asks the worker to run balance passes
type ReconcileRequestedEvent struct {
	BaseEvent
	Scope       string `json:"scope"`
	RequestedBy string `json:"requested_by,omitempty"`
}
