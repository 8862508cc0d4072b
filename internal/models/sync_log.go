package models

import "time"

// SyncLogEntry is one recorded delivery outcome
type SyncLogEntry struct {
	ID         int64     `db:"id" json:"id"`
	EventType  string    `db:"event_type" json:"event_type"`
	TaskID     string    `db:"task_id" json:"task_id"`
	Target     string    `db:"target" json:"target"`
	RetryCount int       `db:"retry_count" json:"retry_count"`
	Pending    int       `db:"pending" json:"pending"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
