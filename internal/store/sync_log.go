package store

import (
	"context"

	"inventory-sync/internal/models"
)

// RecordSyncEvent appends a delivery outcome to the local log
func (s *Store) RecordSyncEvent(ctx context.Context, event *models.SyncEvent) error {
	query := s.db.Rebind(`
		INSERT INTO sync_log (event_type, task_id, target, retry_count, pending, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		event.EventType, event.TaskID, event.Target, event.RetryCount,
		event.Pending, event.Reason, event.Timestamp.UTC())
	return err
}

// RecentSyncEvents returns the newest log entries first
func (s *Store) RecentSyncEvents(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	entries := []models.SyncLogEntry{}
	err := s.db.SelectContext(ctx, &entries,
		s.db.Rebind("SELECT * FROM sync_log ORDER BY id DESC LIMIT ?"), limit)
	return entries, err
}

// SyncEventsForTask returns every logged outcome of one task in order
func (s *Store) SyncEventsForTask(ctx context.Context, taskID string) ([]models.SyncLogEntry, error) {
	entries := []models.SyncLogEntry{}
	err := s.db.SelectContext(ctx, &entries,
		s.db.Rebind("SELECT * FROM sync_log WHERE task_id = ? ORDER BY id"), taskID)
	return entries, err
}
