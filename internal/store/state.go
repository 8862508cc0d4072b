package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"inventory-sync/internal/models"

	"go.uber.org/zap"
)

// GetState returns the value stored under key. The second result is false
// when nothing is stored.
func (s *Store) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		s.db.Rebind("SELECT state_value FROM sync_state WHERE state_key = ?"), key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutState overwrites the value stored under key
func (s *Store) PutState(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`
		INSERT INTO sync_state (state_key, state_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (state_key) DO UPDATE
		SET state_value = excluded.state_value, updated_at = excluded.updated_at`)

	_, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC())
	return err
}

// QueueStorage persists the sync queue as one JSON document under one key
type QueueStorage struct {
	store *Store
	key   string
}

func NewQueueStorage(store *Store, key string) *QueueStorage {
	return &QueueStorage{store: store, key: key}
}

// LoadTasks returns the persisted tasks. A corrupt document is logged and
// treated as an empty queue.
func (q *QueueStorage) LoadTasks(ctx context.Context) ([]models.Task, error) {
	raw, ok, err := q.store.GetState(ctx, q.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue state: %w", err)
	}
	if !ok {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		q.store.logger.Warn("Discarding unreadable queue state",
			zap.String("key", q.key),
			zap.Error(err))
		return []models.Task{}, nil
	}
	return tasks, nil
}

func (q *QueueStorage) SaveTasks(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal queue state: %w", err)
	}
	if err := q.store.PutState(ctx, q.key, string(raw)); err != nil {
		return fmt.Errorf("failed to write queue state: %w", err)
	}
	return nil
}
