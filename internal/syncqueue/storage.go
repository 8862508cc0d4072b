package syncqueue

import (
	"context"
	"sync"

	"inventory-sync/internal/models"
)

// DefaultStorageKey is the key the task list is persisted under
const DefaultStorageKey = "erp_sync_queue"

// Storage persists the full task list. SaveTasks overwrites whatever was
// stored before.
type Storage interface {
	LoadTasks(ctx context.Context) ([]models.Task, error)
	SaveTasks(ctx context.Context, tasks []models.Task) error
}

// MemoryStorage keeps the task list in process. It survives queue restarts
// within one process, which is enough for tests and GATEWAY_MODE=memory.
type MemoryStorage struct {
	mu      sync.Mutex
	tasks   []models.Task
	saves   int
	failErr error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) LoadTasks(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks), nil
}

func (s *MemoryStorage) SaveTasks(ctx context.Context, tasks []models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.tasks = cloneTasks(tasks)
	s.saves++
	return nil
}

// FailSaves makes every later save return err. Pass nil to recover.
func (s *MemoryStorage) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Saves returns how many snapshots were written
func (s *MemoryStorage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		t.Payload = t.Payload.Clone()
		out[i] = t
	}
	return out
}
