package gateway

import (
	"context"
	"sync"

	"inventory-sync/internal/models"
)

// Memory is an in-process remote store. Writes append to the target
// collection, so later bulk reads observe them.
type Memory struct {
	mu          sync.Mutex
	rows        map[string][]models.Row
	writes      []RecordedWrite
	offline     bool
	failWrites  int
	unreachable map[string]bool
}

// RecordedWrite is one delivered write in arrival order
type RecordedWrite struct {
	Collection string
	Row        models.Row
}

// NewMemory creates an empty in-memory gateway
func NewMemory() *Memory {
	return &Memory{
		rows:        make(map[string][]models.Row),
		unreachable: make(map[string]bool),
	}
}

// Seed appends rows to a collection without recording them as writes
func (m *Memory) Seed(collection string, rows ...models.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[collection] = append(m.rows[collection], r.Clone())
	}
}

// SetOffline makes every write fail and every read return nothing
func (m *Memory) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// FailNextWrites makes the next n writes fail
func (m *Memory) FailNextWrites(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = n
}

// SetUnreachable marks a single collection as down
func (m *Memory) SetUnreachable(collection string, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreachable[collection] = down
}

// Writes returns the delivered writes in order
func (m *Memory) Writes() []RecordedWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// Rows returns a copy of the rows stored in a collection
func (m *Memory) Rows(collection string) []models.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.rows[collection])
}

func (m *Memory) BulkRead(ctx context.Context, collection string) []models.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline || m.unreachable[collection] {
		return []models.Row{}
	}
	return cloneRows(m.rows[collection])
}

func (m *Memory) Write(ctx context.Context, collection string, row models.Row) models.WriteResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline || m.unreachable[collection] {
		return models.WriteResult{Delivered: false}
	}
	if m.failWrites > 0 {
		m.failWrites--
		return models.WriteResult{Delivered: false}
	}
	m.rows[collection] = append(m.rows[collection], row.Clone())
	m.writes = append(m.writes, RecordedWrite{Collection: collection, Row: row.Clone()})
	return models.WriteResult{Delivered: true}
}

func (m *Memory) Ping(ctx context.Context, collection string) models.PingResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.PingResult{
		Target:    collection,
		Reachable: !m.offline && !m.unreachable[collection],
	}
}

func cloneRows(rows []models.Row) []models.Row {
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Clone())
	}
	return out
}
