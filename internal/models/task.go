package models

// Task is one pending write to a remote collection.
type Task struct {
	ID         string `json:"id"`
	Target     string `json:"target"`
	Payload    Row    `json:"payload"`
	Timestamp  int64  `json:"timestamp"`
	RetryCount int    `json:"retryCount"`
}

// SyncStatus is the delivery state of the write queue
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusError   SyncStatus = "error"
)

// WriteResult is the gateway outcome of one write. Delivered means the request
// was accepted by the transport, not that the row was persisted remotely.
type WriteResult struct {
	Delivered bool `json:"delivered"`
}

// PingResult reports reachability of one collection endpoint
type PingResult struct {
	Target    string `json:"target"`
	Reachable bool   `json:"reachable"`
	LatencyMs int64  `json:"latency_ms"`
}
