package syncqueue

import (
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

const (
	DefaultInterTaskDelay = 200 * time.Millisecond
	DefaultRetryDelay     = 5 * time.Second
	DefaultStartupDelay   = 2 * time.Second
)

type Option func(*Queue)

// WithInterTaskDelay sets the pause between two successful deliveries
func WithInterTaskDelay(d time.Duration) Option {
	return func(q *Queue) { q.interTaskDelay = d }
}

// WithRetryDelay sets a fixed wait before retrying a failed head task
func WithRetryDelay(d time.Duration) Option {
	return func(q *Queue) { q.backoff = backoff.NewConstantBackOff(d) }
}

// WithBackOff replaces the retry policy. A policy returning backoff.Stop
// falls back to DefaultRetryDelay; the head task is never abandoned.
func WithBackOff(b backoff.BackOff) Option {
	return func(q *Queue) { q.backoff = b }
}

// WithStartupDelay sets the wait between Load and the first drain
func WithStartupDelay(d time.Duration) Option {
	return func(q *Queue) { q.startupDelay = d }
}

func WithPublisher(p EventPublisher) Option {
	return func(q *Queue) { q.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(q *Queue) { q.logger = l }
}
