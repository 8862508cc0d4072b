package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-sync/internal/models"
	"inventory-sync/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Client struct {
	rdb    *redis.Client
	key    string
	logger *zap.Logger
}

// NewClient creates a Redis-backed queue storage keeping the whole task list
// under one key
func NewClient(addr, password string, db int, key string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb, key), nil
}

// NewFromRedis wraps an existing connection
func NewFromRedis(rdb *redis.Client, key string) *Client {
	return &Client{rdb: rdb, key: key, logger: util.ComponentLogger("redisclient")}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// LoadTasks reads the persisted task list. A missing key or an undecodable
// value is an empty queue.
func (c *Client) LoadTasks(ctx context.Context) ([]models.Task, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return []models.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue state: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		c.logger.Warn("Discarding unreadable queue state", zap.String("key", c.key), zap.Error(err))
		return []models.Task{}, nil
	}
	return tasks, nil
}

// SaveTasks overwrites the persisted task list
func (c *Client) SaveTasks(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal queue state: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write queue state: %w", err)
	}
	return nil
}

// Pending returns the number of persisted tasks without decoding payloads
func (c *Client) Pending(ctx context.Context) (int, error) {
	tasks, err := c.LoadTasks(ctx)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}
