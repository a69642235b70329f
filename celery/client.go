package celery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/redis"
)

// Client publishes tasks to the Celery broker and reads results back.
type Client struct {
	rdb          *redis.Client
	queue        string
	pollInterval time.Duration
	log          *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithQueue overrides the broker list name (default "celery").
func WithQueue(name string) Option {
	return func(c *Client) { c.queue = name }
}

// WithPollInterval overrides how often the result backend is polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New creates a Celery client on top of an existing Redis connection.
func New(rdb *redis.Client, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		rdb:          rdb,
		queue:        "celery",
		pollInterval: 500 * time.Millisecond,
		log:          log.WithComponent("celery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit publishes a task invocation and returns a handle for its result.
// A returned error means the task was never handed to the broker.
func (c *Client) Submit(ctx context.Context, task string, args ...interface{}) (*AsyncResult, error) {
	taskID := uuid.NewString()

	payload, err := encodeMessage(taskID, task, c.queue, args)
	if err != nil {
		return nil, err
	}

	if err := c.rdb.LPush(ctx, c.queue, payload); err != nil {
		return nil, fmt.Errorf("celery: publish task %s: %w", task, err)
	}

	c.log.Debug("task published", logger.Fields(
		logger.FieldTaskID, taskID,
		logger.FieldOperation, task,
	))

	return &AsyncResult{
		TaskID:       taskID,
		rdb:          c.rdb,
		pollInterval: c.pollInterval,
	}, nil
}
