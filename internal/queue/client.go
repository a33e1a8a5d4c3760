package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mailrep/internal/models"
)

const DefaultQueueName = "mailrep:history"

// ErrEmpty is returned by Dequeue when nothing arrived before the timeout.
var ErrEmpty = errors.New("queue empty")

// Task is the envelope pushed onto the Redis list.
type Task struct {
	Result     models.VerificationResult `json:"result"`
	EnqueuedAt time.Time                 `json:"enqueued_at"`
}

// Client pushes verification snapshots to a Redis list and pops them for
// the history worker.
type Client struct {
	rdb  *redis.Client
	name string
}

// Connect connects to Redis and pings it to ensure it's alive.
func Connect(ctx context.Context, addr, password, name string) (*Client, error) {
	if name == "" {
		name = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          0, // Default DB
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, name: name}, nil
}

// Enqueue appends the snapshot to the tail of the list.
func (c *Client) Enqueue(ctx context.Context, res models.VerificationResult) error {
	raw, err := encodeTask(Task{Result: res, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := c.rdb.RPush(ctx, c.name, raw).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", res.ID, err)
	}
	return nil
}

// Dequeue blocks for up to timeout waiting for the oldest task.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (Task, error) {
	// BLPOP returns: [queue_name, value]
	result, err := c.rdb.BLPop(ctx, timeout, c.name).Result()
	if errors.Is(err, redis.Nil) {
		return Task{}, ErrEmpty
	}
	if err != nil {
		return Task{}, fmt.Errorf("redis BLPOP: %w", err)
	}
	return decodeTask(result[1])
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func encodeTask(t Task) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	return string(b), nil
}

func decodeTask(raw string) (Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Task{}, fmt.Errorf("malformed task: %w", err)
	}
	if t.Result.ID == "" {
		return Task{}, fmt.Errorf("malformed task: missing result id")
	}
	return t, nil
}
