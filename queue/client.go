package queue

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// HeartbeatTTL is how long a worker heartbeat key lives.
const HeartbeatTTL = 30 * time.Second

// Client defines the interface for the Redis plan request queue.
type Client interface {
	// PushRequest adds a plan request to the end of a queue (LPUSH).
	PushRequest(ctx context.Context, queue string, req PlanRequest) error

	// PopRequest removes and returns a plan request from the front of a
	// queue (BRPOP). It blocks up to timeout and returns nil, nil when no
	// request arrived; a zero timeout blocks until ctx is cancelled.
	PopRequest(ctx context.Context, queue string, timeout time.Duration) (*PlanRequest, error)

	// PublishReply sends a reply to ReplyChannel(reply.ID).
	PublishReply(ctx context.Context, reply PlanReply) error

	// Subscribe creates a subscription to the replies for a request id.
	// The channel closes when ctx is cancelled.
	Subscribe(ctx context.Context, id string) (<-chan PlanReply, error)

	// Heartbeat refreshes the health key of a worker with HeartbeatTTL.
	Heartbeat(ctx context.Context, workerID string) error

	// Alive reports whether a worker heartbeat is current.
	Alive(ctx context.Context, workerID string) (bool, error)

	// GetWorkerCount returns the current worker count for a queue.
	GetWorkerCount(ctx context.Context, queue string) (int, error)

	// IncrementWorkerCount increments the worker count for a queue.
	IncrementWorkerCount(ctx context.Context, queue string) error

	// DecrementWorkerCount decrements the worker count for a queue.
	DecrementWorkerCount(ctx context.Context, queue string) error

	// Close closes the Redis connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// RedisClient implements the Client interface using go-redis/v9.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis queue client with the given options.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if opts.TLS != nil {
		redisOpts.TLSConfig = opts.TLS
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// PushRequest adds a plan request to the end of a queue.
func (c *RedisClient) PushRequest(ctx context.Context, queue string, req PlanRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal plan request: %w", err)
	}

	if err := c.client.LPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", queue, err)
	}

	return nil
}

// PopRequest removes and returns a plan request from the front of a queue.
func (c *RedisClient) PopRequest(ctx context.Context, queue string, timeout time.Duration) (*PlanRequest, error) {
	// BRPOP returns [queue_name, value] or redis.Nil on timeout
	result, err := c.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue %s: %w", queue, err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var req PlanRequest
	if err := json.Unmarshal([]byte(result[1]), &req); err != nil {
		return nil, &DecodeError{Payload: result[1], Err: err}
	}

	return &req, nil
}

// DecodeError reports a queue entry that is not a valid plan request.
// The entry has already been removed from the queue.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to unmarshal plan request: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PublishReply sends a reply to the request's reply channel.
func (c *RedisClient) PublishReply(ctx context.Context, reply PlanReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	channel := ReplyChannel(reply.ID)
	if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	return nil
}

// Subscribe creates a subscription to the replies for a request id.
func (c *RedisClient) Subscribe(ctx context.Context, id string) (<-chan PlanReply, error) {
	channel := ReplyChannel(id)
	pubsub := c.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	replies := make(chan PlanReply)

	go func() {
		defer close(replies)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var reply PlanReply
				if err := json.Unmarshal([]byte(msg.Payload), &reply); err != nil {
					continue
				}

				select {
				case replies <- reply:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return replies, nil
}

// Heartbeat refreshes the health key of a worker.
func (c *RedisClient) Heartbeat(ctx context.Context, workerID string) error {
	healthKey := formatKeyName("ffplan", "worker", workerID, "health")
	if err := c.client.Set(ctx, healthKey, "ok", HeartbeatTTL).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat for worker %s: %w", workerID, err)
	}
	return nil
}

// Alive reports whether a worker heartbeat is current.
func (c *RedisClient) Alive(ctx context.Context, workerID string) (bool, error) {
	healthKey := formatKeyName("ffplan", "worker", workerID, "health")
	n, err := c.client.Exists(ctx, healthKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read heartbeat for worker %s: %w", workerID, err)
	}
	return n == 1, nil
}

// GetWorkerCount returns the current worker count for a queue.
func (c *RedisClient) GetWorkerCount(ctx context.Context, queue string) (int, error) {
	workerKey := formatKeyName(queue, "workers")
	countStr, err := c.client.Get(ctx, workerKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get worker count for queue %s: %w", queue, err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, fmt.Errorf("invalid worker count value: %w", err)
	}

	return count, nil
}

// IncrementWorkerCount increments the worker count for a queue.
func (c *RedisClient) IncrementWorkerCount(ctx context.Context, queue string) error {
	workerKey := formatKeyName(queue, "workers")
	if err := c.client.Incr(ctx, workerKey).Err(); err != nil {
		return fmt.Errorf("failed to increment worker count for queue %s: %w", queue, err)
	}
	return nil
}

// DecrementWorkerCount decrements the worker count for a queue.
func (c *RedisClient) DecrementWorkerCount(ctx context.Context, queue string) error {
	workerKey := formatKeyName(queue, "workers")
	if err := c.client.Decr(ctx, workerKey).Err(); err != nil {
		return fmt.Errorf("failed to decrement worker count for queue %s: %w", queue, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// formatKeyName joins key parts with ":".
func formatKeyName(parts ...string) string {
	return strings.Join(parts, ":")
}
