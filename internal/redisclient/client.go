package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"anime-market/internal/models"

	"github.com/go-redis/redis/v8"
)

// Key prefixes
const (
	idempotencyPrefix = "idempotency:order:"
	lockPrefix        = "lock:"
	orderPrefix       = "order:"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
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

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection, used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetIdempotencyKey remembers which order a create request produced
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyPrefix+key, orderID, ttl).Err()
}

// GetIdempotencyKey returns the order created for key, if any
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, idempotencyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
	}
	return orderID, true, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockPrefix+lockKey, "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, lockPrefix+lockKey).Err()
}

// GetOrder returns a cached order snapshot
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*models.Order, bool, error) {
	raw, err := c.rdb.Get(ctx, orderKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached order: %w", err)
	}
	return &order, true, nil
}

// SetOrder caches an order snapshot
func (c *Client) SetOrder(ctx context.Context, order *models.Order, ttl time.Duration) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	return c.rdb.Set(ctx, orderKey(order.ID), raw, ttl).Err()
}

// InvalidateOrder drops a cached order snapshot
func (c *Client) InvalidateOrder(ctx context.Context, orderID int64) error {
	return c.rdb.Del(ctx, orderKey(orderID)).Err()
}

func orderKey(orderID int64) string {
	return orderPrefix + strconv.FormatInt(orderID, 10)
}
