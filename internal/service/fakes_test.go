package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anime-market/internal/models"
)

type memCache struct {
	mu          sync.Mutex
	idempotency map[string]int64
	locks       map[string]bool
	orders      map[int64]models.Order
}

func newMemCache() *memCache {
	return &memCache{
		idempotency: map[string]int64{},
		locks:       map[string]bool{},
		orders:      map[int64]models.Order{},
	}
}

func (c *memCache) GetIdempotencyKey(_ context.Context, key string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.idempotency[key]
	return id, ok, nil
}

func (c *memCache) SetIdempotencyKey(_ context.Context, key string, orderID int64, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idempotency[key] = orderID
	return nil
}

func (c *memCache) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func (c *memCache) ReleaseLock(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, key)
	return nil
}

func (c *memCache) GetOrder(_ context.Context, orderID int64) (*models.Order, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[orderID]
	if !ok {
		return nil, false, nil
	}
	return &o, true, nil
}

func (c *memCache) SetOrder(_ context.Context, order *models.Order, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[order.ID] = *order
	return nil
}

func (c *memCache) InvalidateOrder(_ context.Context, orderID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, orderID)
	return nil
}

// lateCache misses the next idempotency lookups, standing in for a request
// that checked the key just before a concurrent create stored it.
type lateCache struct {
	*memCache
	misses int
}

func (c *lateCache) GetIdempotencyKey(ctx context.Context, key string) (int64, bool, error) {
	c.mu.Lock()
	if c.misses > 0 {
		c.misses--
		c.mu.Unlock()
		return 0, false, nil
	}
	c.mu.Unlock()
	return c.memCache.GetIdempotencyKey(ctx, key)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e *models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

type recordingNotifier struct {
	completed []int64
}

func (n *recordingNotifier) NotifyOrderCompleted(_ context.Context, o *models.Order) error {
	n.completed = append(n.completed, o.ID)
	return nil
}

type staticIssuer struct{}

func (staticIssuer) Issue(userID int64, role string) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, role), nil
}
