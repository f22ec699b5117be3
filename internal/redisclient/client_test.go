package redisclient

import (
	"context"
	"testing"
	"time"

	"anime-market/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestIdempotencyKey(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_, ok, err := c.GetIdempotencyKey(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetIdempotencyKey(ctx, "abc", 42, time.Hour))
	id, ok, err := c.GetIdempotencyKey(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.GetIdempotencyKey(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptIdempotencyValue(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, mr.Set(idempotencyPrefix+"bad", "not-a-number"))

	_, _, err := c.GetIdempotencyKey(context.Background(), "bad")
	assert.Error(t, err)
}

func TestLock(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "order-create:k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "order-create:k", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "order-create:k"))
	ok, err = c.AcquireLock(ctx, "order-create:k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderCache(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, ok, err := c.GetOrder(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	tracking := "SF1"
	order := &models.Order{
		ID:             7,
		BuyerID:        1,
		SellerID:       2,
		Quantity:       2,
		TotalPrice:     decimal.NewFromInt(200),
		Status:         models.OrderStatusShipped,
		TrackingNumber: &tracking,
	}
	require.NoError(t, c.SetOrder(ctx, order, time.Minute))

	cached, ok, err := c.GetOrder(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusShipped, cached.Status)
	assert.True(t, order.TotalPrice.Equal(cached.TotalPrice))
	require.NotNil(t, cached.TrackingNumber)
	assert.Equal(t, "SF1", *cached.TrackingNumber)

	require.NoError(t, c.InvalidateOrder(ctx, 7))
	_, ok, err = c.GetOrder(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPing(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
