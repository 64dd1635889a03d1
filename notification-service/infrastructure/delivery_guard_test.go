package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeliveryGuard(t *testing.T) {
	guard := NewMemoryDeliveryGuard()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }
	ctx := context.Background()

	claimed, err := guard.Claim(ctx, "notification:order-1:order_created", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = guard.Claim(ctx, "notification:order-1:order_created", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	now = now.Add(2 * time.Minute)
	claimed, err = guard.Claim(ctx, "notification:order-1:order_created", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed, "expired claims can be taken again")

	require.NoError(t, guard.Release(ctx, "notification:order-1:order_created"))
	claimed, err = guard.Claim(ctx, "notification:order-1:order_created", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

type fakeRedis struct {
	claimed map[string]bool
	err     error
	ttls    map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{claimed: make(map[string]bool), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if f.claimed[key] {
		return redis.NewBoolResult(false, nil)
	}
	f.claimed[key] = true
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var deleted int64
	for _, key := range keys {
		if f.claimed[key] {
			delete(f.claimed, key)
			deleted++
		}
	}
	return redis.NewIntResult(deleted, nil)
}

func TestRedisDeliveryGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("claims once until released", func(t *testing.T) {
		client := newFakeRedis()
		guard := NewRedisDeliveryGuard(client)

		claimed, err := guard.Claim(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, time.Hour, client.ttls["k"])

		claimed, err = guard.Claim(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed)

		require.NoError(t, guard.Release(ctx, "k"))
		claimed, err = guard.Claim(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("surfaces redis errors", func(t *testing.T) {
		client := newFakeRedis()
		client.err = errors.New("connection refused")
		guard := NewRedisDeliveryGuard(client)

		claimed, err := guard.Claim(ctx, "k", time.Hour)
		assert.Error(t, err)
		assert.False(t, claimed)
		assert.Error(t, guard.Release(ctx, "k"))
	})
}
