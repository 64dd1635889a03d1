package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/draftea/order-saga/notification-service/domain"
	sharedconfig "github.com/draftea/order-saga/shared/config"
)

var _ domain.DeliveryGuard = (*RedisDeliveryGuard)(nil)

// RedisAPI is the subset of the redis client the guard needs
type RedisAPI interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient accepts either a redis:// URL or host:port
func NewRedisClient(ctx context.Context, config sharedconfig.Redis) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(config.Addr, "redis://") {
		parsed, err := redis.ParseURL(config.Addr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse redis url")
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: config.Addr, Password: config.Password, DB: config.DB}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return client, nil
}

// RedisDeliveryGuard claims keys with SET NX so replicas share them
type RedisDeliveryGuard struct {
	client RedisAPI
}

func NewRedisDeliveryGuard(client RedisAPI) *RedisDeliveryGuard {
	return &RedisDeliveryGuard{client: client}
}

func (g *RedisDeliveryGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := g.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to claim %s", key)
	}
	return claimed, nil
}

func (g *RedisDeliveryGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "failed to release %s", key)
	}
	return nil
}
