package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV implements session.KV on Redis strings. Every write refreshes the key's
// TTL so idle browser sessions expire on their own.
type KV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewKV creates a KV whose keys are prefixed with prefix.
func NewKV(client *redis.Client, prefix string, ttl time.Duration) *KV {
	return &KV{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key for a logical key.
func (k *KV) Key(key string) string {
	return k.prefix + key
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, k.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis.KV.Get: %w", err)
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	if err := k.client.Set(ctx, k.Key(key), value, k.ttl).Err(); err != nil {
		return fmt.Errorf("redis.KV.Set: %w", err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, k.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis.KV.Delete: %w", err)
	}
	return nil
}
