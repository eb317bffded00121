package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client owns the Redis connection shared by the session KV and the toast
// pub/sub bus.
type Client struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("redis.Client.Close: %w", err)
	}
	return nil
}

// KV returns the session key/value store backed by this connection.
func (c *Client) KV(prefix string, ttl time.Duration) *KV {
	return NewKV(c.client, prefix, ttl)
}

// PubSub returns the toast bus backed by this connection.
func (c *Client) PubSub() *PubSub {
	return &PubSub{client: c.client}
}
