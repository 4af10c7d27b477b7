// Package redis owns the shared go-redis client. Redis is optional here: it
// backs the geolocation gate (last-known positions plus pub/sub fan-out) and
// the report list cache, and both fall back to in-memory implementations when
// no REDIS_URL is configured.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"reclamacidade/internal/platform/config"
)

// Client embeds *redis.Client so callers use the go-redis API directly.
type Client struct {
	*redis.Client
}

// New dials Redis from cfg and verifies the connection with a ping. An empty
// URL means Redis is not configured; New then returns (nil, nil) and callers
// pick their in-memory fallback.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers; /healthz calls it.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
