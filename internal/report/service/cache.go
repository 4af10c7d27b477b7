package service

import (
	"context"
	"encoding/json"
	"time"

	platformredis "reclamacidade/internal/platform/redis"
	"reclamacidade/internal/report/models"
)

const listCacheKey = "reports:list"

// listCache is a cache-aside wrapper over Redis for the report list read
// path. Mutations invalidate the key; staleness is additionally bounded by
// the TTL. Absent Redis the service goes straight to the store.
type listCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

// WithListCache enables Redis caching for List. A nil client disables it.
func WithListCache(client *platformredis.Client, ttl time.Duration) Option {
	return func(c *serviceConfig) {
		if client != nil && ttl > 0 {
			c.cache = &listCache{client: client, ttl: ttl}
		}
	}
}

func (c *listCache) get(ctx context.Context) ([]*models.Report, bool) {
	payload, err := c.client.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var reports []*models.Report
	if err := json.Unmarshal(payload, &reports); err != nil {
		return nil, false
	}
	return reports, true
}

func (c *listCache) set(ctx context.Context, reports []*models.Report) {
	payload, err := json.Marshal(reports)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, listCacheKey, payload, c.ttl).Err()
}

func (c *listCache) invalidate(ctx context.Context) {
	// Invalidation failures are tolerable; the TTL bounds staleness.
	_ = c.client.Del(ctx, listCacheKey).Err()
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.invalidate(ctx)
	}
}
