package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"reclamacidade/internal/geo"
	platformredis "reclamacidade/internal/platform/redis"
	"reclamacidade/pkg/platform/sentinel"
	"reclamacidade/pkg/requestcontext"
)

const (
	positionKeyPrefix     = "location:position:"
	positionChannelPrefix = "location:updates:"

	// positionTTL caps retention of raw positions regardless of maxAge asked
	// by callers.
	positionTTL = 30 * time.Minute
)

// RedisProvider stores last-known positions in Redis and fans out updates via
// pub/sub so watchers work across server instances.
type RedisProvider struct {
	client *platformredis.Client
}

func NewRedisProvider(client *platformredis.Client) *RedisProvider {
	return &RedisProvider{client: client}
}

func (p *RedisProvider) Publish(ctx context.Context, identity string, coord geo.Coordinate) error {
	pos := Position{Coordinate: coord, ObservedAt: requestcontext.Now(ctx)}
	payload, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}

	if err := p.client.Set(ctx, positionKeyPrefix+identity, payload, positionTTL).Err(); err != nil {
		return fmt.Errorf("store position: %w", err)
	}
	if err := p.client.Publish(ctx, positionChannelPrefix+identity, payload).Err(); err != nil {
		return fmt.Errorf("publish position update: %w", err)
	}
	return nil
}

func (p *RedisProvider) Current(ctx context.Context, identity string, maxAge time.Duration) (geo.Coordinate, error) {
	payload, err := p.client.Get(ctx, positionKeyPrefix+identity).Bytes()
	if errors.Is(err, goredis.Nil) {
		return geo.Coordinate{}, sentinel.ErrNotFound
	}
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("load position: %w", err)
	}

	var pos Position
	if err := json.Unmarshal(payload, &pos); err != nil {
		return geo.Coordinate{}, fmt.Errorf("decode position: %w", err)
	}
	if maxAge > 0 && requestcontext.Now(ctx).Sub(pos.ObservedAt) > maxAge {
		return geo.Coordinate{}, sentinel.ErrStale
	}
	return pos.Coordinate, nil
}

func (p *RedisProvider) Watch(ctx context.Context, identity string) (<-chan geo.Coordinate, func(), error) {
	sub := p.client.Subscribe(ctx, positionChannelPrefix+identity)

	// Force the subscription to be established before returning so callers
	// never miss updates published right after Watch.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe position updates: %w", err)
	}

	updates := make(chan geo.Coordinate, 8)
	go func() {
		defer close(updates)
		for msg := range sub.Channel() {
			var pos Position
			if err := json.Unmarshal([]byte(msg.Payload), &pos); err != nil {
				continue
			}
			select {
			case updates <- pos.Coordinate:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return updates, cancel, nil
}
