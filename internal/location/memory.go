package location

import (
	"context"
	"sync"
	"time"

	"reclamacidade/internal/geo"
	"reclamacidade/pkg/platform/sentinel"
	"reclamacidade/pkg/requestcontext"
)

// InMemoryProvider keeps last-known positions in process memory. Used in tests
// and when Redis is not configured.
type InMemoryProvider struct {
	mu        sync.RWMutex
	positions map[string]Position
	watchers  map[string]map[int]chan geo.Coordinate
	nextID    int
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		positions: make(map[string]Position),
		watchers:  make(map[string]map[int]chan geo.Coordinate),
	}
}

func (p *InMemoryProvider) Publish(ctx context.Context, identity string, coord geo.Coordinate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positions[identity] = Position{Coordinate: coord, ObservedAt: requestcontext.Now(ctx)}

	// Fan out under the lock so a concurrent cancel cannot close a channel
	// mid-send. Sends are non-blocking; slow watchers miss updates rather
	// than blocking the publisher.
	for _, ch := range p.watchers[identity] {
		select {
		case ch <- coord:
		default:
		}
	}
	return nil
}

func (p *InMemoryProvider) Current(ctx context.Context, identity string, maxAge time.Duration) (geo.Coordinate, error) {
	p.mu.RLock()
	pos, ok := p.positions[identity]
	p.mu.RUnlock()

	if !ok {
		return geo.Coordinate{}, sentinel.ErrNotFound
	}
	if maxAge > 0 && requestcontext.Now(ctx).Sub(pos.ObservedAt) > maxAge {
		return geo.Coordinate{}, sentinel.ErrStale
	}
	return pos.Coordinate, nil
}

func (p *InMemoryProvider) Watch(ctx context.Context, identity string) (<-chan geo.Coordinate, func(), error) {
	ch := make(chan geo.Coordinate, 8)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	if p.watchers[identity] == nil {
		p.watchers[identity] = make(map[int]chan geo.Coordinate)
	}
	p.watchers[identity][id] = ch
	p.mu.Unlock()

	// Closing under the lock keeps close ordered after any in-flight fan-out.
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.watchers[identity], id)
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}
