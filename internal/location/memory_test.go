package location

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reclamacidade/internal/geo"
	"reclamacidade/pkg/platform/sentinel"
	"reclamacidade/pkg/requestcontext"
)

var praca = geo.Coordinate{Lat: -23.5505, Lon: -46.6333}

func TestCurrentWithoutPublishIsNotFound(t *testing.T) {
	p := NewInMemoryProvider()

	_, err := p.Current(context.Background(), "alice@example.com", time.Minute)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPublishThenCurrent(t *testing.T) {
	p := NewInMemoryProvider()
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "alice@example.com", praca))

	got, err := p.Current(ctx, "alice@example.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, praca, got)
}

func TestCurrentStalePosition(t *testing.T) {
	p := NewInMemoryProvider()

	published := time.Now().Add(-10 * time.Minute)
	ctx := requestcontext.WithTime(context.Background(), published)
	require.NoError(t, p.Publish(ctx, "alice@example.com", praca))

	_, err := p.Current(context.Background(), "alice@example.com", 2*time.Minute)
	require.ErrorIs(t, err, sentinel.ErrStale)

	// A generous maxAge still serves the old position.
	got, err := p.Current(context.Background(), "alice@example.com", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, praca, got)
}

func TestWatchReceivesUpdates(t *testing.T) {
	p := NewInMemoryProvider()
	ctx := context.Background()

	updates, cancel, err := p.Watch(ctx, "alice@example.com")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, p.Publish(ctx, "alice@example.com", praca))

	select {
	case got := <-updates:
		assert.Equal(t, praca, got)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestWatchCancelClosesChannel(t *testing.T) {
	p := NewInMemoryProvider()

	updates, cancel, err := p.Watch(context.Background(), "alice@example.com")
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	_, open := <-updates
	assert.False(t, open)

	// Publishes after cancel must not panic or block.
	require.NoError(t, p.Publish(context.Background(), "alice@example.com", praca))
}

func TestConcurrentPublishAndCancel(t *testing.T) {
	p := NewInMemoryProvider()
	ctx := context.Background()

	// Publishers racing watcher cancellation must never send on a closed
	// channel. Run with -race.
	const watchers = 20
	cancels := make([]func(), 0, watchers)
	for i := 0; i < watchers; i++ {
		_, cancel, err := p.Watch(ctx, "alice@example.com")
		require.NoError(t, err)
		cancels = append(cancels, cancel)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = p.Publish(ctx, "alice@example.com", praca)
		}
	}()
	go func() {
		defer wg.Done()
		for _, cancel := range cancels {
			cancel()
		}
	}()
	wg.Wait()

	require.NoError(t, p.Publish(ctx, "alice@example.com", praca))
}
