package publisher

import (
	"context"
	"log/slog"
	"sync"

	"reclamacidade/pkg/platform/audit"
)

// Publisher delivers audit events to a store either synchronously or through
// a buffered channel drained by a background goroutine. Async mode never
// blocks domain operations; when the buffer is full the event is dropped and
// counted rather than stalling a request.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox   chan audit.Event
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async delivery with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets the logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit delivers one event. In sync mode the store error is returned; in async
// mode Emit never fails and a full buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
	}
	return nil
}

// List exposes the underlying store's events; primarily for tests and
// diagnostics endpoints.
func (p *Publisher) List(ctx context.Context) ([]audit.Event, error) {
	return p.store.List(ctx)
}

// Close drains any buffered events and stops the background goroutine.
// Safe to call more than once.
func (p *Publisher) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
		<-p.done
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit event delivery failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
