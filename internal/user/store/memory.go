package store

import (
	"context"
	"sync"

	"reclamacidade/internal/user/models"
	"reclamacidade/pkg/requestcontext"
)

// InMemory implements Store with a process-local map.
type InMemory struct {
	mu       sync.RWMutex
	balances map[string]models.Balance
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[string]models.Balance)}
}

func (s *InMemory) Adjust(ctx context.Context, identity string, field Field, delta int64) (models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balances[identity]
	balance.Identity = identity

	switch field {
	case FieldCurrency:
		balance.Currency = clampZero(balance.Currency + delta)
	default:
		balance.Credits = clampZero(balance.Credits + delta)
	}
	balance.UpdatedAt = requestcontext.Now(ctx)

	s.balances[identity] = balance
	return balance, nil
}

func (s *InMemory) Get(ctx context.Context, identity string) (models.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance, ok := s.balances[identity]
	if !ok {
		return models.Balance{Identity: identity}, nil
	}
	return balance, nil
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
