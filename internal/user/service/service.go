// Package service adjusts user credit and currency balances. Identity comes
// from the authenticated request; deltas clamp at zero in the store.
package service

import (
	"context"
	"log/slog"

	"reclamacidade/internal/user/models"
	"reclamacidade/internal/user/store"
	dErrors "reclamacidade/pkg/domain-errors"
	"reclamacidade/pkg/platform/audit"
	"reclamacidade/pkg/platform/audit/publisher"
	"reclamacidade/pkg/requestcontext"
)

// Service orchestrates balance adjustments.
type Service struct {
	balances store.Store
	audit    *publisher.Publisher
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithAuditPublisher attaches the audit event publisher.
func WithAuditPublisher(p *publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(balances store.Store, opts ...Option) *Service {
	s := &Service{
		balances: balances,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdjustCredits adds delta to the caller's credit balance.
func (s *Service) AdjustCredits(ctx context.Context, identity string, delta int64) (models.Balance, error) {
	return s.adjust(ctx, identity, store.FieldCredits, delta, audit.ActionCreditsAdjusted)
}

// AdjustCurrency adds delta to the caller's currency balance.
func (s *Service) AdjustCurrency(ctx context.Context, identity string, delta int64) (models.Balance, error) {
	return s.adjust(ctx, identity, store.FieldCurrency, delta, audit.ActionCurrencyAdjusted)
}

// Balance returns the caller's current balance.
func (s *Service) Balance(ctx context.Context, identity string) (models.Balance, error) {
	if identity == "" {
		return models.Balance{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	balance, err := s.balances.Get(ctx, identity)
	if err != nil {
		return models.Balance{}, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
	return balance, nil
}

func (s *Service) adjust(ctx context.Context, identity string, field store.Field, delta int64, action audit.Action) (models.Balance, error) {
	if identity == "" {
		return models.Balance{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	balance, err := s.balances.Adjust(ctx, identity, field, delta)
	if err != nil {
		return models.Balance{}, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	if s.audit != nil {
		event := audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Action:    action,
			Actor:     identity,
			RequestID: requestcontext.RequestID(ctx),
		}
		if err := s.audit.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
		}
	}
	return balance, nil
}
