// Package store defines the user balance persistence boundary.
package store

import (
	"context"

	"reclamacidade/internal/user/models"
)

// Field selects which balance column an adjustment targets.
type Field string

const (
	FieldCredits  Field = "credits"
	FieldCurrency Field = "currency"
)

// Store adjusts balances atomically at the storage layer so concurrent
// adjustments cannot lose updates. Unknown identities start at zero.
type Store interface {
	// Adjust adds delta to the field, clamping the result at zero, and
	// returns the updated balance.
	Adjust(ctx context.Context, identity string, field Field, delta int64) (models.Balance, error)

	Get(ctx context.Context, identity string) (models.Balance, error)
}
