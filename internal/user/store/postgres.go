package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reclamacidade/internal/user/models"
	"reclamacidade/pkg/requestcontext"
)

// Schema creates the user balance table. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS user_balances (
	identity   TEXT PRIMARY KEY,
	credits    BIGINT NOT NULL DEFAULT 0,
	currency   BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Postgres implements Store on PostgreSQL. Adjustments use a single upsert so
// concurrent deltas against the same identity serialize at the row.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the user balance schema.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply user schema: %w", err)
	}
	return nil
}

func (s *Postgres) Adjust(ctx context.Context, identity string, field Field, delta int64) (models.Balance, error) {
	column := "credits"
	if field == FieldCurrency {
		column = "currency"
	}

	// column is one of two fixed literals, never caller input.
	query := fmt.Sprintf(`
		INSERT INTO user_balances (identity, %[1]s, updated_at)
		VALUES ($1, GREATEST($2, 0), $3)
		ON CONFLICT (identity) DO UPDATE SET
			%[1]s = GREATEST(user_balances.%[1]s + $2, 0),
			updated_at = $3
		RETURNING identity, credits, currency, updated_at`, column)

	var balance models.Balance
	err := s.db.QueryRowContext(ctx, query, identity, delta, requestcontext.Now(ctx)).
		Scan(&balance.Identity, &balance.Credits, &balance.Currency, &balance.UpdatedAt)
	if err != nil {
		return models.Balance{}, fmt.Errorf("adjust %s: %w", column, err)
	}
	return balance, nil
}

func (s *Postgres) Get(ctx context.Context, identity string) (models.Balance, error) {
	var balance models.Balance
	err := s.db.QueryRowContext(ctx, `
		SELECT identity, credits, currency, updated_at
		FROM user_balances WHERE identity = $1`, identity).
		Scan(&balance.Identity, &balance.Credits, &balance.Currency, &balance.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Balance{Identity: identity}, nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}
