//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"reclamacidade/internal/user/store"
	"reclamacidade/pkg/testutil/containers"
)

type PostgresBalanceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresBalanceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBalanceSuite))
}

func (s *PostgresBalanceSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresBalanceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "user_balances"))
}

func (s *PostgresBalanceSuite) TestAdjustUpsertsAndClamps() {
	ctx := context.Background()

	balance, err := s.store.Adjust(ctx, "alice@example.com", store.FieldCredits, 10)
	s.Require().NoError(err)
	s.Equal(int64(10), balance.Credits)

	balance, err = s.store.Adjust(ctx, "alice@example.com", store.FieldCredits, -25)
	s.Require().NoError(err)
	s.Equal(int64(0), balance.Credits)

	balance, err = s.store.Adjust(ctx, "alice@example.com", store.FieldCurrency, 5)
	s.Require().NoError(err)
	s.Equal(int64(5), balance.Currency)
	s.Equal(int64(0), balance.Credits)
}

// TestConcurrentAdjusts verifies that concurrent deltas serialize at the row
// and none are lost.
func (s *PostgresBalanceSuite) TestConcurrentAdjusts() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Adjust(ctx, "alice@example.com", store.FieldCredits, 1)
			s.NoError(err)
		}()
	}
	wg.Wait()

	balance, err := s.store.Get(ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(int64(goroutines), balance.Credits)
}

func (s *PostgresBalanceSuite) TestGetUnknownIdentity() {
	balance, err := s.store.Get(context.Background(), "nobody@example.com")
	s.Require().NoError(err)
	s.Equal("nobody@example.com", balance.Identity)
	s.Zero(balance.Credits)
	s.Zero(balance.Currency)
}
