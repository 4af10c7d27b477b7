//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"reclamacidade/internal/geo"
	"reclamacidade/internal/report/models"
	"reclamacidade/internal/report/store"
	"reclamacidade/pkg/platform/sentinel"
	"reclamacidade/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"report_status_changes", "report_supporters", "reports")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newReport(reporter string) *models.Report {
	now := time.Now().UTC().Truncate(time.Microsecond)
	report := &models.Report{
		ID:        uuid.New(),
		Location:  geo.Coordinate{Lat: -23.5505, Lon: -46.6333},
		Category:  models.CategoryPothole,
		Reporter:  reporter,
		CreatedAt: now,
		Status:    models.StatusReported,
	}
	initial := models.StatusChange{
		ReportID:  report.ID,
		Status:    models.StatusReported,
		UpdatedBy: reporter,
		Timestamp: now,
	}
	s.Require().NoError(s.store.Create(context.Background(), report, initial))
	return report
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	report := s.newReport("alice@example.com")

	found, err := s.store.FindByID(context.Background(), report.ID)
	s.Require().NoError(err)
	s.Equal(report.ID, found.ID)
	s.Equal(report.Location, found.Location)
	s.Equal(models.StatusReported, found.Status)

	_, err = s.store.FindByID(context.Background(), uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentEndorsements verifies that concurrent endorsements by the same
// identity result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentEndorsements() {
	ctx := context.Background()
	report := s.newReport("alice@example.com")
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := s.store.AppendEndorsement(ctx, report.ID, "bob@example.com")
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one endorsement should land")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")

	found, err := s.store.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal([]string{"bob@example.com"}, found.EndorsedBy)
}

func (s *PostgresStoreSuite) TestAppendAgainstMissingReport() {
	err := s.store.AppendEndorsement(context.Background(), uuid.New(), "bob@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.AppendResolutionConfirmation(context.Background(), uuid.New(), "bob@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetStatusAndHistory() {
	ctx := context.Background()
	report := s.newReport("alice@example.com")

	change := models.StatusChange{
		ReportID:  report.ID,
		Status:    models.StatusInProgress,
		Comment:   "crew dispatched",
		UpdatedBy: "admin@example.com",
		Timestamp: time.Now().UTC().Add(time.Minute),
	}
	s.Require().NoError(s.store.SetStatus(ctx, report.ID, models.StatusInProgress, change))

	found, err := s.store.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, found.Status)

	history, err := s.store.StatusHistory(ctx, report.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(models.StatusInProgress, history[0].Status)
	s.Equal("crew dispatched", history[0].Comment)
	s.Equal(models.StatusReported, history[1].Status)

	err = s.store.SetStatus(ctx, uuid.New(), models.StatusClosed, models.StatusChange{ReportID: uuid.New()})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListNewestFirst() {
	older := s.newReport("alice@example.com")
	// Force a later created_at for the second report.
	time.Sleep(10 * time.Millisecond)
	newer := s.newReport("bob@example.com")

	reports, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(reports, 2)
	s.Equal(newer.ID, reports[0].ID)
	s.Equal(older.ID, reports[1].ID)
}

func (s *PostgresStoreSuite) TestPurgeCascades() {
	ctx := context.Background()
	anon := s.newReport(models.AnonymousReporter)
	s.Require().NoError(s.store.AppendEndorsement(ctx, anon.ID, "bob@example.com"))
	kept := s.newReport("alice@example.com")

	removed, err := s.store.PurgeAnonymous(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	_, err = s.store.FindByID(ctx, anon.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.StatusHistory(ctx, anon.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByID(ctx, kept.ID)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCounts() {
	ctx := context.Background()
	a := s.newReport("alice@example.com")
	s.newReport("bob@example.com")

	s.Require().NoError(s.store.SetStatus(ctx, a.ID, models.StatusResolved, models.StatusChange{
		ReportID:  a.ID,
		Status:    models.StatusResolved,
		UpdatedBy: "carol@example.com",
		Timestamp: time.Now().UTC(),
	}))

	byStatus, err := s.store.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(1, byStatus[models.StatusReported])
	s.Equal(1, byStatus[models.StatusResolved])

	byCategory, err := s.store.CountByCategory(ctx)
	s.Require().NoError(err)
	s.Equal(2, byCategory[models.CategoryPothole])
}
