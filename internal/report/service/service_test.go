package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"reclamacidade/internal/geo"
	"reclamacidade/internal/location"
	locationmocks "reclamacidade/internal/location/mocks"
	"reclamacidade/internal/report/models"
	"reclamacidade/internal/report/store"
	"reclamacidade/pkg/platform/sentinel"
)

// Praça da Sé, São Paulo. Offsets in latitude degrees: 0.0005 is roughly 56 m
// (inside the 100 m gate), 0.0045 is roughly 500 m (outside).
var reportCoord = geo.Coordinate{Lat: -23.5505, Lon: -46.6333}

func nearby() *geo.Coordinate {
	return &geo.Coordinate{Lat: reportCoord.Lat + 0.0005, Lon: reportCoord.Lon}
}

func farAway() *geo.Coordinate {
	return &geo.Coordinate{Lat: reportCoord.Lat + 0.0045, Lon: reportCoord.Lon}
}

type ServiceSuite struct {
	suite.Suite
	store     *store.InMemory
	locations *location.InMemoryProvider
	service   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.locations = location.NewInMemoryProvider()
	s.service = New(s.store, s.locations,
		WithAdminAllowlist([]string{"admin@example.com"}),
	)
}

func (s *ServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) createReport(reporter string) *models.Report {
	coord := reportCoord
	report, err := s.service.CreateReport(context.Background(), reporter, models.CategoryPothole, &coord)
	s.Require().NoError(err)
	return report
}

func (s *ServiceSuite) TestCreateReport() {
	s.Run("creates a report in REPORTED with an initial history entry", func() {
		report := s.createReport("alice@example.com")

		s.Equal(models.StatusReported, report.Status)
		s.Equal("alice@example.com", report.Reporter)
		s.Equal(reportCoord, report.Location)

		history, err := s.service.StatusHistory(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(models.StatusReported, history[0].Status)
		s.Equal("alice@example.com", history[0].UpdatedBy)
	})

	s.Run("empty reporter falls back to the anonymous identity", func() {
		report := s.createReport("")
		s.Equal(models.AnonymousReporter, report.Reporter)
	})

	s.Run("rejects an unknown category", func() {
		coord := reportCoord
		_, err := s.service.CreateReport(context.Background(), "alice@example.com", "sinkhole", &coord)
		s.Require().ErrorIs(err, models.ErrInvalidCategory)
	})

	s.Run("rejects an out-of-range coordinate", func() {
		coord := geo.Coordinate{Lat: 91, Lon: 0}
		_, err := s.service.CreateReport(context.Background(), "alice@example.com", models.CategoryPothole, &coord)
		s.Require().Error(err)
	})

	s.Run("without a coordinate the gate must know the reporter", func() {
		_, err := s.service.CreateReport(context.Background(), "alice@example.com", models.CategoryPothole, nil)
		s.Require().ErrorIs(err, models.ErrLocationUnavailable)
	})

	s.Run("falls back to the reporter's last published position", func() {
		s.Require().NoError(s.locations.Publish(context.Background(), "alice@example.com", reportCoord))

		report, err := s.service.CreateReport(context.Background(), "alice@example.com", models.CategoryFlooding, nil)
		s.Require().NoError(err)
		s.Equal(reportCoord, report.Location)
	})
}

func (s *ServiceSuite) TestEndorse() {
	s.Run("nearby non-reporter endorses once", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.Endorse(context.Background(), "bob@example.com", report.ID, nearby()))

		found, err := s.service.GetReport(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Equal([]string{"bob@example.com"}, found.EndorsedBy)
		s.Equal(models.StatusReported, found.Status)
	})

	s.Run("requires authentication", func() {
		report := s.createReport("alice@example.com")

		err := s.service.Endorse(context.Background(), "", report.ID, nearby())
		s.Require().ErrorIs(err, models.ErrAuthenticationRequired)

		err = s.service.Endorse(context.Background(), models.AnonymousReporter, report.ID, nearby())
		s.Require().ErrorIs(err, models.ErrAuthenticationRequired)
	})

	s.Run("rejects callers outside the proximity radius", func() {
		report := s.createReport("alice@example.com")

		err := s.service.Endorse(context.Background(), "bob@example.com", report.ID, farAway())
		s.Require().ErrorIs(err, models.ErrTooFarFromReport)
	})

	s.Run("rejects self-endorsement", func() {
		report := s.createReport("alice@example.com")

		err := s.service.Endorse(context.Background(), "alice@example.com", report.ID, nearby())
		s.Require().ErrorIs(err, models.ErrSelfEndorsement)
	})

	s.Run("rejects self-endorsement regardless of distance", func() {
		report := s.createReport("alice@example.com")

		err := s.service.Endorse(context.Background(), "alice@example.com", report.ID, farAway())
		s.Require().ErrorIs(err, models.ErrSelfEndorsement)
	})

	s.Run("rejects a second endorsement by the same identity", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.Endorse(context.Background(), "bob@example.com", report.ID, nearby()))
		err := s.service.Endorse(context.Background(), "bob@example.com", report.ID, nearby())
		s.Require().ErrorIs(err, models.ErrAlreadyEndorsed)
	})

	s.Run("unknown report", func() {
		err := s.service.Endorse(context.Background(), "bob@example.com", uuid.New(), nearby())
		s.Require().ErrorIs(err, models.ErrReportNotFound)
	})
}

func (s *ServiceSuite) TestConfirmResolution() {
	s.Run("first confirmation moves the report to RESOLVED", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.ConfirmResolution(context.Background(), "bob@example.com", report.ID, nearby()))

		found, err := s.service.GetReport(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusResolved, found.Status)
		s.Equal([]string{"bob@example.com"}, found.ResolutionConfirmedBy)

		// Exactly one transition beyond the initial REPORTED entry.
		history, err := s.service.StatusHistory(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 2)
		s.Equal(models.StatusResolved, history[0].Status)
		s.Equal("bob@example.com", history[0].UpdatedBy)
	})

	s.Run("later confirmations do not add transitions", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.ConfirmResolution(context.Background(), "bob@example.com", report.ID, nearby()))
		s.Require().NoError(s.service.ConfirmResolution(context.Background(), "carol@example.com", report.ID, nearby()))

		history, err := s.service.StatusHistory(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Len(history, 2)
	})

	s.Run("the reporter may confirm their own report", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.ConfirmResolution(context.Background(), "alice@example.com", report.ID, nearby()))
	})

	s.Run("rejects a duplicate confirmation", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.ConfirmResolution(context.Background(), "bob@example.com", report.ID, nearby()))
		err := s.service.ConfirmResolution(context.Background(), "bob@example.com", report.ID, nearby())
		s.Require().ErrorIs(err, models.ErrAlreadyConfirmed)
	})

	s.Run("rejects callers outside the proximity radius", func() {
		report := s.createReport("alice@example.com")

		err := s.service.ConfirmResolution(context.Background(), "bob@example.com", report.ID, farAway())
		s.Require().ErrorIs(err, models.ErrTooFarFromReport)
	})

	s.Run("a CLOSED report stays CLOSED", func() {
		report := s.createReport("alice@example.com")
		s.Require().NoError(s.service.AdminSetStatus(context.Background(), "admin@example.com", report.ID, models.StatusClosed, "done"))

		s.Require().NoError(s.service.ConfirmResolution(context.Background(), "bob@example.com", report.ID, nearby()))

		found, err := s.service.GetReport(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusClosed, found.Status)
	})
}

func (s *ServiceSuite) TestAdminSetStatus() {
	s.Run("allow-listed admin sets any status from any status", func() {
		report := s.createReport("alice@example.com")

		s.Require().NoError(s.service.AdminSetStatus(context.Background(), "admin@example.com", report.ID, models.StatusClosed, "verified fixed"))
		s.Require().NoError(s.service.AdminSetStatus(context.Background(), "admin@example.com", report.ID, models.StatusReopened, "regressed"))

		found, err := s.service.GetReport(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusReopened, found.Status)

		history, err := s.service.StatusHistory(context.Background(), report.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 3)
		s.Equal("regressed", history[0].Comment)
	})

	s.Run("rejects a non-allow-listed caller", func() {
		report := s.createReport("alice@example.com")

		err := s.service.AdminSetStatus(context.Background(), "mallory@example.com", report.ID, models.StatusClosed, "")
		s.Require().ErrorIs(err, models.ErrPermissionDenied)
	})

	s.Run("rejects an unknown status", func() {
		report := s.createReport("alice@example.com")

		err := s.service.AdminSetStatus(context.Background(), "admin@example.com", report.ID, "ARCHIVED", "")
		s.Require().ErrorIs(err, models.ErrInvalidStatus)
	})

	s.Run("unknown report", func() {
		err := s.service.AdminSetStatus(context.Background(), "admin@example.com", uuid.New(), models.StatusClosed, "")
		s.Require().ErrorIs(err, models.ErrReportNotFound)
	})
}

func (s *ServiceSuite) TestSummary() {
	s.Run("aggregates totals by status, category and group", func() {
		s.createReport("alice@example.com")
		coord := reportCoord
		_, err := s.service.CreateReport(context.Background(), "bob@example.com", models.CategoryFlooding, &coord)
		s.Require().NoError(err)

		summary, err := s.service.Summary(context.Background(), "admin@example.com")
		s.Require().NoError(err)
		s.Equal(2, summary.Total)
		s.Equal(2, summary.ByStatus[models.StatusReported])
		s.Equal(1, summary.ByCategory[models.CategoryPothole])
		s.Equal(1, summary.ByGroup[models.GroupRoad])
		s.Equal(1, summary.ByGroup[models.GroupWater])
	})

	s.Run("rejects non-admin callers", func() {
		_, err := s.service.Summary(context.Background(), "alice@example.com")
		s.Require().ErrorIs(err, models.ErrPermissionDenied)
	})
}

func (s *ServiceSuite) TestPurges() {
	s.Run("admin purges anonymous reports", func() {
		s.createReport("")
		s.createReport("alice@example.com")

		result, err := s.service.PurgeAnonymousReports(context.Background(), "admin@example.com")
		s.Require().NoError(err)
		s.Equal(int64(1), result.ReportsRemoved)

		reports, err := s.service.List(context.Background())
		s.Require().NoError(err)
		s.Len(reports, 1)
	})

	s.Run("admin purges one reporter's reports", func() {
		s.createReport("alice@example.com")
		s.createReport("bob@example.com")

		result, err := s.service.PurgeReportsByReporter(context.Background(), "admin@example.com", "alice@example.com")
		s.Require().NoError(err)
		s.Equal(int64(1), result.ReportsRemoved)
	})

	s.Run("rejects non-admin callers", func() {
		_, err := s.service.PurgeAnonymousReports(context.Background(), "alice@example.com")
		s.Require().ErrorIs(err, models.ErrPermissionDenied)

		_, err = s.service.PurgeReportsByReporter(context.Background(), "alice@example.com", "bob@example.com")
		s.Require().ErrorIs(err, models.ErrPermissionDenied)
	})

	s.Run("purge by reporter requires an identity", func() {
		_, err := s.service.PurgeReportsByReporter(context.Background(), "admin@example.com", "")
		s.Require().Error(err)
	})
}

func TestService_EndorseLocationGateFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reports := store.NewInMemory()
	locations := locationmocks.NewMockProvider(ctrl)
	svc := New(reports, locations)

	locations.EXPECT().
		Current(gomock.Any(), "bob@example.com", gomock.Any()).
		Return(geo.Coordinate{}, sentinel.ErrStale)

	err := svc.Endorse(context.Background(), "bob@example.com", uuid.New(), nil)
	if !errors.Is(err, models.ErrLocationUnavailable) {
		t.Fatalf("expected ErrLocationUnavailable, got %v", err)
	}
}
