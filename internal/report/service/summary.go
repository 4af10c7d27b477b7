package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"reclamacidade/internal/report/models"
	dErrors "reclamacidade/pkg/domain-errors"
)

// List returns all reports, newest first, serving from the Redis cache when
// it holds a fresh copy.
func (s *Service) List(ctx context.Context) ([]*models.Report, error) {
	if s.cache != nil {
		if reports, ok := s.cache.get(ctx); ok {
			return reports, nil
		}
	}

	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	if s.cache != nil {
		s.cache.set(ctx, reports)
	}
	return reports, nil
}

// Summary aggregates report counts for the admin dashboard. Admin only.
// The two grouped counts are gathered in parallel with shared cancellation.
func (s *Service) Summary(ctx context.Context, admin string) (*models.Summary, error) {
	if !s.isAdmin(admin) {
		return nil, models.ErrPermissionDenied
	}

	ctx, span := s.tracer.Start(ctx, "report.Summary")
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)

	var byStatus map[models.Status]int
	var byCategory map[models.Category]int

	g.Go(func() error {
		var err error
		byStatus, err = s.reports.CountByStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.reports.CountByCategory(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	summary := &models.Summary{
		ByStatus:   byStatus,
		ByCategory: byCategory,
		ByGroup:    make(map[models.CategoryGroup]int),
	}
	for category, n := range byCategory {
		summary.Total += n
		summary.ByGroup[category.Group()] += n
	}
	return summary, nil
}
