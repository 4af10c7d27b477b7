// Package service implements the report lifecycle engine: creation,
// proximity-gated endorsement and resolution confirmation, admin status
// overrides and bulk purges.
//
// All validation happens synchronously before any store write, so a rejected
// call never mutates state. Identity is always passed explicitly; nothing is
// read from ambient globals.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"reclamacidade/internal/geo"
	"reclamacidade/internal/location"
	reportmetrics "reclamacidade/internal/report/metrics"
	"reclamacidade/internal/report/models"
	"reclamacidade/internal/report/store"
	dErrors "reclamacidade/pkg/domain-errors"
	"reclamacidade/pkg/platform/audit"
	"reclamacidade/pkg/platform/audit/publisher"
	"reclamacidade/pkg/platform/sentinel"
	"reclamacidade/pkg/requestcontext"
)

const defaultProximityRadiusMeters = 100

// Service is the report lifecycle engine.
type Service struct {
	reports   store.Store
	locations location.Provider

	admins         map[string]struct{}
	radiusMeters   float64
	locationMaxAge time.Duration

	cache   *listCache
	metrics *reportmetrics.Metrics
	audit   *publisher.Publisher
	logger  *slog.Logger
	tracer  trace.Tracer
}

type serviceConfig struct {
	admins         []string
	radiusMeters   float64
	locationMaxAge time.Duration
	cache          *listCache
	metrics        *reportmetrics.Metrics
	audit          *publisher.Publisher
	logger         *slog.Logger
}

// Option configures the Service.
type Option func(*serviceConfig)

// WithAdminAllowlist sets the fixed administrator allow-list.
func WithAdminAllowlist(emails []string) Option {
	return func(c *serviceConfig) { c.admins = emails }
}

// WithProximityRadius overrides the endorse/confirm distance gate in meters.
func WithProximityRadius(meters float64) Option {
	return func(c *serviceConfig) {
		if meters > 0 {
			c.radiusMeters = meters
		}
	}
}

// WithLocationMaxAge bounds how old a gate-supplied coordinate may be.
func WithLocationMaxAge(maxAge time.Duration) Option {
	return func(c *serviceConfig) { c.locationMaxAge = maxAge }
}

// WithMetrics attaches lifecycle counters.
func WithMetrics(m *reportmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithAuditPublisher attaches the audit event publisher.
func WithAuditPublisher(p *publisher.Publisher) Option {
	return func(c *serviceConfig) { c.audit = p }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func New(reports store.Store, locations location.Provider, opts ...Option) *Service {
	cfg := &serviceConfig{
		radiusMeters:   defaultProximityRadiusMeters,
		locationMaxAge: 2 * time.Minute,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	admins := make(map[string]struct{}, len(cfg.admins))
	for _, email := range cfg.admins {
		admins[email] = struct{}{}
	}

	return &Service{
		reports:        reports,
		locations:      locations,
		admins:         admins,
		radiusMeters:   cfg.radiusMeters,
		locationMaxAge: cfg.locationMaxAge,
		cache:          cfg.cache,
		metrics:        cfg.metrics,
		audit:          cfg.audit,
		logger:         cfg.logger,
		tracer:         otel.Tracer("reclamacidade/report"),
	}
}

// CreateReport registers a new report at the resolved coordinate. An empty
// reporter identity falls back to the anonymous sentinel (legacy path).
func (s *Service) CreateReport(ctx context.Context, reporter string, category models.Category, coord *geo.Coordinate) (*models.Report, error) {
	ctx, span := s.tracer.Start(ctx, "report.CreateReport")
	defer span.End()

	if category == "" || !category.Valid() {
		return nil, models.ErrInvalidCategory
	}
	if reporter == "" {
		reporter = models.AnonymousReporter
	}

	resolved, err := s.resolveCoordinate(ctx, reporter, coord)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	report := &models.Report{
		ID:        uuid.New(),
		Location:  resolved,
		Category:  category,
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

	if err := s.reports.Create(ctx, report, initial); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	s.invalidateListCache(ctx)
	s.incrementReportsCreated()
	s.emit(ctx, audit.Event{
		Action:   audit.ActionReportCreated,
		Actor:    reporter,
		ReportID: report.ID.String(),
		Status:   string(models.StatusReported),
	})
	return report, nil
}

// Endorse appends actor to the report's endorsement set after the
// authentication, location, distance, self-endorsement and uniqueness gates.
// It never changes the report status.
func (s *Service) Endorse(ctx context.Context, actor string, reportID uuid.UUID, coord *geo.Coordinate) error {
	ctx, span := s.tracer.Start(ctx, "report.Endorse")
	defer span.End()

	if !authenticated(actor) {
		return models.ErrAuthenticationRequired
	}
	actorCoord, err := s.resolveCoordinate(ctx, actor, coord)
	if err != nil {
		return err
	}

	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return err
	}

	// Self-endorsement is rejected before the distance gate so the reporter
	// always sees the same error no matter where they stand.
	if actor == report.Reporter {
		return models.ErrSelfEndorsement
	}
	if geo.Distance(actorCoord, report.Location) > s.radiusMeters {
		s.incrementProximityRejections()
		return models.ErrTooFarFromReport
	}
	if report.Endorsed(actor) {
		return models.ErrAlreadyEndorsed
	}

	// The store enforces uniqueness again atomically; a concurrent endorsement
	// that slipped past the read above surfaces as ErrAlreadyUsed.
	if err := s.reports.AppendEndorsement(ctx, reportID, actor); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return models.ErrAlreadyEndorsed
		case errors.Is(err, sentinel.ErrNotFound):
			return models.ErrReportNotFound
		default:
			span.RecordError(err)
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
	}

	s.invalidateListCache(ctx)
	s.incrementEndorsements()
	s.emit(ctx, audit.Event{
		Action:   audit.ActionReportEndorsed,
		Actor:    actor,
		ReportID: reportID.String(),
	})
	return nil
}

// ConfirmResolution appends actor to the resolution confirmation set after
// the authentication, location, distance and uniqueness gates. The first
// confirmation transitions the report to RESOLVED unless the lifecycle is
// already past that point.
func (s *Service) ConfirmResolution(ctx context.Context, actor string, reportID uuid.UUID, coord *geo.Coordinate) error {
	ctx, span := s.tracer.Start(ctx, "report.ConfirmResolution")
	defer span.End()

	if !authenticated(actor) {
		return models.ErrAuthenticationRequired
	}
	actorCoord, err := s.resolveCoordinate(ctx, actor, coord)
	if err != nil {
		return err
	}

	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return err
	}

	if geo.Distance(actorCoord, report.Location) > s.radiusMeters {
		s.incrementProximityRejections()
		return models.ErrTooFarFromReport
	}
	if report.ConfirmedResolution(actor) {
		return models.ErrAlreadyConfirmed
	}

	if err := s.reports.AppendResolutionConfirmation(ctx, reportID, actor); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return models.ErrAlreadyConfirmed
		case errors.Is(err, sentinel.ErrNotFound):
			return models.ErrReportNotFound
		default:
			span.RecordError(err)
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
	}

	s.incrementResolutionConfirmations()
	s.emit(ctx, audit.Event{
		Action:   audit.ActionResolutionConfirmed,
		Actor:    actor,
		ReportID: reportID.String(),
	})

	// One-way trigger: the first confirmation closes the loop.
	if !report.Status.PastResolution() {
		change := models.StatusChange{
			ReportID:  reportID,
			Status:    models.StatusResolved,
			UpdatedBy: actor,
			Timestamp: requestcontext.Now(ctx),
		}
		if err := s.reports.SetStatus(ctx, reportID, models.StatusResolved, change); err != nil {
			span.RecordError(err)
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
		s.emit(ctx, audit.Event{
			Action:   audit.ActionStatusOverridden,
			Actor:    actor,
			ReportID: reportID.String(),
			Status:   string(models.StatusResolved),
			Reason:   "resolution confirmed",
		})
	}

	s.invalidateListCache(ctx)
	return nil
}

// AdminSetStatus unconditionally sets the report status. Only allow-listed
// administrators may call it; any status is reachable from any status.
func (s *Service) AdminSetStatus(ctx context.Context, admin string, reportID uuid.UUID, status models.Status, comment string) error {
	ctx, span := s.tracer.Start(ctx, "report.AdminSetStatus")
	defer span.End()

	if !s.isAdmin(admin) {
		return models.ErrPermissionDenied
	}
	if !status.Valid() {
		return models.ErrInvalidStatus
	}

	change := models.StatusChange{
		ReportID:  reportID,
		Status:    status,
		Comment:   comment,
		UpdatedBy: admin,
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.reports.SetStatus(ctx, reportID, status, change); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ErrReportNotFound
		}
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	s.invalidateListCache(ctx)
	s.incrementAdminStatusOverrides()
	s.emit(ctx, audit.Event{
		Action:   audit.ActionStatusOverridden,
		Actor:    admin,
		ReportID: reportID.String(),
		Status:   string(status),
		Reason:   comment,
	})
	return nil
}

// GetReport returns one report by ID.
func (s *Service) GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	return s.findReport(ctx, reportID)
}

// StatusHistory returns the report's status changes, most recent first.
func (s *Service) StatusHistory(ctx context.Context, reportID uuid.UUID) ([]models.StatusChange, error) {
	changes, err := s.reports.StatusHistory(ctx, reportID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrReportNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
	return changes, nil
}

// PurgeAnonymousReports removes all anonymous reports. Admin only.
func (s *Service) PurgeAnonymousReports(ctx context.Context, admin string) (models.PurgeResult, error) {
	if !s.isAdmin(admin) {
		return models.PurgeResult{}, models.ErrPermissionDenied
	}

	removed, err := s.reports.PurgeAnonymous(ctx)
	if err != nil {
		return models.PurgeResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	s.invalidateListCache(ctx)
	s.emit(ctx, audit.Event{
		Action: audit.ActionAnonymousPurged,
		Actor:  admin,
	})
	return models.PurgeResult{ReportsRemoved: removed}, nil
}

// PurgeReportsByReporter removes all reports by one identity. Admin only.
func (s *Service) PurgeReportsByReporter(ctx context.Context, admin, reporter string) (models.PurgeResult, error) {
	if !s.isAdmin(admin) {
		return models.PurgeResult{}, models.ErrPermissionDenied
	}
	if reporter == "" {
		return models.PurgeResult{}, dErrors.New(dErrors.CodeBadRequest, "reporter identity is required")
	}

	removed, err := s.reports.PurgeByReporter(ctx, reporter)
	if err != nil {
		return models.PurgeResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}

	s.invalidateListCache(ctx)
	s.emit(ctx, audit.Event{
		Action: audit.ActionReporterPurged,
		Actor:  admin,
		Reason: reporter,
	})
	return models.PurgeResult{ReportsRemoved: removed}, nil
}

func (s *Service) findReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrReportNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
	return report, nil
}

// resolveCoordinate returns the explicit snapshot when present, otherwise the
// actor's last published position from the geolocation gate.
func (s *Service) resolveCoordinate(ctx context.Context, identity string, coord *geo.Coordinate) (geo.Coordinate, error) {
	if coord != nil {
		if !coord.Valid() {
			return geo.Coordinate{}, dErrors.New(dErrors.CodeInvalidInput, "invalid coordinate")
		}
		return *coord, nil
	}
	if identity == "" || identity == models.AnonymousReporter {
		return geo.Coordinate{}, models.ErrLocationUnavailable
	}

	resolved, err := s.locations.Current(ctx, identity, s.locationMaxAge)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrStale) {
			return geo.Coordinate{}, models.ErrLocationUnavailable
		}
		return geo.Coordinate{}, dErrors.Wrap(err, dErrors.CodeInternal, "geolocation gate failure")
	}
	return resolved, nil
}

func (s *Service) isAdmin(identity string) bool {
	_, ok := s.admins[identity]
	return ok && identity != ""
}

func authenticated(identity string) bool {
	return identity != "" && identity != models.AnonymousReporter
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) incrementReportsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementReportsCreated()
	}
}

func (s *Service) incrementEndorsements() {
	if s.metrics != nil {
		s.metrics.IncrementEndorsements()
	}
}

func (s *Service) incrementResolutionConfirmations() {
	if s.metrics != nil {
		s.metrics.IncrementResolutionConfirmations()
	}
}

func (s *Service) incrementProximityRejections() {
	if s.metrics != nil {
		s.metrics.IncrementProximityRejections()
	}
}

func (s *Service) incrementAdminStatusOverrides() {
	if s.metrics != nil {
		s.metrics.IncrementAdminStatusOverrides()
	}
}
