// Package handler is the thin HTTP layer over the report lifecycle service.
// It owns request parsing and response mapping only; every rule lives in the
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reclamacidade/internal/geo"
	"reclamacidade/internal/platform/middleware"
	"reclamacidade/internal/report/models"
	dErrors "reclamacidade/pkg/domain-errors"
	"reclamacidade/pkg/platform/httputil"
	"reclamacidade/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler needs.
type Service interface {
	CreateReport(ctx context.Context, reporter string, category models.Category, coord *geo.Coordinate) (*models.Report, error)
	List(ctx context.Context) ([]*models.Report, error)
	GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error)
	StatusHistory(ctx context.Context, reportID uuid.UUID) ([]models.StatusChange, error)
	Endorse(ctx context.Context, actor string, reportID uuid.UUID, coord *geo.Coordinate) error
	ConfirmResolution(ctx context.Context, actor string, reportID uuid.UUID, coord *geo.Coordinate) error
	AdminSetStatus(ctx context.Context, admin string, reportID uuid.UUID, status models.Status, comment string) error
	Summary(ctx context.Context, admin string) (*models.Summary, error)
	PurgeAnonymousReports(ctx context.Context, admin string) (models.PurgeResult, error)
	PurgeReportsByReporter(ctx context.Context, admin, reporter string) (models.PurgeResult, error)
}

// Handler handles report endpoints.
type Handler struct {
	reports      Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new report Handler.
func New(reports Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		reports:      reports,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register wires the report routes. The list endpoint is public; everything
// that mutates requires a bearer token. Admin checks live in the service.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reports", h.handleList)
	r.Get("/reports/{id}", h.handleGet)
	r.Get("/reports/{id}/history", h.handleHistory)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Post("/reports", h.handleCreate)
		pr.Post("/reports/{id}/endorse", h.handleEndorse)
		pr.Post("/reports/{id}/confirm-resolution", h.handleConfirmResolution)
		pr.Put("/reports/{id}/status", h.handleSetStatus)
		pr.Get("/admin/reports/summary", h.handleSummary)
		pr.Delete("/reports/purge-anonymous", h.handlePurgeAnonymous)
		pr.Delete("/reports/purge-by-identity", h.handlePurgeByIdentity)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateReportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.reports.CreateReport(ctx, requestcontext.Identity(ctx), req.Category, req.Coordinate)
	if err != nil {
		h.logFailure(ctx, "create report", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "list reports", err)
		httputil.WriteError(w, err)
		return
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	httputil.WriteJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.reports.StatusHistory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if history == nil {
		history = []models.StatusChange{}
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleEndorse(w http.ResponseWriter, r *http.Request) {
	h.handleProximityAction(w, r, h.reports.Endorse)
}

func (h *Handler) handleConfirmResolution(w http.ResponseWriter, r *http.Request) {
	h.handleProximityAction(w, r, h.reports.ConfirmResolution)
}

func (h *Handler) handleProximityAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, actor string, reportID uuid.UUID, coord *geo.Coordinate) error,
) {
	ctx := r.Context()

	id, err := reportID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.ProximityActionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := action(ctx, requestcontext.Identity(ctx), id, req.Coordinate); err != nil {
		h.logFailure(ctx, "proximity action", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := reportID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.SetStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.reports.AdminSetStatus(ctx, requestcontext.Identity(ctx), id, req.Status, req.Comment); err != nil {
		h.logFailure(ctx, "set status", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.reports.Summary(ctx, requestcontext.Identity(ctx))
	if err != nil {
		h.logFailure(ctx, "summary", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handlePurgeAnonymous(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reports.PurgeAnonymousReports(ctx, requestcontext.Identity(ctx))
	if err != nil {
		h.logFailure(ctx, "purge anonymous", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePurgeByIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reports.PurgeReportsByReporter(ctx, requestcontext.Identity(ctx), r.URL.Query().Get("identity"))
	if err != nil {
		h.logFailure(ctx, "purge by identity", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) logFailure(ctx context.Context, operation string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, operation+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, operation+" rejected",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func reportID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid report id")
	}
	return id, nil
}
