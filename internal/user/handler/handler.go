// Package handler is the thin HTTP layer for user balance adjustments.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reclamacidade/internal/platform/middleware"
	"reclamacidade/internal/user/models"
	"reclamacidade/pkg/platform/httputil"
	"reclamacidade/pkg/requestcontext"
)

// Service defines the balance operations the handler needs.
type Service interface {
	AdjustCredits(ctx context.Context, identity string, delta int64) (models.Balance, error)
	AdjustCurrency(ctx context.Context, identity string, delta int64) (models.Balance, error)
	Balance(ctx context.Context, identity string) (models.Balance, error)
}

// Handler handles user balance endpoints.
type Handler struct {
	users        Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(users Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		users:        users,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register wires the user routes; all require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Get("/users/balance", h.handleBalance)
		pr.Put("/users/credits", h.handleCredits)
		pr.Put("/users/currency", h.handleCurrency)
	})
}

func (h *Handler) handleCredits(w http.ResponseWriter, r *http.Request) {
	h.handleAdjust(w, r, h.users.AdjustCredits)
}

func (h *Handler) handleCurrency(w http.ResponseWriter, r *http.Request) {
	h.handleAdjust(w, r, h.users.AdjustCurrency)
}

func (h *Handler) handleAdjust(
	w http.ResponseWriter,
	r *http.Request,
	adjust func(ctx context.Context, identity string, delta int64) (models.Balance, error),
) {
	ctx := r.Context()

	var req models.AdjustRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	balance, err := adjust(ctx, requestcontext.Identity(ctx), req.Delta)
	if err != nil {
		h.logger.WarnContext(ctx, "balance adjust failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balance)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	balance, err := h.users.Balance(ctx, requestcontext.Identity(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balance)
}
