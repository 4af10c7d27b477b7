// Package handler exposes the geolocation gate over HTTP: authenticated
// clients publish their position and read back their last known one.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reclamacidade/internal/geo"
	"reclamacidade/internal/location"
	"reclamacidade/internal/platform/middleware"
	dErrors "reclamacidade/pkg/domain-errors"
	"reclamacidade/pkg/platform/httputil"
	"reclamacidade/pkg/platform/sentinel"
	"reclamacidade/pkg/requestcontext"
)

// Handler handles position publish/read endpoints.
type Handler struct {
	provider     location.Provider
	maxAge       time.Duration
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(provider location.Provider, maxAge time.Duration, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		provider:     provider,
		maxAge:       maxAge,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register wires the location routes; all require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Put("/location", h.handlePublish)
		pr.Get("/location", h.handleCurrent)
	})
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var coord geo.Coordinate
	if err := httputil.DecodeJSON(r, &coord); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !coord.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid coordinate"))
		return
	}

	if err := h.provider.Publish(ctx, requestcontext.Identity(ctx), coord); err != nil {
		h.logger.ErrorContext(ctx, "publish position failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish position"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	coord, err := h.provider.Current(ctx, requestcontext.Identity(ctx), h.maxAge)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrStale) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no recent position"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load position"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, coord)
}
