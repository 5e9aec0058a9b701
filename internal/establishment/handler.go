// Platewise | 2026
// handler.go

package establishment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/middleware"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(
	service *Service,
	validate *validator.Validate,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.With(middleware.RequireManager).Put("/", h.Update)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	est, err := h.service.Get(r.Context(), establishmentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, ToEstablishmentResponse(est))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	var req UpdateEstablishmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	est, err := h.service.Rename(r.Context(), establishmentID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, ToEstablishmentResponse(est))
}

func (h *Handler) respondError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "establishment")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid input")
	default:
		h.logger.Error("establishment request failed",
			"path", r.URL.Path,
			"error", err,
		)
		core.InternalServerError(w, err)
	}
}
