// Platewise | 2026
// handler.go

package member

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

func (h *Handler) RegisterTeamRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireManager).Post("/change-role", h.ChangeRole)
	r.With(middleware.RequireManager).Post("/remove", h.Remove)
}

func (h *Handler) RegisterPresenceRoutes(r chi.Router) {
	r.Post("/heartbeat", h.Heartbeat)
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	requesterID := middleware.GetMemberID(r.Context())

	updated, err := h.service.ChangeRole(r.Context(), requesterID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, RosterActionResponse{
		Success: true,
		Message: "role updated",
		Member:  ToMemberResponse(updated),
	})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	requesterID := middleware.GetMemberID(r.Context())

	updated, err := h.service.RemoveMember(r.Context(), requesterID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, RosterActionResponse{
		Success: true,
		Message: "member removed",
		Member:  ToMemberResponse(updated),
	})
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())

	if err := h.service.Heartbeat(r.Context(), memberID); err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, HeartbeatResponse{Success: true})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetMemberID(r.Context())

	entries, err := h.service.ListWithPresence(r.Context(), requesterID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, TeamResponse{Members: ToPresenceResponse(entries)})
}

func (h *Handler) respondError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrLastManager):
		core.JSONError(w, core.LastManagerError())
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "member")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		h.logger.Error("team request failed",
			"path", r.URL.Path,
			"error", err,
		)
		core.InternalServerError(w, err)
	}
}
