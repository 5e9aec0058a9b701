// Platewise | 2026
// handler.go

package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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
	r.Get("/items", h.ListItems)
	r.Get("/items/low-stock", h.ListLowStock)
	r.Get("/items/{itemID}", h.GetItem)
	r.Post("/items/{itemID}/adjust", h.AdjustQuantity)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireManager)
		r.Post("/items", h.CreateItem)
		r.Put("/items/{itemID}", h.UpdateItem)
		r.Delete("/items/{itemID}", h.DeleteItem)
	})

	r.Post("/waste", h.RecordWaste)
	r.Get("/waste", h.ListWaste)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	item, err := h.service.CreateItem(r.Context(), establishmentID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.Created(w, item)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	item, err := h.service.GetItem(
		r.Context(),
		establishmentID,
		chi.URLParam(r, "itemID"),
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, item)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	items, err := h.service.ListItems(r.Context(), establishmentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, ItemListResponse{Items: items})
}

func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	items, err := h.service.ListLowStock(r.Context(), establishmentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, ItemListResponse{Items: items})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	item, err := h.service.UpdateItem(
		r.Context(),
		establishmentID,
		chi.URLParam(r, "itemID"),
		req,
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, item)
}

func (h *Handler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req AdjustQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	item, err := h.service.AdjustQuantity(
		r.Context(),
		establishmentID,
		chi.URLParam(r, "itemID"),
		req,
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	err := h.service.DeleteItem(
		r.Context(),
		establishmentID,
		chi.URLParam(r, "itemID"),
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RecordWaste(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	memberID := middleware.GetMemberID(r.Context())
	if establishmentID == "" || memberID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req RecordWasteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	entry, err := h.service.RecordWaste(
		r.Context(),
		establishmentID,
		memberID,
		req,
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.Created(w, entry)
}

func (h *Handler) ListWaste(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.service.ListWaste(
		r.Context(),
		establishmentID,
		page,
		pageSize,
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.Paginated(w, result.Entries, result.Page, result.PageSize, result.Total)
}

func (h *Handler) respondError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrPlanLimit):
		core.JSONError(
			w,
			core.PlanLimitError("stock item cap reached for current plan"),
		)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "stock item")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		h.logger.Error("inventory request failed",
			"path", r.URL.Path,
			"error", err,
		)
		core.InternalServerError(w, err)
	}
}
