// Platewise | 2026
// handler.go

package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/member"
	"github.com/platewise/backend/internal/middleware"
)

const maxWebhookBody = 65536

type CheckoutResponse struct {
	URL string `json:"url"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

// MemberSource resolves the requesting member for customer creation.
type MemberSource interface {
	FindByID(ctx context.Context, id string) (*member.Member, error)
}

type Handler struct {
	service       *Service
	members       MemberSource
	webhookSecret string
	logger        *slog.Logger
}

func NewHandler(
	service *Service,
	members MemberSource,
	webhookSecret string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:       service,
		members:       members,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireManager).Post("/checkout", h.Checkout)
	r.With(middleware.RequireManager).Post("/portal", h.Portal)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r.Context())
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if memberID == "" || establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	requester, err := h.members.FindByID(r.Context(), memberID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	url, err := h.service.StartCheckout(r.Context(), establishmentID, requester)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, CheckoutResponse{URL: url})
}

func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	establishmentID := middleware.GetEstablishmentID(r.Context())
	if establishmentID == "" {
		core.Unauthorized(w, "")
		return
	}

	url, err := h.service.OpenPortal(r.Context(), establishmentID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	core.OK(w, PortalResponse{URL: url})
}

// Webhook verifies the provider signature before applying the event. It is
// mounted outside the authenticated router.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		core.BadRequest(w, "unable to read payload")
		return
	}

	event, err := webhook.ConstructEvent(
		payload,
		r.Header.Get("Stripe-Signature"),
		h.webhookSecret,
	)
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		core.BadRequest(w, "invalid signature")
		return
	}

	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		h.logger.Error("webhook event failed",
			"type", event.Type,
			"error", err,
		)
		core.InternalServerError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) respondError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, ErrNoCustomer):
		core.BadRequest(w, "no billing customer for establishment")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "establishment")
	case errors.Is(err, ErrProviderDown):
		h.logger.Error("billing provider unavailable", "error", err)
		core.JSONError(w, core.NewAppError(
			ErrProviderDown,
			"billing provider unavailable, try again later",
			http.StatusBadGateway,
			"PROVIDER_UNAVAILABLE",
		))
	default:
		h.logger.Error("billing request failed",
			"path", r.URL.Path,
			"error", err,
		)
		core.InternalServerError(w, err)
	}
}
