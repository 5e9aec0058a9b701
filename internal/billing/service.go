// Platewise | 2026
// service.go

package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v79"

	"github.com/platewise/backend/internal/establishment"
	"github.com/platewise/backend/internal/member"
)

type Service struct {
	gateway        Gateway
	establishments establishment.Repository
	logger         *slog.Logger
}

func NewService(
	gateway Gateway,
	establishments establishment.Repository,
	logger *slog.Logger,
) *Service {
	return &Service{
		gateway:        gateway,
		establishments: establishments,
		logger:         logger,
	}
}

// StartCheckout returns a hosted checkout URL for the pro plan, creating the
// billing customer on first use.
func (s *Service) StartCheckout(
	ctx context.Context,
	establishmentID string,
	requester *member.Member,
) (string, error) {
	est, err := s.establishments.GetByID(ctx, establishmentID)
	if err != nil {
		return "", fmt.Errorf("start checkout: %w", err)
	}

	customerID, err := s.ensureCustomer(ctx, est, requester.Email)
	if err != nil {
		return "", fmt.Errorf("start checkout: %w", err)
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, customerID, est.ID)
	if err != nil {
		return "", fmt.Errorf("start checkout: %w", err)
	}

	return url, nil
}

// OpenPortal returns a billing-portal URL for subscription management.
func (s *Service) OpenPortal(
	ctx context.Context,
	establishmentID string,
) (string, error) {
	est, err := s.establishments.GetByID(ctx, establishmentID)
	if err != nil {
		return "", fmt.Errorf("open portal: %w", err)
	}

	if est.StripeCustomerID == nil {
		return "", fmt.Errorf("open portal: %w", ErrNoCustomer)
	}

	url, err := s.gateway.CreatePortalSession(ctx, *est.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("open portal: %w", err)
	}

	return url, nil
}

func (s *Service) ensureCustomer(
	ctx context.Context,
	est *establishment.Establishment,
	email string,
) (string, error) {
	if est.StripeCustomerID != nil {
		return *est.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, email, est.ID)
	if err != nil {
		return "", err
	}

	err = s.establishments.SetStripeCustomerID(ctx, est.ID, customerID)
	if err != nil {
		return "", err
	}

	return customerID, nil
}

// HandleEvent applies a verified provider event to the tenant's plan state.
// Unrecognized event types are acknowledged and dropped.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("parse checkout session: %w", err)
		}
		if session.Customer == nil {
			return nil
		}
		return s.activatePro(ctx, session.Customer.ID)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		if sub.Customer == nil {
			return nil
		}
		return s.applySubscriptionStatus(ctx, sub.Customer.ID, sub.Status)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("parse subscription: %w", err)
		}
		if sub.Customer == nil {
			return nil
		}
		return s.downgrade(ctx, sub.Customer.ID)

	default:
		s.logger.Debug("ignoring billing event", "type", event.Type)
		return nil
	}
}

func (s *Service) activatePro(ctx context.Context, customerID string) error {
	est, err := s.establishments.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("activate pro: %w", err)
	}

	err = s.establishments.UpdateSubscription(
		ctx,
		est.ID,
		establishment.PlanPro,
		establishment.SubscriptionActive,
	)
	if err != nil {
		return fmt.Errorf("activate pro: %w", err)
	}

	s.logger.Info("subscription activated", "establishment_id", est.ID)
	return nil
}

func (s *Service) applySubscriptionStatus(
	ctx context.Context,
	customerID string,
	status stripe.SubscriptionStatus,
) error {
	est, err := s.establishments.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("apply subscription status: %w", err)
	}

	plan := establishment.PlanPro
	var subStatus string

	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		subStatus = establishment.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		subStatus = establishment.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled:
		plan = establishment.PlanFree
		subStatus = establishment.SubscriptionCanceled
	default:
		subStatus = establishment.SubscriptionPastDue
	}

	err = s.establishments.UpdateSubscription(ctx, est.ID, plan, subStatus)
	if err != nil {
		return fmt.Errorf("apply subscription status: %w", err)
	}

	s.logger.Info("subscription updated",
		"establishment_id", est.ID,
		"status", subStatus,
	)
	return nil
}

func (s *Service) downgrade(ctx context.Context, customerID string) error {
	est, err := s.establishments.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("downgrade: %w", err)
	}

	err = s.establishments.UpdateSubscription(
		ctx,
		est.ID,
		establishment.PlanFree,
		establishment.SubscriptionCanceled,
	)
	if err != nil {
		return fmt.Errorf("downgrade: %w", err)
	}

	s.logger.Info("subscription canceled", "establishment_id", est.ID)
	return nil
}
