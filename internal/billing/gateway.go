// Platewise | 2026
// gateway.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/platewise/backend/internal/config"
)

var (
	ErrProviderDown = errors.New("billing provider unavailable")
	ErrNoCustomer   = errors.New("establishment has no billing customer")
)

// Gateway is the slice of the billing provider the service depends on, so
// tests can substitute a fake without touching the network.
type Gateway interface {
	CreateCustomer(
		ctx context.Context,
		email, establishmentID string,
	) (string, error)
	CreateCheckoutSession(
		ctx context.Context,
		customerID, establishmentID string,
	) (string, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

type StripeGateway struct {
	client *client.API
	config config.StripeConfig
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	return &StripeGateway{client: sc, config: cfg}
}

func (g *StripeGateway) CreateCustomer(
	ctx context.Context,
	email, establishmentID string,
) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"establishment_id": establishmentID,
		},
	}
	params.Context = ctx

	customer, err := g.client.Customers.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}

	return customer.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(
	ctx context.Context,
	customerID, establishmentID string,
) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(g.config.SuccessURL),
		CancelURL:  stripe.String(g.config.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(g.config.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"establishment_id": establishmentID,
		},
	}
	params.Context = ctx

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}

	return session.URL, nil
}

func (g *StripeGateway) CreatePortalSession(
	ctx context.Context,
	customerID string,
) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.config.PortalURL),
	}
	params.Context = ctx

	session, err := g.client.BillingPortalSessions.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}

	return session.URL, nil
}

// mapStripeError keeps provider error types out of the service layer.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrProviderDown, stripeErr.Msg)
		}
		return fmt.Errorf("billing provider rejected request: %s", stripeErr.Msg)
	}
	return fmt.Errorf("billing gateway: %w", err)
}
