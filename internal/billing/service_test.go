// Platewise | 2026
// service_test.go

package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stripe/stripe-go/v79"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/establishment"
	"github.com/platewise/backend/internal/member"
)

type fakeEstablishmentRepo struct {
	establishments map[string]*establishment.Establishment
}

func newFakeEstablishmentRepo(
	ests ...*establishment.Establishment,
) *fakeEstablishmentRepo {
	repo := &fakeEstablishmentRepo{
		establishments: make(map[string]*establishment.Establishment),
	}
	for _, est := range ests {
		clone := *est
		repo.establishments[est.ID] = &clone
	}
	return repo
}

func (r *fakeEstablishmentRepo) Create(
	_ context.Context,
	est *establishment.Establishment,
) error {
	clone := *est
	r.establishments[est.ID] = &clone
	return nil
}

func (r *fakeEstablishmentRepo) GetByID(
	_ context.Context,
	id string,
) (*establishment.Establishment, error) {
	est, ok := r.establishments[id]
	if !ok {
		return nil, fmt.Errorf("establishment %s: %w", id, core.ErrNotFound)
	}
	clone := *est
	return &clone, nil
}

func (r *fakeEstablishmentRepo) GetByStripeCustomerID(
	_ context.Context,
	customerID string,
) (*establishment.Establishment, error) {
	for _, est := range r.establishments {
		if est.StripeCustomerID != nil && *est.StripeCustomerID == customerID {
			clone := *est
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("customer %s: %w", customerID, core.ErrNotFound)
}

func (r *fakeEstablishmentRepo) UpdateName(
	_ context.Context,
	id, name string,
) error {
	est, ok := r.establishments[id]
	if !ok {
		return fmt.Errorf("establishment %s: %w", id, core.ErrNotFound)
	}
	est.Name = name
	return nil
}

func (r *fakeEstablishmentRepo) SetStripeCustomerID(
	_ context.Context,
	id, customerID string,
) error {
	est, ok := r.establishments[id]
	if !ok {
		return fmt.Errorf("establishment %s: %w", id, core.ErrNotFound)
	}
	est.StripeCustomerID = &customerID
	return nil
}

func (r *fakeEstablishmentRepo) UpdateSubscription(
	_ context.Context,
	id, plan, status string,
) error {
	est, ok := r.establishments[id]
	if !ok {
		return fmt.Errorf("establishment %s: %w", id, core.ErrNotFound)
	}
	est.Plan = plan
	est.SubscriptionStatus = status
	return nil
}

func (r *fakeEstablishmentRepo) Count(_ context.Context) (int, error) {
	return len(r.establishments), nil
}

type fakeGateway struct {
	customers int
	failAll   bool
}

func (g *fakeGateway) CreateCustomer(
	_ context.Context,
	email, establishmentID string,
) (string, error) {
	if g.failAll {
		return "", ErrProviderDown
	}
	g.customers++
	return fmt.Sprintf("cus_test_%03d", g.customers), nil
}

func (g *fakeGateway) CreateCheckoutSession(
	_ context.Context,
	customerID, establishmentID string,
) (string, error) {
	if g.failAll {
		return "", ErrProviderDown
	}
	return "https://checkout.example.com/" + customerID, nil
}

func (g *fakeGateway) CreatePortalSession(
	_ context.Context,
	customerID string,
) (string, error) {
	if g.failAll {
		return "", ErrProviderDown
	}
	return "https://portal.example.com/" + customerID, nil
}

const testEstablishmentID = "11111111-1111-1111-1111-111111111111"

func testEstablishment() *establishment.Establishment {
	return &establishment.Establishment{
		ID:                 testEstablishmentID,
		Name:               "Test Kitchen",
		Plan:               establishment.PlanFree,
		SubscriptionStatus: establishment.SubscriptionNone,
	}
}

func testRequester() *member.Member {
	return &member.Member{
		ID:    "aaaaaaaa-0000-0000-0000-000000000001",
		Email: "owner@example.com",
		Role:  member.RoleManager,
	}
}

func newTestService(
	gateway Gateway,
	repo establishment.Repository,
) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(gateway, repo, logger)
}

func subscriptionEvent(
	t *testing.T,
	eventType, customerID string,
	status stripe.SubscriptionStatus,
) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"customer": map[string]any{"id": customerID},
		"status":   status,
	})
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestStartCheckoutCreatesCustomerOnce(t *testing.T) {
	t.Parallel()

	repo := newFakeEstablishmentRepo(testEstablishment())
	gateway := &fakeGateway{}
	svc := newTestService(gateway, repo)

	ctx := context.Background()

	url, err := svc.StartCheckout(ctx, testEstablishmentID, testRequester())
	if err != nil {
		t.Fatalf("StartCheckout returned error: %v", err)
	}
	if url == "" {
		t.Fatalf("checkout URL is empty")
	}

	est, _ := repo.GetByID(ctx, testEstablishmentID)
	if est.StripeCustomerID == nil {
		t.Fatalf("customer id not persisted")
	}
	firstCustomer := *est.StripeCustomerID

	if _, err := svc.StartCheckout(ctx, testEstablishmentID, testRequester()); err != nil {
		t.Fatalf("second StartCheckout returned error: %v", err)
	}
	if gateway.customers != 1 {
		t.Fatalf("created %d customers, want 1", gateway.customers)
	}

	est, _ = repo.GetByID(ctx, testEstablishmentID)
	if *est.StripeCustomerID != firstCustomer {
		t.Fatalf("customer id changed between checkouts")
	}
}

func TestStartCheckoutProviderDown(t *testing.T) {
	t.Parallel()

	repo := newFakeEstablishmentRepo(testEstablishment())
	svc := newTestService(&fakeGateway{failAll: true}, repo)

	_, err := svc.StartCheckout(
		context.Background(), testEstablishmentID, testRequester())
	if !errors.Is(err, ErrProviderDown) {
		t.Fatalf("error = %v, want ErrProviderDown", err)
	}
}

func TestOpenPortalWithoutCustomer(t *testing.T) {
	t.Parallel()

	repo := newFakeEstablishmentRepo(testEstablishment())
	svc := newTestService(&fakeGateway{}, repo)

	_, err := svc.OpenPortal(context.Background(), testEstablishmentID)
	if !errors.Is(err, ErrNoCustomer) {
		t.Fatalf("error = %v, want ErrNoCustomer", err)
	}
}

func TestOpenPortalWithCustomer(t *testing.T) {
	t.Parallel()

	est := testEstablishment()
	customerID := "cus_existing"
	est.StripeCustomerID = &customerID

	repo := newFakeEstablishmentRepo(est)
	svc := newTestService(&fakeGateway{}, repo)

	url, err := svc.OpenPortal(context.Background(), testEstablishmentID)
	if err != nil {
		t.Fatalf("OpenPortal returned error: %v", err)
	}
	if url != "https://portal.example.com/"+customerID {
		t.Fatalf("portal URL = %q", url)
	}
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	t.Parallel()

	est := testEstablishment()
	customerID := "cus_checkout"
	est.StripeCustomerID = &customerID

	repo := newFakeEstablishmentRepo(est)
	svc := newTestService(&fakeGateway{}, repo)

	event := subscriptionEvent(
		t, "checkout.session.completed", customerID, "")

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), testEstablishmentID)
	if got.Plan != establishment.PlanPro {
		t.Errorf("plan = %q, want %q", got.Plan, establishment.PlanPro)
	}
	if got.SubscriptionStatus != establishment.SubscriptionActive {
		t.Errorf("status = %q, want %q",
			got.SubscriptionStatus, establishment.SubscriptionActive)
	}
}

func TestHandleEventSubscriptionTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		status     stripe.SubscriptionStatus
		wantPlan   string
		wantStatus string
	}{
		{
			name:       "active",
			status:     stripe.SubscriptionStatusActive,
			wantPlan:   establishment.PlanPro,
			wantStatus: establishment.SubscriptionActive,
		},
		{
			name:       "trialing",
			status:     stripe.SubscriptionStatusTrialing,
			wantPlan:   establishment.PlanPro,
			wantStatus: establishment.SubscriptionActive,
		},
		{
			name:       "past due",
			status:     stripe.SubscriptionStatusPastDue,
			wantPlan:   establishment.PlanPro,
			wantStatus: establishment.SubscriptionPastDue,
		},
		{
			name:       "unpaid",
			status:     stripe.SubscriptionStatusUnpaid,
			wantPlan:   establishment.PlanPro,
			wantStatus: establishment.SubscriptionPastDue,
		},
		{
			name:       "canceled",
			status:     stripe.SubscriptionStatusCanceled,
			wantPlan:   establishment.PlanFree,
			wantStatus: establishment.SubscriptionCanceled,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			est := testEstablishment()
			customerID := "cus_" + tc.name
			est.StripeCustomerID = &customerID

			repo := newFakeEstablishmentRepo(est)
			svc := newTestService(&fakeGateway{}, repo)

			event := subscriptionEvent(
				t, "customer.subscription.updated", customerID, tc.status)

			if err := svc.HandleEvent(context.Background(), event); err != nil {
				t.Fatalf("HandleEvent returned error: %v", err)
			}

			got, _ := repo.GetByID(context.Background(), testEstablishmentID)
			if got.Plan != tc.wantPlan {
				t.Errorf("plan = %q, want %q", got.Plan, tc.wantPlan)
			}
			if got.SubscriptionStatus != tc.wantStatus {
				t.Errorf("status = %q, want %q",
					got.SubscriptionStatus, tc.wantStatus)
			}
		})
	}
}

func TestHandleEventSubscriptionDeleted(t *testing.T) {
	t.Parallel()

	est := testEstablishment()
	est.Plan = establishment.PlanPro
	est.SubscriptionStatus = establishment.SubscriptionActive
	customerID := "cus_deleted"
	est.StripeCustomerID = &customerID

	repo := newFakeEstablishmentRepo(est)
	svc := newTestService(&fakeGateway{}, repo)

	event := subscriptionEvent(
		t, "customer.subscription.deleted", customerID, "canceled")

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), testEstablishmentID)
	if got.Plan != establishment.PlanFree {
		t.Errorf("plan = %q, want %q", got.Plan, establishment.PlanFree)
	}
	if got.IsPro() {
		t.Errorf("establishment still reports pro after deletion")
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	t.Parallel()

	repo := newFakeEstablishmentRepo(testEstablishment())
	svc := newTestService(&fakeGateway{}, repo)

	event := stripe.Event{
		Type: "invoice.finalized",
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
}
