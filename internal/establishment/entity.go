// Platewise | 2026
// entity.go

package establishment

import (
	"time"
)

type Establishment struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	Plan               string     `db:"plan"`
	StripeCustomerID   *string    `db:"stripe_customer_id"`
	SubscriptionStatus string     `db:"subscription_status"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	DeletedAt          *time.Time `db:"deleted_at"`
}

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

const (
	SubscriptionNone     = "none"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

func (e *Establishment) IsPro() bool {
	return e.Plan == PlanPro && e.SubscriptionStatus == SubscriptionActive
}

// MaxStockItems is the per-plan cap on tracked stock items.
func MaxStockItems(plan string) int {
	if plan == PlanPro {
		return 2000
	}
	return 50
}
