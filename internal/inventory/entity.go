// Platewise | 2026
// entity.go

package inventory

import (
	"time"
)

type StockItem struct {
	ID              string    `db:"id" json:"id"`
	EstablishmentID string    `db:"establishment_id" json:"establishment_id"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	Unit            string    `db:"unit" json:"unit"`
	Quantity        float64   `db:"quantity" json:"quantity"`
	MinThreshold    float64   `db:"min_threshold" json:"min_threshold"`
	CostPerUnit     float64   `db:"cost_per_unit" json:"cost_per_unit"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsLowStock reports whether the item has fallen to or below its threshold.
func (i *StockItem) IsLowStock() bool {
	return i.Quantity <= i.MinThreshold
}

type WasteEntry struct {
	ID              string    `db:"id" json:"id"`
	EstablishmentID string    `db:"establishment_id" json:"establishment_id"`
	StockItemID     string    `db:"stock_item_id" json:"stock_item_id"`
	MemberID        string    `db:"member_id" json:"member_id"`
	Quantity        float64   `db:"quantity" json:"quantity"`
	Reason          string    `db:"reason" json:"reason"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
