// Platewise | 2026
// dto.go

package inventory

type CreateItemRequest struct {
	Name         string  `json:"name"          validate:"required,min=1,max=120"`
	Category     string  `json:"category"      validate:"required,min=1,max=60"`
	Unit         string  `json:"unit"          validate:"required,min=1,max=20"`
	Quantity     float64 `json:"quantity"      validate:"gte=0"`
	MinThreshold float64 `json:"min_threshold" validate:"gte=0"`
	CostPerUnit  float64 `json:"cost_per_unit" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Name         string  `json:"name"          validate:"required,min=1,max=120"`
	Category     string  `json:"category"      validate:"required,min=1,max=60"`
	Unit         string  `json:"unit"          validate:"required,min=1,max=20"`
	MinThreshold float64 `json:"min_threshold" validate:"gte=0"`
	CostPerUnit  float64 `json:"cost_per_unit" validate:"gte=0"`
}

// AdjustQuantityRequest applies a signed delta to an item's quantity. Any
// active member may adjust quantities; the result never goes below zero.
type AdjustQuantityRequest struct {
	Delta float64 `json:"delta" validate:"required"`
}

type RecordWasteRequest struct {
	StockItemID string  `json:"stock_item_id" validate:"required,uuid"`
	Quantity    float64 `json:"quantity"      validate:"required,gt=0"`
	Reason      string  `json:"reason"        validate:"required,min=1,max=255"`
}

type ItemListResponse struct {
	Items []StockItem `json:"items"`
}
