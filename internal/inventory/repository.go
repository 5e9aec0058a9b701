// Platewise | 2026
// repository.go

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platewise/backend/internal/core"
)

type Repository interface {
	CreateItem(ctx context.Context, item *StockItem) error
	GetItem(ctx context.Context, establishmentID, id string) (*StockItem, error)
	ListItems(ctx context.Context, establishmentID string) ([]StockItem, error)
	ListLowStock(
		ctx context.Context,
		establishmentID string,
	) ([]StockItem, error)
	CountItems(ctx context.Context, establishmentID string) (int, error)
	UpdateItem(ctx context.Context, item *StockItem) error
	AdjustQuantity(
		ctx context.Context,
		establishmentID, id string,
		delta float64,
	) (*StockItem, error)
	DeleteItem(ctx context.Context, establishmentID, id string) error

	CreateWaste(ctx context.Context, entry *WasteEntry) error
	ListWaste(
		ctx context.Context,
		establishmentID string,
		limit, offset int,
	) ([]WasteEntry, error)
	CountWaste(ctx context.Context, establishmentID string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const itemColumns = `id, establishment_id, name, category, unit, quantity,
	min_threshold, cost_per_unit, created_at, updated_at`

func (r *repository) CreateItem(ctx context.Context, item *StockItem) error {
	query := `
		INSERT INTO stock_items (
			id, establishment_id, name, category, unit,
			quantity, min_threshold, cost_per_unit
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, item, query,
		item.ID,
		item.EstablishmentID,
		item.Name,
		item.Category,
		item.Unit,
		item.Quantity,
		item.MinThreshold,
		item.CostPerUnit,
	)
	if err != nil {
		return fmt.Errorf("create stock item: %w", err)
	}

	return nil
}

func (r *repository) GetItem(
	ctx context.Context,
	establishmentID, id string,
) (*StockItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM stock_items
		WHERE id = $1 AND establishment_id = $2`

	var item StockItem
	err := r.db.GetContext(ctx, &item, query, id, establishmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stock item %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}

	return &item, nil
}

func (r *repository) ListItems(
	ctx context.Context,
	establishmentID string,
) ([]StockItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM stock_items
		WHERE establishment_id = $1
		ORDER BY category, name`

	items := []StockItem{}
	err := r.db.SelectContext(ctx, &items, query, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}

	return items, nil
}

func (r *repository) ListLowStock(
	ctx context.Context,
	establishmentID string,
) ([]StockItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM stock_items
		WHERE establishment_id = $1
		  AND quantity <= min_threshold
		ORDER BY category, name`

	items := []StockItem{}
	err := r.db.SelectContext(ctx, &items, query, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("list low stock items: %w", err)
	}

	return items, nil
}

func (r *repository) CountItems(
	ctx context.Context,
	establishmentID string,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM stock_items
		WHERE establishment_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, establishmentID); err != nil {
		return 0, fmt.Errorf("count stock items: %w", err)
	}

	return count, nil
}

func (r *repository) UpdateItem(ctx context.Context, item *StockItem) error {
	query := `
		UPDATE stock_items
		SET name = $3, category = $4, unit = $5,
		    min_threshold = $6, cost_per_unit = $7, updated_at = NOW()
		WHERE id = $1 AND establishment_id = $2`

	result, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.EstablishmentID,
		item.Name,
		item.Category,
		item.Unit,
		item.MinThreshold,
		item.CostPerUnit,
	)
	if err != nil {
		return fmt.Errorf("update stock item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock item rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stock item %s: %w", item.ID, core.ErrNotFound)
	}

	return nil
}

// AdjustQuantity applies a signed delta and clamps the result at zero in the
// same statement, so concurrent adjustments cannot drive the quantity
// negative.
func (r *repository) AdjustQuantity(
	ctx context.Context,
	establishmentID, id string,
	delta float64,
) (*StockItem, error) {
	query := `
		UPDATE stock_items
		SET quantity = GREATEST(quantity + $3, 0), updated_at = NOW()
		WHERE id = $1 AND establishment_id = $2
		RETURNING ` + itemColumns

	var item StockItem
	err := r.db.GetContext(ctx, &item, query, id, establishmentID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stock item %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock quantity: %w", err)
	}

	return &item, nil
}

func (r *repository) DeleteItem(
	ctx context.Context,
	establishmentID, id string,
) error {
	query := `
		DELETE FROM stock_items
		WHERE id = $1 AND establishment_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, establishmentID)
	if err != nil {
		return fmt.Errorf("delete stock item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete stock item rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stock item %s: %w", id, core.ErrNotFound)
	}

	return nil
}

func (r *repository) CreateWaste(
	ctx context.Context,
	entry *WasteEntry,
) error {
	query := `
		INSERT INTO waste_entries (
			id, establishment_id, stock_item_id, member_id, quantity, reason
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID,
		entry.EstablishmentID,
		entry.StockItemID,
		entry.MemberID,
		entry.Quantity,
		entry.Reason,
	)
	if err != nil {
		return fmt.Errorf("create waste entry: %w", err)
	}

	return nil
}

func (r *repository) ListWaste(
	ctx context.Context,
	establishmentID string,
	limit, offset int,
) ([]WasteEntry, error) {
	query := `
		SELECT id, establishment_id, stock_item_id, member_id,
		       quantity, reason, created_at
		FROM waste_entries
		WHERE establishment_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	entries := []WasteEntry{}
	err := r.db.SelectContext(ctx, &entries, query,
		establishmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list waste entries: %w", err)
	}

	return entries, nil
}

func (r *repository) CountWaste(
	ctx context.Context,
	establishmentID string,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM waste_entries
		WHERE establishment_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, establishmentID); err != nil {
		return 0, fmt.Errorf("count waste entries: %w", err)
	}

	return count, nil
}
