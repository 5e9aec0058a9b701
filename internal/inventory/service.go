// Platewise | 2026
// service.go

package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/establishment"
)

// EstablishmentSource resolves the tenant for plan gating.
type EstablishmentSource interface {
	Get(
		ctx context.Context,
		establishmentID string,
	) (*establishment.Establishment, error)
}

type Service struct {
	db             *sqlx.DB
	repo           Repository
	establishments EstablishmentSource
	logger         *slog.Logger
}

func NewService(
	db *sqlx.DB,
	repo Repository,
	establishments EstablishmentSource,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:             db,
		repo:           repo,
		establishments: establishments,
		logger:         logger,
	}
}

// CreateItem adds a stock item, subject to the plan's item cap.
func (s *Service) CreateItem(
	ctx context.Context,
	establishmentID string,
	req CreateItemRequest,
) (*StockItem, error) {
	est, err := s.establishments.Get(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	count, err := s.repo.CountItems(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if count >= establishment.MaxStockItems(est.Plan) {
		return nil, fmt.Errorf(
			"create item: item cap for plan %q reached: %w",
			est.Plan,
			core.ErrPlanLimit,
		)
	}

	item := &StockItem{
		ID:              uuid.NewString(),
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Category:        req.Category,
		Unit:            req.Unit,
		Quantity:        req.Quantity,
		MinThreshold:    req.MinThreshold,
		CostPerUnit:     req.CostPerUnit,
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("stock item created",
		"item_id", item.ID,
		"establishment_id", establishmentID,
	)

	return item, nil
}

func (s *Service) GetItem(
	ctx context.Context,
	establishmentID, id string,
) (*StockItem, error) {
	return s.repo.GetItem(ctx, establishmentID, id)
}

func (s *Service) ListItems(
	ctx context.Context,
	establishmentID string,
) ([]StockItem, error) {
	return s.repo.ListItems(ctx, establishmentID)
}

func (s *Service) ListLowStock(
	ctx context.Context,
	establishmentID string,
) ([]StockItem, error) {
	return s.repo.ListLowStock(ctx, establishmentID)
}

func (s *Service) UpdateItem(
	ctx context.Context,
	establishmentID, id string,
	req UpdateItemRequest,
) (*StockItem, error) {
	item, err := s.repo.GetItem(ctx, establishmentID, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.Category = req.Category
	item.Unit = req.Unit
	item.MinThreshold = req.MinThreshold
	item.CostPerUnit = req.CostPerUnit

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return s.repo.GetItem(ctx, establishmentID, id)
}

func (s *Service) AdjustQuantity(
	ctx context.Context,
	establishmentID, id string,
	req AdjustQuantityRequest,
) (*StockItem, error) {
	if req.Delta == 0 {
		return nil, fmt.Errorf(
			"adjust quantity: delta must be non-zero: %w",
			core.ErrInvalidInput,
		)
	}

	return s.repo.AdjustQuantity(ctx, establishmentID, id, req.Delta)
}

func (s *Service) DeleteItem(
	ctx context.Context,
	establishmentID, id string,
) error {
	return s.repo.DeleteItem(ctx, establishmentID, id)
}

// RecordWaste logs a waste entry and deducts the wasted quantity from the
// item in one transaction.
func (s *Service) RecordWaste(
	ctx context.Context,
	establishmentID, memberID string,
	req RecordWasteRequest,
) (*WasteEntry, error) {
	entry := &WasteEntry{
		ID:              uuid.NewString(),
		EstablishmentID: establishmentID,
		StockItemID:     req.StockItemID,
		MemberID:        memberID,
		Quantity:        req.Quantity,
		Reason:          req.Reason,
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		if _, err := txRepo.GetItem(ctx, establishmentID, req.StockItemID); err != nil {
			return err
		}

		if err := txRepo.CreateWaste(ctx, entry); err != nil {
			return err
		}

		_, err := txRepo.AdjustQuantity(
			ctx,
			establishmentID,
			req.StockItemID,
			-req.Quantity,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record waste: %w", err)
	}

	s.logger.Info("waste recorded",
		"item_id", req.StockItemID,
		"establishment_id", establishmentID,
		"quantity", req.Quantity,
	)

	return entry, nil
}

const (
	defaultWastePageSize = 50
	maxWastePageSize     = 200
)

// WastePage is one page of the waste log with the clamped paging values the
// response echoes back.
type WastePage struct {
	Entries  []WasteEntry
	Page     int
	PageSize int
	Total    int
}

// ListWaste returns one page of the waste log, newest first.
func (s *Service) ListWaste(
	ctx context.Context,
	establishmentID string,
	page, pageSize int,
) (*WastePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultWastePageSize
	}
	if pageSize > maxWastePageSize {
		pageSize = maxWastePageSize
	}

	total, err := s.repo.CountWaste(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}

	entries, err := s.repo.ListWaste(
		ctx,
		establishmentID,
		pageSize,
		(page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}

	return &WastePage{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}
