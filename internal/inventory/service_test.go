// Platewise | 2026
// service_test.go

package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/establishment"
)

type fakeItemRepo struct {
	items map[string]*StockItem
	waste []WasteEntry
}

func newFakeItemRepo(items ...*StockItem) *fakeItemRepo {
	repo := &fakeItemRepo{items: make(map[string]*StockItem)}
	for _, item := range items {
		clone := *item
		repo.items[item.ID] = &clone
	}
	return repo
}

func (r *fakeItemRepo) CreateItem(_ context.Context, item *StockItem) error {
	clone := *item
	r.items[item.ID] = &clone
	return nil
}

func (r *fakeItemRepo) GetItem(
	_ context.Context,
	establishmentID, id string,
) (*StockItem, error) {
	item, ok := r.items[id]
	if !ok || item.EstablishmentID != establishmentID {
		return nil, fmt.Errorf("stock item %s: %w", id, core.ErrNotFound)
	}
	clone := *item
	return &clone, nil
}

func (r *fakeItemRepo) ListItems(
	_ context.Context,
	establishmentID string,
) ([]StockItem, error) {
	var out []StockItem
	for _, item := range r.items {
		if item.EstablishmentID == establishmentID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) ListLowStock(
	_ context.Context,
	establishmentID string,
) ([]StockItem, error) {
	var out []StockItem
	for _, item := range r.items {
		if item.EstablishmentID == establishmentID && item.IsLowStock() {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) CountItems(
	_ context.Context,
	establishmentID string,
) (int, error) {
	count := 0
	for _, item := range r.items {
		if item.EstablishmentID == establishmentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeItemRepo) UpdateItem(_ context.Context, item *StockItem) error {
	existing, ok := r.items[item.ID]
	if !ok {
		return fmt.Errorf("stock item %s: %w", item.ID, core.ErrNotFound)
	}
	clone := *item
	clone.Quantity = existing.Quantity
	r.items[item.ID] = &clone
	return nil
}

func (r *fakeItemRepo) AdjustQuantity(
	_ context.Context,
	establishmentID, id string,
	delta float64,
) (*StockItem, error) {
	item, ok := r.items[id]
	if !ok || item.EstablishmentID != establishmentID {
		return nil, fmt.Errorf("stock item %s: %w", id, core.ErrNotFound)
	}
	item.Quantity += delta
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	clone := *item
	return &clone, nil
}

func (r *fakeItemRepo) DeleteItem(
	_ context.Context,
	establishmentID, id string,
) error {
	item, ok := r.items[id]
	if !ok || item.EstablishmentID != establishmentID {
		return fmt.Errorf("stock item %s: %w", id, core.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) CreateWaste(_ context.Context, entry *WasteEntry) error {
	r.waste = append(r.waste, *entry)
	return nil
}

func (r *fakeItemRepo) ListWaste(
	_ context.Context,
	establishmentID string,
	limit, offset int,
) ([]WasteEntry, error) {
	var out []WasteEntry
	for _, entry := range r.waste {
		if entry.EstablishmentID == establishmentID {
			out = append(out, entry)
		}
	}
	if offset >= len(out) {
		return []WasteEntry{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeItemRepo) CountWaste(
	_ context.Context,
	establishmentID string,
) (int, error) {
	count := 0
	for _, entry := range r.waste {
		if entry.EstablishmentID == establishmentID {
			count++
		}
	}
	return count, nil
}

type fakeEstablishments struct {
	plan string
}

func (f fakeEstablishments) Get(
	_ context.Context,
	establishmentID string,
) (*establishment.Establishment, error) {
	return &establishment.Establishment{
		ID:   establishmentID,
		Name: "Test Kitchen",
		Plan: f.plan,
	}, nil
}

const testEstablishmentID = "11111111-1111-1111-1111-111111111111"

func testItem(id string, quantity, threshold float64) *StockItem {
	return &StockItem{
		ID:              id,
		EstablishmentID: testEstablishmentID,
		Name:            "Item " + id,
		Category:        "produce",
		Unit:            "kg",
		Quantity:        quantity,
		MinThreshold:    threshold,
		CreatedAt:       time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestService(repo Repository, plan string) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(nil, repo, fakeEstablishments{plan: plan}, logger)
}

func TestCreateItemWithinPlanCap(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo()
	svc := newTestService(repo, establishment.PlanFree)

	item, err := svc.CreateItem(context.Background(), testEstablishmentID,
		CreateItemRequest{
			Name:         "Tomatoes",
			Category:     "produce",
			Unit:         "kg",
			Quantity:     12,
			MinThreshold: 3,
		})
	if err != nil {
		t.Fatalf("CreateItem returned error: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("created item has no id")
	}
	if item.EstablishmentID != testEstablishmentID {
		t.Fatalf("item assigned to %q", item.EstablishmentID)
	}
}

func TestCreateItemFreePlanCap(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo()
	for i := 0; i < establishment.MaxStockItems(establishment.PlanFree); i++ {
		item := testItem(fmt.Sprintf("item-%03d", i), 1, 0)
		repo.items[item.ID] = item
	}
	svc := newTestService(repo, establishment.PlanFree)

	_, err := svc.CreateItem(context.Background(), testEstablishmentID,
		CreateItemRequest{Name: "One too many", Category: "misc", Unit: "pcs"})
	if !errors.Is(err, core.ErrPlanLimit) {
		t.Fatalf("error = %v, want ErrPlanLimit", err)
	}
}

func TestCreateItemProPlanExceedsFreeCap(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo()
	for i := 0; i < establishment.MaxStockItems(establishment.PlanFree); i++ {
		item := testItem(fmt.Sprintf("item-%03d", i), 1, 0)
		repo.items[item.ID] = item
	}
	svc := newTestService(repo, establishment.PlanPro)

	_, err := svc.CreateItem(context.Background(), testEstablishmentID,
		CreateItemRequest{Name: "Saffron", Category: "spices", Unit: "g"})
	if err != nil {
		t.Fatalf("pro plan should accept item %d: %v",
			establishment.MaxStockItems(establishment.PlanFree)+1, err)
	}
}

func TestAdjustQuantityClampsAtZero(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo(testItem("flour", 5, 2))
	svc := newTestService(repo, establishment.PlanFree)

	item, err := svc.AdjustQuantity(context.Background(), testEstablishmentID,
		"flour", AdjustQuantityRequest{Delta: -20})
	if err != nil {
		t.Fatalf("AdjustQuantity returned error: %v", err)
	}
	if item.Quantity != 0 {
		t.Fatalf("quantity = %v, want 0", item.Quantity)
	}
}

func TestAdjustQuantityRejectsZeroDelta(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo(testItem("flour", 5, 2))
	svc := newTestService(repo, establishment.PlanFree)

	_, err := svc.AdjustQuantity(context.Background(), testEstablishmentID,
		"flour", AdjustQuantityRequest{Delta: 0})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestListLowStock(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo(
		testItem("low", 2, 5),
		testItem("edge", 5, 5),
		testItem("fine", 10, 5),
	)
	svc := newTestService(repo, establishment.PlanFree)

	items, err := svc.ListLowStock(context.Background(), testEstablishmentID)
	if err != nil {
		t.Fatalf("ListLowStock returned error: %v", err)
	}

	got := map[string]bool{}
	for _, item := range items {
		got[item.ID] = true
	}
	if !got["low"] || !got["edge"] {
		t.Errorf("items at or below threshold missing: %v", got)
	}
	if got["fine"] {
		t.Errorf("item above threshold reported as low stock")
	}
}

func TestListWastePagination(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo()
	for i := 0; i < 5; i++ {
		repo.waste = append(repo.waste, WasteEntry{
			ID:              fmt.Sprintf("waste-%d", i),
			EstablishmentID: testEstablishmentID,
			Quantity:        1,
			Reason:          "spoiled",
		})
	}
	svc := newTestService(repo, establishment.PlanFree)

	first, err := svc.ListWaste(
		context.Background(), testEstablishmentID, 1, 2)
	if err != nil {
		t.Fatalf("ListWaste returned error: %v", err)
	}
	if len(first.Entries) != 2 {
		t.Fatalf("page 1 has %d entries, want 2", len(first.Entries))
	}
	if first.Total != 5 {
		t.Fatalf("total = %d, want 5", first.Total)
	}
	if first.Page != 1 || first.PageSize != 2 {
		t.Fatalf("paging echoed as page=%d size=%d", first.Page, first.PageSize)
	}

	last, err := svc.ListWaste(
		context.Background(), testEstablishmentID, 3, 2)
	if err != nil {
		t.Fatalf("ListWaste returned error: %v", err)
	}
	if len(last.Entries) != 1 {
		t.Fatalf("page 3 has %d entries, want 1", len(last.Entries))
	}

	clamped, err := svc.ListWaste(
		context.Background(), testEstablishmentID, 0, -1)
	if err != nil {
		t.Fatalf("ListWaste returned error: %v", err)
	}
	if clamped.Page != 1 || clamped.PageSize != defaultWastePageSize {
		t.Fatalf("invalid paging clamped to page=%d size=%d",
			clamped.Page, clamped.PageSize)
	}
	if len(clamped.Entries) != 5 {
		t.Fatalf("clamped page has %d entries, want 5", len(clamped.Entries))
	}
}

func TestGetItemScopedToEstablishment(t *testing.T) {
	t.Parallel()

	repo := newFakeItemRepo(testItem("flour", 5, 2))
	svc := newTestService(repo, establishment.PlanFree)

	_, err := svc.GetItem(context.Background(), "other-establishment", "flour")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
