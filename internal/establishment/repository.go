// Platewise | 2026
// repository.go

package establishment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platewise/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, est *Establishment) error
	GetByID(ctx context.Context, id string) (*Establishment, error)
	GetByStripeCustomerID(
		ctx context.Context,
		customerID string,
	) (*Establishment, error)
	UpdateName(ctx context.Context, id, name string) error
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
	UpdateSubscription(ctx context.Context, id, plan, status string) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, est *Establishment) error {
	query := `
		INSERT INTO establishments (id, name, plan, subscription_status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, est, query,
		est.ID,
		est.Name,
		est.Plan,
		est.SubscriptionStatus,
	)
	if err != nil {
		return fmt.Errorf("create establishment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Establishment, error) {
	query := `
		SELECT id, name, plan, stripe_customer_id, subscription_status,
		       created_at, updated_at, deleted_at
		FROM establishments
		WHERE id = $1 AND deleted_at IS NULL`

	var est Establishment
	err := r.db.GetContext(ctx, &est, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get establishment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get establishment: %w", err)
	}

	return &est, nil
}

func (r *repository) GetByStripeCustomerID(
	ctx context.Context,
	customerID string,
) (*Establishment, error) {
	query := `
		SELECT id, name, plan, stripe_customer_id, subscription_status,
		       created_at, updated_at, deleted_at
		FROM establishments
		WHERE stripe_customer_id = $1 AND deleted_at IS NULL`

	var est Establishment
	err := r.db.GetContext(ctx, &est, query, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf(
			"get establishment by customer: %w",
			core.ErrNotFound,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get establishment by customer: %w", err)
	}

	return &est, nil
}

func (r *repository) UpdateName(ctx context.Context, id, name string) error {
	query := `
		UPDATE establishments
		SET name = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("update establishment name: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update establishment name: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update establishment name: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetStripeCustomerID(
	ctx context.Context,
	id, customerID string,
) error {
	query := `
		UPDATE establishments
		SET stripe_customer_id = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, customerID)
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set stripe customer: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdateSubscription(
	ctx context.Context,
	id, plan, status string,
) error {
	query := `
		UPDATE establishments
		SET plan = $2, subscription_status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, plan, status)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update subscription: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM establishments WHERE deleted_at IS NULL`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count establishments: %w", err)
	}

	return count, nil
}
