// Platewise | 2026
// repository.go

package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/platewise/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	ListByEstablishment(
		ctx context.Context,
		establishmentID string,
	) ([]Member, error)
	CountActive(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, id, role string) error
	DemoteManager(
		ctx context.Context,
		id string,
		establishmentID string,
	) (bool, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateManager(
		ctx context.Context,
		id string,
		establishmentID string,
	) (bool, error)
	Touch(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id, firstName, lastName string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	BumpTokenVersion(ctx context.Context, id string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const memberColumns = `id, establishment_id, email, password_hash,
	first_name, last_name, role, is_active, token_version,
	last_activity_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (
			id, establishment_id, email, password_hash,
			first_name, last_name, role, is_active, token_version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, m, query,
		m.ID,
		m.EstablishmentID,
		m.Email,
		m.PasswordHash,
		m.FirstName,
		m.LastName,
		m.Role,
		m.IsActive,
		m.TokenVersion,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create member: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create member: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	var m Member
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}

	return &m, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`

	var m Member
	if err := r.db.GetContext(ctx, &m, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member by email: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get member by email: %w", err)
	}

	return &m, nil
}

func (r *repository) ListByEstablishment(
	ctx context.Context,
	establishmentID string,
) ([]Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE establishment_id = $1
		ORDER BY created_at DESC`

	members := []Member{}
	err := r.db.SelectContext(ctx, &members, query, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

func (r *repository) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM members WHERE is_active = TRUE`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}

	return count, nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `
		UPDATE members
		SET role = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member role rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}

	return nil
}

// DemoteManager demotes a manager to employee only while at least one other
// active manager remains in the establishment. The count is evaluated by the
// store inside the same statement, which closes the check-then-write race
// between two concurrent demotions. A false return with no error means the
// guard refused the demotion.
func (r *repository) DemoteManager(
	ctx context.Context,
	id string,
	establishmentID string,
) (bool, error) {
	query := `
		UPDATE members
		SET role = 'employee', updated_at = NOW()
		WHERE id = $1
		  AND role = 'manager'
		  AND (
			SELECT COUNT(*)
			FROM members m2
			WHERE m2.establishment_id = $2
			  AND m2.role = 'manager'
			  AND m2.is_active = TRUE
		  ) > 1`

	result, err := r.db.ExecContext(ctx, query, id, establishmentID)
	if err != nil {
		return false, fmt.Errorf("demote manager: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("demote manager rows: %w", err)
	}

	return rows > 0, nil
}

// Deactivate detaches a member from their establishment and disables them in
// a single statement, so the two fields can never be observed out of step.
func (r *repository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE members
		SET establishment_id = NULL, is_active = FALSE, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate member rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}

	return nil
}

// DeactivateManager removes a manager under the same store-evaluated guard as
// DemoteManager: the update applies only while another active manager remains.
func (r *repository) DeactivateManager(
	ctx context.Context,
	id string,
	establishmentID string,
) (bool, error) {
	query := `
		UPDATE members
		SET establishment_id = NULL, is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		  AND (
			SELECT COUNT(*)
			FROM members m2
			WHERE m2.establishment_id = $2
			  AND m2.role = 'manager'
			  AND m2.is_active = TRUE
			  AND m2.id <> $1
		  ) >= 1`

	result, err := r.db.ExecContext(ctx, query, id, establishmentID)
	if err != nil {
		return false, fmt.Errorf("deactivate manager: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate manager rows: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) Touch(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := `
		UPDATE members
		SET last_activity_at = $2
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch member rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdateProfile(
	ctx context.Context,
	id, firstName, lastName string,
) error {
	query := `
		UPDATE members
		SET first_name = $2, last_name = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, firstName, lastName)
	if err != nil {
		return fmt.Errorf("update member profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member profile rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE members
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update member password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member password rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}

	return nil
}

func (r *repository) BumpTokenVersion(
	ctx context.Context,
	id string,
) (int, error) {
	query := `
		UPDATE members
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING token_version`

	var version int
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("member %s: %w", id, core.ErrNotFound)
		}
		return 0, fmt.Errorf("bump token version: %w", err)
	}

	return version, nil
}
