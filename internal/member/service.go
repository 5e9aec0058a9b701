// Platewise | 2026
// service.go

package member

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/establishment"
)

// Clock abstracts time for the presence window and heartbeat writes.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// PresenceEntry is a roster row annotated with the derived online flag.
type PresenceEntry struct {
	Member   Member
	IsOnline bool
}

type Service struct {
	db     *sqlx.DB
	repo   Repository
	clock  Clock
	logger *slog.Logger
}

func NewService(db *sqlx.DB, repo Repository, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		clock:  systemClock{},
		logger: logger,
	}
}

// ChangeRole switches a member between the employee and manager roles. The
// requester must be an active manager or admin of the same establishment, and
// the checks run cheapest-first so malformed requests never reach the store's
// manager-count guard.
func (s *Service) ChangeRole(
	ctx context.Context,
	requesterID string,
	req ChangeRoleRequest,
) (*Member, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("change role: %w", core.ErrUnauthorized)
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("change role requester: %w", err)
	}

	if !requester.IsManager() {
		return nil, fmt.Errorf(
			"change role: requester is not a manager: %w",
			core.ErrForbidden,
		)
	}

	if !AssignableRole(req.NewRole) {
		return nil, fmt.Errorf(
			"change role: role %q is not assignable: %w",
			req.NewRole,
			core.ErrInvalidInput,
		)
	}

	if req.MemberID == requesterID {
		return nil, fmt.Errorf(
			"change role: cannot change own role: %w",
			core.ErrInvalidInput,
		)
	}

	target, err := s.repo.GetByID(ctx, req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("change role target: %w", err)
	}

	if !requester.SameEstablishment(target) {
		return nil, fmt.Errorf(
			"change role: member belongs to another establishment: %w",
			core.ErrForbidden,
		)
	}

	if target.Role == RoleAdmin {
		return nil, fmt.Errorf(
			"change role: admin roles are immutable: %w",
			core.ErrForbidden,
		)
	}

	if target.Role == req.NewRole {
		return nil, fmt.Errorf(
			"change role: member already has role %q: %w",
			req.NewRole,
			core.ErrInvalidInput,
		)
	}

	if target.Role == RoleManager && req.NewRole == RoleEmployee {
		demoted, err := s.repo.DemoteManager(
			ctx,
			target.ID,
			*target.EstablishmentID,
		)
		if err != nil {
			return nil, fmt.Errorf("change role: %w", err)
		}
		if !demoted {
			return nil, fmt.Errorf("change role: %w", core.ErrLastManager)
		}
	} else {
		if err := s.repo.UpdateRole(ctx, target.ID, req.NewRole); err != nil {
			return nil, fmt.Errorf("change role: %w", err)
		}
	}

	updated, err := s.repo.GetByID(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("change role reload: %w", err)
	}

	s.logger.Info("member role changed",
		"member_id", updated.ID,
		"role", updated.Role,
		"requester_id", requesterID,
	)

	return updated, nil
}

// RemoveMember detaches a member from the establishment and disables them in
// one atomic write. Removing a manager runs under the same last-manager guard
// as demotion, so a tenant can never be left without an active manager.
func (s *Service) RemoveMember(
	ctx context.Context,
	requesterID string,
	req RemoveMemberRequest,
) (*Member, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("remove member: %w", core.ErrUnauthorized)
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("remove member requester: %w", err)
	}

	if !requester.IsManager() {
		return nil, fmt.Errorf(
			"remove member: requester is not a manager: %w",
			core.ErrForbidden,
		)
	}

	if req.MemberID == requesterID {
		return nil, fmt.Errorf(
			"remove member: cannot remove self: %w",
			core.ErrInvalidInput,
		)
	}

	target, err := s.repo.GetByID(ctx, req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("remove member target: %w", err)
	}

	if !requester.SameEstablishment(target) {
		return nil, fmt.Errorf(
			"remove member: member belongs to another establishment: %w",
			core.ErrForbidden,
		)
	}

	if target.Role == RoleAdmin {
		return nil, fmt.Errorf(
			"remove member: admins cannot be removed: %w",
			core.ErrForbidden,
		)
	}

	if target.Role == RoleManager {
		removed, err := s.repo.DeactivateManager(
			ctx,
			target.ID,
			*target.EstablishmentID,
		)
		if err != nil {
			return nil, fmt.Errorf("remove member: %w", err)
		}
		if !removed {
			return nil, fmt.Errorf("remove member: %w", core.ErrLastManager)
		}
	} else {
		if err := s.repo.Deactivate(ctx, target.ID); err != nil {
			return nil, fmt.Errorf("remove member: %w", err)
		}
	}

	updated, err := s.repo.GetByID(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("remove member reload: %w", err)
	}

	s.logger.Info("member removed",
		"member_id", updated.ID,
		"requester_id", requesterID,
	)

	return updated, nil
}

// Heartbeat stamps the caller's own record; a member can never advance
// another member's activity timestamp.
func (s *Service) Heartbeat(ctx context.Context, memberID string) error {
	if memberID == "" {
		return fmt.Errorf("heartbeat: %w", core.ErrUnauthorized)
	}

	if err := s.repo.Touch(ctx, memberID, s.clock.Now()); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}

	return nil
}

// ListWithPresence returns the requester's establishment roster, newest
// member first, with the online flag derived at read time.
func (s *Service) ListWithPresence(
	ctx context.Context,
	requesterID string,
) ([]PresenceEntry, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("list members: %w", core.ErrUnauthorized)
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list members requester: %w", err)
	}

	if requester.EstablishmentID == nil {
		return nil, fmt.Errorf(
			"list members: requester has no establishment: %w",
			core.ErrForbidden,
		)
	}

	members, err := s.repo.ListByEstablishment(ctx, *requester.EstablishmentID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	now := s.clock.Now()
	entries := make([]PresenceEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, PresenceEntry{
			Member:   m,
			IsOnline: m.IsOnline(now),
		})
	}

	return entries, nil
}

// OwnerParams describes the owner signup flow: a new establishment and its
// founding manager are created together.
type OwnerParams struct {
	EstablishmentName string
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
}

// CreateOwner provisions an establishment and its first manager in a single
// transaction, so a tenant can never exist without an active manager.
func (s *Service) CreateOwner(
	ctx context.Context,
	params OwnerParams,
) (*Member, error) {
	var created *Member

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		est := &establishment.Establishment{
			ID:                 uuid.NewString(),
			Name:               params.EstablishmentName,
			Plan:               establishment.PlanFree,
			SubscriptionStatus: establishment.SubscriptionNone,
		}

		if err := establishment.NewRepository(tx).Create(ctx, est); err != nil {
			return err
		}

		m := &Member{
			ID:              uuid.NewString(),
			EstablishmentID: &est.ID,
			Email:           params.Email,
			PasswordHash:    params.PasswordHash,
			FirstName:       params.FirstName,
			LastName:        params.LastName,
			Role:            RoleManager,
			IsActive:        true,
		}

		if err := NewRepository(tx).Create(ctx, m); err != nil {
			return err
		}

		created = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create owner: %w", err)
	}

	s.logger.Info("owner registered",
		"member_id", created.ID,
		"establishment_id", *created.EstablishmentID,
	)

	return created, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) FindByEmail(
	ctx context.Context,
	email string,
) (*Member, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	memberID, firstName, lastName string,
) (*Member, error) {
	if memberID == "" {
		return nil, fmt.Errorf("update profile: %w", core.ErrUnauthorized)
	}

	err := s.repo.UpdateProfile(ctx, memberID, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.repo.GetByID(ctx, memberID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	memberID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, memberID, passwordHash)
}

// BumpTokenVersion invalidates every outstanding token for the member.
func (s *Service) BumpTokenVersion(
	ctx context.Context,
	memberID string,
) (int, error) {
	return s.repo.BumpTokenVersion(ctx, memberID)
}
