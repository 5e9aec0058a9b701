// Platewise | 2026
// service.go

package establishment

import (
	"context"
	"fmt"
	"strings"

	"github.com/platewise/backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(
	ctx context.Context,
	establishmentID string,
) (*Establishment, error) {
	if establishmentID == "" {
		return nil, fmt.Errorf(
			"get establishment: no establishment: %w",
			core.ErrForbidden,
		)
	}

	return s.repo.GetByID(ctx, establishmentID)
}

func (s *Service) Rename(
	ctx context.Context,
	establishmentID string,
	req UpdateEstablishmentRequest,
) (*Establishment, error) {
	if establishmentID == "" {
		return nil, fmt.Errorf(
			"rename establishment: no establishment: %w",
			core.ErrForbidden,
		)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf(
			"rename establishment: empty name: %w",
			core.ErrInvalidInput,
		)
	}

	if err := s.repo.UpdateName(ctx, establishmentID, name); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, establishmentID)
}

// PlanFor resolves a tenant's rate-limit plan; any lookup failure degrades to
// the free plan rather than blocking the request path.
func (s *Service) PlanFor(ctx context.Context, establishmentID string) string {
	est, err := s.repo.GetByID(ctx, establishmentID)
	if err != nil {
		return PlanFree
	}
	if !est.IsPro() {
		return PlanFree
	}
	return est.Plan
}
