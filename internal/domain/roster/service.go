package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rafaelminatto1/dudufisio-api/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) error {
	if p.OrgID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Role == "" {
		p.Role = "therapist"
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPractitioner(ctx context.Context, orgID string, id uuid.UUID) (*Practitioner, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

func (s *Service) UpdatePractitioner(ctx context.Context, p *Practitioner) error {
	return s.repo.Update(ctx, p)
}

func (s *Service) ListPractitioners(ctx context.Context, orgID string, limit, offset int) ([]*Practitioner, int, error) {
	return s.repo.List(ctx, orgID, limit, offset)
}

// EligiblePractitioners returns the active clinicians who can take
// appointments in the organization.
func (s *Service) EligiblePractitioners(ctx context.Context, orgID string) ([]*Practitioner, error) {
	return s.repo.ListEligible(ctx, orgID, auth.ClinicianRoles)
}
