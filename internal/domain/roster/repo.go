package roster

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Practitioner, error)
	Update(ctx context.Context, p *Practitioner) error
	List(ctx context.Context, orgID string, limit, offset int) ([]*Practitioner, int, error)
	ListEligible(ctx context.Context, orgID string, roles []string) ([]*Practitioner, error)
}
