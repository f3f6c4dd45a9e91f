package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	Date           *time.Time
	Status         string
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error)
	// ListForDay returns the practitioner's non-cancelled appointments on a
	// date. Conflict detection runs over this set.
	ListForDay(ctx context.Context, orgID string, practitionerID uuid.UUID, date time.Time) ([]*Appointment, error)
	List(ctx context.Context, orgID string, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error)
	Update(ctx context.Context, a *Appointment) error
	Cancel(ctx context.Context, orgID string, id uuid.UUID, reason, actorID string) error
}

type WaitingListRepository interface {
	Create(ctx context.Context, w *WaitingListEntry) error
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*WaitingListEntry, error)
	Update(ctx context.Context, w *WaitingListEntry) error
	Delete(ctx context.Context, orgID string, id uuid.UUID) error
	List(ctx context.Context, orgID string, limit, offset int) ([]*WaitingListEntry, int, error)
}
