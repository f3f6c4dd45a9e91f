package roster

import (
	"time"

	"github.com/google/uuid"
)

// Practitioner is a clinician who can hold appointments.
type Practitioner struct {
	ID        uuid.UUID `json:"id"`
	OrgID     string    `json:"organization_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Specialty string    `json:"specialty,omitempty"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
