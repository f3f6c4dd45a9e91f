package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConflictDetector answers whether a candidate interval collides with an
// existing non-cancelled appointment. Pure query, no side effects; it is used
// standalone by both the slot search and the calendar move validator.
type ConflictDetector struct {
	repo AppointmentRepository
}

func NewConflictDetector(repo AppointmentRepository) *ConflictDetector {
	return &ConflictDetector{repo: repo}
}

// HasConflict reports whether [startMin, endMin) on date overlaps any
// non-cancelled appointment of the practitioner, ignoring excludeID.
// Short-circuits on the first overlap.
func (d *ConflictDetector) HasConflict(ctx context.Context, orgID string, practitionerID uuid.UUID, date time.Time, startMin, endMin int, excludeID uuid.UUID) (bool, error) {
	existing, err := d.repo.ListForDay(ctx, orgID, practitionerID, date)
	if err != nil {
		return false, err
	}
	for _, appt := range existing {
		if appt.ID == excludeID {
			continue
		}
		s, e, err := appt.Interval()
		if err != nil {
			return false, err
		}
		if Overlaps(startMin, endMin, s, e) {
			return true, nil
		}
	}
	return false, nil
}

// Conflicts returns the full conflicting set for diagnostics.
func (d *ConflictDetector) Conflicts(ctx context.Context, orgID string, practitionerID uuid.UUID, date time.Time, startMin, endMin int, excludeID uuid.UUID) ([]*Appointment, error) {
	existing, err := d.repo.ListForDay(ctx, orgID, practitionerID, date)
	if err != nil {
		return nil, err
	}
	var out []*Appointment
	for _, appt := range existing {
		if appt.ID == excludeID {
			continue
		}
		s, e, err := appt.Interval()
		if err != nil {
			return nil, err
		}
		if Overlaps(startMin, endMin, s, e) {
			out = append(out, appt)
		}
	}
	return out, nil
}
