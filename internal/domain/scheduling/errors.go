package scheduling

import "errors"

var (
	// ErrAppointmentNotFound is returned when an appointment id does not
	// exist within the caller's organization.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrEntryNotFound is the waiting-list equivalent.
	ErrEntryNotFound = errors.New("waiting list entry not found")

	// ErrSlotTaken is returned when a write lost the race for a slot to a
	// concurrent booking. Distinct from "no slot found", which is a normal
	// business outcome.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrInvalidTransition is returned for a waiting-list status change the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)
