package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}

// Appointment is a booked visit. Non-cancelled appointments for one
// practitioner on one date must never overlap.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	OrgID           string     `json:"organization_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	PractitionerID  uuid.UUID  `json:"practitioner_id"`
	Date            time.Time  `json:"date"`
	StartTime       string     `json:"start_time"` // HH:MM
	DurationMinutes int        `json:"duration_minutes"`
	Type            string     `json:"type,omitempty"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	UpdatedBy       string     `json:"updated_by,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CancelledBy     string     `json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Interval returns the appointment's [start, end) window in minutes from
// midnight.
func (a *Appointment) Interval() (start, end int, err error) {
	start, err = ParseClock(a.StartTime)
	if err != nil {
		return 0, 0, err
	}
	return start, start + a.DurationMinutes, nil
}

// EndTime returns the derived end as HH:MM.
func (a *Appointment) EndTime() string {
	start, err := ParseClock(a.StartTime)
	if err != nil {
		return ""
	}
	return FormatClock(start + a.DurationMinutes)
}

// Waiting list statuses and priorities.
const (
	WaitingStatusWaiting   = "waiting"
	WaitingStatusContacted = "contacted"
	WaitingStatusScheduled = "scheduled"
	WaitingStatusCancelled = "cancelled"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var validWaitingStatuses = map[string]bool{
	WaitingStatusWaiting: true, WaitingStatusContacted: true,
	WaitingStatusScheduled: true, WaitingStatusCancelled: true,
}

var validPriorities = map[string]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true,
}

// WaitingListEntry is a patient queued for a freed slot.
type WaitingListEntry struct {
	ID              uuid.UUID  `json:"id"`
	OrgID           string     `json:"organization_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	PractitionerID  uuid.UUID  `json:"practitioner_id"`
	AppointmentType string     `json:"appointment_type,omitempty"`
	PreferredDate   *time.Time `json:"preferred_date,omitempty"`
	PreferredTime   *string    `json:"preferred_time,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the entry can no longer change.
func (w *WaitingListEntry) IsTerminal() bool {
	return w.Status == WaitingStatusScheduled || w.Status == WaitingStatusCancelled
}

// AvailableSlot is a candidate (date, time, practitioner) triple with its
// compatibility score against the appointment being moved.
type AvailableSlot struct {
	Date           time.Time `json:"date"`
	Time           string    `json:"time"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	Score          int       `json:"score"`
}

// ParseClock converts an HH:MM string to minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight to HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DayOf truncates a timestamp to its UTC calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysApart(a, b time.Time) int {
	d := int(DayOf(a).Sub(DayOf(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Back-to-back intervals do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}
