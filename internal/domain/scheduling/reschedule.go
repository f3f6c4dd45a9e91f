package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RescheduleRequest carries the caller's preferences for moving an
// appointment. Booleans are pointers so an omitted field keeps its default
// (same practitioner, notify patient).
type RescheduleRequest struct {
	PreferredDates   []time.Time `json:"preferred_dates"`
	PreferredTimes   []string    `json:"preferred_times"`
	MaxWaitDays      int         `json:"max_wait_days"`
	SamePractitioner *bool       `json:"same_practitioner"`
	Reason           string      `json:"reason"`
	NotifyPatient    *bool       `json:"notify_patient"`
}

// SlotRef is a (date, time) pair in a reschedule response.
type SlotRef struct {
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PractitionerID   uuid.UUID `json:"practitioner_id,omitempty"`
	PractitionerName string    `json:"practitioner_name,omitempty"`
	Score            int       `json:"score,omitempty"`
}

// RescheduleResult is the outcome of a reschedule attempt. Success false with
// suggestions is a normal business outcome, not an error.
type RescheduleResult struct {
	Success          bool         `json:"success"`
	Error            string       `json:"error,omitempty"`
	Appointment      *Appointment `json:"appointment,omitempty"`
	OriginalSlot     *SlotRef     `json:"original_slot,omitempty"`
	NewSlot          *SlotRef     `json:"new_slot,omitempty"`
	Alternatives     []SlotRef    `json:"alternatives,omitempty"`
	Suggestions      []SlotRef    `json:"suggestions,omitempty"`
	NotificationSent bool         `json:"notification_sent"`
}

const (
	maxAlternatives = 3
	maxSuggestions  = 5
)

func (r *RescheduleRequest) validate() error {
	if len(r.PreferredDates) == 0 {
		return fmt.Errorf("preferred_dates must have at least one entry")
	}
	if len(r.PreferredTimes) == 0 {
		return fmt.Errorf("preferred_times must have at least one entry")
	}
	for _, t := range r.PreferredTimes {
		if _, err := ParseClock(t); err != nil {
			return err
		}
	}
	if r.MaxWaitDays == 0 {
		r.MaxWaitDays = 7
	}
	if r.MaxWaitDays < 1 || r.MaxWaitDays > 30 {
		return fmt.Errorf("max_wait_days must be between 1 and 30")
	}
	return nil
}

func (r *RescheduleRequest) samePractitioner() bool {
	return r.SamePractitioner == nil || *r.SamePractitioner
}

func (r *RescheduleRequest) notifyPatient() bool {
	return r.NotifyPatient == nil || *r.NotifyPatient
}

// Reschedule moves an appointment to the best available slot matching the
// caller's preferences. When preferences yield nothing it widens the search
// over the coming days and returns non-binding suggestions instead. The
// commit runs in a serializable transaction; losing a race to a concurrent
// writer triggers one retry against a freshly recomputed candidate list.
func (s *Service) Reschedule(ctx context.Context, orgID, actorID string, appointmentID uuid.UUID, req *RescheduleRequest) (*RescheduleResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	original, err := s.appointments.GetByID(ctx, orgID, appointmentID)
	if err != nil {
		return nil, err
	}

	result, err := s.rescheduleOnce(ctx, orgID, actorID, original, req)
	if errors.Is(err, ErrSlotTaken) {
		// Lost the slot to a concurrent writer; recompute and try once more.
		original, err = s.appointments.GetByID(ctx, orgID, appointmentID)
		if err != nil {
			return nil, err
		}
		result, err = s.rescheduleOnce(ctx, orgID, actorID, original, req)
	}
	return result, err
}

func (s *Service) rescheduleOnce(ctx context.Context, orgID, actorID string, original *Appointment, req *RescheduleRequest) (*RescheduleResult, error) {
	slots, err := s.searcher.FindSlots(ctx, original, req.PreferredDates, req.PreferredTimes, req.samePractitioner())
	if err != nil {
		return nil, err
	}

	if len(slots) == 0 {
		suggestions, err := s.expandFallback(ctx, original, req)
		if err != nil {
			return nil, err
		}
		return &RescheduleResult{
			Success:     false,
			Error:       "no slot found",
			Suggestions: suggestions,
		}, nil
	}

	best := slots[0]
	originalSlot := &SlotRef{
		Date: DayOf(original.Date).Format("2006-01-02"),
		Time: original.StartTime,
	}

	startMin, _ := ParseClock(best.Time)
	note := fmt.Sprintf("[%s] rescheduled automatically from %s %s to %s %s",
		s.clock().UTC().Format("2006-01-02 15:04"),
		originalSlot.Date, originalSlot.Time,
		best.Date.Format("2006-01-02"), best.Time)
	if req.Reason != "" {
		note += ": " + req.Reason
	}

	before := slotValues(original)
	err = s.tx(ctx, func(ctx context.Context) error {
		conflict, err := s.detector.HasConflict(ctx, orgID, best.PractitionerID, best.Date,
			startMin, startMin+original.DurationMinutes, original.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}
		original.Date = best.Date
		original.StartTime = best.Time
		original.PractitionerID = best.PractitionerID
		original.Status = StatusScheduled
		original.UpdatedBy = actorID
		if original.Notes != "" {
			original.Notes += "\n"
		}
		original.Notes += note
		return s.appointments.Update(ctx, original)
	})
	if err != nil {
		return nil, err
	}

	newSlot := &SlotRef{
		Date:           best.Date.Format("2006-01-02"),
		Time:           best.Time,
		PractitionerID: best.PractitionerID,
		Score:          best.Score,
	}
	if p, err := s.roster.GetPractitioner(ctx, orgID, best.PractitionerID); err == nil {
		newSlot.PractitionerName = p.Name
	}

	var alternatives []SlotRef
	for _, alt := range slots[1:] {
		if len(alternatives) == maxAlternatives {
			break
		}
		alternatives = append(alternatives, slotRef(alt))
	}

	s.recordAudit(ctx, orgID, actorID, "appointments", "reschedule", original.ID,
		before, slotValues(original), map[string]any{"reason": req.Reason})

	notified := false
	if req.notifyPatient() && s.notifier != nil {
		s.notifier.Notify(ctx, original.PatientID.String(), "appointment-rescheduled", map[string]string{
			"date":         newSlot.Date,
			"time":         newSlot.Time,
			"practitioner": newSlot.PractitionerName,
		})
		notified = true
	}

	return &RescheduleResult{
		Success:          true,
		Appointment:      original,
		OriginalSlot:     originalSlot,
		NewSlot:          newSlot,
		Alternatives:     alternatives,
		NotificationSent: notified,
	}, nil
}

// expandFallback widens the search over the coming calendar days, probing
// each preferred hour per day until enough suggestions are gathered or the
// window is exhausted. The window follows the caller's max_wait_days, capped
// by the configured ceiling.
func (s *Service) expandFallback(ctx context.Context, original *Appointment, req *RescheduleRequest) ([]SlotRef, error) {
	window := req.MaxWaitDays
	if window > s.fallbackDays {
		window = s.fallbackDays
	}

	today := DayOf(s.clock())
	var suggestions []SlotRef
	for day := 1; day <= window && len(suggestions) < maxSuggestions; day++ {
		date := today.AddDate(0, 0, day)
		for _, hour := range s.policy.PreferredHours {
			if len(suggestions) == maxSuggestions {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slots, err := s.searcher.FindSlots(ctx, original, []time.Time{date}, []string{hour}, req.samePractitioner())
			if err != nil {
				return nil, err
			}
			if len(slots) > 0 {
				suggestions = append(suggestions, slotRef(slots[0]))
			}
		}
	}
	return suggestions, nil
}

func slotRef(s AvailableSlot) SlotRef {
	return SlotRef{
		Date:           s.Date.Format("2006-01-02"),
		Time:           s.Time,
		PractitionerID: s.PractitionerID,
		Score:          s.Score,
	}
}
