package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// waitingTransitions is the forward-only status machine. Terminal entries
// (scheduled, cancelled) accept no further updates of any kind.
var waitingTransitions = map[string][]string{
	WaitingStatusWaiting:   {WaitingStatusContacted, WaitingStatusScheduled, WaitingStatusCancelled},
	WaitingStatusContacted: {WaitingStatusScheduled, WaitingStatusCancelled},
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range waitingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// WaitingListPatch is a partial update; nil fields are left unchanged.
type WaitingListPatch struct {
	Status        *string    `json:"status"`
	Notes         *string    `json:"notes"`
	Priority      *string    `json:"priority"`
	PreferredDate *time.Time `json:"preferred_date"`
	PreferredTime *string    `json:"preferred_time"`
}

func (s *Service) CreateWaitingListEntry(ctx context.Context, actorID string, w *WaitingListEntry) error {
	if w.OrgID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if w.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if w.PractitionerID == uuid.Nil {
		return fmt.Errorf("practitioner_id is required")
	}
	if w.Status == "" {
		w.Status = WaitingStatusWaiting
	}
	if w.Status != WaitingStatusWaiting {
		return fmt.Errorf("new entries must start in %q", WaitingStatusWaiting)
	}
	if w.Priority == "" {
		w.Priority = PriorityMedium
	}
	if !validPriorities[w.Priority] {
		return fmt.Errorf("invalid priority: %s", w.Priority)
	}
	if w.PreferredTime != nil {
		if _, err := ParseClock(*w.PreferredTime); err != nil {
			return err
		}
	}

	if err := s.waitlist.Create(ctx, w); err != nil {
		return err
	}
	s.recordAudit(ctx, w.OrgID, actorID, "waiting_list", "create", w.ID, nil,
		map[string]any{"status": w.Status, "priority": w.Priority, "patient_id": w.PatientID.String()}, nil)
	return nil
}

func (s *Service) GetWaitingListEntry(ctx context.Context, orgID string, id uuid.UUID) (*WaitingListEntry, error) {
	return s.waitlist.GetByID(ctx, orgID, id)
}

func (s *Service) ListWaitingList(ctx context.Context, orgID string, limit, offset int) ([]*WaitingListEntry, int, error) {
	return s.waitlist.List(ctx, orgID, limit, offset)
}

// UpdateWaitingListEntry applies a partial patch, enforcing the status
// machine. Terminal entries reject every update.
func (s *Service) UpdateWaitingListEntry(ctx context.Context, orgID, actorID string, id uuid.UUID, patch *WaitingListPatch) (*WaitingListEntry, error) {
	entry, err := s.waitlist.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if entry.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	before := map[string]any{"status": entry.Status, "priority": entry.Priority}

	if patch.Status != nil {
		if !validWaitingStatuses[*patch.Status] {
			return nil, fmt.Errorf("invalid status: %s", *patch.Status)
		}
		if !transitionAllowed(entry.Status, *patch.Status) {
			return nil, ErrInvalidTransition
		}
		entry.Status = *patch.Status
	}
	if patch.Priority != nil {
		if !validPriorities[*patch.Priority] {
			return nil, fmt.Errorf("invalid priority: %s", *patch.Priority)
		}
		entry.Priority = *patch.Priority
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}
	if patch.PreferredDate != nil {
		d := DayOf(*patch.PreferredDate)
		entry.PreferredDate = &d
	}
	if patch.PreferredTime != nil {
		if _, err := ParseClock(*patch.PreferredTime); err != nil {
			return nil, err
		}
		entry.PreferredTime = patch.PreferredTime
	}

	if err := s.waitlist.Update(ctx, entry); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, orgID, actorID, "waiting_list", "update", entry.ID, before,
		map[string]any{"status": entry.Status, "priority": entry.Priority}, nil)
	return entry, nil
}

// DeleteWaitingListEntry hard-deletes an entry within the organization.
func (s *Service) DeleteWaitingListEntry(ctx context.Context, orgID, actorID string, id uuid.UUID) error {
	entry, err := s.waitlist.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.waitlist.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, orgID, actorID, "waiting_list", "delete", id,
		map[string]any{"status": entry.Status, "patient_id": entry.PatientID.String()}, nil, nil)
	return nil
}
