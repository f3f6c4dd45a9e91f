package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelminatto1/dudufisio-api/internal/platform/audit"
)

// AuditLog receives best-effort audit events for every scheduling mutation.
type AuditLog interface {
	Record(ctx context.Context, event *audit.Event)
}

// Notifier delivers best-effort patient notifications.
type Notifier interface {
	Notify(ctx context.Context, recipient, templateID string, data map[string]string)
}

// TxRunner executes fn inside a serializable transaction. The transaction's
// connection travels in the context so repository calls inside fn share it.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PassthroughTx runs fn without a transaction. Used in tests and for
// read-only paths.
func PassthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service owns appointment lifecycle, slot search, rescheduling, calendar
// moves and the waiting list for one organization-scoped store.
type Service struct {
	appointments AppointmentRepository
	waitlist     WaitingListRepository
	detector     *ConflictDetector
	searcher     *SlotSearcher
	roster       PractitionerRoster
	tx           TxRunner
	audit        AuditLog
	notifier     Notifier
	policy       ScorePolicy
	fallbackDays int
	clock        func() time.Time
}

type ServiceConfig struct {
	Appointments  AppointmentRepository
	Waitlist      WaitingListRepository
	Roster        PractitionerRoster
	Tx            TxRunner
	Audit         AuditLog
	Notifier      Notifier
	Policy        *ScorePolicy
	SearchWorkers int
	FallbackDays  int
	Clock         func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	policy := DefaultScorePolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	if cfg.Tx == nil {
		cfg.Tx = PassthroughTx
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.FallbackDays < 1 {
		cfg.FallbackDays = 14
	}
	detector := NewConflictDetector(cfg.Appointments)
	return &Service{
		appointments: cfg.Appointments,
		waitlist:     cfg.Waitlist,
		detector:     detector,
		searcher:     NewSlotSearcher(detector, cfg.Roster, policy, cfg.SearchWorkers),
		roster:       cfg.Roster,
		tx:           cfg.Tx,
		audit:        cfg.Audit,
		notifier:     cfg.Notifier,
		policy:       policy,
		fallbackDays: cfg.FallbackDays,
		clock:        cfg.Clock,
	}
}

// Detector exposes the conflict detector for standalone queries.
func (s *Service) Detector() *ConflictDetector { return s.detector }

// CreateAppointment books a new appointment. The conflict check and insert
// run in one serializable transaction; the store's partial unique index backs
// it up, surfacing a lost race as ErrSlotTaken.
func (s *Service) CreateAppointment(ctx context.Context, actorID string, a *Appointment) error {
	if err := validateAppointment(a); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validAppointmentStatuses[a.Status] {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	a.Date = DayOf(a.Date)
	a.CreatedBy = actorID

	start, end, err := a.Interval()
	if err != nil {
		return err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		conflict, err := s.detector.HasConflict(ctx, a.OrgID, a.PractitionerID, a.Date, start, end, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, a.OrgID, actorID, "appointments", "create", a.ID, nil, slotValues(a), nil)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, orgID, id)
}

func (s *Service) ListAppointments(ctx context.Context, orgID string, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, orgID, filter, limit, offset)
}

// CancelAppointment soft-cancels; appointments are never deleted.
func (s *Service) CancelAppointment(ctx context.Context, orgID string, id uuid.UUID, reason, actorID string) error {
	appt, err := s.appointments.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if appt.Status == StatusCancelled {
		return nil
	}
	if err := s.appointments.Cancel(ctx, orgID, id, reason, actorID); err != nil {
		return err
	}
	s.recordAudit(ctx, orgID, actorID, "appointments", "cancel", id,
		slotValues(appt), map[string]any{"status": StatusCancelled, "cancel_reason": reason}, nil)
	return nil
}

// FindSlots runs the slot search for an existing appointment without
// committing anything.
func (s *Service) FindSlots(ctx context.Context, orgID string, appointmentID uuid.UUID, dates []time.Time, times []string, samePractitioner bool) ([]AvailableSlot, error) {
	original, err := s.appointments.GetByID(ctx, orgID, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.searcher.FindSlots(ctx, original, dates, times, samePractitioner)
}

// Move validates a drag-to-move operation from the interactive calendar and
// commits it when the target window is free. Only date and time change;
// status and the rest of the record stay untouched.
func (s *Service) Move(ctx context.Context, orgID, actorID string, id uuid.UUID, newDate time.Time, newTime string) (*Appointment, error) {
	startMin, err := ParseClock(newTime)
	if err != nil {
		return nil, err
	}

	appt, err := s.appointments.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return nil, fmt.Errorf("cannot move a cancelled appointment")
	}

	before := slotValues(appt)
	newDate = DayOf(newDate)

	err = s.tx(ctx, func(ctx context.Context) error {
		conflict, err := s.detector.HasConflict(ctx, orgID, appt.PractitionerID, newDate,
			startMin, startMin+appt.DurationMinutes, appt.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}
		appt.Date = newDate
		appt.StartTime = newTime
		appt.UpdatedBy = actorID
		return s.appointments.Update(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, orgID, actorID, "appointments", "move", appt.ID, before, slotValues(appt), nil)
	return appt, nil
}

func validateAppointment(a *Appointment) error {
	if a.OrgID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.PractitionerID == uuid.Nil {
		return fmt.Errorf("practitioner_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if _, err := ParseClock(a.StartTime); err != nil {
		return err
	}
	if a.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	return nil
}

func slotValues(a *Appointment) map[string]any {
	return map[string]any{
		"date":            DayOf(a.Date).Format("2006-01-02"),
		"start_time":      a.StartTime,
		"practitioner_id": a.PractitionerID.String(),
		"status":          a.Status,
	}
}

func (s *Service) recordAudit(ctx context.Context, orgID, actorID, table, operation string, recordID uuid.UUID, before, after, extra map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, &audit.Event{
		OrgID:     orgID,
		Table:     table,
		Operation: operation,
		RecordID:  recordID,
		ActorID:   actorID,
		Before:    before,
		After:     after,
		Extra:     extra,
	})
}
