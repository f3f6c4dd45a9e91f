package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelminatto1/dudufisio-api/internal/domain/roster"
	"github.com/rafaelminatto1/dudufisio-api/internal/platform/audit"
)

// memApptRepo is an in-memory AppointmentRepository. Like the real store's
// partial unique index, Create and Update reject a write that would overlap
// another non-cancelled appointment; the check and write happen under one
// lock so concurrent callers race exactly like against the database.
type memApptRepo struct {
	mu        sync.Mutex
	appts     map[uuid.UUID]*Appointment
	updateErr []error // pre-scripted errors consumed per Update call
}

func newMemApptRepo(appts ...*Appointment) *memApptRepo {
	r := &memApptRepo{appts: make(map[uuid.UUID]*Appointment)}
	for _, a := range appts {
		cp := *a
		r.appts[a.ID] = &cp
	}
	return r
}

func (r *memApptRepo) overlapsLocked(a *Appointment) bool {
	start, end, err := a.Interval()
	if err != nil {
		return false
	}
	for _, other := range r.appts {
		if other.ID == a.ID || other.OrgID != a.OrgID || other.PractitionerID != a.PractitionerID {
			continue
		}
		if other.Status == StatusCancelled || !DayOf(other.Date).Equal(DayOf(a.Date)) {
			continue
		}
		s, e, err := other.Interval()
		if err != nil {
			continue
		}
		if Overlaps(start, end, s, e) {
			return true
		}
	}
	return false
}

func (r *memApptRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if r.overlapsLocked(a) {
		return ErrSlotTaken
	}
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *memApptRepo) GetByID(_ context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.OrgID != orgID {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memApptRepo) ListForDay(_ context.Context, orgID string, practitionerID uuid.UUID, date time.Time) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, a := range r.appts {
		if a.OrgID == orgID && a.PractitionerID == practitionerID &&
			DayOf(a.Date).Equal(DayOf(date)) && a.Status != StatusCancelled {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memApptRepo) List(_ context.Context, orgID string, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for _, a := range r.appts {
		if a.OrgID != orgID {
			continue
		}
		if filter.PatientID != uuid.Nil && a.PatientID != filter.PatientID {
			continue
		}
		if filter.PractitionerID != uuid.Nil && a.PractitionerID != filter.PractitionerID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memApptRepo) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updateErr) > 0 {
		err := r.updateErr[0]
		r.updateErr = r.updateErr[1:]
		if err != nil {
			return err
		}
	}
	existing, ok := r.appts[a.ID]
	if !ok || existing.OrgID != a.OrgID {
		return ErrAppointmentNotFound
	}
	if r.overlapsLocked(a) {
		return ErrSlotTaken
	}
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *memApptRepo) Cancel(_ context.Context, orgID string, id uuid.UUID, reason, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.OrgID != orgID || a.Status == StatusCancelled {
		return ErrAppointmentNotFound
	}
	a.Status = StatusCancelled
	a.CancelReason = reason
	a.CancelledBy = actorID
	return nil
}

func (r *memApptRepo) get(id uuid.UUID) *Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.appts[id]
	return &cp
}

// memWaitRepo is an in-memory WaitingListRepository.
type memWaitRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*WaitingListEntry
}

func newMemWaitRepo(entries ...*WaitingListEntry) *memWaitRepo {
	r := &memWaitRepo{entries: make(map[uuid.UUID]*WaitingListEntry)}
	for _, w := range entries {
		cp := *w
		r.entries[w.ID] = &cp
	}
	return r
}

func (r *memWaitRepo) Create(_ context.Context, w *WaitingListEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now()
	cp := *w
	r.entries[w.ID] = &cp
	return nil
}

func (r *memWaitRepo) GetByID(_ context.Context, orgID string, id uuid.UUID) (*WaitingListEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.entries[id]
	if !ok || w.OrgID != orgID {
		return nil, ErrEntryNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memWaitRepo) Update(_ context.Context, w *WaitingListEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[w.ID]
	if !ok || existing.OrgID != w.OrgID {
		return ErrEntryNotFound
	}
	cp := *w
	r.entries[w.ID] = &cp
	return nil
}

func (r *memWaitRepo) Delete(_ context.Context, orgID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.entries[id]
	if !ok || w.OrgID != orgID {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memWaitRepo) List(_ context.Context, orgID string, limit, offset int) ([]*WaitingListEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*WaitingListEntry
	for _, w := range r.entries {
		if w.OrgID == orgID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

// fakeRoster serves a fixed practitioner set.
type fakeRoster struct {
	practitioners []*roster.Practitioner
}

func (f *fakeRoster) EligiblePractitioners(_ context.Context, orgID string) ([]*roster.Practitioner, error) {
	var out []*roster.Practitioner
	for _, p := range f.practitioners {
		if p.OrgID == orgID && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRoster) GetPractitioner(_ context.Context, orgID string, id uuid.UUID) (*roster.Practitioner, error) {
	for _, p := range f.practitioners {
		if p.OrgID == orgID && p.ID == id {
			return p, nil
		}
	}
	return nil, roster.ErrPractitionerNotFound
}

// fakeAudit captures audit events.
type fakeAudit struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (f *fakeAudit) Record(_ context.Context, e *audit.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeAudit) count(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Operation == operation {
			n++
		}
	}
	return n
}

// fakeNotifier captures notification calls.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) Notify(_ context.Context, recipient, templateID string, _ map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, templateID)
}

func (f *fakeNotifier) countCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Common fixture ids.
var (
	orgTest = "org-test"
	p1      = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	p2      = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	patient = uuid.MustParse("99999999-9999-9999-9999-999999999999")
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = day(s)
	}
	return out
}

func appt(id uuid.UUID, practitionerID uuid.UUID, date, start string, duration int, status string) *Appointment {
	return &Appointment{
		ID:              id,
		OrgID:           orgTest,
		PatientID:       patient,
		PractitionerID:  practitionerID,
		Date:            day(date),
		StartTime:       start,
		DurationMinutes: duration,
		Status:          status,
	}
}

func testService(repo *memApptRepo, wait *memWaitRepo, opts ...func(*ServiceConfig)) (*Service, *fakeAudit, *fakeNotifier) {
	aud := &fakeAudit{}
	notif := &fakeNotifier{}
	cfg := ServiceConfig{
		Appointments: repo,
		Waitlist:     wait,
		Roster: &fakeRoster{practitioners: []*roster.Practitioner{
			{ID: p1, OrgID: orgTest, Name: "Dr. Lima", Role: "therapist", Active: true},
			{ID: p2, OrgID: orgTest, Name: "Dr. Souza", Role: "therapist", Active: true},
		}},
		Audit:         aud,
		Notifier:      notif,
		SearchWorkers: 4,
		FallbackDays:  14,
		Clock:         func() time.Time { return day("2025-01-14") },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewService(cfg), aud, notif
}
