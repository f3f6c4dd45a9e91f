package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/rafaelminatto1/dudufisio-api/internal/platform/db"
)

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) platformdb.Queryable {
	if c := platformdb.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, organization_id, patient_id, practitioner_id, date, start_time,
	duration_minutes, type, status, notes, created_by, updated_by,
	cancel_reason, cancelled_by, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OrgID, &a.PatientID, &a.PractitionerID, &a.Date, &a.StartTime,
		&a.DurationMinutes, &a.Type, &a.Status, &a.Notes, &a.CreatedBy, &a.UpdatedBy,
		&a.CancelReason, &a.CancelledBy, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return &a, err
}

// slotTaken maps a violation of the partial unique index on
// (organization_id, practitioner_id, date, start_time) to ErrSlotTaken.
func slotTaken(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, organization_id, patient_id, practitioner_id,
			date, start_time, duration_minutes, type, status, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.OrgID, a.PatientID, a.PractitionerID,
		a.Date, a.StartTime, a.DurationMinutes, a.Type, a.Status, a.Notes, a.CreatedBy)
	if err != nil {
		return slotTaken(err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (r *appointmentRepoPG) ListForDay(ctx context.Context, orgID string, practitionerID uuid.UUID, date time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE organization_id = $1 AND practitioner_id = $2 AND date = $3 AND status <> 'cancelled'
		ORDER BY start_time`,
		orgID, practitionerID, DayOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) List(ctx context.Context, orgID string, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE organization_id = $1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE organization_id = $1`
	args := []interface{}{orgID}
	idx := 2

	if filter.PatientID != uuid.Nil {
		clause := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, filter.PatientID)
		idx++
	}
	if filter.PractitionerID != uuid.Nil {
		clause := fmt.Sprintf(` AND practitioner_id = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, filter.PractitionerID)
		idx++
	}
	if filter.Date != nil {
		clause := fmt.Sprintf(` AND date = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, DayOf(*filter.Date))
		idx++
	}
	if filter.Status != "" {
		clause := fmt.Sprintf(` AND status = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, filter.Status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY date, start_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET date=$3, start_time=$4, duration_minutes=$5,
			practitioner_id=$6, status=$7, notes=$8, updated_by=$9, updated_at=NOW()
		WHERE organization_id = $1 AND id = $2`,
		a.OrgID, a.ID, a.Date, a.StartTime, a.DurationMinutes,
		a.PractitionerID, a.Status, a.Notes, a.UpdatedBy)
	if err != nil {
		return slotTaken(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Cancel(ctx context.Context, orgID string, id uuid.UUID, reason, actorID string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status='cancelled', cancel_reason=$3, cancelled_by=$4,
			cancelled_at=NOW(), updated_by=$4, updated_at=NOW()
		WHERE organization_id = $1 AND id = $2 AND status <> 'cancelled'`,
		orgID, id, reason, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// =========== Waiting List Repository ===========

type waitlistRepoPG struct{ pool *pgxpool.Pool }

func NewWaitingListRepoPG(pool *pgxpool.Pool) WaitingListRepository {
	return &waitlistRepoPG{pool: pool}
}

func (r *waitlistRepoPG) conn(ctx context.Context) platformdb.Queryable {
	if c := platformdb.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const waitlistCols = `id, organization_id, patient_id, practitioner_id, appointment_type,
	preferred_date, preferred_time, notes, priority, status, created_at, updated_at`

func scanWaitlistEntry(row pgx.Row) (*WaitingListEntry, error) {
	var w WaitingListEntry
	err := row.Scan(&w.ID, &w.OrgID, &w.PatientID, &w.PractitionerID, &w.AppointmentType,
		&w.PreferredDate, &w.PreferredTime, &w.Notes, &w.Priority, &w.Status,
		&w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return &w, err
}

func (r *waitlistRepoPG) Create(ctx context.Context, w *WaitingListEntry) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO waiting_list (id, organization_id, patient_id, practitioner_id,
			appointment_type, preferred_date, preferred_time, notes, priority, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		w.ID, w.OrgID, w.PatientID, w.PractitionerID,
		w.AppointmentType, w.PreferredDate, w.PreferredTime, w.Notes, w.Priority, w.Status)
	return err
}

func (r *waitlistRepoPG) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*WaitingListEntry, error) {
	return scanWaitlistEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+waitlistCols+` FROM waiting_list WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (r *waitlistRepoPG) Update(ctx context.Context, w *WaitingListEntry) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE waiting_list SET status=$3, notes=$4, priority=$5,
			preferred_date=$6, preferred_time=$7, updated_at=NOW()
		WHERE organization_id = $1 AND id = $2`,
		w.OrgID, w.ID, w.Status, w.Notes, w.Priority, w.PreferredDate, w.PreferredTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *waitlistRepoPG) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM waiting_list WHERE organization_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *waitlistRepoPG) List(ctx context.Context, orgID string, limit, offset int) ([]*WaitingListEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM waiting_list WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+waitlistCols+` FROM waiting_list
		WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*WaitingListEntry
	for rows.Next() {
		w, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, w)
	}
	return items, total, rows.Err()
}
