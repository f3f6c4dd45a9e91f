package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSink writes audit events to the audit_log table.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) Write(ctx context.Context, event *Event) error {
	const query = `
		INSERT INTO audit_log (
			id, organization_id, table_name, operation, record_id,
			actor_id, before, after, extra, recorded
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err := s.pool.Exec(ctx, query,
		event.ID, event.OrgID, event.Table, event.Operation, event.RecordID,
		event.ActorID, event.Before, event.After, event.Extra, event.Recorded,
	)
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}
