package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/rafaelminatto1/dudufisio-api/internal/platform/db"
)

// ErrPractitionerNotFound is returned when a practitioner id does not exist
// within the organization.
var ErrPractitionerNotFound = errors.New("practitioner not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) platformdb.Queryable {
	if c := platformdb.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const practitionerCols = `id, organization_id, name, role, specialty, email, active, created_at, updated_at`

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Role, &p.Specialty, &p.Email,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPractitionerNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practitioners (id, organization_id, name, role, specialty, email, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.OrgID, p.Name, p.Role, p.Specialty, p.Email, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioners WHERE organization_id = $1 AND id = $2`, orgID, id))
}

func (r *repoPG) Update(ctx context.Context, p *Practitioner) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE practitioners SET name=$3, role=$4, specialty=$5, email=$6, active=$7, updated_at=NOW()
		WHERE organization_id = $1 AND id = $2`,
		p.OrgID, p.ID, p.Name, p.Role, p.Specialty, p.Email, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPractitionerNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, orgID string, limit, offset int) ([]*Practitioner, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM practitioners WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+practitionerCols+` FROM practitioners WHERE organization_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListEligible(ctx context.Context, orgID string, roles []string) ([]*Practitioner, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+practitionerCols+` FROM practitioners
		 WHERE organization_id = $1 AND active AND role = ANY($2)
		 ORDER BY name`,
		orgID, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
