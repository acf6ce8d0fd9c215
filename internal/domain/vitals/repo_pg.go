package vitals

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careboard/careboard/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const vitalCols = `id, patient_id, type, value, unit, measured_at, recorded_by,
	verified, verified_by, notes, created_at`

func (r *repoPG) scanVital(row pgx.Row) (*VitalSign, error) {
	var v VitalSign
	err := row.Scan(&v.ID, &v.PatientID, &v.Type, &v.Value, &v.Unit, &v.MeasuredAt, &v.RecordedBy,
		&v.Verified, &v.VerifiedBy, &v.Notes, &v.CreatedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *VitalSign) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vital_signs (id, patient_id, type, value, unit, measured_at, recorded_by, verified, verified_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		v.ID, v.PatientID, v.Type, v.Value, v.Unit, v.MeasuredAt, v.RecordedBy, v.Verified, v.VerifiedBy, v.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*VitalSign, error) {
	return r.scanVital(r.conn(ctx).QueryRow(ctx, `SELECT `+vitalCols+` FROM vital_signs WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, v *VitalSign) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE vital_signs SET value=$2, unit=$3, measured_at=$4, verified=$5, verified_by=$6, notes=$7
		WHERE id = $1`,
		v.ID, v.Value, v.Unit, v.MeasuredAt, v.Verified, v.VerifiedBy, v.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM vital_signs WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSign, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM vital_signs WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+vitalCols+` FROM vital_signs WHERE patient_id = $1 ORDER BY measured_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*VitalSign
	for rows.Next() {
		v, err := r.scanVital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, nil
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID, n int) ([]*VitalSign, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+vitalCols+` FROM vital_signs WHERE patient_id = $1 ORDER BY measured_at DESC LIMIT $2`, patientID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*VitalSign
	for rows.Next() {
		v, err := r.scanVital(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}
