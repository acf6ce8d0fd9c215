package labs

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

const resultCols = `id, patient_id, test_name, test_code, category, value, result_text,
	unit, reference_range, status, ordered_by, verified_by, collected_at, resulted_at,
	notes, created_at`

func (r *repoPG) scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.PatientID, &res.TestName, &res.TestCode, &res.Category,
		&res.Value, &res.ResultText, &res.Unit, &res.ReferenceRange, &res.Status,
		&res.OrderedBy, &res.VerifiedBy, &res.CollectedAt, &res.ResultedAt,
		&res.Notes, &res.CreatedAt)
	return &res, err
}

func (r *repoPG) Create(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_results (id, patient_id, test_name, test_code, category, value, result_text,
			unit, reference_range, status, ordered_by, collected_at, resulted_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		res.ID, res.PatientID, res.TestName, res.TestCode, res.Category, res.Value, res.ResultText,
		res.Unit, res.ReferenceRange, res.Status, res.OrderedBy, res.CollectedAt, res.ResultedAt, res.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	return r.scanResult(r.conn(ctx).QueryRow(ctx, `SELECT `+resultCols+` FROM lab_results WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, res *Result) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_results SET value=$2, result_text=$3, unit=$4, reference_range=$5, status=$6,
			verified_by=$7, collected_at=$8, resulted_at=$9, notes=$10
		WHERE id = $1`,
		res.ID, res.Value, res.ResultText, res.Unit, res.ReferenceRange, res.Status,
		res.VerifiedBy, res.CollectedAt, res.ResultedAt, res.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_results WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Result, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_results WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+resultCols+` FROM lab_results WHERE patient_id = $1 ORDER BY resulted_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Result
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, nil
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID, n int) ([]*Result, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+resultCols+` FROM lab_results WHERE patient_id = $1 ORDER BY resulted_at DESC LIMIT $2`, patientID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Result
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	return items, nil
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM lab_results GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
