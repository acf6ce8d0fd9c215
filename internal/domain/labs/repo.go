package labs

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	Update(ctx context.Context, r *Result) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Result, int, error)
	// Latest returns the most recent results for a patient, newest first.
	Latest(ctx context.Context, patientID uuid.UUID, n int) ([]*Result, error)
	// CountByStatus returns result counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}
