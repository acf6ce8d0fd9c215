package alert

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	Update(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List filters by status and severity when non-empty.
	List(ctx context.Context, status, severity string, limit, offset int) ([]*Alert, int, error)
	// CountBySeverity counts unresolved alerts grouped by severity.
	CountBySeverity(ctx context.Context) (map[string]int, error)
}
