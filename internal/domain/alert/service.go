package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	alerts Repository
}

func NewService(alerts Repository) *Service {
	return &Service{alerts: alerts}
}

func (s *Service) Create(ctx context.Context, a *Alert) error {
	if a.CreatedBy == uuid.Nil {
		return fmt.Errorf("created_by_id is required")
	}
	if a.AlertType == "" {
		return fmt.Errorf("alert_type is required")
	}
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if a.Severity == "" {
		a.Severity = "medium"
	}
	if !validSeverities[a.Severity] {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	// Alerts always enter the board active
	a.Status = StatusActive
	a.AcknowledgedBy, a.AcknowledgedAt = nil, nil
	a.ResolvedBy, a.ResolvedAt = nil, nil
	return s.alerts.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Alert) error {
	if a.Severity != "" && !validSeverities[a.Severity] {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	if a.Status != "" && !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return s.alerts.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.alerts.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, status, severity string, limit, offset int) ([]*Alert, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid status: %s", status)
	}
	if severity != "" && !validSeverities[severity] {
		return nil, 0, fmt.Errorf("invalid severity: %s", severity)
	}
	return s.alerts.List(ctx, status, severity, limit, offset)
}

func (s *Service) CountBySeverity(ctx context.Context) (map[string]int, error) {
	return s.alerts.CountBySeverity(ctx)
}

// Acknowledge moves an active alert to acknowledged. Acknowledging twice is
// a no-op, but a resolved alert cannot go back.
func (s *Service) Acknowledge(ctx context.Context, id, userID uuid.UUID) (*Alert, error) {
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case StatusAcknowledged:
		return a, nil
	case StatusResolved:
		return nil, fmt.Errorf("cannot acknowledge a resolved alert")
	}
	now := time.Now().UTC()
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = &userID
	a.AcknowledgedAt = &now
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Resolve closes an alert from any prior state. Resolving twice is a no-op.
func (s *Service) Resolve(ctx context.Context, id, userID uuid.UUID) (*Alert, error) {
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusResolved {
		return a, nil
	}
	now := time.Now().UTC()
	a.Status = StatusResolved
	a.ResolvedBy = &userID
	a.ResolvedAt = &now
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
