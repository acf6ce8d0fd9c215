package labs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	results Repository
}

func NewService(results Repository) *Service {
	return &Service{results: results}
}

func (s *Service) Create(ctx context.Context, r *Result) error {
	if r.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if r.OrderedBy == uuid.Nil {
		return fmt.Errorf("ordered_by is required")
	}
	if r.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	if r.Value == nil && r.ResultText == nil {
		return fmt.Errorf("either value or result_text is required")
	}
	if r.Category == "" {
		r.Category = "other"
	}
	if !validCategories[r.Category] {
		return fmt.Errorf("invalid category: %s", r.Category)
	}
	if r.Status == "" {
		r.Status = "normal"
	}
	if !validStatuses[r.Status] {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	if r.ResultedAt.IsZero() {
		r.ResultedAt = time.Now().UTC()
	}
	// Verification is a separate step
	r.VerifiedBy = nil
	return s.results.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.results.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, r *Result) error {
	if r.Status != "" && !validStatuses[r.Status] {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	return s.results.Update(ctx, r)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.results.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Result, int, error) {
	return s.results.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Latest(ctx context.Context, patientID uuid.UUID, n int) ([]*Result, error) {
	return s.results.Latest(ctx, patientID, n)
}

func (s *Service) CountByStatus(ctx context.Context) (map[string]int, error) {
	return s.results.CountByStatus(ctx)
}

// Verify marks a result as reviewed. Idempotent: the first verifier wins.
func (s *Service) Verify(ctx context.Context, id, verifierID uuid.UUID) (*Result, error) {
	r, err := s.results.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.VerifiedBy != nil {
		return r, nil
	}
	r.VerifiedBy = &verifierID
	if err := s.results.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
