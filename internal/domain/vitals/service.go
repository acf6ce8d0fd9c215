package vitals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	vitals Repository
}

func NewService(vitals Repository) *Service {
	return &Service{vitals: vitals}
}

func (s *Service) Record(ctx context.Context, v *VitalSign) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.RecordedBy == uuid.Nil {
		return fmt.Errorf("recorded_by is required")
	}
	unit, ok := vitalTypes[v.Type]
	if !ok {
		return fmt.Errorf("unknown vital type: %s", v.Type)
	}
	if v.Unit == "" {
		v.Unit = unit
	}
	if r, ok := vitalRanges[v.Type]; ok {
		if v.Value < r[0] || v.Value > r[1] {
			return fmt.Errorf("%s value %.1f outside plausible range [%.0f, %.0f]", v.Type, v.Value, r[0], r[1])
		}
	}
	if v.MeasuredAt.IsZero() {
		v.MeasuredAt = time.Now().UTC()
	}
	// New measurements always start unverified
	v.Verified = false
	v.VerifiedBy = nil
	return s.vitals.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*VitalSign, error) {
	return s.vitals.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, v *VitalSign) error {
	if _, ok := vitalTypes[v.Type]; v.Type != "" && !ok {
		return fmt.Errorf("unknown vital type: %s", v.Type)
	}
	return s.vitals.Update(ctx, v)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.vitals.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSign, int, error) {
	return s.vitals.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Latest(ctx context.Context, patientID uuid.UUID, n int) ([]*VitalSign, error) {
	return s.vitals.Latest(ctx, patientID, n)
}

// Verify marks a measurement as reviewed by a clinician. Verifying twice is
// a no-op rather than an error.
func (s *Service) Verify(ctx context.Context, id, verifierID uuid.UUID) (*VitalSign, error) {
	v, err := s.vitals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Verified {
		return v, nil
	}
	v.Verified = true
	v.VerifiedBy = &verifierID
	if err := s.vitals.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
