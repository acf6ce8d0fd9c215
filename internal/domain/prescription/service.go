package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	prescriptions Repository
}

func NewService(prescriptions Repository) *Service {
	return &Service{prescriptions: prescriptions}
}

func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.PrescribedBy == uuid.Nil {
		return fmt.Errorf("prescribed_by is required")
	}
	if p.MedicationName == "" {
		return fmt.Errorf("medication_name is required")
	}
	if p.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}
	if p.Frequency == "" {
		return fmt.Errorf("frequency is required")
	}
	if p.Route == "" {
		p.Route = "oral"
	}
	if !validRoutes[p.Route] {
		return fmt.Errorf("invalid route: %s", p.Route)
	}
	if p.RefillsRemaining < 0 {
		return fmt.Errorf("refills_remaining cannot be negative")
	}
	if p.StartDate.IsZero() {
		p.StartDate = time.Now().UTC()
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end_date cannot precede start_date")
	}
	// New prescriptions always enter the workflow active and undispensed
	p.Status = StatusActive
	p.DispensedBy = nil
	p.DispensedAt = nil
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Prescription) error {
	if p.Status != "" && !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.Route != "" && !validRoutes[p.Route] {
		return fmt.Errorf("invalid route: %s", p.Route)
	}
	return s.prescriptions.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.prescriptions.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid status: %s", status)
	}
	return s.prescriptions.List(ctx, status, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

// Cancel stops an active prescription. Completed or dispensed prescriptions
// cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, fmt.Errorf("cannot cancel a %s prescription", p.Status)
	}
	p.Status = StatusCancelled
	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Dispense records that a pharmacist handed out the medication. Only active
// prescriptions can be dispensed.
func (s *Service) Dispense(ctx context.Context, id, pharmacistID uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, fmt.Errorf("cannot dispense a %s prescription", p.Status)
	}
	now := time.Now().UTC()
	p.Status = StatusDispensed
	p.DispensedBy = &pharmacistID
	p.DispensedAt = &now
	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
