package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescriptions table.
type Prescription struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	MedicationName   string     `db:"medication_name" json:"medication_name"`
	Dosage           string     `db:"dosage" json:"dosage"`
	Frequency        string     `db:"frequency" json:"frequency"`
	Route            string     `db:"route" json:"route"`
	Indication       *string    `db:"indication" json:"indication,omitempty"`
	RefillsRemaining int        `db:"refills_remaining" json:"refills_remaining"`
	Status           string     `db:"status" json:"status"`
	PrescribedBy     uuid.UUID  `db:"prescribed_by" json:"prescribed_by"`
	DispensedBy      *uuid.UUID `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensedAt      *time.Time `db:"dispensed_at" json:"dispensed_at,omitempty"`
	StartDate        time.Time  `db:"start_date" json:"start_date"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusDispensed = "dispensed"
)

var validStatuses = map[string]bool{
	StatusActive: true, StatusCompleted: true, StatusCancelled: true, StatusDispensed: true,
}

var validRoutes = map[string]bool{
	"oral": true, "intravenous": true, "intramuscular": true, "subcutaneous": true,
	"topical": true, "inhalation": true, "sublingual": true, "rectal": true, "other": true,
}
