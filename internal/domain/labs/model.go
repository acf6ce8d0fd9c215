package labs

import (
	"time"

	"github.com/google/uuid"
)

// Result maps to the lab_results table.
type Result struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	TestName       string     `db:"test_name" json:"test_name"`
	TestCode       *string    `db:"test_code" json:"test_code,omitempty"`
	Category       string     `db:"category" json:"category"`
	Value          *float64   `db:"value" json:"value,omitempty"`
	// ResultText carries qualitative findings when there is no numeric value
	ResultText     *string    `db:"result_text" json:"result_text,omitempty"`
	Unit           *string    `db:"unit" json:"unit,omitempty"`
	ReferenceRange *string    `db:"reference_range" json:"reference_range,omitempty"`
	Status         string     `db:"status" json:"status"`
	OrderedBy      uuid.UUID  `db:"ordered_by" json:"ordered_by"`
	VerifiedBy     *uuid.UUID `db:"verified_by" json:"verified_by,omitempty"`
	CollectedAt    *time.Time `db:"collected_at" json:"collected_at,omitempty"`
	ResultedAt     time.Time  `db:"resulted_at" json:"resulted_at"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

var validCategories = map[string]bool{
	"hematology": true, "chemistry": true, "microbiology": true, "imaging": true, "other": true,
}

var validStatuses = map[string]bool{
	"normal": true, "abnormal": true, "critical": true,
}
