package vitals

import (
	"time"

	"github.com/google/uuid"
)

// VitalSign maps to the vital_signs table. One row per measurement so a
// partial reading (say, just a temperature) never forces null-heavy rows.
type VitalSign struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	Type       string     `db:"type" json:"type"`
	Value      float64    `db:"value" json:"value"`
	Unit       string     `db:"unit" json:"unit"`
	MeasuredAt time.Time  `db:"measured_at" json:"measured_at"`
	RecordedBy uuid.UUID  `db:"recorded_by" json:"recorded_by"`
	Verified   bool       `db:"verified" json:"verified"`
	VerifiedBy *uuid.UUID `db:"verified_by" json:"verified_by,omitempty"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Measurement types and their expected units.
var vitalTypes = map[string]string{
	"temperature":       "celsius",
	"systolic_bp":       "mmHg",
	"diastolic_bp":      "mmHg",
	"heart_rate":        "bpm",
	"respiratory_rate":  "breaths/min",
	"oxygen_saturation": "%",
	"weight":            "kg",
	"height":            "cm",
	"glucose":           "mg/dL",
}

// plausible physiological bounds per type, used as a data-entry guard
var vitalRanges = map[string][2]float64{
	"temperature":       {30, 45},
	"systolic_bp":       {60, 250},
	"diastolic_bp":      {40, 150},
	"heart_rate":        {30, 220},
	"respiratory_rate":  {8, 50},
	"oxygen_saturation": {70, 100},
	"weight":            {2, 300},
	"height":            {30, 250},
	"glucose":           {20, 600},
}
