package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert maps to the alerts table.
type Alert struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	AlertType      string     `db:"alert_type" json:"alert_type"`
	Severity       string     `db:"severity" json:"severity"`
	Title          string     `db:"title" json:"title"`
	Description    *string    `db:"description" json:"description,omitempty"`
	Status         string     `db:"status" json:"status"`
	AssignedTo     *uuid.UUID `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	CreatedBy      uuid.UUID  `db:"created_by_id" json:"created_by_id"`
	AcknowledgedBy *uuid.UUID `db:"acknowledged_by_id" json:"acknowledged_by_id,omitempty"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	ResolvedBy     *uuid.UUID `db:"resolved_by_id" json:"resolved_by_id,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

var validSeverities = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

var validStatuses = map[string]bool{
	StatusActive: true, StatusAcknowledged: true, StatusResolved: true,
}
