package dashboard

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careboard/careboard/internal/domain/prescription"
	"github.com/careboard/careboard/internal/platform/ai"
)

const snapshotDepth = 10

// AnalyzePatient assembles a redacted snapshot of the patient's chart and
// asks the analyzer for a structured clinical summary.
func (h *Handler) AnalyzePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()

	p, err := h.patients.Get(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	recentVitals, err := h.vitals.Latest(ctx, id, snapshotDepth)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	recentLabs, err := h.labs.Latest(ctx, id, snapshotDepth)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	meds, _, err := h.prescriptions.ListByPatient(ctx, id, snapshotDepth, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	snap := ai.Snapshot{
		Age:               p.Age(nowFunc()),
		Sex:               p.Gender,
		ChronicConditions: p.ChronicConditions,
	}
	for _, v := range recentVitals {
		snap.Vitals = append(snap.Vitals, ai.SnapshotVital{
			Type:       v.Type,
			Value:      v.Value,
			Unit:       v.Unit,
			MeasuredAt: v.MeasuredAt.Format(time.RFC3339),
		})
	}
	for _, l := range recentLabs {
		snap.Labs = append(snap.Labs, ai.SnapshotLab{
			TestName:       l.TestName,
			Value:          l.Value,
			ResultText:     l.ResultText,
			Unit:           l.Unit,
			ReferenceRange: l.ReferenceRange,
			Status:         l.Status,
		})
	}
	for _, m := range meds {
		if m.Status != prescription.StatusActive && m.Status != prescription.StatusDispensed {
			continue
		}
		snap.Medications = append(snap.Medications, ai.SnapshotMed{
			Medication: m.MedicationName,
			Dosage:     m.Dosage,
			Frequency:  m.Frequency,
		})
	}

	res, err := h.analyzer.Analyze(ctx, snap)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"analysis":   res.Analysis,
		"model_used": res.ModelUsed,
		"timestamp":  nowFunc().UTC().Format(time.RFC3339),
	})
}
