package dashboard

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/careboard/careboard/internal/domain/alert"
	"github.com/careboard/careboard/internal/domain/labs"
	"github.com/careboard/careboard/internal/domain/patient"
	"github.com/careboard/careboard/internal/domain/prescription"
	"github.com/careboard/careboard/internal/domain/vitals"
	"github.com/careboard/careboard/internal/platform/ai"
	"github.com/careboard/careboard/internal/platform/authz"
)

// Handler serves the data behind the dashboard screens. The route guard has
// already vetted the caller by the time these run; handlers only shape data.
type Handler struct {
	policy        *authz.Policy
	patients      *patient.Service
	vitals        *vitals.Service
	labs          *labs.Service
	prescriptions *prescription.Service
	alerts        *alert.Service
	analyzer      *ai.Analyzer
}

func NewHandler(policy *authz.Policy, patients *patient.Service, vit *vitals.Service,
	lab *labs.Service, rx *prescription.Service, al *alert.Service, analyzer *ai.Analyzer) *Handler {
	return &Handler{
		policy:        policy,
		patients:      patients,
		vitals:        vit,
		labs:          lab,
		prescriptions: rx,
		alerts:        al,
		analyzer:      analyzer,
	}
}

// RegisterRoutes mounts the dashboard data endpoints. The group is expected
// to carry the route guard.
func (h *Handler) RegisterRoutes(dash *echo.Group) {
	dash.GET("/overview", h.Overview)
	dash.GET("/nav", h.Nav)
}

// RegisterAPIRoutes mounts the permission-gated API endpoints.
func (h *Handler) RegisterAPIRoutes(api *echo.Group) {
	api.POST("/patients/:id/analysis", h.AnalyzePatient,
		authz.RequirePermission(h.policy, authz.PermViewAnalytics))
}

// OverviewStats is the payload behind the dashboard landing screen.
type OverviewStats struct {
	TotalPatients       int            `json:"total_patients"`
	LabsByStatus        map[string]int `json:"labs_by_status"`
	AlertsBySeverity    map[string]int `json:"alerts_by_severity"`
	ActivePrescriptions int            `json:"active_prescriptions"`
}

func (h *Handler) Overview(c echo.Context) error {
	ctx := c.Request().Context()

	_, totalPatients, err := h.patients.List(ctx, "", 1, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	labCounts, err := h.labs.CountByStatus(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	alertCounts, err := h.alerts.CountBySeverity(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	_, activeRx, err := h.prescriptions.List(ctx, prescription.StatusActive, 1, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, OverviewStats{
		TotalPatients:       totalPatients,
		LabsByStatus:        labCounts,
		AlertsBySeverity:    alertCounts,
		ActivePrescriptions: activeRx,
	})
}

// Nav returns the navigation entries visible to the caller's role.
func (h *Handler) Nav(c echo.Context) error {
	role := authz.RoleFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"role":  role,
		"items": h.policy.AvailableNavItems(role),
	})
}

var nowFunc = time.Now
