package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careboard/careboard/internal/domain/alert"
	"github.com/careboard/careboard/internal/domain/labs"
	"github.com/careboard/careboard/internal/domain/patient"
	"github.com/careboard/careboard/internal/domain/prescription"
	"github.com/careboard/careboard/internal/domain/vitals"
	"github.com/careboard/careboard/internal/platform/ai"
	"github.com/careboard/careboard/internal/platform/authz"
)

type patientRepo struct{ data map[uuid.UUID]*patient.Patient }

func (m *patientRepo) Create(_ context.Context, p *patient.Patient) error {
	p.ID = uuid.New()
	m.data[p.ID] = p
	return nil
}
func (m *patientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := m.data[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *patientRepo) GetByMRN(_ context.Context, mrn string) (*patient.Patient, error) {
	for _, p := range m.data {
		if p.MRN == mrn {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}
func (m *patientRepo) Update(_ context.Context, p *patient.Patient) error { return nil }
func (m *patientRepo) Delete(_ context.Context, id uuid.UUID) error      { return nil }
func (m *patientRepo) List(_ context.Context, search string, limit, offset int) ([]*patient.Patient, int, error) {
	var out []*patient.Patient
	for _, p := range m.data {
		out = append(out, p)
	}
	return out, len(out), nil
}

type vitalsRepo struct{ data []*vitals.VitalSign }

func (m *vitalsRepo) Create(_ context.Context, v *vitals.VitalSign) error {
	v.ID = uuid.New()
	m.data = append(m.data, v)
	return nil
}
func (m *vitalsRepo) GetByID(_ context.Context, id uuid.UUID) (*vitals.VitalSign, error) {
	return nil, fmt.Errorf("not found")
}
func (m *vitalsRepo) Update(_ context.Context, v *vitals.VitalSign) error { return nil }
func (m *vitalsRepo) Delete(_ context.Context, id uuid.UUID) error       { return nil }
func (m *vitalsRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*vitals.VitalSign, int, error) {
	return m.data, len(m.data), nil
}
func (m *vitalsRepo) Latest(_ context.Context, patientID uuid.UUID, n int) ([]*vitals.VitalSign, error) {
	if len(m.data) > n {
		return m.data[:n], nil
	}
	return m.data, nil
}

type labsRepo struct{ data []*labs.Result }

func (m *labsRepo) Create(_ context.Context, r *labs.Result) error {
	r.ID = uuid.New()
	m.data = append(m.data, r)
	return nil
}
func (m *labsRepo) GetByID(_ context.Context, id uuid.UUID) (*labs.Result, error) {
	return nil, fmt.Errorf("not found")
}
func (m *labsRepo) Update(_ context.Context, r *labs.Result) error { return nil }
func (m *labsRepo) Delete(_ context.Context, id uuid.UUID) error   { return nil }
func (m *labsRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*labs.Result, int, error) {
	return m.data, len(m.data), nil
}
func (m *labsRepo) Latest(_ context.Context, patientID uuid.UUID, n int) ([]*labs.Result, error) {
	if len(m.data) > n {
		return m.data[:n], nil
	}
	return m.data, nil
}
func (m *labsRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, r := range m.data {
		counts[r.Status]++
	}
	return counts, nil
}

type rxRepo struct{ data []*prescription.Prescription }

func (m *rxRepo) Create(_ context.Context, p *prescription.Prescription) error {
	p.ID = uuid.New()
	m.data = append(m.data, p)
	return nil
}
func (m *rxRepo) GetByID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	return nil, fmt.Errorf("not found")
}
func (m *rxRepo) Update(_ context.Context, p *prescription.Prescription) error { return nil }
func (m *rxRepo) Delete(_ context.Context, id uuid.UUID) error                 { return nil }
func (m *rxRepo) List(_ context.Context, status string, limit, offset int) ([]*prescription.Prescription, int, error) {
	var out []*prescription.Prescription
	for _, p := range m.data {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}
func (m *rxRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*prescription.Prescription, int, error) {
	return m.data, len(m.data), nil
}

type alertRepo struct{ data []*alert.Alert }

func (m *alertRepo) Create(_ context.Context, a *alert.Alert) error {
	a.ID = uuid.New()
	m.data = append(m.data, a)
	return nil
}
func (m *alertRepo) GetByID(_ context.Context, id uuid.UUID) (*alert.Alert, error) {
	return nil, fmt.Errorf("not found")
}
func (m *alertRepo) Update(_ context.Context, a *alert.Alert) error { return nil }
func (m *alertRepo) Delete(_ context.Context, id uuid.UUID) error   { return nil }
func (m *alertRepo) List(_ context.Context, status, severity string, limit, offset int) ([]*alert.Alert, int, error) {
	return m.data, len(m.data), nil
}
func (m *alertRepo) CountBySeverity(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, a := range m.data {
		if a.Status != alert.StatusResolved {
			counts[a.Severity]++
		}
	}
	return counts, nil
}

type fakeCaller struct {
	response string
	err      error
}

func (f *fakeCaller) Generate(_ context.Context, model, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestHandler(caller ai.Caller) (*Handler, *patientRepo, *labsRepo, *alertRepo, *rxRepo) {
	patients := &patientRepo{data: make(map[uuid.UUID]*patient.Patient)}
	vit := &vitalsRepo{}
	lab := &labsRepo{}
	rx := &rxRepo{}
	al := &alertRepo{}
	h := NewHandler(
		authz.NewDefaultPolicy(),
		patient.NewService(patients),
		vitals.NewService(vit),
		labs.NewService(lab),
		prescription.NewService(rx),
		alert.NewService(al),
		ai.NewAnalyzer(caller, nil, zerolog.Nop()),
	)
	return h, patients, lab, al, rx
}

func doRequest(h echo.HandlerFunc, req *http.Request, role authz.Role, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := authz.ContextWithIdentity(req.Context(), authz.Identity{UserID: uuid.NewString(), Role: role})
	c := e.NewContext(req.WithContext(ctx), rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestNav_FiltersByRole(t *testing.T) {
	h, _, _, _, _ := newTestHandler(&fakeCaller{})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/nav", nil)
	rec := doRequest(h.Nav, req, authz.RoleNurse)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Role  string         `json:"role"`
		Items []authz.NavItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Role != string(authz.RoleNurse) {
		t.Errorf("role = %q", body.Role)
	}
	for _, item := range body.Items {
		if item.Path == "/dashboard/admin" {
			t.Error("nurse must not see the admin nav item")
		}
	}
}

func TestOverview_AggregatesCounts(t *testing.T) {
	h, patients, lab, al, rx := newTestHandler(&fakeCaller{})
	ctx := context.Background()

	dob := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := &patient.Patient{MRN: fmt.Sprintf("MRN-%d", i), FirstName: "A", LastName: "B",
			DateOfBirth: dob, Gender: "F"}
		patients.Create(ctx, p)
	}
	lab.data = append(lab.data,
		&labs.Result{Status: "normal"}, &labs.Result{Status: "critical"})
	al.data = append(al.data,
		&alert.Alert{Severity: "high", Status: alert.StatusActive},
		&alert.Alert{Severity: "high", Status: alert.StatusResolved})
	rx.data = append(rx.data,
		&prescription.Prescription{Status: prescription.StatusActive},
		&prescription.Prescription{Status: prescription.StatusDispensed})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	rec := doRequest(h.Overview, req, authz.RoleDoctor)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var stats OverviewStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalPatients != 3 {
		t.Errorf("total_patients = %d, want 3", stats.TotalPatients)
	}
	if stats.LabsByStatus["critical"] != 1 {
		t.Errorf("labs_by_status = %v", stats.LabsByStatus)
	}
	if stats.AlertsBySeverity["high"] != 1 {
		t.Errorf("alerts_by_severity = %v (resolved alerts must not count)", stats.AlertsBySeverity)
	}
	if stats.ActivePrescriptions != 1 {
		t.Errorf("active_prescriptions = %d, want 1", stats.ActivePrescriptions)
	}
}

const analysisJSON = `{"summary":"Elderly patient with controlled hypertension.","findings":["BP trending down"],"risk":{"level":"Low","justification":"stable vitals"},"recommendations":["continue current regimen"]}`

func TestAnalyzePatient(t *testing.T) {
	h, patients, _, _, _ := newTestHandler(&fakeCaller{response: analysisJSON})
	ctx := context.Background()

	p := &patient.Patient{MRN: "MRN-1", FirstName: "A", LastName: "B",
		DateOfBirth: time.Date(1950, 5, 1, 0, 0, 0, 0, time.UTC), Gender: "M",
		ChronicConditions: []string{"hypertension"}}
	patients.Create(ctx, p)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/analysis", nil)
	rec := doRequest(h.AnalyzePatient, req, authz.RoleDoctor, "id", p.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Analysis  ai.Analysis `json:"analysis"`
		ModelUsed string      `json:"model_used"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Analysis.Summary == "" {
		t.Error("summary missing")
	}
	if body.ModelUsed != "gemini-2.5-flash" {
		t.Errorf("model_used = %q", body.ModelUsed)
	}
}

func TestAnalyzePatient_UnknownPatient(t *testing.T) {
	h, _, _, _, _ := newTestHandler(&fakeCaller{response: analysisJSON})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/x/analysis", nil)
	rec := doRequest(h.AnalyzePatient, req, authz.RoleDoctor, "id", uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAnalyzePatient_AllModelsFail(t *testing.T) {
	h, patients, _, _, _ := newTestHandler(&fakeCaller{err: fmt.Errorf("quota exceeded")})
	ctx := context.Background()

	p := &patient.Patient{MRN: "MRN-2", FirstName: "A", LastName: "B",
		DateOfBirth: time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC), Gender: "F"}
	patients.Create(ctx, p)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/analysis", nil)
	rec := doRequest(h.AnalyzePatient, req, authz.RoleDoctor, "id", p.ID.String())
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
