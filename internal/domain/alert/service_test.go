package alert

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	data map[uuid.UUID]*Alert
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: make(map[uuid.UUID]*Alert)}
}

func (m *mockRepo) Create(_ context.Context, a *Alert) error {
	a.ID = uuid.New()
	m.data[a.ID] = a
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	if a, ok := m.data[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockRepo) Update(_ context.Context, a *Alert) error {
	if _, ok := m.data[a.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.data[a.ID] = a
	return nil
}
func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockRepo) List(_ context.Context, status, severity string, limit, offset int) ([]*Alert, int, error) {
	var out []*Alert
	for _, a := range m.data {
		if (status == "" || a.Status == status) && (severity == "" || a.Severity == severity) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}
func (m *mockRepo) CountBySeverity(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, a := range m.data {
		if a.Status != StatusResolved {
			counts[a.Severity]++
		}
	}
	return counts, nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	creator := uuid.New()

	tests := []struct {
		name    string
		alert   Alert
		wantErr bool
	}{
		{"valid", Alert{CreatedBy: creator, AlertType: "vital_threshold", Severity: "high", Title: "Tachycardia"}, false},
		{"missing creator", Alert{AlertType: "vital_threshold", Title: "Tachycardia"}, true},
		{"missing type", Alert{CreatedBy: creator, Title: "Tachycardia"}, true},
		{"missing title", Alert{CreatedBy: creator, AlertType: "vital_threshold"}, true},
		{"bad severity", Alert{CreatedBy: creator, AlertType: "vital_threshold", Severity: "urgent", Title: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.alert
			err := svc.Create(ctx, &a)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	user := uuid.New()
	a := Alert{CreatedBy: user, AlertType: "lab_critical", Title: "Critical potassium",
		Status: StatusResolved} // client cannot pre-resolve

	if err := svc.Create(context.Background(), &a); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if a.Severity != "medium" {
		t.Errorf("severity = %q, want medium", a.Severity)
	}
	if a.Status != StatusActive {
		t.Errorf("status = %q, want active", a.Status)
	}
	if a.AcknowledgedBy != nil || a.ResolvedBy != nil {
		t.Error("new alerts must start unacknowledged and unresolved")
	}
}

func TestAcknowledgeAndResolve(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	a := Alert{CreatedBy: uuid.New(), AlertType: "device_offline", Severity: "low", Title: "Monitor offline"}
	if err := svc.Create(ctx, &a); err != nil {
		t.Fatalf("create: %v", err)
	}

	nurse := uuid.New()
	got, err := svc.Acknowledge(ctx, a.ID, nurse)
	if err != nil {
		t.Fatalf("Acknowledge() error: %v", err)
	}
	if got.Status != StatusAcknowledged || got.AcknowledgedBy == nil || *got.AcknowledgedBy != nurse {
		t.Errorf("acknowledge did not stick: %+v", got)
	}

	// Repeat acknowledge keeps the original acknowledger
	got, err = svc.Acknowledge(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Acknowledge() second call error: %v", err)
	}
	if *got.AcknowledgedBy != nurse {
		t.Error("re-acknowledgement must not overwrite the original acknowledger")
	}

	doctor := uuid.New()
	got, err = svc.Resolve(ctx, a.ID, doctor)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.Status != StatusResolved || got.ResolvedBy == nil || *got.ResolvedBy != doctor {
		t.Errorf("resolve did not stick: %+v", got)
	}

	// Resolved alerts cannot be acknowledged
	if _, err := svc.Acknowledge(ctx, a.ID, nurse); err == nil {
		t.Error("expected error acknowledging a resolved alert")
	}

	// Resolving twice keeps the original resolver
	got, err = svc.Resolve(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Resolve() second call error: %v", err)
	}
	if *got.ResolvedBy != doctor {
		t.Error("re-resolution must not overwrite the original resolver")
	}
}

func TestResolve_SkipsAcknowledge(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	a := Alert{CreatedBy: uuid.New(), AlertType: "medication_due", Severity: "medium", Title: "Dose overdue"}
	if err := svc.Create(ctx, &a); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Straight from active to resolved is allowed
	got, err := svc.Resolve(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.Status != StatusResolved {
		t.Errorf("status = %q, want resolved", got.Status)
	}
	if got.AcknowledgedBy != nil {
		t.Error("skipping acknowledge must not fabricate an acknowledger")
	}
}

func TestList_Filters(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for _, sev := range []string{"low", "high", "high", "critical"} {
		a := Alert{CreatedBy: uuid.New(), AlertType: "vital_threshold", Severity: sev, Title: "t"}
		if err := svc.Create(ctx, &a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, _, err := svc.List(ctx, "open", "", 10, 0); err == nil {
		t.Error("expected error for unknown status filter")
	}
	if _, _, err := svc.List(ctx, "", "urgent", 10, 0); err == nil {
		t.Error("expected error for unknown severity filter")
	}

	items, total, err := svc.List(ctx, StatusActive, "high", 10, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("total = %d, items = %d, want 2", total, len(items))
	}

	counts, err := svc.CountBySeverity(ctx)
	if err != nil {
		t.Fatalf("CountBySeverity() error: %v", err)
	}
	if counts["high"] != 2 || counts["critical"] != 1 || counts["low"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
