package staff

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/careboard/careboard/internal/platform/authz"
)

type mockRepo struct {
	data map[uuid.UUID]*Member
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: make(map[uuid.UUID]*Member)}
}

func (m *mockRepo) Create(_ context.Context, mem *Member) error {
	mem.ID = uuid.New()
	m.data[mem.ID] = mem
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Member, error) {
	if mem, ok := m.data[id]; ok {
		return mem, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Member, error) {
	for _, mem := range m.data {
		if mem.Email == email {
			return mem, nil
		}
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockRepo) Update(_ context.Context, mem *Member) error {
	if _, ok := m.data[mem.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.data[mem.ID] = mem
	return nil
}
func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Member, int, error) {
	var out []*Member
	for _, mem := range m.data {
		out = append(out, mem)
	}
	return out, len(out), nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		member  Member
		wantErr bool
	}{
		{"valid", Member{Email: "a@x.org", FullName: "A", Role: authz.RoleNurse}, false},
		{"missing email", Member{FullName: "A", Role: authz.RoleNurse}, true},
		{"missing name", Member{Email: "a@x.org", Role: authz.RoleNurse}, true},
		{"bad role", Member{Email: "a@x.org", FullName: "A", Role: "superuser"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.member
			err := svc.Create(ctx, &m)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !m.Active {
				t.Error("new members should be active")
			}
		})
	}
}

func TestChangeRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	m := &Member{Email: "d@x.org", FullName: "Dr D", Role: authz.RoleDoctor}
	if err := svc.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.ChangeRole(ctx, m.ID, authz.RoleAdmin)
	if err != nil {
		t.Fatalf("ChangeRole() error: %v", err)
	}
	if updated.Role != authz.RoleAdmin {
		t.Errorf("role = %q, want admin", updated.Role)
	}

	if _, err := svc.ChangeRole(ctx, m.ID, "wizard"); err == nil {
		t.Error("expected error for unknown role")
	}
	if _, err := svc.ChangeRole(ctx, uuid.New(), authz.RoleNurse); err == nil {
		t.Error("expected error for unknown member")
	}
}

func TestChangeRole_DeactivatedMember(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	m := &Member{Email: "n@x.org", FullName: "N", Role: authz.RoleNurse}
	if err := svc.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	m.Active = false
	if err := repo.Update(ctx, m); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := svc.ChangeRole(ctx, m.ID, authz.RoleDoctor); err == nil {
		t.Error("expected error changing role of deactivated member")
	}
}

func TestRoleStore(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	store := NewRoleStore(repo)
	ctx := context.Background()

	m := &Member{Email: "p@x.org", FullName: "P", Role: authz.RolePharmacist}
	if err := svc.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	role, err := store.RoleOf(ctx, m.ID.String())
	if err != nil {
		t.Fatalf("RoleOf() error: %v", err)
	}
	if role != authz.RolePharmacist {
		t.Errorf("role = %q, want pharmacist", role)
	}

	if _, err := store.RoleOf(ctx, "not-a-uuid"); err == nil {
		t.Error("expected error for malformed user id")
	}
	if _, err := store.RoleOf(ctx, uuid.New().String()); err == nil {
		t.Error("expected error for unknown member")
	}
}

func TestRoleStore_InactiveMemberHasNoRole(t *testing.T) {
	repo := newMockRepo()
	store := NewRoleStore(repo)
	ctx := context.Background()

	m := &Member{Email: "x@x.org", FullName: "X", Role: authz.RoleDoctor, Active: false}
	m.ID = uuid.New()
	repo.data[m.ID] = m

	role, err := store.RoleOf(ctx, m.ID.String())
	if err != nil {
		t.Fatalf("RoleOf() error: %v", err)
	}
	if role != "" {
		t.Errorf("expected empty role for inactive member, got %q", role)
	}
}
