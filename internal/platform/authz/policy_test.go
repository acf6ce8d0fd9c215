package authz

import (
	"reflect"
	"testing"
)

func TestHasPermission(t *testing.T) {
	p := NewDefaultPolicy()

	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermDispensePrescriptions, false},
		{RoleDoctor, PermCreatePrescriptions, true},
		{RoleDoctor, PermManageUsers, false},
		{RoleNurse, PermEditVitals, true},
		{RoleNurse, PermViewLabs, false},
		{RoleLabTechnician, PermVerifyLabs, true},
		{RoleLabTechnician, PermViewPrescriptions, false},
		{RolePharmacist, PermDispensePrescriptions, true},
		{RolePharmacist, PermEditPatients, false},
		{RoleReceptionist, PermEditPatients, true},
		{RoleReceptionist, PermViewVitals, false},
		{Role("superuser"), PermManageUsers, false},
		{Role(""), PermViewAllPatients, false},
	}

	for _, tt := range tests {
		if got := p.HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestHasPermission_Idempotent(t *testing.T) {
	p := NewDefaultPolicy()
	for _, role := range AllRoles {
		for _, perm := range AllPermissions {
			first := p.HasPermission(role, perm)
			second := p.HasPermission(role, perm)
			if first != second {
				t.Fatalf("HasPermission(%q, %q) not deterministic: %v then %v", role, perm, first, second)
			}
		}
	}
}

// The two empty-list cases must differ: any-of-nothing is false, all-of-nothing
// is true.
func TestEmptyPermissionLists(t *testing.T) {
	p := NewDefaultPolicy()
	for _, role := range append(AllRoles, Role("unknown")) {
		if p.HasAnyPermission(role, nil) {
			t.Errorf("HasAnyPermission(%q, []) = true, want false", role)
		}
		if !p.HasAllPermissions(role, nil) {
			t.Errorf("HasAllPermissions(%q, []) = false, want true", role)
		}
	}
}

func TestHasAnyPermission(t *testing.T) {
	p := NewDefaultPolicy()
	if !p.HasAnyPermission(RolePharmacist, []Permission{PermManageUsers, PermDispensePrescriptions}) {
		t.Error("pharmacist should match on dispense_prescriptions")
	}
	if p.HasAnyPermission(RoleReceptionist, []Permission{PermViewLabs, PermViewAlerts}) {
		t.Error("receptionist should match neither permission")
	}
}

func TestHasAllPermissions(t *testing.T) {
	p := NewDefaultPolicy()
	if !p.HasAllPermissions(RoleDoctor, []Permission{PermViewVitals, PermEditVitals, PermVerifyVitals}) {
		t.Error("doctor holds the full vitals set")
	}
	if p.HasAllPermissions(RoleNurse, []Permission{PermEditVitals, PermViewLabs}) {
		t.Error("nurse lacks view_labs, all-of check must fail")
	}
}

func TestRolePermissions(t *testing.T) {
	p := NewDefaultPolicy()

	for _, role := range AllRoles {
		perms := p.RolePermissions(role)
		if perms == nil {
			t.Fatalf("RolePermissions(%q) returned nil", role)
		}
		for _, perm := range perms {
			if !perm.Valid() {
				t.Errorf("RolePermissions(%q) contains unenumerated permission %q", role, perm)
			}
			if !p.HasPermission(role, perm) {
				t.Errorf("RolePermissions(%q) and HasPermission disagree on %q", role, perm)
			}
		}
	}

	unknown := p.RolePermissions(Role("intern"))
	if unknown == nil || len(unknown) != 0 {
		t.Errorf("RolePermissions(unknown) = %v, want empty non-nil slice", unknown)
	}
}

func TestCanAccessFeature(t *testing.T) {
	p := NewDefaultPolicy()

	tests := []struct {
		role    Role
		feature string
		want    bool
	}{
		{RoleLabTechnician, "prescriptions", false},
		{RoleLabTechnician, "labs", true},
		{RoleAdmin, "admin", true},
		{RoleNurse, "admin", false},
		{RolePharmacist, "prescriptions", true},
		{RoleDoctor, "devices", true},
		{RoleAdmin, "devices", false},
		{RoleDoctor, "no_such_feature", false},
		{Role("unknown"), "patients", false},
	}

	for _, tt := range tests {
		if got := p.CanAccessFeature(tt.role, tt.feature); got != tt.want {
			t.Errorf("CanAccessFeature(%q, %q) = %v, want %v", tt.role, tt.feature, got, tt.want)
		}
	}
}

func TestAvailableNavItems(t *testing.T) {
	p := NewDefaultPolicy()

	adminItems := p.AvailableNavItems(RoleAdmin)
	var foundAdminPage bool
	for _, item := range adminItems {
		if item.Permission == PermManageUsers {
			foundAdminPage = true
		}
	}
	if !foundAdminPage {
		t.Error("admin nav should include the manage_users entry")
	}

	recepItems := p.AvailableNavItems(RoleReceptionist)
	for _, item := range recepItems {
		if item.Permission != "" && !p.HasPermission(RoleReceptionist, item.Permission) {
			t.Errorf("receptionist nav leaked item %q requiring %q", item.Name, item.Permission)
		}
	}

	// Ordering follows the master list, no re-sorting.
	doctorItems := p.AvailableNavItems(RoleDoctor)
	lastIdx := -1
	for _, item := range doctorItems {
		idx := -1
		for i, master := range defaultNavItems {
			if master.Name == item.Name {
				idx = i
			}
		}
		if idx <= lastIdx {
			t.Fatalf("nav items out of master order at %q", item.Name)
		}
		lastIdx = idx
	}

	if items := p.AvailableNavItems(Role("unknown")); len(items) != 0 {
		t.Errorf("unknown role sees nav items: %v", items)
	}
}

func TestNavItemsAlwaysIncludeUngated(t *testing.T) {
	p := NewPolicy(
		map[Role][]Permission{RoleNurse: {}},
		nil,
		[]NavItem{
			{Name: "Home", Path: "/dashboard"},
			{Name: "Admin", Path: "/dashboard/admin", Permission: PermManageUsers},
		},
	)
	items := p.AvailableNavItems(RoleNurse)
	want := []NavItem{{Name: "Home", Path: "/dashboard"}}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("AvailableNavItems = %v, want %v", items, want)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := NewDefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}

	missing := NewPolicy(map[Role][]Permission{RoleAdmin: {PermManageUsers}}, nil, nil)
	if err := missing.Validate(); err == nil {
		t.Error("policy missing role entries should fail validation")
	}

	badPerm := NewPolicy(
		map[Role][]Permission{
			RoleAdmin: {Permission("launch_rockets")}, RoleDoctor: {}, RoleNurse: {},
			RoleLabTechnician: {}, RolePharmacist: {}, RoleReceptionist: {},
		},
		nil, nil,
	)
	if err := badPerm.Validate(); err == nil {
		t.Error("policy referencing an unenumerated permission should fail validation")
	}
}
