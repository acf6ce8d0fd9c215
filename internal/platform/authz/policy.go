package authz

import "fmt"

// Policy answers permission queries for roles. It is built once at process
// start and injected into handlers and middleware; the tables are never
// mutated afterwards, so concurrent reads need no locking.
type Policy struct {
	rolePerms    map[Role]map[Permission]bool
	featurePerms map[string][]Permission
	navItems     []NavItem
}

// NewPolicy builds a Policy from explicit tables. Tests inject small tables
// here instead of patching package state.
func NewPolicy(rolePerms map[Role][]Permission, featurePerms map[string][]Permission, navItems []NavItem) *Policy {
	byRole := make(map[Role]map[Permission]bool, len(rolePerms))
	for role, perms := range rolePerms {
		set := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		byRole[role] = set
	}
	return &Policy{
		rolePerms:    byRole,
		featurePerms: featurePerms,
		navItems:     navItems,
	}
}

// NewDefaultPolicy returns the deployed role-to-permission policy.
func NewDefaultPolicy() *Policy {
	return NewPolicy(defaultRolePermissions, defaultFeaturePermissions, defaultNavItems)
}

var defaultRolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermViewAllPatients,
		PermEditPatients,
		PermViewVitals,
		PermViewLabs,
		PermViewPrescriptions,
		PermViewAlerts,
		PermViewAnalytics,
		PermManageUsers,
		PermChangeRoles,
		PermViewAuditLogs,
		PermViewLifestyleData,
	},
	RoleDoctor: {
		PermViewAllPatients,
		PermEditPatients,
		PermViewVitals,
		PermEditVitals,
		PermVerifyVitals,
		PermViewLabs,
		PermVerifyLabs,
		PermViewPrescriptions,
		PermCreatePrescriptions,
		PermEditPrescriptions,
		PermViewAlerts,
		PermCreateAlerts,
		PermManageAlerts,
		PermViewAnalytics,
		PermManageDevices,
		PermViewLifestyleData,
		PermEditLifestyleData,
	},
	RoleNurse: {
		PermViewAllPatients,
		PermViewVitals,
		PermEditVitals,
		PermVerifyVitals,
		PermViewPrescriptions,
		PermViewAlerts,
		PermCreateAlerts,
		PermViewLifestyleData,
		PermEditLifestyleData,
	},
	RoleLabTechnician: {
		PermViewAllPatients,
		PermViewLabs,
		PermEditLabs,
		PermVerifyLabs,
		PermCreateAlerts,
	},
	RolePharmacist: {
		PermViewAllPatients,
		PermViewPrescriptions,
		PermDispensePrescriptions,
		PermCreateAlerts,
	},
	RoleReceptionist: {
		PermViewAllPatients,
		PermEditPatients,
	},
}

// defaultFeaturePermissions maps a feature name to the permissions that make
// it visible. A role can access a feature when it holds at least one of them.
var defaultFeaturePermissions = map[string][]Permission{
	"patients":      {PermViewAllPatients},
	"vitals":        {PermViewVitals},
	"labs":          {PermViewLabs},
	"prescriptions": {PermViewPrescriptions},
	"alerts":        {PermViewAlerts},
	"analytics":     {PermViewAnalytics},
	"admin":         {PermManageUsers},
	"devices":       {PermManageDevices},
	"lifestyle":     {PermViewLifestyleData},
}

// HasPermission reports whether the role holds the permission. A role missing
// from the table has no permissions; this never errors so that permission
// checks in the request path cannot crash a request.
func (p *Policy) HasPermission(role Role, perm Permission) bool {
	return p.rolePerms[role][perm]
}

// HasAnyPermission reports whether the role holds at least one of the given
// permissions. An empty list is vacuously false.
func (p *Policy) HasAnyPermission(role Role, perms []Permission) bool {
	for _, perm := range perms {
		if p.HasPermission(role, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every one of the given
// permissions. An empty list is vacuously true.
func (p *Policy) HasAllPermissions(role Role, perms []Permission) bool {
	for _, perm := range perms {
		if !p.HasPermission(role, perm) {
			return false
		}
	}
	return true
}

// RolePermissions returns the permission set for a role in the enumeration
// order of AllPermissions. The result is never nil, so callers can range over
// it unconditionally; unknown roles get an empty slice.
func (p *Policy) RolePermissions(role Role) []Permission {
	perms := []Permission{}
	for _, perm := range AllPermissions {
		if p.rolePerms[role][perm] {
			perms = append(perms, perm)
		}
	}
	return perms
}

// CanAccessFeature reports whether the role can use the named feature.
// Unknown feature names are denied rather than errored (fail closed).
func (p *Policy) CanAccessFeature(role Role, feature string) bool {
	required, ok := p.featurePerms[feature]
	if !ok {
		return false
	}
	return p.HasAnyPermission(role, required)
}

// Validate checks the policy tables for configuration errors: every
// enumerated role must have an entry (possibly empty) and every referenced
// permission must be enumerated. Run at startup; a failure here is a
// programmer error, not a runtime condition.
func (p *Policy) Validate() error {
	for _, role := range AllRoles {
		if _, ok := p.rolePerms[role]; !ok {
			return fmt.Errorf("authz: role %q has no permission entry", role)
		}
	}
	for role, perms := range p.rolePerms {
		if !role.Valid() {
			return fmt.Errorf("authz: permission entry for unknown role %q", role)
		}
		for perm := range perms {
			if !perm.Valid() {
				return fmt.Errorf("authz: role %q references unknown permission %q", role, perm)
			}
		}
	}
	for feature, perms := range p.featurePerms {
		for _, perm := range perms {
			if !perm.Valid() {
				return fmt.Errorf("authz: feature %q references unknown permission %q", feature, perm)
			}
		}
	}
	for _, item := range p.navItems {
		if item.Permission != "" && !item.Permission.Valid() {
			return fmt.Errorf("authz: nav item %q references unknown permission %q", item.Name, item.Permission)
		}
	}
	return nil
}
