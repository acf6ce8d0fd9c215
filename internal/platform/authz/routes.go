package authz

import (
	"fmt"
	"strings"
)

// RouteTable maps each role to the dashboard path prefixes it may enter.
// Like the Policy it is built once at startup and read-only afterwards.
type RouteTable struct {
	allowed map[Role][]string
	landing string
}

// NewRouteTable builds a RouteTable from an explicit per-role prefix map and
// the landing path unauthorized users are sent back to.
func NewRouteTable(allowed map[Role][]string, landing string) *RouteTable {
	return &RouteTable{allowed: allowed, landing: landing}
}

// NewDefaultRouteTable returns the deployed route access table.
func NewDefaultRouteTable() *RouteTable {
	return NewRouteTable(defaultAllowedPaths, "/dashboard")
}

var defaultAllowedPaths = map[Role][]string{
	RoleAdmin: {
		"/dashboard/overview",
		"/dashboard/nav",
		"/dashboard/admin",
		"/dashboard/admin/users",
		"/dashboard/analytics",
		"/dashboard/patients",
		"/dashboard/lab-results",
		"/dashboard/prescriptions",
		"/dashboard/alerts",
		"/dashboard/devices",
	},
	RoleDoctor: {
		"/dashboard/overview",
		"/dashboard/nav",
		"/dashboard/patients",
		"/dashboard/lab-results",
		"/dashboard/prescriptions",
		"/dashboard/alerts",
		"/dashboard/analytics",
		"/dashboard/devices",
	},
	RoleNurse: {
		"/dashboard/overview",
		"/dashboard/nav",
		"/dashboard/patients",
		"/dashboard/alerts",
	},
	RoleLabTechnician: {
		"/dashboard/overview",
		"/dashboard/nav",
		"/dashboard/lab-results",
		"/dashboard/patients",
	},
	RolePharmacist: {
		"/dashboard/overview",
		"/dashboard/nav",
		"/dashboard/prescriptions",
		"/dashboard/patients",
	},
	RoleReceptionist: {
		"/dashboard/overview",
		"/dashboard/nav",
		"/dashboard/patients",
	},
}

// Landing returns the path unauthorized-but-authenticated users are
// redirected to.
func (t *RouteTable) Landing() string {
	return t.landing
}

// Authorized reports whether the role may enter the given path. A path
// matches an allowed prefix only on an exact match or at a path-separator
// boundary: an entry for /dashboard/admin covers /dashboard/admin/users but
// not /dashboard/administration.
//
// The landing path itself is authorized for every role; without that, a user
// bounced off a forbidden page would be redirected in a loop.
func (t *RouteTable) Authorized(role Role, path string) bool {
	if path == t.landing {
		return true
	}
	for _, prefix := range t.allowed[role] {
		// The landing path never acts as a prefix grant: an entry equal to
		// it would otherwise open every page underneath it.
		if prefix == t.landing {
			continue
		}
		if matchPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func matchPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Validate checks the route table for configuration errors at startup: every
// enumerated role must have an entry, no entry may reference a role outside
// the enumeration, and every prefix must be a known routable page.
func (t *RouteTable) Validate() error {
	for _, role := range AllRoles {
		if _, ok := t.allowed[role]; !ok {
			return fmt.Errorf("authz: role %q has no route entry", role)
		}
	}
	for role, prefixes := range t.allowed {
		if !role.Valid() {
			return fmt.Errorf("authz: route entry for unknown role %q", role)
		}
		for _, prefix := range prefixes {
			if _, ok := routeFeatures[prefix]; !ok {
				return fmt.Errorf("authz: route prefix %q for role %q maps to no known page", prefix, role)
			}
		}
	}
	return nil
}

// CoverageWarnings cross-checks the route table against the permission
// policy. The two tables are maintained independently, so a role can be
// routed to a page whose backing feature its permissions do not cover (the
// page would render empty) or hold a permission with no routable page.
// Mismatches are reported as warnings for the operator rather than startup
// failures, since the deployed tables are the source of truth for each side.
func (t *RouteTable) CoverageWarnings(policy *Policy) []string {
	var warnings []string
	for _, role := range AllRoles {
		for _, prefix := range t.allowed[role] {
			feature := routeFeatures[prefix]
			if feature != "" && !policy.CanAccessFeature(role, feature) {
				warnings = append(warnings,
					fmt.Sprintf("role %q is routed to %q but lacks the %q feature", role, prefix, feature))
			}
		}
		for prefix, feature := range routeFeatures {
			if feature == "" || !policy.CanAccessFeature(role, feature) {
				continue
			}
			if !t.Authorized(role, prefix) {
				warnings = append(warnings,
					fmt.Sprintf("role %q holds the %q feature but is not routed to %q", role, feature, prefix))
			}
		}
	}
	return warnings
}

// routeFeatures ties each routable prefix to the feature gating it. Prefixes
// mapped to "" are plain landing/overview pages with no feature gate.
var routeFeatures = map[string]string{
	"/dashboard":               "",
	"/dashboard/nav":           "",
	"/dashboard/overview":      "patients",
	"/dashboard/patients":      "patients",
	"/dashboard/lab-results":   "labs",
	"/dashboard/prescriptions": "prescriptions",
	"/dashboard/alerts":        "alerts",
	"/dashboard/analytics":     "analytics",
	"/dashboard/devices":       "devices",
	"/dashboard/admin":         "admin",
	"/dashboard/admin/users":   "admin",
}
