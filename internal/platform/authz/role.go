package authz

// Role identifies a staff function. The set is closed: roles are deployed
// configuration, not user-editable data.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleDoctor        Role = "doctor"
	RoleNurse         Role = "nurse"
	RoleLabTechnician Role = "lab_technician"
	RolePharmacist    Role = "pharmacist"
	RoleReceptionist  Role = "receptionist"
)

// AllRoles lists every enumerated role. Order is stable and used by the
// startup consistency checks and the admin role-management endpoints.
var AllRoles = []Role{
	RoleAdmin,
	RoleDoctor,
	RoleNurse,
	RoleLabTechnician,
	RolePharmacist,
	RoleReceptionist,
}

// ParseRole maps a stored role string onto the enumeration. Unrecognized
// values (stale data, typos in the user store) report ok=false; callers must
// treat that as "no permissions", never as an error.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleLabTechnician, RolePharmacist, RoleReceptionist:
		return Role(s), true
	}
	return "", false
}

// Valid reports whether the role is one of the enumerated roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Name returns the user-friendly display name for a role.
func (r Role) Name() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleDoctor:
		return "Doctor / Clinician"
	case RoleNurse:
		return "Nurse"
	case RoleLabTechnician:
		return "Lab Technician"
	case RolePharmacist:
		return "Pharmacist"
	case RoleReceptionist:
		return "Receptionist"
	}
	return string(r)
}

// Description returns a short description of the role's scope of practice.
func (r Role) Description() string {
	switch r {
	case RoleAdmin:
		return "Full system access with user and settings management"
	case RoleDoctor:
		return "Clinical care with patient management and prescription authority"
	case RoleNurse:
		return "Patient care with vitals tracking and alert monitoring"
	case RoleLabTechnician:
		return "Lab results management and quality control"
	case RolePharmacist:
		return "Prescription management and medication dispensing"
	case RoleReceptionist:
		return "Patient registration and demographic information management"
	}
	return ""
}

// Permission identifies a single atomic capability. Permissions carry no
// hierarchy; a role holds exactly the permissions its policy entry lists.
type Permission string

const (
	PermViewAllPatients       Permission = "view_all_patients"
	PermEditPatients          Permission = "edit_patients"
	PermDeletePatients        Permission = "delete_patients"
	PermViewVitals            Permission = "view_vitals"
	PermEditVitals            Permission = "edit_vitals"
	PermVerifyVitals          Permission = "verify_vitals"
	PermViewLabs              Permission = "view_labs"
	PermEditLabs              Permission = "edit_labs"
	PermVerifyLabs            Permission = "verify_labs"
	PermViewPrescriptions     Permission = "view_prescriptions"
	PermCreatePrescriptions   Permission = "create_prescriptions"
	PermEditPrescriptions     Permission = "edit_prescriptions"
	PermDispensePrescriptions Permission = "dispense_prescriptions"
	PermViewAlerts            Permission = "view_alerts"
	PermCreateAlerts          Permission = "create_alerts"
	PermManageAlerts          Permission = "manage_alerts"
	PermViewAnalytics         Permission = "view_analytics"
	PermManageUsers           Permission = "manage_users"
	PermChangeRoles           Permission = "change_roles"
	PermViewAuditLogs         Permission = "view_audit_logs"
	PermManageDevices         Permission = "manage_devices"
	PermViewLifestyleData     Permission = "view_lifestyle_data"
	PermEditLifestyleData     Permission = "edit_lifestyle_data"
)

// AllPermissions lists every enumerated permission.
var AllPermissions = []Permission{
	PermViewAllPatients,
	PermEditPatients,
	PermDeletePatients,
	PermViewVitals,
	PermEditVitals,
	PermVerifyVitals,
	PermViewLabs,
	PermEditLabs,
	PermVerifyLabs,
	PermViewPrescriptions,
	PermCreatePrescriptions,
	PermEditPrescriptions,
	PermDispensePrescriptions,
	PermViewAlerts,
	PermCreateAlerts,
	PermManageAlerts,
	PermViewAnalytics,
	PermManageUsers,
	PermChangeRoles,
	PermViewAuditLogs,
	PermManageDevices,
	PermViewLifestyleData,
	PermEditLifestyleData,
}

// Valid reports whether the permission is one of the enumerated permissions.
func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}
