package authz

// NavItem is one entry in the dashboard navigation. Items with an empty
// Permission are visible to every authenticated user.
type NavItem struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Permission Permission `json:"permission,omitempty"`
}

// defaultNavItems is the fixed master navigation list. Output ordering of
// AvailableNavItems follows this list; nothing is sorted.
var defaultNavItems = []NavItem{
	{Name: "Overview", Path: "/dashboard/overview", Permission: PermViewAllPatients},
	{Name: "Patients", Path: "/dashboard/patients", Permission: PermViewAllPatients},
	{Name: "Lab Results", Path: "/dashboard/lab-results", Permission: PermViewLabs},
	{Name: "Prescriptions", Path: "/dashboard/prescriptions", Permission: PermViewPrescriptions},
	{Name: "Alerts", Path: "/dashboard/alerts", Permission: PermViewAlerts},
	{Name: "Analytics", Path: "/dashboard/analytics", Permission: PermViewAnalytics},
	{Name: "Devices", Path: "/dashboard/devices", Permission: PermManageDevices},
	{Name: "Admin", Path: "/dashboard/admin", Permission: PermManageUsers},
}

// AvailableNavItems filters the master navigation list down to the entries
// the role may see. This is UI convenience only; the route guard remains the
// enforcement boundary.
func (p *Policy) AvailableNavItems(role Role) []NavItem {
	items := []NavItem{}
	for _, item := range p.navItems {
		if item.Permission == "" || p.HasPermission(role, item.Permission) {
			items = append(items, item)
		}
	}
	return items
}
