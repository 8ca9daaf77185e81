package model

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleOffice         Role = "office"
	RoleProjectManager Role = "project_manager"
	RoleWarehouse      Role = "warehouse"
	RoleDriver         Role = "driver"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID string
	Name   string
	Role   Role
}

func (p Principal) IsAdmin() bool          { return p.Role == RoleAdmin }
func (p Principal) IsOffice() bool         { return p.Role == RoleOffice }
func (p Principal) IsProjectManager() bool { return p.Role == RoleProjectManager }
func (p Principal) IsWarehouse() bool      { return p.Role == RoleWarehouse }
func (p Principal) IsDriver() bool         { return p.Role == RoleDriver }

// CanManageTickets covers order creation, driver assignment, and cancellation.
func (p Principal) CanManageTickets() bool {
	return p.IsAdmin() || p.IsOffice() || p.IsProjectManager()
}

// CanPullMaterials covers the warehouse pull step.
func (p Principal) CanPullMaterials() bool {
	return p.IsAdmin() || p.IsWarehouse() || p.IsDriver()
}
