package model

import "time"

// Role is the access level of a portal user.
type Role string

// User roles.
const (
	RoleSuperAdmin   Role = "SUPERADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleCollaborator Role = "COLLABORATOR"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleCollaborator:
		return true
	}
	return false
}

// User is an account that can receive notifications.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CompanyID string    `json:"companyId,omitempty"`
	UnitID    string    `json:"unitId,omitempty"`
	SectorID  string    `json:"sectorId,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}
