package domain

import "time"

// UserRole describes what a portal user does.
type UserRole string

const (
	UserRoleAdmin      UserRole = "Administrador"
	UserRoleDeveloper  UserRole = "Desarrollador"
	UserRoleConsultant UserRole = "Consultor"
	UserRoleClient     UserRole = "Cliente"
)

// UserRoles lists every role.
var UserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleDeveloper,
	UserRoleConsultant,
	UserRoleClient,
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	for _, candidate := range UserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// User is a person who requests, works on or deploys tickets.
type User struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Email          string    `json:"email" yaml:"email"`
	Role           UserRole  `json:"role" yaml:"role"`
	OrganizationID string    `json:"organizationId" yaml:"organizationId"`
	Active         bool      `json:"active" yaml:"active"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
}
