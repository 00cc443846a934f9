package dto

import "github.com/maximo-portal/version-portal/internal/domain"

// UserRequest creates a user when ID is empty and replaces it otherwise.
type UserRequest struct {
	ID             string          `json:"id" form:"id"`
	Name           string          `json:"name" form:"name"`
	Email          string          `json:"email" form:"email"`
	Role           domain.UserRole `json:"role" form:"role"`
	OrganizationID string          `json:"organizationId" form:"organizationId"`
	Active         bool            `json:"active" form:"active"`
}

// OrganizationRequest creates or replaces an organization.
type OrganizationRequest struct {
	ID          string `json:"id" form:"id"`
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Active      bool   `json:"active" form:"active"`
}

// SwitchUserRequest picks the acting user for page sessions.
type SwitchUserRequest struct {
	UserID   string `form:"userId"`
	ReturnTo string `form:"returnTo"`
}

// ActorResponse describes the acting user.
type ActorResponse struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	User *domain.User `json:"user,omitempty"`
}
