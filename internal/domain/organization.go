package domain

import "time"

// Organization groups users.
type Organization struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Active      bool      `json:"active" yaml:"active"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}
