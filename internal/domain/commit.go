package domain

import "time"

// Commit is a version-control change tracked by the portal.
type Commit struct {
	ID        string    `json:"id" yaml:"id"`
	Message   string    `json:"message" yaml:"message"`
	AuthorID  string    `json:"authorId" yaml:"authorId"`
	Branch    string    `json:"branch" yaml:"branch"`
	Date      time.Time `json:"date" yaml:"date"`
	Files     []string  `json:"files" yaml:"files"`
	TicketIDs []string  `json:"ticketIds,omitempty" yaml:"ticketIds,omitempty"`
}

// ShortID returns the abbreviated hash shown in tables.
func (c Commit) ShortID() string {
	if len(c.ID) <= 7 {
		return c.ID
	}
	return c.ID[:7]
}
