package dto

import (
	"time"

	"github.com/maximo-portal/version-portal/internal/domain"
)

// DeployedFileRequest describes one artifact.
type DeployedFileRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Type    string `json:"type"`
}

// CreateDeploymentRequest payload. The HTML form sends files as text lines
// ("name version type"), the JSON API as objects.
type CreateDeploymentRequest struct {
	Environment domain.Environment      `json:"environment" form:"environment"`
	Status      domain.DeploymentStatus `json:"status" form:"status"`
	Files       []DeployedFileRequest   `json:"files" form:"-"`
	FileLines   string                  `json:"-" form:"files"`
	TicketIDs   []string                `json:"ticketIds" form:"ticketIds"`
}

// DeploymentResponse reports the saved deployment and the ticket fan-out.
type DeploymentResponse struct {
	Deployment     domain.DeploymentLogEntry `json:"deployment"`
	UpdatedTickets []string                  `json:"updatedTickets"`
	FailedTickets  []string                  `json:"failedTickets"`
}

// CommitRequest payload.
type CommitRequest struct {
	ID        string     `json:"id" form:"id"`
	Message   string     `json:"message" form:"message"`
	AuthorID  string     `json:"authorId" form:"authorId"`
	Branch    string     `json:"branch" form:"branch"`
	Date      *time.Time `json:"date" form:"-"`
	Files     []string   `json:"files" form:"files"`
	TicketIDs []string   `json:"ticketIds" form:"ticketIds"`
}

// CommitResponse reports the saved commit and the ticket fan-out.
type CommitResponse struct {
	Commit         domain.Commit `json:"commit"`
	UpdatedTickets []string      `json:"updatedTickets"`
	FailedTickets  []string      `json:"failedTickets"`
	AlreadyLinked  []string      `json:"alreadyLinked,omitempty"`
}
