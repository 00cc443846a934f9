package events

import (
	"time"

	"github.com/maximo-portal/version-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventDeploymentCreated   EventType = "deployment_created"
	EventCommitRecorded      EventType = "commit_recorded"
	EventUserSaved           EventType = "user_saved"
	EventOrganizationSaved   EventType = "organization_saved"
	EventOrganizationDeleted EventType = "organization_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketChangedPayload is published for ticket creation and updates.
type TicketChangedPayload struct {
	TicketID      string                      `json:"ticket_id"`
	Status        domain.TicketStatus         `json:"status"`
	AppendedCount int                         `json:"appended_count"`
	Entries       []domain.TicketHistoryEntry `json:"entries,omitempty"`
}

// DeploymentCreatedPayload payload.
type DeploymentCreatedPayload struct {
	DeploymentID   string             `json:"deployment_id"`
	Environment    domain.Environment `json:"environment"`
	TicketIDs      []string           `json:"ticket_ids"`
	UpdatedTickets []string           `json:"updated_tickets"`
}

// CommitRecordedPayload payload.
type CommitRecordedPayload struct {
	CommitID       string   `json:"commit_id"`
	Branch         string   `json:"branch"`
	UpdatedTickets []string `json:"updated_tickets"`
}

// DirectoryChangedPayload is published when a user or organization changes.
type DirectoryChangedPayload struct {
	ID string `json:"id"`
}
