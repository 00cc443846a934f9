package dto

import (
	"time"

	"github.com/maximo-portal/version-portal/internal/domain"
)

// CreateTicketRequest payload. Shared by the JSON API and the HTML form.
type CreateTicketRequest struct {
	Title       string                `json:"title" form:"title"`
	Description string                `json:"description" form:"description"`
	Type        domain.TicketType     `json:"type" form:"type"`
	Priority    domain.TicketPriority `json:"priority" form:"priority"`
	AssigneeID  string                `json:"assigneeId" form:"assigneeId"`
	RequestedBy string                `json:"requestedBy" form:"requestedBy"`
	Provider    string                `json:"provider" form:"provider"`
	Branch      string                `json:"branch" form:"branch"`
	Attachments []string              `json:"attachments" form:"attachments"`
}

// UpdateTicketRequest payload. Omitted fields are left untouched; an empty
// assigneeId unassigns the ticket.
type UpdateTicketRequest struct {
	Status     *string `json:"status" form:"status"`
	Priority   *string `json:"priority" form:"priority"`
	Type       *string `json:"type" form:"type"`
	AssigneeID *string `json:"assigneeId" form:"assigneeId"`
	Comment    string  `json:"comment" form:"comment"`
}

// CommentRequest payload.
type CommentRequest struct {
	Comment string `json:"comment" form:"comment"`
}

// TicketDetailsRequest edits untracked ticket fields.
type TicketDetailsRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Provider    *string  `json:"provider"`
	Branch      *string  `json:"branch"`
	Attachments []string `json:"attachments"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Type         domain.TicketType     `json:"type"`
	Priority     domain.TicketPriority `json:"priority"`
	AssigneeID   *string               `json:"assigneeId,omitempty"`
	RequestedBy  string                `json:"requestedBy"`
	CreatedAt    time.Time             `json:"createdAt"`
	LastUpdated  time.Time             `json:"lastUpdated"`
	HistoryCount int                   `json:"historyCount"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items  []TicketSummary `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// NewTicketSummary maps a ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Type:         ticket.Type,
		Priority:     ticket.Priority,
		AssigneeID:   ticket.AssigneeID,
		RequestedBy:  ticket.RequestedBy,
		CreatedAt:    ticket.CreatedAt,
		LastUpdated:  ticket.LastUpdated,
		HistoryCount: len(ticket.History),
	}
}
