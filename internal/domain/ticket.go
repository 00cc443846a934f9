package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Abierto"
	TicketStatusInProgress TicketStatus = "En Progreso"
	TicketStatusInReview   TicketStatus = "En Revisión"
	TicketStatusPending    TicketStatus = "Pendiente"
	TicketStatusResolved   TicketStatus = "Resuelto"
	TicketStatusClosed     TicketStatus = "Cerrado"
	TicketStatusReopened   TicketStatus = "Reabierto"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusInReview,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusReopened,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether work on the ticket is considered finished.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusResolved
}

// CanTransition reports whether a ticket may move from one status to another.
// Every known status may move to every other known status; only unknown
// values are rejected.
func CanTransition(from, to TicketStatus) bool {
	return from.Valid() && to.Valid()
}

// TicketType classifies the kind of work requested.
type TicketType string

const (
	TicketTypeIncident      TicketType = "Incidencia"
	TicketTypeImprovement   TicketType = "Mejora"
	TicketTypeFeature       TicketType = "Nueva Funcionalidad"
	TicketTypeQuestion      TicketType = "Consulta"
	TicketTypeConfiguration TicketType = "Configuración"
)

// TicketTypes lists every ticket type in display order.
var TicketTypes = []TicketType{
	TicketTypeIncident,
	TicketTypeImprovement,
	TicketTypeFeature,
	TicketTypeQuestion,
	TicketTypeConfiguration,
}

// Valid reports whether t is a known type.
func (t TicketType) Valid() bool {
	for _, candidate := range TicketTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Baja"
	TicketPriorityMedium TicketPriority = "Media"
	TicketPriorityHigh   TicketPriority = "Alta"
)

// TicketPriorities lists priorities from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	return p.Rank() >= 0
}

// Rank orders priorities; unknown values rank -1.
func (p TicketPriority) Rank() int {
	for i, candidate := range TicketPriorities {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Ticket is a trackable unit of work with an append-only history.
type Ticket struct {
	ID          string               `json:"id" yaml:"id"`
	Title       string               `json:"title" yaml:"title"`
	Description string               `json:"description" yaml:"description"`
	Status      TicketStatus         `json:"status" yaml:"status"`
	Type        TicketType           `json:"type" yaml:"type"`
	Priority    TicketPriority       `json:"priority" yaml:"priority"`
	AssigneeID  *string              `json:"assigneeId,omitempty" yaml:"assigneeId,omitempty"`
	RequestedBy string               `json:"requestedBy" yaml:"requestedBy"`
	Provider    *string              `json:"provider,omitempty" yaml:"provider,omitempty"`
	Branch      *string              `json:"branch,omitempty" yaml:"branch,omitempty"`
	Attachments []string             `json:"attachments" yaml:"attachments"`
	CreatedAt   time.Time            `json:"createdAt" yaml:"createdAt"`
	LastUpdated time.Time            `json:"lastUpdated" yaml:"lastUpdated"`
	History     []TicketHistoryEntry `json:"history" yaml:"history"`
}

// Assignee returns the assignee id or an empty string when unassigned.
func (t *Ticket) Assignee() string {
	if t.AssigneeID == nil {
		return ""
	}
	return *t.AssigneeID
}

// HasCommit reports whether commitID is already linked in the history.
func (t *Ticket) HasCommit(commitID string) bool {
	for _, entry := range t.History {
		if entry.Action == ActionCommitLinked && entry.CommitID != nil && *entry.CommitID == commitID {
			return true
		}
	}
	return false
}

// AppendHistory adds entries to the end of the history.
func (t *Ticket) AppendHistory(entries ...TicketHistoryEntry) {
	t.History = append(t.History, entries...)
}
