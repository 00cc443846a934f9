package domain

import "time"

// TicketHistoryEntry is an immutable audit record of one change to a ticket.
// Only the from/to pairs of the attribute that changed are set.
type TicketHistoryEntry struct {
	ID           string          `json:"id" yaml:"id"`
	Timestamp    time.Time       `json:"timestamp" yaml:"timestamp"`
	UserID       string          `json:"userId" yaml:"userId"`
	Action       string          `json:"action" yaml:"action"`
	FromStatus   *TicketStatus   `json:"fromStatus,omitempty" yaml:"fromStatus,omitempty"`
	ToStatus     *TicketStatus   `json:"toStatus,omitempty" yaml:"toStatus,omitempty"`
	FromAssignee *string         `json:"fromAssignee,omitempty" yaml:"fromAssignee,omitempty"`
	ToAssignee   *string         `json:"toAssignee,omitempty" yaml:"toAssignee,omitempty"`
	FromPriority *TicketPriority `json:"fromPriority,omitempty" yaml:"fromPriority,omitempty"`
	ToPriority   *TicketPriority `json:"toPriority,omitempty" yaml:"toPriority,omitempty"`
	FromType     *TicketType     `json:"fromType,omitempty" yaml:"fromType,omitempty"`
	ToType       *TicketType     `json:"toType,omitempty" yaml:"toType,omitempty"`
	Comment      *string         `json:"comment,omitempty" yaml:"comment,omitempty"`
	CommitID     *string         `json:"commitId,omitempty" yaml:"commitId,omitempty"`
	DeploymentID *string         `json:"deploymentId,omitempty" yaml:"deploymentId,omitempty"`
}

// History action labels.
const (
	ActionCreated          = "Ticket creado"
	ActionStatusChanged    = "Cambio de estado"
	ActionReopened         = "Ticket reabierto"
	ActionAssigneeChanged  = "Cambio de asignado"
	ActionUnassigned       = "Ticket desasignado"
	ActionPriorityChanged  = "Cambio de prioridad"
	ActionTypeChanged      = "Cambio de tipo"
	ActionCommented        = "Comentario agregado"
	ActionCommitLinked     = "Commit vinculado"
	ActionDeploymentLinked = "Despliegue registrado"
)
