package service

import (
	"strings"
	"time"

	"github.com/maximo-portal/version-portal/internal/domain"
)

// TicketUpdate carries optional changes to the tracked ticket fields.
// A nil field is left untouched. AssigneeID pointing at an empty string
// unassigns the ticket.
type TicketUpdate struct {
	Status     *domain.TicketStatus
	AssigneeID *string
	Priority   *domain.TicketPriority
	Type       *domain.TicketType
	Comment    string
}

// ChangeSet records which tracked fields an update really modifies.
type ChangeSet struct {
	Status   bool
	Assignee bool
	Priority bool
	Type     bool
	Comment  bool
}

// Empty reports whether the update would leave the ticket untouched.
func (c ChangeSet) Empty() bool {
	return !c.Status && !c.Assignee && !c.Priority && !c.Type && !c.Comment
}

// Diff compares the update against the ticket's current values.
func Diff(ticket *domain.Ticket, update TicketUpdate) ChangeSet {
	var changes ChangeSet
	if update.Status != nil && *update.Status != ticket.Status {
		changes.Status = true
	}
	if update.AssigneeID != nil && strings.TrimSpace(*update.AssigneeID) != ticket.Assignee() {
		changes.Assignee = true
	}
	if update.Priority != nil && *update.Priority != ticket.Priority {
		changes.Priority = true
	}
	if update.Type != nil && *update.Type != ticket.Type {
		changes.Type = true
	}
	if strings.TrimSpace(update.Comment) != "" {
		changes.Comment = true
	}
	return changes
}

// historyFor builds one entry per changed field. A comment rides on the status
// entry when the status changes and gets an entry of its own otherwise.
func historyFor(ticket *domain.Ticket, update TicketUpdate, changes ChangeSet, actorID string, at time.Time, ids IDGenerator) []domain.TicketHistoryEntry {
	var entries []domain.TicketHistoryEntry
	newEntry := func(action string) domain.TicketHistoryEntry {
		return domain.TicketHistoryEntry{
			ID:        ids(),
			Timestamp: at,
			UserID:    actorID,
			Action:    action,
		}
	}
	comment := strings.TrimSpace(update.Comment)
	commentUsed := false

	if changes.Status {
		from, to := ticket.Status, *update.Status
		action := domain.ActionStatusChanged
		if from.IsTerminal() && to == domain.TicketStatusReopened {
			action = domain.ActionReopened
		}
		entry := newEntry(action)
		entry.FromStatus = &from
		entry.ToStatus = &to
		if changes.Comment {
			entry.Comment = &comment
			commentUsed = true
		}
		entries = append(entries, entry)
	}
	if changes.Assignee {
		from := ticket.Assignee()
		to := strings.TrimSpace(*update.AssigneeID)
		action := domain.ActionAssigneeChanged
		if to == "" {
			action = domain.ActionUnassigned
		}
		entry := newEntry(action)
		if from != "" {
			entry.FromAssignee = &from
		}
		if to != "" {
			entry.ToAssignee = &to
		}
		entries = append(entries, entry)
	}
	if changes.Priority {
		from, to := ticket.Priority, *update.Priority
		entry := newEntry(domain.ActionPriorityChanged)
		entry.FromPriority = &from
		entry.ToPriority = &to
		entries = append(entries, entry)
	}
	if changes.Type {
		from, to := ticket.Type, *update.Type
		entry := newEntry(domain.ActionTypeChanged)
		entry.FromType = &from
		entry.ToType = &to
		entries = append(entries, entry)
	}
	if changes.Comment && !commentUsed {
		entry := newEntry(domain.ActionCommented)
		entry.Comment = &comment
		entries = append(entries, entry)
	}
	return entries
}

// apply copies the changed fields onto the ticket.
func apply(ticket *domain.Ticket, update TicketUpdate, changes ChangeSet) {
	if changes.Status {
		ticket.Status = *update.Status
	}
	if changes.Assignee {
		to := strings.TrimSpace(*update.AssigneeID)
		if to == "" {
			ticket.AssigneeID = nil
		} else {
			ticket.AssigneeID = &to
		}
	}
	if changes.Priority {
		ticket.Priority = *update.Priority
	}
	if changes.Type {
		ticket.Type = *update.Type
	}
}
