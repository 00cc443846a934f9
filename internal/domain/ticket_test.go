package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatus_Valid(t *testing.T) {
	for _, status := range TicketStatuses {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, TicketStatus("OPEN").Valid())
	assert.False(t, TicketStatus("").Valid())
}

func TestTicketStatus_IsTerminal(t *testing.T) {
	assert.True(t, TicketStatusClosed.IsTerminal())
	assert.True(t, TicketStatusResolved.IsTerminal())
	assert.False(t, TicketStatusReopened.IsTerminal())
	assert.False(t, TicketStatusOpen.IsTerminal())
}

func TestCanTransition_AnyKnownStatusToAnyOther(t *testing.T) {
	for _, from := range TicketStatuses {
		for _, to := range TicketStatuses {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, CanTransition(TicketStatusClosed, TicketStatusReopened))
	assert.False(t, CanTransition(TicketStatusOpen, "Archivado"))
	assert.False(t, CanTransition("", TicketStatusOpen))
}

func TestTicketPriority_Rank(t *testing.T) {
	assert.Equal(t, 0, TicketPriorityLow.Rank())
	assert.Equal(t, 2, TicketPriorityHigh.Rank())
	assert.Equal(t, -1, TicketPriority("Urgente").Rank())
	assert.False(t, TicketPriority("Urgente").Valid())
}

func TestTicket_AssigneeAndAppendHistory(t *testing.T) {
	ticket := &Ticket{}
	assert.Equal(t, "", ticket.Assignee())

	id := "u-2"
	ticket.AssigneeID = &id
	assert.Equal(t, "u-2", ticket.Assignee())

	ticket.AppendHistory(TicketHistoryEntry{ID: "h1"}, TicketHistoryEntry{ID: "h2"})
	ticket.AppendHistory(TicketHistoryEntry{ID: "h3"})
	assert.Len(t, ticket.History, 3)
	assert.Equal(t, "h3", ticket.History[2].ID)
}

func TestTicket_HasCommit(t *testing.T) {
	hash := "abcdef1"
	ticket := &Ticket{History: []TicketHistoryEntry{
		{ID: "h1", Action: ActionCreated},
		{ID: "h2", Action: ActionCommitLinked, CommitID: &hash},
	}}

	assert.True(t, ticket.HasCommit("abcdef1"))
	assert.False(t, ticket.HasCommit("1234567"))
	assert.False(t, (&Ticket{}).HasCommit("abcdef1"))
}

func TestCommit_ShortID(t *testing.T) {
	assert.Equal(t, "a1b2c3d", Commit{ID: "a1b2c3d4e5f6"}.ShortID())
	assert.Equal(t, "abc", Commit{ID: "abc"}.ShortID())
}
