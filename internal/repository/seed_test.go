package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/domain"
)

const fixture = `
organizations:
  - id: org-1
    name: Acme Minería
    active: true
    createdAt: 2026-01-05T08:00:00Z
users:
  - id: usr-admin
    name: Ana Admin
    email: ana@example.com
    role: Administrador
    organizationId: org-1
    active: true
tickets:
  - id: MAX-0001
    title: Error al aprobar orden
    description: Falla en WO
    status: Abierto
    type: Incidencia
    priority: Alta
    requestedBy: usr-admin
    attachments: [log.txt]
    createdAt: 2026-01-10T09:00:00Z
    lastUpdated: 2026-01-10T09:00:00Z
    history:
      - id: h-1
        timestamp: 2026-01-10T09:00:00Z
        userId: usr-admin
        action: Ticket creado
`

func TestParseSeed(t *testing.T) {
	data, err := ParseSeed([]byte(fixture))
	require.NoError(t, err)

	require.Len(t, data.Tickets, 1)
	ticket := data.Tickets[0]
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), ticket.CreatedAt.UTC())
	assert.Nil(t, ticket.AssigneeID)
	require.Len(t, ticket.History, 1)
	assert.Equal(t, domain.ActionCreated, ticket.History[0].Action)
	assert.Equal(t, domain.UserRoleAdmin, data.Users[0].Role)
	assert.Equal(t, "Acme Minería", data.Organizations[0].Name)
}

func TestParseSeed_Invalid(t *testing.T) {
	_, err := ParseSeed([]byte("tickets: [\n"))
	assert.Error(t, err)
}

func TestLoadSeed_MissingFileIsEmpty(t *testing.T) {
	data, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, data.Tickets)
}

func TestRepositories_Seed(t *testing.T) {
	local := cache.NewMemoryCache(0)
	repos := NewRepositories(Dependencies{Local: local, Namespace: "maximo-portal"})
	data, err := ParseSeed([]byte(fixture))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repos.Seed(ctx, data, zap.NewNop()))

	tickets, err := repos.Tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	users, err := repos.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	deployments, err := repos.Deployments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, deployments)

	_, ok, err := local.Get(ctx, "maximo-portal:deployments")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeedFileInRepoParses(t *testing.T) {
	data, err := LoadSeed(filepath.Join("..", "..", "seed", "portal.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, data.Tickets)
	assert.NotEmpty(t, data.Users)
	for _, ticket := range data.Tickets {
		assert.True(t, ticket.Status.Valid(), ticket.ID)
		assert.True(t, ticket.Type.Valid(), ticket.ID)
		assert.True(t, ticket.Priority.Valid(), ticket.ID)
	}
}
