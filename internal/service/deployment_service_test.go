package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

type MockHistoryAppender struct {
	mock.Mock
}

func (m *MockHistoryAppender) AppendHistory(ctx context.Context, ticketID string, entry domain.TicketHistoryEntry) error {
	args := m.Called(ctx, ticketID, entry)
	return args.Error(0)
}

var sampleFiles = []domain.DeployedFile{{Name: "WOTRACK.xml", Version: "1.4.0", Type: "app"}}

func TestCreateDeployment_LinksEveryTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createTicket(t, "Uno")
	b := f.createTicket(t, "Dos")
	c := f.createTicket(t, "Tres")
	f.clock.Advance(time.Hour)

	result, err := f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{
		Files:       sampleFiles,
		Environment: domain.EnvironmentProduction,
		TicketIDs:   []string{c.ID, a.ID, " " + b.ID + " ", a.ID},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^DEP-[0-9A-F]{8}$`, result.Deployment.ID)
	assert.Equal(t, domain.DeploymentStatusSucceeded, result.Deployment.Status)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, result.Deployment.TicketIDs)
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, result.UpdatedTickets)
	assert.Empty(t, result.FailedTickets)

	for _, id := range []string{a.ID, b.ID, c.ID} {
		ticket, err := f.tickets.GetTicket(ctx, id)
		require.NoError(t, err)
		require.Len(t, ticket.History, 2, id)
		entry := ticket.History[1]
		assert.Equal(t, "Despliegue registrado en Producción (Exitoso)", entry.Action)
		assert.Equal(t, result.Deployment.ID, *entry.DeploymentID)
		assert.Equal(t, "usr-dev", entry.UserID)
		assert.Equal(t, f.clock.Now(), ticket.LastUpdated)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	}

	stored, err := f.deployments.GetDeployment(ctx, result.Deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Deployment, *stored)
	assert.Contains(t, f.dispatcher.types(), events.EventDeploymentCreated)
}

func TestCreateDeployment_MissingTicketIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createTicket(t, "Existe")

	result, err := f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{
		Files:       sampleFiles,
		Environment: domain.EnvironmentTesting,
		Status:      domain.DeploymentStatusFailed,
		TicketIDs:   []string{"MAX-DEADBEEF", a.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID}, result.UpdatedTickets)
	assert.Equal(t, []string{"MAX-DEADBEEF"}, result.FailedTickets)

	_, err = f.deployments.GetDeployment(ctx, result.Deployment.ID)
	assert.NoError(t, err)

	ticket, err := f.tickets.GetTicket(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Despliegue registrado en Pruebas (Fallido)", ticket.History[len(ticket.History)-1].Action)
}

func TestCreateDeployment_AppenderFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	appender := new(MockHistoryAppender)
	svc := NewDeploymentService(DeploymentDependencies{
		DeploymentRepo: f.repos.Deployments,
		History:        appender,
		Logger:         zap.NewNop(),
		Clock:          f.clock.Now,
		IDs:            sequentialIDs(),
	})
	appender.On("AppendHistory", mock.Anything, "MAX-1111", mock.Anything).Return(errors.New("store down")).Once()
	appender.On("AppendHistory", mock.Anything, "MAX-2222", mock.MatchedBy(func(e domain.TicketHistoryEntry) bool {
		return e.DeploymentID != nil && e.Timestamp.Equal(f.clock.Now())
	})).Return(nil).Once()

	result, err := svc.CreateDeployment(context.Background(), "usr-dev", DeploymentCreateInput{
		Files:       sampleFiles,
		Environment: domain.EnvironmentDevelopment,
		TicketIDs:   []string{"MAX-1111", "MAX-2222"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MAX-2222"}, result.UpdatedTickets)
	assert.Equal(t, []string{"MAX-1111"}, result.FailedTickets)
	appender.AssertExpectations(t)
}

func TestCreateDeployment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{Files: sampleFiles, Environment: "Staging"})
	assert.Equal(t, "invalid environment", apperrors.ToDomainError(err).Message)

	_, err = f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{
		Files:       sampleFiles,
		Environment: domain.EnvironmentProduction,
		Status:      "Cancelado",
	})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{
		Files:       []domain.DeployedFile{{Name: "  "}},
		Environment: domain.EnvironmentProduction,
	})
	assert.Equal(t, "at least one deployed file required", apperrors.ToDomainError(err).Message)

	all, err := f.deployments.ListDeployments(ctx, DeploymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListDeployments_NewestFirstAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createTicket(t, "Filtro")

	first, err := f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{
		Files: sampleFiles, Environment: domain.EnvironmentDevelopment, TicketIDs: []string{a.ID},
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.deployments.CreateDeployment(ctx, "usr-dev", DeploymentCreateInput{
		Files: sampleFiles, Environment: domain.EnvironmentProduction,
	})
	require.NoError(t, err)

	all, err := f.deployments.ListDeployments(ctx, DeploymentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.Deployment.ID, all[0].ID)

	byTicket, err := f.deployments.ListDeployments(ctx, DeploymentFilter{TicketID: a.ID})
	require.NoError(t, err)
	require.Len(t, byTicket, 1)
	assert.Equal(t, first.Deployment.ID, byTicket[0].ID)

	byEnv, err := f.deployments.ListDeployments(ctx, DeploymentFilter{Environment: domain.EnvironmentProduction})
	require.NoError(t, err)
	require.Len(t, byEnv, 1)

	_, err = f.deployments.GetDeployment(ctx, "DEP-NOPE")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
