package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%08x-0000-0000-0000-000000000000", n)
	}
}

type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	repos       *repository.Repositories
	clock       *fakeClock
	dispatcher  *recordingDispatcher
	tickets     *TicketService
	deployments *DeploymentService
	commits     *CommitService
	directory   *DirectoryService
	dashboard   *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewRepositories(repository.Dependencies{
		Local:     cache.NewMemoryCache(0),
		Namespace: "test",
		Logger:    zap.NewNop(),
	})
	clock := newFakeClock()
	ids := sequentialIDs()
	dispatcher := newRecordingDispatcher()

	tickets := NewTicketService(TicketDependencies{
		TicketRepo: repos.Tickets,
		UserRepo:   repos.Users,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Clock:      clock.Now,
		IDs:        ids,
	})
	f := &fixture{
		repos:      repos,
		clock:      clock,
		dispatcher: dispatcher,
		tickets:    tickets,
		deployments: NewDeploymentService(DeploymentDependencies{
			DeploymentRepo: repos.Deployments,
			History:        tickets,
			Dispatcher:     dispatcher,
			Clock:          clock.Now,
			IDs:            ids,
		}),
		commits: NewCommitService(CommitDependencies{
			CommitRepo: repos.Commits,
			History:    tickets,
			Dispatcher: dispatcher,
			Clock:      clock.Now,
			IDs:        ids,
		}),
		directory: NewDirectoryService(DirectoryDependencies{
			UserRepo:         repos.Users,
			OrganizationRepo: repos.Organizations,
			Dispatcher:       dispatcher,
			Clock:            clock.Now,
			IDs:              ids,
		}),
		dashboard: NewDashboardService(DashboardDependencies{
			TicketRepo:     repos.Tickets,
			DeploymentRepo: repos.Deployments,
			CommitRepo:     repos.Commits,
			UserRepo:       repos.Users,
		}),
	}

	ctx := context.Background()
	require.NoError(t, repos.Organizations.Save(ctx, domain.Organization{ID: "org-1", Name: "Acme", Active: true}))
	for _, u := range []domain.User{
		{ID: "usr-admin", Name: "Ana", Email: "ana@example.com", Role: domain.UserRoleAdmin, OrganizationID: "org-1", Active: true},
		{ID: "usr-dev", Name: "Diego", Email: "diego@example.com", Role: domain.UserRoleDeveloper, OrganizationID: "org-1", Active: true},
		{ID: "usr-qa", Name: "Quique", Email: "qa@example.com", Role: domain.UserRoleConsultant, OrganizationID: "org-1", Active: true},
	} {
		require.NoError(t, repos.Users.Save(ctx, u))
	}
	return f
}

func (f *fixture) createTicket(t *testing.T, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), "usr-admin", TicketCreateInput{
		Title:       title,
		Description: "descripcion",
	})
	require.NoError(t, err)
	return ticket
}

func statusPtr(s domain.TicketStatus) *domain.TicketStatus       { return &s }
func priorityPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }
func typePtr(tt domain.TicketType) *domain.TicketType            { return &tt }
func strPtr(s string) *string                                    { return &s }
