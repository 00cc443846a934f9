package service

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/repository"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

const recentLimit = 5

// StatusCount pairs a status with its ticket count.
type StatusCount struct {
	Status domain.TicketStatus
	Count  int
}

// PriorityCount pairs a priority with its ticket count.
type PriorityCount struct {
	Priority domain.TicketPriority
	Count    int
}

// Overview summarises the portal for the home page.
type Overview struct {
	TotalTickets      int
	OpenTickets       int
	HighPriorityOpen  int
	ByStatus          []StatusCount
	ByPriority        []PriorityCount
	RecentTickets     []domain.Ticket
	RecentDeployments []domain.DeploymentLogEntry
	RecentCommits     []domain.Commit
	ActiveUsers       int
	Users             map[string]domain.User
}

// DashboardService aggregates data from every collection.
type DashboardService struct {
	tickets     repository.TicketRepository
	deployments repository.DeploymentRepository
	commits     repository.CommitRepository
	users       repository.UserRepository
}

// DashboardDependencies bundles repositories.
type DashboardDependencies struct {
	TicketRepo     repository.TicketRepository
	DeploymentRepo repository.DeploymentRepository
	CommitRepo     repository.CommitRepository
	UserRepo       repository.UserRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		tickets:     deps.TicketRepo,
		deployments: deps.DeploymentRepo,
		commits:     deps.CommitRepo,
		users:       deps.UserRepo,
	}
}

// Overview loads the four collections concurrently and summarises them.
func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	var (
		tickets     []domain.Ticket
		deployments []domain.DeploymentLogEntry
		commits     []domain.Commit
		users       []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { tickets, err = s.tickets.List(gctx); return err })
	g.Go(func() (err error) { deployments, err = s.deployments.List(gctx); return err })
	g.Go(func() (err error) { commits, err = s.commits.List(gctx); return err })
	g.Go(func() (err error) { users, err = s.users.List(gctx); return err })
	if err := g.Wait(); err != nil {
		return nil, apperrors.MapError(err)
	}

	overview := &Overview{
		TotalTickets: len(tickets),
		Users:        make(map[string]domain.User, len(users)),
	}

	statusCounts := make(map[domain.TicketStatus]int)
	priorityCounts := make(map[domain.TicketPriority]int)
	for _, ticket := range tickets {
		statusCounts[ticket.Status]++
		priorityCounts[ticket.Priority]++
		if !ticket.Status.IsTerminal() {
			overview.OpenTickets++
			if ticket.Priority == domain.TicketPriorityHigh {
				overview.HighPriorityOpen++
			}
		}
	}
	for _, status := range domain.TicketStatuses {
		overview.ByStatus = append(overview.ByStatus, StatusCount{Status: status, Count: statusCounts[status]})
	}
	for _, priority := range domain.TicketPriorities {
		overview.ByPriority = append(overview.ByPriority, PriorityCount{Priority: priority, Count: priorityCounts[priority]})
	}

	sortTickets(tickets, SortLastUpdated, false)
	overview.RecentTickets = paginate(tickets, recentLimit, 0)

	sort.SliceStable(deployments, func(i, j int) bool { return deployments[i].Timestamp.After(deployments[j].Timestamp) })
	overview.RecentDeployments = paginate(deployments, recentLimit, 0)

	sort.SliceStable(commits, func(i, j int) bool { return commits[i].Date.After(commits[j].Date) })
	overview.RecentCommits = paginate(commits, recentLimit, 0)

	for _, user := range users {
		overview.Users[user.ID] = user
		if user.Active {
			overview.ActiveUsers++
		}
	}
	return overview, nil
}
