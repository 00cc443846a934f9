package repository

import (
	"time"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/domain"
)

// Remote collection names.
const (
	CollectionTickets       = "tickets"
	CollectionDeployments   = "deployments"
	CollectionCommits       = "commits"
	CollectionUsers         = "users"
	CollectionOrganizations = "organizations"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository = Store[domain.Ticket]

// DeploymentRepository encapsulates deployment log persistence.
type DeploymentRepository = Store[domain.DeploymentLogEntry]

// CommitRepository encapsulates commit persistence.
type CommitRepository = Store[domain.Commit]

// UserRepository encapsulates user persistence.
type UserRepository = Store[domain.User]

// OrganizationRepository encapsulates organization persistence.
type OrganizationRepository = Store[domain.Organization]

// Repositories bundles every entity repository.
type Repositories struct {
	Tickets       *Fallback[domain.Ticket]
	Deployments   *Fallback[domain.DeploymentLogEntry]
	Commits       *Fallback[domain.Commit]
	Users         *Fallback[domain.User]
	Organizations *Fallback[domain.Organization]
}

// Dependencies holds what every repository shares.
type Dependencies struct {
	Remote        RemoteStore
	Local         cache.Cache
	Namespace     string
	Logger        *zap.Logger
	RemoteTimeout time.Duration
}

// NewRepositories builds one fallback repository per entity, each mirrored
// under its own fixed local key.
func NewRepositories(deps Dependencies) *Repositories {
	return &Repositories{
		Tickets: newFallback(deps, CollectionTickets, func(t domain.Ticket) string { return t.ID }),
		Deployments: newFallback(deps, CollectionDeployments, func(d domain.DeploymentLogEntry) string {
			return d.ID
		}),
		Commits:       newFallback(deps, CollectionCommits, func(c domain.Commit) string { return c.ID }),
		Users:         newFallback(deps, CollectionUsers, func(u domain.User) string { return u.ID }),
		Organizations: newFallback(deps, CollectionOrganizations, func(o domain.Organization) string { return o.ID }),
	}
}

func newFallback[T any](deps Dependencies, collection string, id func(T) string) *Fallback[T] {
	return NewFallback(FallbackOptions[T]{
		Collection:    collection,
		LocalKey:      cache.Key(deps.Namespace, collection),
		ID:            id,
		Remote:        deps.Remote,
		Local:         deps.Local,
		Logger:        deps.Logger,
		RemoteTimeout: deps.RemoteTimeout,
	})
}
