package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/events"
)

// Page paths invalidated after mutations.
const (
	PathDashboard     = "/"
	PathTickets       = "/tickets"
	PathDeployments   = "/deployments"
	PathCommits       = "/commits"
	PathUsers         = "/users"
	PathOrganizations = "/organizations"
)

// Subtree marks a path whose descendant pages are all evicted.
func Subtree(path string) string {
	return path + "/*"
}

// TicketPath returns the detail page path of a ticket.
func TicketPath(id string) string {
	return PathTickets + "/" + id
}

// PageInvalidator evicts cached pages.
type PageInvalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// RevalidationService evicts the cached pages that display data changed by
// domain events.
type RevalidationService struct {
	dispatcher events.Dispatcher
	pages      PageInvalidator
	logger     *zap.Logger
}

// NewRevalidationService creates the service.
func NewRevalidationService(dispatcher events.Dispatcher, pages PageInvalidator, logger *zap.Logger) *RevalidationService {
	return &RevalidationService{
		dispatcher: dispatcher,
		pages:      pages,
		logger:     defaultLogger(logger),
	}
}

// RegisterHandlers subscribes to events.
func (r *RevalidationService) RegisterHandlers() {
	if r.dispatcher == nil || r.pages == nil {
		return
	}
	r.dispatcher.Subscribe(events.EventTicketCreated, r.handleTicketChanged)
	r.dispatcher.Subscribe(events.EventTicketUpdated, r.handleTicketChanged)
	r.dispatcher.Subscribe(events.EventDeploymentCreated, r.handleDeploymentCreated)
	r.dispatcher.Subscribe(events.EventCommitRecorded, r.handleCommitRecorded)
	r.dispatcher.Subscribe(events.EventUserSaved, r.handleUserSaved)
	r.dispatcher.Subscribe(events.EventOrganizationSaved, r.handleOrganizationChanged)
	r.dispatcher.Subscribe(events.EventOrganizationDeleted, r.handleOrganizationChanged)
}

// PathsFor lists the pages affected by an event.
func PathsFor(event events.Event) []string {
	switch payload := event.Payload.(type) {
	case events.TicketChangedPayload:
		return []string{PathDashboard, PathTickets, TicketPath(payload.TicketID)}
	case events.DeploymentCreatedPayload:
		paths := []string{PathDashboard, PathDeployments, PathTickets}
		for _, id := range payload.UpdatedTickets {
			paths = append(paths, TicketPath(id))
		}
		return paths
	case events.CommitRecordedPayload:
		paths := []string{PathDashboard, PathCommits, PathTickets}
		for _, id := range payload.UpdatedTickets {
			paths = append(paths, TicketPath(id))
		}
		return paths
	}
	switch event.Type {
	case events.EventUserSaved:
		// user names and the assignee picker appear on every ticket page
		return []string{PathDashboard, PathUsers, PathOrganizations, PathTickets, Subtree(PathTickets), PathDeployments, PathCommits}
	case events.EventOrganizationSaved, events.EventOrganizationDeleted:
		return []string{PathOrganizations, PathUsers}
	}
	return nil
}

func (r *RevalidationService) handleTicketChanged(ctx context.Context, event events.Event) error {
	return r.revalidate(ctx, event)
}

func (r *RevalidationService) handleDeploymentCreated(ctx context.Context, event events.Event) error {
	return r.revalidate(ctx, event)
}

func (r *RevalidationService) handleCommitRecorded(ctx context.Context, event events.Event) error {
	return r.revalidate(ctx, event)
}

func (r *RevalidationService) handleUserSaved(ctx context.Context, event events.Event) error {
	return r.revalidate(ctx, event)
}

func (r *RevalidationService) handleOrganizationChanged(ctx context.Context, event events.Event) error {
	return r.revalidate(ctx, event)
}

func (r *RevalidationService) revalidate(ctx context.Context, event events.Event) error {
	paths := PathsFor(event)
	if len(paths) == 0 {
		return nil
	}
	if err := r.pages.Invalidate(ctx, paths...); err != nil {
		r.logger.Warn("page revalidation failed",
			zap.String("event_type", string(event.Type)),
			zap.Strings("paths", paths),
			zap.Error(err))
		return err
	}
	r.logger.Debug("pages revalidated",
		zap.String("event_type", string(event.Type)),
		zap.Strings("paths", paths))
	return nil
}
