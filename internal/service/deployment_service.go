package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/repository"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

// HistoryAppender adds derived entries to ticket histories.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, ticketID string, entry domain.TicketHistoryEntry) error
}

// DeploymentService records deployments and links them to tickets.
type DeploymentService struct {
	deployments repository.DeploymentRepository
	history     HistoryAppender
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         Clock
	ids         IDGenerator
}

// DeploymentDependencies bundles collaborators.
type DeploymentDependencies struct {
	DeploymentRepo repository.DeploymentRepository
	History        HistoryAppender
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Clock          Clock
	IDs            IDGenerator
}

// DeploymentCreateInput describes a deployment log submission.
type DeploymentCreateInput struct {
	Files       []domain.DeployedFile
	Environment domain.Environment
	Status      domain.DeploymentStatus
	TicketIDs   []string
}

// DeploymentFilter narrows listings.
type DeploymentFilter struct {
	Environment domain.Environment
	Status      domain.DeploymentStatus
	TicketID    string
	Limit       int
	Offset      int
}

// DeploymentResult reports which linked tickets received a history entry.
// Failed tickets were skipped and only logged.
type DeploymentResult struct {
	Deployment     domain.DeploymentLogEntry
	UpdatedTickets []string
	FailedTickets  []string
}

// NewDeploymentService constructs the service.
func NewDeploymentService(deps DeploymentDependencies) *DeploymentService {
	return &DeploymentService{
		deployments: deps.DeploymentRepo,
		history:     deps.History,
		dispatcher:  deps.Dispatcher,
		logger:      defaultLogger(deps.Logger),
		now:         defaultClock(deps.Clock),
		ids:         defaultIDs(deps.IDs),
	}
}

// CreateDeployment saves a deployment log entry, then appends one history
// entry to every linked ticket. Ticket updates are independent: a failure is
// logged and the remaining tickets are still processed, and the deployment is
// reported as created either way.
func (s *DeploymentService) CreateDeployment(ctx context.Context, actorID string, input DeploymentCreateInput) (*DeploymentResult, error) {
	if !input.Environment.Valid() {
		return nil, apperrors.NewValidationError("invalid environment", map[string]any{"environment": input.Environment})
	}
	if input.Status == "" {
		input.Status = domain.DeploymentStatusSucceeded
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid deployment status", map[string]any{"status": input.Status})
	}
	files := make([]domain.DeployedFile, 0, len(input.Files))
	for _, file := range input.Files {
		file.Name = strings.TrimSpace(file.Name)
		file.Version = strings.TrimSpace(file.Version)
		file.Type = strings.TrimSpace(file.Type)
		if file.Name == "" {
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("at least one deployed file required", nil)
	}

	deployment := domain.DeploymentLogEntry{
		ID:          shortKey("DEP-", s.ids),
		Timestamp:   s.now(),
		UserID:      actorID,
		Files:       files,
		Environment: input.Environment,
		Status:      input.Status,
		TicketIDs:   normalizeIDs(input.TicketIDs),
	}
	if err := s.deployments.Save(ctx, deployment); err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &DeploymentResult{Deployment: deployment}
	for _, ticketID := range deployment.TicketIDs {
		deploymentID := deployment.ID
		entry := domain.TicketHistoryEntry{
			Timestamp:    deployment.Timestamp,
			UserID:       actorID,
			Action:       deploymentLabel(deployment),
			DeploymentID: &deploymentID,
		}
		if err := s.history.AppendHistory(ctx, ticketID, entry); err != nil {
			s.logger.Error("failed to record deployment on ticket",
				zap.String("deployment_id", deployment.ID),
				zap.String("ticket_id", ticketID),
				zap.Error(err))
			result.FailedTickets = append(result.FailedTickets, ticketID)
			continue
		}
		result.UpdatedTickets = append(result.UpdatedTickets, ticketID)
	}

	publish(ctx, s.dispatcher, s.logger, s.ids, s.now, events.Event{
		Type:    events.EventDeploymentCreated,
		ActorID: actorID,
		Payload: events.DeploymentCreatedPayload{
			DeploymentID:   deployment.ID,
			Environment:    deployment.Environment,
			TicketIDs:      deployment.TicketIDs,
			UpdatedTickets: result.UpdatedTickets,
		},
	})
	return result, nil
}

// GetDeployment fetches one deployment.
func (s *DeploymentService) GetDeployment(ctx context.Context, id string) (*domain.DeploymentLogEntry, error) {
	deployment, err := s.deployments.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "deployment", id)
	}
	return deployment, nil
}

// ListDeployments returns deployments newest first.
func (s *DeploymentService) ListDeployments(ctx context.Context, filter DeploymentFilter) ([]domain.DeploymentLogEntry, error) {
	all, err := s.deployments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	matched := make([]domain.DeploymentLogEntry, 0, len(all))
	for _, deployment := range all {
		if filter.Environment != "" && deployment.Environment != filter.Environment {
			continue
		}
		if filter.Status != "" && deployment.Status != filter.Status {
			continue
		}
		if filter.TicketID != "" && !contains(deployment.TicketIDs, filter.TicketID) {
			continue
		}
		matched = append(matched, deployment)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func deploymentLabel(d domain.DeploymentLogEntry) string {
	return fmt.Sprintf("%s en %s (%s)", domain.ActionDeploymentLinked, d.Environment, d.Status)
}
