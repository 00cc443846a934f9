package service

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/repository"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

// DirectoryService manages users and organizations.
type DirectoryService struct {
	users         repository.UserRepository
	organizations repository.OrganizationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	now           Clock
	ids           IDGenerator
}

// DirectoryDependencies bundles collaborators.
type DirectoryDependencies struct {
	UserRepo         repository.UserRepository
	OrganizationRepo repository.OrganizationRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Clock            Clock
	IDs              IDGenerator
}

// UserInput creates a user when ID is empty and replaces it otherwise.
type UserInput struct {
	ID             string
	Name           string
	Email          string
	Role           domain.UserRole
	OrganizationID string
	Active         bool
}

// OrganizationInput creates or replaces an organization.
type OrganizationInput struct {
	ID          string
	Name        string
	Description string
	Active      bool
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		users:         deps.UserRepo,
		organizations: deps.OrganizationRepo,
		dispatcher:    deps.Dispatcher,
		logger:        defaultLogger(deps.Logger),
		now:           defaultClock(deps.Clock),
		ids:           defaultIDs(deps.IDs),
	}
}

// ListUsers returns users sorted by name.
func (s *DirectoryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].Name) < strings.ToLower(users[j].Name)
	})
	return users, nil
}

// GetUser fetches one user.
func (s *DirectoryService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// SaveUser validates and stores a user.
func (s *DirectoryService) SaveUser(ctx context.Context, actorID string, input UserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	if input.Role == "" {
		input.Role = domain.UserRoleClient
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	orgID := strings.TrimSpace(input.OrganizationID)
	if orgID != "" {
		if _, err := s.organizations.Get(ctx, orgID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewValidationError("organization not found", map[string]any{"organization_id": orgID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	user := domain.User{
		ID:             strings.TrimSpace(input.ID),
		Name:           name,
		Email:          strings.ToLower(email),
		Role:           input.Role,
		OrganizationID: orgID,
		Active:         input.Active,
	}
	if user.ID == "" {
		user.ID = "usr-" + strings.ToLower(shortKey("", s.ids))
		user.CreatedAt = s.now()
	} else {
		existing, err := s.GetUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.CreatedAt = existing.CreatedAt
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishDirectoryEvent(ctx, events.EventUserSaved, actorID, user.ID)
	return &user, nil
}

// DeactivateUser marks a user inactive. Tickets keep referencing the id.
func (s *DirectoryService) DeactivateUser(ctx context.Context, actorID, id string) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return user, nil
	}
	user.Active = false
	if err := s.users.Save(ctx, *user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishDirectoryEvent(ctx, events.EventUserSaved, actorID, user.ID)
	return user, nil
}

// ListOrganizations returns organizations sorted by name.
func (s *DirectoryService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	orgs, err := s.organizations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sort.SliceStable(orgs, func(i, j int) bool {
		return strings.ToLower(orgs[i].Name) < strings.ToLower(orgs[j].Name)
	})
	return orgs, nil
}

// GetOrganization fetches one organization.
func (s *DirectoryService) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.organizations.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "organization", id)
	}
	return org, nil
}

// SaveOrganization validates and stores an organization.
func (s *DirectoryService) SaveOrganization(ctx context.Context, actorID string, input OrganizationInput) (*domain.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	org := domain.Organization{
		ID:          strings.TrimSpace(input.ID),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Active:      input.Active,
	}
	if org.ID == "" {
		org.ID = "org-" + strings.ToLower(shortKey("", s.ids))
		org.CreatedAt = s.now()
	} else {
		existing, err := s.GetOrganization(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		org.CreatedAt = existing.CreatedAt
	}

	if err := s.organizations.Save(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishDirectoryEvent(ctx, events.EventOrganizationSaved, actorID, org.ID)
	return &org, nil
}

// DeleteOrganization removes an organization no active user belongs to.
func (s *DirectoryService) DeleteOrganization(ctx context.Context, actorID, id string) error {
	if _, err := s.GetOrganization(ctx, id); err != nil {
		return err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, user := range users {
		if user.OrganizationID == id && user.Active {
			return apperrors.NewConflict("organization has active users", map[string]any{
				"organization_id": id,
				"user_id":         user.ID,
			})
		}
	}
	if err := s.organizations.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	s.publishDirectoryEvent(ctx, events.EventOrganizationDeleted, actorID, id)
	return nil
}

func (s *DirectoryService) publishDirectoryEvent(ctx context.Context, eventType events.EventType, actorID, id string) {
	publish(ctx, s.dispatcher, s.logger, s.ids, s.now, events.Event{
		Type:    eventType,
		ActorID: actorID,
		Payload: events.DirectoryChangedPayload{ID: id},
	})
}
