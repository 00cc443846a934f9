package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/repository"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

// ErrCommitAlreadyLinked is returned by AppendHistory when the ticket already
// records a link to the same commit.
var ErrCommitAlreadyLinked = errors.New("commit already linked to ticket")

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
	ids        IDGenerator
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
	IDs        IDGenerator
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Type        domain.TicketType
	Priority    domain.TicketPriority
	AssigneeID  *string
	RequestedBy string
	Provider    *string
	Branch      *string
	Attachments []string
}

// TicketDetailsInput edits the untracked descriptive fields of a ticket.
type TicketDetailsInput struct {
	Title       *string
	Description *string
	Provider    *string
	Branch      *string
	Attachments []string
}

// TicketFilter describes listing filters applied in memory.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Types       []domain.TicketType
	AssigneeID  *string
	RequestedBy *string
	Search      string
	SortBy      string
	Ascending   bool
	Limit       int
	Offset      int
}

// Sort keys accepted by TicketFilter.SortBy.
const (
	SortLastUpdated = "lastUpdated"
	SortCreatedAt   = "createdAt"
	SortPriority    = "priority"
	SortTitle       = "title"
)

// TicketPage is one page of a filtered listing.
type TicketPage struct {
	Items []domain.Ticket
	Total int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     defaultLogger(deps.Logger),
		now:        defaultClock(deps.Clock),
		ids:        defaultIDs(deps.IDs),
	}
}

// CreateTicket opens a new ticket on behalf of actorID.
func (s *TicketService) CreateTicket(ctx context.Context, actorID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.Type == "" {
		input.Type = domain.TicketTypeIncident
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("invalid ticket type", map[string]any{"type": input.Type})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	requester := strings.TrimSpace(input.RequestedBy)
	if requester == "" {
		requester = actorID
	}
	assignee := trimmedPtr(input.AssigneeID)
	if assignee != nil {
		if err := s.ensureUser(ctx, *assignee); err != nil {
			return nil, err
		}
	}

	id, err := s.newTicketID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket := domain.Ticket{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Type:        input.Type,
		Priority:    input.Priority,
		AssigneeID:  assignee,
		RequestedBy: requester,
		Provider:    trimmedPtr(input.Provider),
		Branch:      trimmedPtr(input.Branch),
		Attachments: normalizeIDs(input.Attachments),
		CreatedAt:   now,
		LastUpdated: now,
	}
	ticket.AppendHistory(domain.TicketHistoryEntry{
		ID:        s.ids(),
		Timestamp: now,
		UserID:    actorID,
		Action:    domain.ActionCreated,
	})

	if err := s.tickets.Save(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishTicketEvent(ctx, events.EventTicketCreated, actorID, &ticket, ticket.History)
	return &ticket, nil
}

// maxTicketIDAttempts bounds retries when a generated key is already taken.
const maxTicketIDAttempts = 5

// newTicketID draws short keys until one is unused, since Save would
// otherwise overwrite the existing ticket.
func (s *TicketService) newTicketID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxTicketIDAttempts; attempt++ {
		id := shortKey("MAX-", s.ids)
		_, err := s.tickets.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", apperrors.MapError(err)
		}
		s.logger.Warn("generated ticket id already taken; retrying", zap.String("ticket_id", id), zap.Int("attempt", attempt+1))
	}
	return "", apperrors.NewConflict("could not allocate a free ticket id", map[string]any{"attempts": maxTicketIDAttempts})
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", ticketID)
	}
	return ticket, nil
}

// ListTickets filters, sorts and pages tickets in memory.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketFilter) (TicketPage, error) {
	all, err := s.tickets.List(ctx)
	if err != nil {
		return TicketPage{}, apperrors.MapError(err)
	}

	matched := make([]domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if filter.matches(&ticket) {
			matched = append(matched, ticket)
		}
	}
	sortTickets(matched, filter.SortBy, filter.Ascending)
	return TicketPage{Items: paginate(matched, filter.Limit, filter.Offset), Total: len(matched)}, nil
}

// UpdateTicket applies the fields of update that differ from the ticket and
// records one history entry per change. An update that changes nothing and
// carries no comment leaves the ticket, its history and LastUpdated untouched.
// Any known status may follow any other; reopening a closed or resolved ticket
// only changes the history label.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, ticketID string, update TicketUpdate) (*domain.Ticket, error) {
	if err := s.validateUpdate(ctx, update); err != nil {
		return nil, err
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	changes := Diff(ticket, update)
	if changes.Empty() {
		return ticket, nil
	}
	if changes.Status && !domain.CanTransition(ticket.Status, *update.Status) {
		return nil, apperrors.NewConflict("status transition not allowed", map[string]any{
			"from": ticket.Status,
			"to":   *update.Status,
		})
	}

	now := s.now()
	entries := historyFor(ticket, update, changes, actorID, now, s.ids)
	apply(ticket, update, changes)
	ticket.AppendHistory(entries...)
	ticket.LastUpdated = now

	if err := s.tickets.Save(ctx, *ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishTicketEvent(ctx, events.EventTicketUpdated, actorID, ticket, entries)
	return ticket, nil
}

// AddComment appends a comment entry without touching tracked fields.
func (s *TicketService) AddComment(ctx context.Context, actorID, ticketID, comment string) (*domain.Ticket, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, apperrors.NewValidationError("comment required", nil)
	}
	return s.UpdateTicket(ctx, actorID, ticketID, TicketUpdate{Comment: comment})
}

// UpdateDetails edits descriptive fields. These are not audited, but the
// ticket is still stamped as updated when something differs.
func (s *TicketService) UpdateDetails(ctx context.Context, actorID, ticketID string, input TicketDetailsInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title required", nil)
		}
		if title != ticket.Title {
			ticket.Title = title
			changed = true
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description != ticket.Description {
			ticket.Description = description
			changed = true
		}
	}
	if input.Provider != nil && !sameOptional(ticket.Provider, input.Provider) {
		ticket.Provider = trimmedPtr(input.Provider)
		changed = true
	}
	if input.Branch != nil && !sameOptional(ticket.Branch, input.Branch) {
		ticket.Branch = trimmedPtr(input.Branch)
		changed = true
	}
	if input.Attachments != nil {
		attachments := normalizeIDs(input.Attachments)
		if strings.Join(attachments, "\x00") != strings.Join(ticket.Attachments, "\x00") {
			ticket.Attachments = attachments
			changed = true
		}
	}
	if !changed {
		return ticket, nil
	}

	ticket.LastUpdated = s.now()
	if err := s.tickets.Save(ctx, *ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishTicketEvent(ctx, events.EventTicketUpdated, actorID, ticket, nil)
	return ticket, nil
}

// AppendHistory adds a derived entry produced elsewhere (deployments,
// commits) to a ticket and stamps it as updated. A commit link is written at
// most once per ticket.
func (s *TicketService) AppendHistory(ctx context.Context, ticketID string, entry domain.TicketHistoryEntry) error {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if entry.CommitID != nil && ticket.HasCommit(*entry.CommitID) {
		return ErrCommitAlreadyLinked
	}
	if entry.ID == "" {
		entry.ID = s.ids()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	ticket.AppendHistory(entry)
	ticket.LastUpdated = entry.Timestamp
	if err := s.tickets.Save(ctx, *ticket); err != nil {
		return apperrors.MapError(err)
	}
	s.publishTicketEvent(ctx, events.EventTicketUpdated, entry.UserID, ticket, []domain.TicketHistoryEntry{entry})
	return nil
}

func (s *TicketService) validateUpdate(ctx context.Context, update TicketUpdate) error {
	if update.Status != nil && !update.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": *update.Status})
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *update.Priority})
	}
	if update.Type != nil && !update.Type.Valid() {
		return apperrors.NewValidationError("invalid ticket type", map[string]any{"type": *update.Type})
	}
	if update.AssigneeID != nil {
		if assignee := strings.TrimSpace(*update.AssigneeID); assignee != "" {
			return s.ensureUser(ctx, assignee)
		}
	}
	return nil
}

func (s *TicketService) ensureUser(ctx context.Context, userID string) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("assignee not found", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) publishTicketEvent(ctx context.Context, eventType events.EventType, actorID string, ticket *domain.Ticket, entries []domain.TicketHistoryEntry) {
	publish(ctx, s.dispatcher, s.logger, s.ids, s.now, events.Event{
		Type:    eventType,
		ActorID: actorID,
		Payload: events.TicketChangedPayload{
			TicketID:      ticket.ID,
			Status:        ticket.Status,
			AppendedCount: len(entries),
			Entries:       entries,
		},
	})
}

func (f TicketFilter) matches(ticket *domain.Ticket) bool {
	if len(f.Statuses) > 0 && !contains(f.Statuses, ticket.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, ticket.Priority) {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, ticket.Type) {
		return false
	}
	if f.AssigneeID != nil && *f.AssigneeID != ticket.Assignee() {
		return false
	}
	if f.RequestedBy != nil && *f.RequestedBy != ticket.RequestedBy {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		haystack := strings.ToLower(ticket.ID + " " + ticket.Title + " " + ticket.Description)
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func sortTickets(tickets []domain.Ticket, sortBy string, ascending bool) {
	less := func(a, b *domain.Ticket) bool {
		switch sortBy {
		case SortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortPriority:
			return a.Priority.Rank() < b.Priority.Rank()
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return a.LastUpdated.Before(b.LastUpdated)
		}
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		if ascending {
			return less(&tickets[i], &tickets[j])
		}
		return less(&tickets[j], &tickets[i])
	})
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func sameOptional(current, next *string) bool {
	a, b := "", ""
	if current != nil {
		a = *current
	}
	if next != nil {
		b = strings.TrimSpace(*next)
	}
	return a == b
}
