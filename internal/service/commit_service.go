package service

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/repository"
	apperrors "github.com/maximo-portal/version-portal/pkg/util/errorutil"
)

// ticketRefPattern matches ticket ids such as MAX-0042 or MAX-1A2B3C4D.
var ticketRefPattern = regexp.MustCompile(`\bMAX-[0-9A-F]{4,8}\b`)

// commitHashPattern accepts abbreviated or full hex hashes.
var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// CommitService tracks commits and links them to tickets.
type CommitService struct {
	commits    repository.CommitRepository
	history    HistoryAppender
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
	ids        IDGenerator
}

// CommitDependencies bundles collaborators.
type CommitDependencies struct {
	CommitRepo repository.CommitRepository
	History    HistoryAppender
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
	IDs        IDGenerator
}

// CommitInput describes a commit to record.
type CommitInput struct {
	ID        string
	Message   string
	AuthorID  string
	Branch    string
	Date      time.Time
	Files     []string
	TicketIDs []string
}

// CommitFilter narrows listings.
type CommitFilter struct {
	Branch   string
	AuthorID string
	TicketID string
	Limit    int
	Offset   int
}

// CommitResult reports which referenced tickets received a history entry.
// AlreadyLinked holds tickets that recorded the commit on an earlier call.
type CommitResult struct {
	Commit         domain.Commit
	UpdatedTickets []string
	FailedTickets  []string
	AlreadyLinked  []string
}

// NewCommitService constructs the service.
func NewCommitService(deps CommitDependencies) *CommitService {
	return &CommitService{
		commits:    deps.CommitRepo,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		logger:     defaultLogger(deps.Logger),
		now:        defaultClock(deps.Clock),
		ids:        defaultIDs(deps.IDs),
	}
}

// ExtractTicketRefs returns the ticket ids mentioned in a commit message.
func ExtractTicketRefs(message string) []string {
	return normalizeIDs(ticketRefPattern.FindAllString(message, -1))
}

// RecordCommit saves a commit and appends a history entry to each ticket it
// references, explicitly or through its message. Like deployments, ticket
// updates that fail are logged and skipped.
func (s *CommitService) RecordCommit(ctx context.Context, actorID string, input CommitInput) (*CommitResult, error) {
	hash := strings.ToLower(strings.TrimSpace(input.ID))
	if !commitHashPattern.MatchString(hash) {
		return nil, apperrors.NewValidationError("commit hash must be 7-40 hex characters", map[string]any{"id": input.ID})
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("commit message required", nil)
	}
	author := strings.TrimSpace(input.AuthorID)
	if author == "" {
		author = actorID
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	commit := domain.Commit{
		ID:        hash,
		Message:   message,
		AuthorID:  author,
		Branch:    strings.TrimSpace(input.Branch),
		Date:      date,
		Files:     normalizeIDs(input.Files),
		TicketIDs: normalizeIDs(append(append([]string{}, input.TicketIDs...), ExtractTicketRefs(message)...)),
	}
	if err := s.commits.Save(ctx, commit); err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &CommitResult{Commit: commit}
	for _, ticketID := range commit.TicketIDs {
		commitID := commit.ID
		entry := domain.TicketHistoryEntry{
			UserID:   actorID,
			Action:   domain.ActionCommitLinked,
			CommitID: &commitID,
		}
		err := s.history.AppendHistory(ctx, ticketID, entry)
		if errors.Is(err, ErrCommitAlreadyLinked) {
			result.AlreadyLinked = append(result.AlreadyLinked, ticketID)
			continue
		}
		if err != nil {
			s.logger.Error("failed to record commit on ticket",
				zap.String("commit_id", commit.ID),
				zap.String("ticket_id", ticketID),
				zap.Error(err))
			result.FailedTickets = append(result.FailedTickets, ticketID)
			continue
		}
		result.UpdatedTickets = append(result.UpdatedTickets, ticketID)
	}

	publish(ctx, s.dispatcher, s.logger, s.ids, s.now, events.Event{
		Type:    events.EventCommitRecorded,
		ActorID: actorID,
		Payload: events.CommitRecordedPayload{
			CommitID:       commit.ID,
			Branch:         commit.Branch,
			UpdatedTickets: result.UpdatedTickets,
		},
	})
	return result, nil
}

// GetCommit fetches one commit.
func (s *CommitService) GetCommit(ctx context.Context, id string) (*domain.Commit, error) {
	commit, err := s.commits.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "commit", id)
	}
	return commit, nil
}

// ListCommits returns commits newest first.
func (s *CommitService) ListCommits(ctx context.Context, filter CommitFilter) ([]domain.Commit, error) {
	all, err := s.commits.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	matched := make([]domain.Commit, 0, len(all))
	for _, commit := range all {
		if filter.Branch != "" && commit.Branch != filter.Branch {
			continue
		}
		if filter.AuthorID != "" && commit.AuthorID != filter.AuthorID {
			continue
		}
		if filter.TicketID != "" && !contains(commit.TicketIDs, filter.TicketID) {
			continue
		}
		matched = append(matched, commit)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}
