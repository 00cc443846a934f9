package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/dto"
	"github.com/maximo-portal/version-portal/internal/service"
)

// CommitsHandler serves the commit page and API.
type CommitsHandler struct {
	commits   *service.CommitService
	directory *service.DirectoryService
	logger    *zap.Logger
}

// NewCommitsHandler constructs handler.
func NewCommitsHandler(commits *service.CommitService, directory *service.DirectoryService, logger *zap.Logger) *CommitsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommitsHandler{commits: commits, directory: directory, logger: logger}
}

// Index GET /commits.
func (h *CommitsHandler) Index(c *fiber.Ctx) error {
	filter := parseCommitQuery(c)
	commits, err := h.commits.ListCommits(c.UserContext(), filter)
	if err != nil {
		return err
	}
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "commits/index", "Commits", "commits", fiber.Map{
		"Commits":  commits,
		"UserList": users,
		"Users":    usersByID(users),
		"Filter":   filter,
	})
}

// Create POST /commits.
func (h *CommitsHandler) Create(c *fiber.Ctx) error {
	var req dto.CommitRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, service.PathCommits, err, "")
	}
	result, err := h.commits.RecordCommit(c.UserContext(), actor.ID(c), commitInput(req))
	if err != nil {
		return redirectWithResult(c, h.logger, service.PathCommits, err, "")
	}
	msg := "Commit " + result.Commit.ShortID() + " registrado"
	if len(result.UpdatedTickets) > 0 {
		msg += " en " + strings.Join(result.UpdatedTickets, ", ")
	}
	return redirectWithResult(c, h.logger, service.PathCommits, nil, msg)
}

// APIList GET /api/commits.
func (h *CommitsHandler) APIList(c *fiber.Ctx) error {
	commits, err := h.commits.ListCommits(c.UserContext(), parseCommitQuery(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, commits)
}

// APIGet GET /api/commits/:id.
func (h *CommitsHandler) APIGet(c *fiber.Ctx) error {
	commit, err := h.commits.GetCommit(c.UserContext(), strings.ToLower(c.Params("id")))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, commit)
}

// APICreate POST /api/commits.
func (h *CommitsHandler) APICreate(c *fiber.Ctx) error {
	var req dto.CommitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.commits.RecordCommit(c.UserContext(), actor.ID(c), commitInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.CommitResponse{
		Commit:         result.Commit,
		UpdatedTickets: result.UpdatedTickets,
		FailedTickets:  result.FailedTickets,
		AlreadyLinked:  result.AlreadyLinked,
	})
}

func commitInput(req dto.CommitRequest) service.CommitInput {
	input := service.CommitInput{
		ID:        req.ID,
		Message:   req.Message,
		AuthorID:  req.AuthorID,
		Branch:    req.Branch,
		Files:     flattenList(req.Files),
		TicketIDs: flattenList(req.TicketIDs),
	}
	if req.Date != nil {
		input.Date = req.Date.UTC()
	}
	return input
}

func parseCommitQuery(c *fiber.Ctx) service.CommitFilter {
	return service.CommitFilter{
		Branch:   strings.TrimSpace(c.Query("branch")),
		AuthorID: strings.TrimSpace(c.Query("author")),
		TicketID: strings.TrimSpace(c.Query("ticket")),
		Limit:    parseInt(c.Query("limit"), 0),
		Offset:   parseInt(c.Query("offset"), 0),
	}
}
