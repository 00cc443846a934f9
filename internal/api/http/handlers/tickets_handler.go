package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/dto"
	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/service"
)

const ticketPageSize = 25

// TicketsHandler serves ticket pages and the ticket API.
type TicketsHandler struct {
	tickets     *service.TicketService
	deployments *service.DeploymentService
	commits     *service.CommitService
	directory   *service.DirectoryService
	logger      *zap.Logger
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, deployments *service.DeploymentService, commits *service.CommitService, directory *service.DirectoryService, logger *zap.Logger) *TicketsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketsHandler{
		tickets:     tickets,
		deployments: deployments,
		commits:     commits,
		directory:   directory,
		logger:      logger,
	}
}

type ticketFilterView struct {
	Status   string
	Priority string
	Type     string
	Assignee string
	Search   string
	Sort     string
}

// Index GET /tickets.
func (h *TicketsHandler) Index(c *fiber.Ctx) error {
	filter := parseTicketQuery(c, ticketPageSize)
	page, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}

	data := fiber.Map{
		"Page":       page,
		"Statuses":   domain.TicketStatuses,
		"Priorities": domain.TicketPriorities,
		"Types":      domain.TicketTypes,
		"UserList":   users,
		"Users":      usersByID(users),
		"Filter": ticketFilterView{
			Status:   c.Query("status"),
			Priority: c.Query("priority"),
			Type:     c.Query("type"),
			Assignee: c.Query("assignee"),
			Search:   c.Query("q"),
			Sort:     filter.SortBy,
		},
	}
	if filter.Offset > 0 {
		data["PrevURL"] = pageURL(c, filter.Offset/ticketPageSize)
	}
	if filter.Offset+len(page.Items) < page.Total {
		data["NextURL"] = pageURL(c, filter.Offset/ticketPageSize+2)
	}
	return render(c, "tickets/index", "Tickets", "tickets", data)
}

// New GET /tickets/new.
func (h *TicketsHandler) New(c *fiber.Ctx) error {
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "tickets/new", "Nuevo ticket", "tickets", fiber.Map{
		"Types":      domain.TicketTypes,
		"Priorities": domain.TicketPriorities,
		"UserList":   users,
	})
}

// Show GET /tickets/:id.
func (h *TicketsHandler) Show(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	ticket, err := h.tickets.GetTicket(ctx, id)
	if err != nil {
		return err
	}

	var (
		users       []domain.User
		deployments []domain.DeploymentLogEntry
		commits     []domain.Commit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = h.directory.ListUsers(gctx); return err })
	g.Go(func() (err error) {
		deployments, err = h.deployments.ListDeployments(gctx, service.DeploymentFilter{TicketID: id})
		return err
	})
	g.Go(func() (err error) {
		commits, err = h.commits.ListCommits(gctx, service.CommitFilter{TicketID: id})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return render(c, "tickets/show", ticket.ID, "tickets", fiber.Map{
		"Ticket":      ticket,
		"Statuses":    domain.TicketStatuses,
		"Priorities":  domain.TicketPriorities,
		"Types":       domain.TicketTypes,
		"UserList":    users,
		"Users":       usersByID(users),
		"Deployments": deployments,
		"Commits":     commits,
	})
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, "/tickets/new", err, "")
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor.ID(c), createInput(req))
	if err != nil {
		return redirectWithResult(c, h.logger, "/tickets/new", err, "")
	}
	return redirectWithResult(c, h.logger, service.TicketPath(ticket.ID), nil, "Ticket "+ticket.ID+" creado")
}

// Update POST /tickets/:id/update.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	target := service.TicketPath(c.Params("id"))
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, target, err, "")
	}
	// "Sin asignar" posts an empty value, which the form decoder drops.
	if req.AssigneeID == nil && c.Request().PostArgs().Has("assigneeId") {
		unassigned := string(c.Request().PostArgs().Peek("assigneeId"))
		req.AssigneeID = &unassigned
	}
	before, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return redirectWithResult(c, h.logger, service.PathTickets, err, "")
	}
	after, err := h.tickets.UpdateTicket(c.UserContext(), actor.ID(c), before.ID, updateInput(req))
	if err != nil {
		return redirectWithResult(c, h.logger, target, err, "")
	}
	appended := len(after.History) - len(before.History)
	if appended == 0 {
		return redirectWithResult(c, h.logger, target, nil, "Sin cambios")
	}
	return redirectWithResult(c, h.logger, target, nil, "Ticket actualizado ("+strconv.Itoa(appended)+" cambios)")
}

// Comment POST /tickets/:id/comments.
func (h *TicketsHandler) Comment(c *fiber.Ctx) error {
	target := service.TicketPath(c.Params("id"))
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, target, err, "")
	}
	_, err := h.tickets.AddComment(c.UserContext(), actor.ID(c), c.Params("id"), req.Comment)
	return redirectWithResult(c, h.logger, target, err, "Comentario agregado")
}

// APIList GET /api/tickets.
func (h *TicketsHandler) APIList(c *fiber.Ctx) error {
	filter := parseTicketQuery(c, 0)
	page, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewTicketSummary(&page.Items[i]))
	}
	return respond(c, http.StatusOK, dto.TicketListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// APIGet GET /api/tickets/:id.
func (h *TicketsHandler) APIGet(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, ticket)
}

// APIHistory GET /api/tickets/:id/history.
func (h *TicketsHandler) APIHistory(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, ticket.History)
}

// APICreate POST /api/tickets.
func (h *TicketsHandler) APICreate(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor.ID(c), createInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, ticket)
}

// APIUpdate PATCH /api/tickets/:id.
func (h *TicketsHandler) APIUpdate(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), actor.ID(c), c.Params("id"), updateInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, ticket)
}

// APIComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) APIComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.AddComment(c.UserContext(), actor.ID(c), c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, ticket)
}

// APIDetails PATCH /api/tickets/:id/details.
func (h *TicketsHandler) APIDetails(c *fiber.Ctx) error {
	var req dto.TicketDetailsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateDetails(c.UserContext(), actor.ID(c), c.Params("id"), service.TicketDetailsInput{
		Title:       req.Title,
		Description: req.Description,
		Provider:    req.Provider,
		Branch:      req.Branch,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, ticket)
}

func createInput(req dto.CreateTicketRequest) service.TicketCreateInput {
	return service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		AssigneeID:  optional(req.AssigneeID),
		RequestedBy: req.RequestedBy,
		Provider:    optional(req.Provider),
		Branch:      optional(req.Branch),
		Attachments: flattenList(req.Attachments),
	}
}

// updateInput treats blank enum fields as "unchanged". The assignee keeps the
// distinction between absent and empty.
func updateInput(req dto.UpdateTicketRequest) service.TicketUpdate {
	update := service.TicketUpdate{
		AssigneeID: req.AssigneeID,
		Comment:    req.Comment,
	}
	if v := optionalPtr(req.Status); v != nil {
		status := domain.TicketStatus(*v)
		update.Status = &status
	}
	if v := optionalPtr(req.Priority); v != nil {
		priority := domain.TicketPriority(*v)
		update.Priority = &priority
	}
	if v := optionalPtr(req.Type); v != nil {
		ticketType := domain.TicketType(*v)
		update.Type = &ticketType
	}
	return update
}

func parseTicketQuery(c *fiber.Ctx, defaultPageSize int) service.TicketFilter {
	filter := service.TicketFilter{
		Search:    c.Query("q"),
		SortBy:    c.Query("sort", service.SortLastUpdated),
		Ascending: strings.EqualFold(c.Query("order"), "asc"),
	}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	for _, part := range splitList(c.Query("type")) {
		filter.Types = append(filter.Types, domain.TicketType(part))
	}
	filter.AssigneeID = optional(c.Query("assignee"))
	filter.RequestedBy = optional(c.Query("requester"))

	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > 0 {
		page := parseInt(c.Query("page"), 1)
		filter.Limit = pageSize
		filter.Offset = (page - 1) * pageSize
	}
	return filter
}

func pageURL(c *fiber.Ctx, page int) string {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	values.Set("page", strconv.Itoa(page))
	values.Del("ok")
	values.Del("msg")
	return c.Path() + "?" + values.Encode()
}

func usersByID(users []domain.User) map[string]domain.User {
	out := make(map[string]domain.User, len(users))
	for _, user := range users {
		out[user.ID] = user
	}
	return out
}

func optionalPtr(val *string) *string {
	if val == nil {
		return nil
	}
	return optional(*val)
}

// flattenList splits comma separated entries coming from text inputs.
func flattenList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, splitList(v)...)
	}
	return out
}
