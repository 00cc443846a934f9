package handlers

import (
	"bufio"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/dto"
	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/service"
)

// DeploymentsHandler serves deployment pages and API.
type DeploymentsHandler struct {
	deployments *service.DeploymentService
	tickets     *service.TicketService
	directory   *service.DirectoryService
	logger      *zap.Logger
}

// NewDeploymentsHandler constructs handler.
func NewDeploymentsHandler(deployments *service.DeploymentService, tickets *service.TicketService, directory *service.DirectoryService, logger *zap.Logger) *DeploymentsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeploymentsHandler{deployments: deployments, tickets: tickets, directory: directory, logger: logger}
}

// Index GET /deployments.
func (h *DeploymentsHandler) Index(c *fiber.Ctx) error {
	filter := parseDeploymentQuery(c)
	deployments, err := h.deployments.ListDeployments(c.UserContext(), filter)
	if err != nil {
		return err
	}
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "deployments/index", "Despliegues", "deployments", fiber.Map{
		"Deployments":        deployments,
		"Users":              usersByID(users),
		"Environments":       domain.Environments,
		"DeploymentStatuses": domain.DeploymentStatuses,
		"Filter":             filter,
	})
}

// New GET /deployments/new.
func (h *DeploymentsHandler) New(c *fiber.Ctx) error {
	page, err := h.tickets.ListTickets(c.UserContext(), service.TicketFilter{})
	if err != nil {
		return err
	}
	return render(c, "deployments/new", "Registrar despliegue", "deployments", fiber.Map{
		"Environments":       domain.Environments,
		"DeploymentStatuses": domain.DeploymentStatuses,
		"Tickets":            page.Items,
	})
}

// Create POST /deployments.
func (h *DeploymentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDeploymentRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, "/deployments/new", err, "")
	}
	input := deploymentInput(req)
	input.Files = append(input.Files, ParseFileLines(req.FileLines)...)

	result, err := h.deployments.CreateDeployment(c.UserContext(), actor.ID(c), input)
	if err != nil {
		return redirectWithResult(c, h.logger, "/deployments/new", err, "")
	}
	msg := "Despliegue " + result.Deployment.ID + " registrado"
	if len(result.FailedTickets) > 0 {
		msg += "; no se pudo actualizar: " + strings.Join(result.FailedTickets, ", ")
	}
	return redirectWithResult(c, h.logger, service.PathDeployments, nil, msg)
}

// APIList GET /api/deployments.
func (h *DeploymentsHandler) APIList(c *fiber.Ctx) error {
	deployments, err := h.deployments.ListDeployments(c.UserContext(), parseDeploymentQuery(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, deployments)
}

// APIGet GET /api/deployments/:id.
func (h *DeploymentsHandler) APIGet(c *fiber.Ctx) error {
	deployment, err := h.deployments.GetDeployment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, deployment)
}

// APICreate POST /api/deployments.
func (h *DeploymentsHandler) APICreate(c *fiber.Ctx) error {
	var req dto.CreateDeploymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.deployments.CreateDeployment(c.UserContext(), actor.ID(c), deploymentInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.DeploymentResponse{
		Deployment:     result.Deployment,
		UpdatedTickets: result.UpdatedTickets,
		FailedTickets:  result.FailedTickets,
	})
}

// ParseFileLines reads "name version type" lines; version and type are
// optional.
func ParseFileLines(text string) []domain.DeployedFile {
	var files []domain.DeployedFile
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		file := domain.DeployedFile{Name: fields[0]}
		if len(fields) > 1 {
			file.Version = fields[1]
		}
		if len(fields) > 2 {
			file.Type = strings.Join(fields[2:], " ")
		}
		files = append(files, file)
	}
	return files
}

func deploymentInput(req dto.CreateDeploymentRequest) service.DeploymentCreateInput {
	files := make([]domain.DeployedFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, domain.DeployedFile{Name: f.Name, Version: f.Version, Type: f.Type})
	}
	return service.DeploymentCreateInput{
		Files:       files,
		Environment: req.Environment,
		Status:      req.Status,
		TicketIDs:   flattenList(req.TicketIDs),
	}
}

func parseDeploymentQuery(c *fiber.Ctx) service.DeploymentFilter {
	return service.DeploymentFilter{
		Environment: domain.Environment(c.Query("environment")),
		Status:      domain.DeploymentStatus(c.Query("status")),
		TicketID:    strings.TrimSpace(c.Query("ticket")),
		Limit:       parseInt(c.Query("limit"), 0),
		Offset:      parseInt(c.Query("offset"), 0),
	}
}
