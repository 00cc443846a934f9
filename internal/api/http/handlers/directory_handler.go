package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/dto"
	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/service"
)

// DirectoryHandler serves users and organizations.
type DirectoryHandler struct {
	directory *service.DirectoryService
	logger    *zap.Logger
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService, logger *zap.Logger) *DirectoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryHandler{directory: directory, logger: logger}
}

// Users GET /users.
func (h *DirectoryHandler) Users(c *fiber.Ctx) error {
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	orgs, err := h.directory.ListOrganizations(c.UserContext())
	if err != nil {
		return err
	}
	names := make(map[string]string, len(orgs))
	for _, org := range orgs {
		names[org.ID] = org.Name
	}
	return render(c, "users/index", "Usuarios", "users", fiber.Map{
		"UserList":          users,
		"Organizations":     orgs,
		"OrganizationNames": names,
		"Roles":             domain.UserRoles,
	})
}

// SaveUser POST /users.
func (h *DirectoryHandler) SaveUser(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, service.PathUsers, err, "")
	}
	user, err := h.directory.SaveUser(c.UserContext(), actor.ID(c), userInput(req))
	if err != nil {
		return redirectWithResult(c, h.logger, service.PathUsers, err, "")
	}
	return redirectWithResult(c, h.logger, service.PathUsers, nil, "Usuario "+user.Name+" guardado")
}

// DeactivateUser POST /users/:id/deactivate.
func (h *DirectoryHandler) DeactivateUser(c *fiber.Ctx) error {
	_, err := h.directory.DeactivateUser(c.UserContext(), actor.ID(c), c.Params("id"))
	return redirectWithResult(c, h.logger, service.PathUsers, err, "Usuario desactivado")
}

// Organizations GET /organizations.
func (h *DirectoryHandler) Organizations(c *fiber.Ctx) error {
	orgs, err := h.directory.ListOrganizations(c.UserContext())
	if err != nil {
		return err
	}
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	counts := make(map[string]int, len(orgs))
	for _, user := range users {
		if user.OrganizationID != "" {
			counts[user.OrganizationID]++
		}
	}
	return render(c, "organizations/index", "Organizaciones", "organizations", fiber.Map{
		"Organizations": orgs,
		"UserCounts":    counts,
	})
}

// SaveOrganization POST /organizations.
func (h *DirectoryHandler) SaveOrganization(c *fiber.Ctx) error {
	var req dto.OrganizationRequest
	if err := parseBody(c, &req); err != nil {
		return redirectWithResult(c, h.logger, service.PathOrganizations, err, "")
	}
	org, err := h.directory.SaveOrganization(c.UserContext(), actor.ID(c), organizationInput(req))
	if err != nil {
		return redirectWithResult(c, h.logger, service.PathOrganizations, err, "")
	}
	return redirectWithResult(c, h.logger, service.PathOrganizations, nil, "Organización "+org.Name+" guardada")
}

// DeleteOrganization POST /organizations/:id/delete.
func (h *DirectoryHandler) DeleteOrganization(c *fiber.Ctx) error {
	err := h.directory.DeleteOrganization(c.UserContext(), actor.ID(c), c.Params("id"))
	return redirectWithResult(c, h.logger, service.PathOrganizations, err, "Organización eliminada")
}

// APIUsers GET /api/users.
func (h *DirectoryHandler) APIUsers(c *fiber.Ctx) error {
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// APIGetUser GET /api/users/:id.
func (h *DirectoryHandler) APIGetUser(c *fiber.Ctx) error {
	user, err := h.directory.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// APISaveUser POST /api/users and PUT /api/users/:id.
func (h *DirectoryHandler) APISaveUser(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status := http.StatusCreated
	if id := c.Params("id"); id != "" {
		req.ID = id
		status = http.StatusOK
	}
	user, err := h.directory.SaveUser(c.UserContext(), actor.ID(c), userInput(req))
	if err != nil {
		return err
	}
	return respond(c, status, user)
}

// APIDeactivateUser POST /api/users/:id/deactivate.
func (h *DirectoryHandler) APIDeactivateUser(c *fiber.Ctx) error {
	user, err := h.directory.DeactivateUser(c.UserContext(), actor.ID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// APIOrganizations GET /api/organizations.
func (h *DirectoryHandler) APIOrganizations(c *fiber.Ctx) error {
	orgs, err := h.directory.ListOrganizations(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, orgs)
}

// APIGetOrganization GET /api/organizations/:id.
func (h *DirectoryHandler) APIGetOrganization(c *fiber.Ctx) error {
	org, err := h.directory.GetOrganization(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, org)
}

// APISaveOrganization POST /api/organizations and PUT /api/organizations/:id.
func (h *DirectoryHandler) APISaveOrganization(c *fiber.Ctx) error {
	var req dto.OrganizationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status := http.StatusCreated
	if id := c.Params("id"); id != "" {
		req.ID = id
		status = http.StatusOK
	}
	org, err := h.directory.SaveOrganization(c.UserContext(), actor.ID(c), organizationInput(req))
	if err != nil {
		return err
	}
	return respond(c, status, org)
}

// APIDeleteOrganization DELETE /api/organizations/:id.
func (h *DirectoryHandler) APIDeleteOrganization(c *fiber.Ctx) error {
	if err := h.directory.DeleteOrganization(c.UserContext(), actor.ID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{
		ID:             req.ID,
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
		Active:         req.Active,
	}
}

func organizationInput(req dto.OrganizationRequest) service.OrganizationInput {
	return service.OrganizationInput{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	}
}
