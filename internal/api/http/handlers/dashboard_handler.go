package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/maximo-portal/version-portal/internal/service"
)

// DashboardHandler renders the home page.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Page GET /.
func (h *DashboardHandler) Page(c *fiber.Ctx) error {
	overview, err := h.dashboard.Overview(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "dashboard", "Panel de control", "dashboard", fiber.Map{"Overview": overview})
}

// API GET /api/dashboard.
func (h *DashboardHandler) API(c *fiber.Ctx) error {
	overview, err := h.dashboard.Overview(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{
		"totalTickets":      overview.TotalTickets,
		"openTickets":       overview.OpenTickets,
		"highPriorityOpen":  overview.HighPriorityOpen,
		"activeUsers":       overview.ActiveUsers,
		"byStatus":          overview.ByStatus,
		"byPriority":        overview.ByPriority,
		"recentTickets":     overview.RecentTickets,
		"recentDeployments": overview.RecentDeployments,
		"recentCommits":     overview.RecentCommits,
	})
}
