package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/http/handlers"
	"github.com/maximo-portal/version-portal/internal/cache"
	"github.com/maximo-portal/version-portal/internal/domain"
	"github.com/maximo-portal/version-portal/internal/events"
	"github.com/maximo-portal/version-portal/internal/observability"
	"github.com/maximo-portal/version-portal/internal/repository"
	"github.com/maximo-portal/version-portal/internal/service"
	"github.com/maximo-portal/version-portal/internal/views"
	"github.com/maximo-portal/version-portal/internal/worker"
)

type testPortal struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	local := cache.NewMemoryCache(0)

	repos := repository.NewRepositories(repository.Dependencies{Local: local, Namespace: "test", Logger: logger})
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Seed(ctx, &repository.SeedData{
		Organizations: []domain.Organization{{ID: "org-1", Name: "Acme", Active: true}},
		Users: []domain.User{
			{ID: "usr-admin", Name: "Ana", Role: domain.UserRoleAdmin, OrganizationID: "org-1", Active: true},
			{ID: "usr-dev", Name: "Diego", Role: domain.UserRoleDeveloper, OrganizationID: "org-1", Active: true},
		},
		Tickets: []domain.Ticket{{
			ID:          "MAX-0001",
			Title:       "Error al aprobar",
			Description: "Falla **urgente** en OT",
			Status:      domain.TicketStatusOpen,
			Type:        domain.TicketTypeIncident,
			Priority:    domain.TicketPriorityHigh,
			RequestedBy: "usr-admin",
			CreatedAt:   created,
			LastUpdated: created,
			History: []domain.TicketHistoryEntry{
				{ID: "h-1", Timestamp: created, UserID: "usr-admin", Action: domain.ActionCreated},
			},
		}},
	}, logger))

	dispatcher := events.NewInMemoryDispatcher()
	tickets := service.NewTicketService(service.TicketDependencies{TicketRepo: repos.Tickets, UserRepo: repos.Users, Dispatcher: dispatcher, Logger: logger})
	deployments := service.NewDeploymentService(service.DeploymentDependencies{DeploymentRepo: repos.Deployments, History: tickets, Dispatcher: dispatcher, Logger: logger})
	commits := service.NewCommitService(service.CommitDependencies{CommitRepo: repos.Commits, History: tickets, Dispatcher: dispatcher, Logger: logger})
	directory := service.NewDirectoryService(service.DirectoryDependencies{UserRepo: repos.Users, OrganizationRepo: repos.Organizations, Dispatcher: dispatcher, Logger: logger})
	dashboard := service.NewDashboardService(service.DashboardDependencies{TicketRepo: repos.Tickets, DeploymentRepo: repos.Deployments, CommitRepo: repos.Commits, UserRepo: repos.Users})

	metrics := observability.NewMetrics()
	pages := NewPageCache(local, "test", time.Minute, metrics, logger)
	worker.StartRevalidationWorker(service.NewRevalidationService(dispatcher, pages, logger))

	engine, err := views.New()
	require.NoError(t, err)

	app := NewServer(ServerOptions{AppName: "portal-test", Views: engine, Logger: logger, Metrics: metrics, RequestTimeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("portal-test", "test", nil, nil, metrics),
		Dashboard:   handlers.NewDashboardHandler(dashboard),
		Tickets:     handlers.NewTicketsHandler(tickets, deployments, commits, directory, logger),
		Deployments: handlers.NewDeploymentsHandler(deployments, tickets, directory, logger),
		Commits:     handlers.NewCommitsHandler(commits, directory, logger),
		Directory:   handlers.NewDirectoryHandler(directory, logger),
		Session:     handlers.NewSessionHandler(),
		Actor:       actor.NewMiddleware(repos.Users, "usr-admin", logger),
		PageCache:   pages,
	})
	return &testPortal{app: app, metrics: metrics}
}

func (p *testPortal) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, string) {
	t.Helper()
	resp, err := p.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func jsonRequest(method, target, body string) *nethttp.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func formRequest(target string, values url.Values) *nethttp.Request {
	req := httptest.NewRequest(nethttp.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func redirectTarget(t *testing.T, resp *nethttp.Response) *url.URL {
	t.Helper()
	require.Equal(t, nethttp.StatusSeeOther, resp.StatusCode)
	target, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return target
}

func TestDashboardPage(t *testing.T) {
	portal := newTestPortal(t)

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/", nil))

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Panel de control")
}

func TestTicketPage_RendersMarkdown(t *testing.T) {
	portal := newTestPortal(t)

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/tickets/MAX-0001", nil))

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<strong>urgente</strong>")
}

func TestPageCache_HitThenInvalidatedByMutation(t *testing.T) {
	portal := newTestPortal(t)

	resp, _ := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/tickets", nil))
	assert.Equal(t, "MISS", resp.Header.Get(PageCacheHeader))

	resp, _ = portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/tickets", nil))
	assert.Equal(t, "HIT", resp.Header.Get(PageCacheHeader))

	req := jsonRequest(nethttp.MethodPost, "/api/tickets", `{"title":"Reporte de inventario"}`)
	req.Header.Set(actor.HeaderName, "usr-dev")
	resp, _ = portal.do(t, req)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/tickets", nil))
	assert.Equal(t, "MISS", resp.Header.Get(PageCacheHeader))
	assert.Contains(t, body, "Reporte de inventario")

	snapshot := portal.metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.PageCache["hit"])
	assert.Equal(t, int64(2), snapshot.PageCache["miss"])
}

func TestPageCache_UserRenameEvictsPagesShowingUsers(t *testing.T) {
	portal := newTestPortal(t)
	pages := []string{"/tickets/MAX-0001", "/deployments", "/commits"}

	for _, target := range pages {
		resp, _ := portal.do(t, httptest.NewRequest(nethttp.MethodGet, target, nil))
		require.Equal(t, "MISS", resp.Header.Get(PageCacheHeader), target)
		resp, _ = portal.do(t, httptest.NewRequest(nethttp.MethodGet, target, nil))
		require.Equal(t, "HIT", resp.Header.Get(PageCacheHeader), target)
	}

	resp, body := portal.do(t, jsonRequest(nethttp.MethodPut, "/api/users/usr-admin",
		`{"name":"Zulema Renombrada","email":"zulema@example.com","role":"Administrador","organizationId":"org-1","active":true}`))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, body)

	for _, target := range pages {
		resp, _ := portal.do(t, httptest.NewRequest(nethttp.MethodGet, target, nil))
		assert.Equal(t, "MISS", resp.Header.Get(PageCacheHeader), target)
	}

	_, body = portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/tickets/MAX-0001", nil))
	assert.Contains(t, body, "Zulema Renombrada")
	assert.NotContains(t, body, "<dd>Ana</dd>")
}

func TestPageCache_SkipsQueriesAndForms(t *testing.T) {
	portal := newTestPortal(t)

	for _, target := range []string{"/tickets?status=Abierto", "/tickets/new", "/api/tickets"} {
		resp, _ := portal.do(t, httptest.NewRequest(nethttp.MethodGet, target, nil))
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode, target)
		assert.Empty(t, resp.Header.Get(PageCacheHeader), target)
	}
}

func TestTicketForm_UpdateRedirectsWithSuccess(t *testing.T) {
	portal := newTestPortal(t)

	resp, _ := portal.do(t, formRequest("/tickets/MAX-0001/update", url.Values{
		"status":  {string(domain.TicketStatusClosed)},
		"comment": {"Listo en Producción"},
	}))
	target := redirectTarget(t, resp)
	assert.Equal(t, "/tickets/MAX-0001", target.Path)
	assert.Equal(t, "1", target.Query().Get("ok"))

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/tickets/MAX-0001", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	data := decode(t, body)["data"].(map[string]any)
	assert.Equal(t, string(domain.TicketStatusClosed), data["status"])
	history := data["history"].([]any)
	require.Len(t, history, 2)
	last := history[1].(map[string]any)
	assert.Equal(t, "usr-admin", last["userId"])
	assert.Equal(t, "Listo en Producción", last["comment"])
}

func TestTicketForm_FailureRedirectsWithMessage(t *testing.T) {
	portal := newTestPortal(t)

	resp, _ := portal.do(t, formRequest("/tickets", url.Values{"title": {"  "}}))
	target := redirectTarget(t, resp)
	assert.Equal(t, "/tickets/new", target.Path)
	assert.Equal(t, "0", target.Query().Get("ok"))
	assert.Equal(t, "title required", target.Query().Get("msg"))

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, target.String(), nil))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "title required")
}

func TestAPI_ErrorEnvelope(t *testing.T) {
	portal := newTestPortal(t)

	tests := []struct {
		name   string
		req    *nethttp.Request
		status int
		code   string
	}{
		{"missing ticket", httptest.NewRequest(nethttp.MethodGet, "/api/tickets/MAX-9999", nil), nethttp.StatusNotFound, "NOT_FOUND"},
		{"invalid create", jsonRequest(nethttp.MethodPost, "/api/tickets", `{"title":""}`), nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid status", jsonRequest(nethttp.MethodPatch, "/api/tickets/MAX-0001", `{"status":"Archivado"}`), nethttp.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown route", httptest.NewRequest(nethttp.MethodGet, "/api/nothing", nil), nethttp.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := portal.do(t, tc.req)
			assert.Equal(t, tc.status, resp.StatusCode)
			errBody := decode(t, body)["error"].(map[string]any)
			assert.Equal(t, tc.code, errBody["code"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestHTMLErrorPage(t *testing.T) {
	portal := newTestPortal(t)

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/tickets/MAX-9999", nil))

	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Error 404")
	assert.Empty(t, resp.Header.Get(PageCacheHeader))
}

func TestAPI_DeploymentLinksTickets(t *testing.T) {
	portal := newTestPortal(t)

	resp, body := portal.do(t, jsonRequest(nethttp.MethodPost, "/api/deployments",
		`{"environment":"Pruebas","status":"Exitoso","files":[{"name":"wo_approve.py","version":"3"}],"ticketIds":["MAX-0001","MAX-0404"]}`))
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, body)
	data := decode(t, body)["data"].(map[string]any)
	assert.Equal(t, []any{"MAX-0001"}, data["updatedTickets"])
	assert.Equal(t, []any{"MAX-0404"}, data["failedTickets"])

	resp, body = portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/tickets/MAX-0001/history", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	history := decode(t, body)["data"].([]any)
	require.Len(t, history, 2)
	assert.NotEmpty(t, history[1].(map[string]any)["deploymentId"])
}

func TestActingUser(t *testing.T) {
	portal := newTestPortal(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/me", nil)
	req.Header.Set(actor.HeaderName, "usr-dev")
	_, body := portal.do(t, req)
	assert.Equal(t, "Diego", decode(t, body)["data"].(map[string]any)["name"])

	_, body = portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/me", nil))
	assert.Equal(t, "usr-admin", decode(t, body)["data"].(map[string]any)["id"])

	resp, _ := portal.do(t, formRequest("/session/user", url.Values{"userId": {"usr-dev"}, "returnTo": {"/tickets"}}))
	assert.Equal(t, "/tickets", redirectTarget(t, resp).String())
	assert.Contains(t, resp.Header.Get("Set-Cookie"), actor.CookieName+"=usr-dev")

	resp, _ = portal.do(t, formRequest("/session/user", url.Values{"userId": {"usr-dev"}, "returnTo": {"//evil.example"}}))
	assert.Equal(t, "/", redirectTarget(t, resp).String())
}

func TestDirectoryAPI(t *testing.T) {
	portal := newTestPortal(t)

	resp, body := portal.do(t, jsonRequest(nethttp.MethodPost, "/api/organizations", `{"name":"Energía del Norte","active":true}`))
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, body)
	orgID := decode(t, body)["data"].(map[string]any)["id"].(string)

	resp, body = portal.do(t, jsonRequest(nethttp.MethodDelete, "/api/organizations/org-1", ""))
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode, body)

	resp, _ = portal.do(t, jsonRequest(nethttp.MethodDelete, "/api/organizations/"+orgID, ""))
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	resp, body = portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/api/users", nil))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, body)["data"].([]any), 2)
}

func TestHealthAndMetrics(t *testing.T) {
	portal := newTestPortal(t)

	resp, body := portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	deps := decode(t, body)["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	resp, body = portal.do(t, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode(t, body)["requests"])
}
