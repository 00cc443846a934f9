package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maximo-portal/version-portal/internal/actor"
	"github.com/maximo-portal/version-portal/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Dashboard   *handlers.DashboardHandler
	Tickets     *handlers.TicketsHandler
	Deployments *handlers.DeploymentsHandler
	Commits     *handlers.CommitsHandler
	Directory   *handlers.DirectoryHandler
	Session     *handlers.SessionHandler
	Actor       *actor.Middleware
	// PageCache is optional; without it every page renders on each request.
	PageCache *PageCache
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	if cfg.PageCache != nil {
		app.Use(cfg.PageCache.Handler())
	}
	app.Use(cfg.Actor.Handle)

	app.Post("/session/user", cfg.Session.SwitchUser)

	app.Get("/", cfg.Dashboard.Page)

	app.Get("/tickets", cfg.Tickets.Index)
	app.Get("/tickets/new", cfg.Tickets.New)
	app.Post("/tickets", cfg.Tickets.Create)
	app.Get("/tickets/:id", cfg.Tickets.Show)
	app.Post("/tickets/:id/update", cfg.Tickets.Update)
	app.Post("/tickets/:id/comments", cfg.Tickets.Comment)

	app.Get("/deployments", cfg.Deployments.Index)
	app.Get("/deployments/new", cfg.Deployments.New)
	app.Post("/deployments", cfg.Deployments.Create)

	app.Get("/commits", cfg.Commits.Index)
	app.Post("/commits", cfg.Commits.Create)

	app.Get("/users", cfg.Directory.Users)
	app.Post("/users", cfg.Directory.SaveUser)
	app.Post("/users/:id/deactivate", cfg.Directory.DeactivateUser)

	app.Get("/organizations", cfg.Directory.Organizations)
	app.Post("/organizations", cfg.Directory.SaveOrganization)
	app.Post("/organizations/:id/delete", cfg.Directory.DeleteOrganization)

	api := app.Group("/api")
	api.Get("/me", cfg.Session.Me)
	api.Get("/dashboard", cfg.Dashboard.API)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.APIList)
	tickets.Post("/", cfg.Tickets.APICreate)
	tickets.Get("/:id", cfg.Tickets.APIGet)
	tickets.Patch("/:id", cfg.Tickets.APIUpdate)
	tickets.Patch("/:id/details", cfg.Tickets.APIDetails)
	tickets.Get("/:id/history", cfg.Tickets.APIHistory)
	tickets.Post("/:id/comments", cfg.Tickets.APIComment)

	deployments := api.Group("/deployments")
	deployments.Get("/", cfg.Deployments.APIList)
	deployments.Post("/", cfg.Deployments.APICreate)
	deployments.Get("/:id", cfg.Deployments.APIGet)

	commits := api.Group("/commits")
	commits.Get("/", cfg.Commits.APIList)
	commits.Post("/", cfg.Commits.APICreate)
	commits.Get("/:id", cfg.Commits.APIGet)

	users := api.Group("/users")
	users.Get("/", cfg.Directory.APIUsers)
	users.Post("/", cfg.Directory.APISaveUser)
	users.Get("/:id", cfg.Directory.APIGetUser)
	users.Put("/:id", cfg.Directory.APISaveUser)
	users.Post("/:id/deactivate", cfg.Directory.APIDeactivateUser)

	orgs := api.Group("/organizations")
	orgs.Get("/", cfg.Directory.APIOrganizations)
	orgs.Post("/", cfg.Directory.APISaveOrganization)
	orgs.Get("/:id", cfg.Directory.APIGetOrganization)
	orgs.Put("/:id", cfg.Directory.APISaveOrganization)
	orgs.Delete("/:id", cfg.Directory.APIDeleteOrganization)
}
