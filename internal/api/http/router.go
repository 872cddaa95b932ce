package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/api/http/handlers"
	"github.com/citycare/issue-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Public         *handlers.PublicHandler
	Issues         *handlers.IssuesHandler
	StaffIssues    *handlers.StaffIssuesHandler
	Officers       *handlers.OfficersHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/citizens/register", cfg.Auth.RegisterCitizen)
	authGroup.Post("/citizens/login", cfg.Auth.LoginCitizen)
	authGroup.Post("/officers/login", cfg.Auth.LoginOfficer)

	public := app.Group("/public")
	public.Get("/stats", cfg.Public.Stats)
	public.Get("/leaderboard", cfg.Public.Leaderboard)

	citizen := app.Group("/issues", cfg.AuthMiddleware.Handle, auth.RequireCitizen())
	citizen.Post("/", cfg.Issues.CreateIssue)
	citizen.Get("/", cfg.Issues.ListIssues)
	citizen.Get("/:id", cfg.Issues.GetIssue)
	citizen.Post("/:id/comments", cfg.Issues.AddComment)

	staff := app.Group("/staff/issues", cfg.AuthMiddleware.Handle, auth.RequireOfficerRole())
	staff.Get("/", cfg.StaffIssues.ListIssues)
	staff.Get("/:id", cfg.StaffIssues.GetIssue)
	staff.Get("/:id/history", cfg.StaffIssues.History)
	staff.Post("/:id/status", cfg.StaffIssues.UpdateStatus)
	staff.Post("/:id/start", cfg.StaffIssues.StartWork)
	staff.Post("/:id/complete", cfg.StaffIssues.CompleteWork)
	staff.Post("/:id/comments", cfg.StaffIssues.AddComment)

	requireAdmin := auth.RequireAdmin()
	staff.Post("/:id/assign", requireAdmin, cfg.StaffIssues.Assign)
	staff.Post("/:id/reassign", requireAdmin, cfg.StaffIssues.Reassign)
	staff.Post("/:id/revoke", requireAdmin, cfg.StaffIssues.Revoke)
	staff.Post("/:id/reject", requireAdmin, cfg.StaffIssues.Reject)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, requireAdmin)
	admin.Post("/officers", cfg.Officers.CreateOfficer)
	admin.Get("/officers", cfg.Officers.ListOfficers)
	admin.Post("/officers/:id/deactivate", cfg.Officers.DeactivateOfficer)
	admin.Get("/metrics", cfg.Metrics.Snapshot)
}
