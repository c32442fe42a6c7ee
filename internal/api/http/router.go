package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/http/handlers"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Attachments    *handlers.AttachmentsHandler
	KPI            *handlers.KPIHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	// Public surface: login, registration, password reset.
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/password/reset/request", cfg.Auth.RequestPasswordReset)
	api.Post("/auth/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	api.Post("/user", cfg.Users.Register)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	tickets := protected.Group("/ticket")
	tickets.Get("", cfg.Tickets.List)
	tickets.Post("", cfg.Tickets.Create)
	// Registered ahead of /:id so "search" is not taken as a ticket id.
	tickets.Get("/search", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Put("/:id/comment", auth.RequireRole(domain.RoleRep, domain.RoleAdmin), cfg.Tickets.Comment)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)
	tickets.Get("/:id/attachments", cfg.Attachments.List)

	protected.Get("/attachment/:id", cfg.Attachments.Download)
	protected.Delete("/attachment/:id", cfg.Attachments.Delete)

	users := protected.Group("/user")
	users.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
	users.Get("/representatives", auth.RequireRole(domain.RoleRep, domain.RoleAdmin), cfg.Users.ListRepresentatives)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Put("/:id/password", cfg.Users.ChangePassword)
	users.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Delete)

	protected.Post("/admin/user", auth.RequireRole(domain.RoleAdmin), cfg.Users.CreateAccount)

	dashboard := protected.Group("/dashboard", auth.RequireRole(domain.RoleAdmin))
	dashboard.Get("/stats", cfg.KPI.DashboardStats)
	dashboard.Get("/trends", cfg.KPI.DashboardTrends)
	dashboard.Get("/performance", cfg.KPI.DashboardPerformance)

	kpi := protected.Group("/kpi")
	kpi.Get("/representative/:id", auth.RequireRole(domain.RoleRep, domain.RoleAdmin), cfg.KPI.RepresentativeKPI)
	kpi.Get("/representatives", auth.RequireRole(domain.RoleAdmin), cfg.KPI.RepresentativeRanking)
	kpi.Get("/average-resolution-time", auth.RequireRole(domain.RoleAdmin), cfg.KPI.AverageResolutionTime)
	kpi.Get("/total-resolved", auth.RequireRole(domain.RoleAdmin), cfg.KPI.TotalResolved)

	notifications := protected.Group("/notification")
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Put("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)
}
