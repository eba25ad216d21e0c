package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nordicdesk/helpdesk/internal/api/http/handlers"
	"github.com/nordicdesk/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Companies      *handlers.CompaniesHandler
	Users          *handlers.UsersHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.Middleware
	RateLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	if cfg.RateLimiter != nil {
		authGroup.Use(cfg.RateLimiter)
	}
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Get("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/stats/roles", auth.RequireAdmin(), cfg.Tickets.RoleStats)
	tickets.Get("/role/:role", cfg.Tickets.ListByRole)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)
	tickets.Put("/:id/assign", auth.RequireAdmin(), cfg.Tickets.AssignRole)
	tickets.Put("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/comments", cfg.Comments.AddComment)

	comments := api.Group("/comments", cfg.AuthMiddleware.Handle)
	comments.Put("/:id", cfg.Comments.UpdateComment)
	comments.Delete("/:id", cfg.Comments.DeleteComment)

	companies := api.Group("/companies", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	companies.Post("/", cfg.Companies.CreateCompany)
	companies.Get("/", cfg.Companies.ListCompanies)
	companies.Get("/:id", cfg.Companies.GetCompany)
	companies.Put("/:id", cfg.Companies.UpdateCompany)
	companies.Delete("/:id", cfg.Companies.DeleteCompany)
	companies.Get("/:id/users", cfg.Companies.CompanyUsers)
	companies.Get("/:id/tickets", cfg.Companies.CompanyTickets)

	users := api.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	users.Get("/", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Put("/:id", cfg.Users.UpdateUser)
	users.Put("/:id/role", cfg.Users.UpdateRole)
	users.Put("/:id/company", cfg.Users.AssignCompany)
	users.Delete("/:id/company", cfg.Users.RemoveCompany)

	api.Get("/stats", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Stats.Overview)
	api.Get("/feedback/stats", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Stats.FeedbackStats)
}
