package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Companies      *handlers.CompaniesHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	Settings       *handlers.SettingsHandler
	Files          *handlers.FilesHandler
	AuthMiddleware fiber.Handler
}

// RegisterRoutes wires HTTP routes. Static segments are registered before
// parameterised ones so they are not captured as ids.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware, cfg.Auth.Logout)

	authenticated := []fiber.Handler{cfg.AuthMiddleware, auth.RequireAuthenticated()}
	protect := func(prefix string, guards ...fiber.Handler) fiber.Router {
		return app.Group(prefix, append(append([]fiber.Handler{}, authenticated...), guards...)...)
	}

	tickets := protect("/tickets")
	tickets.Get("/statuses", cfg.Tickets.Statuses)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Tickets.DownloadAttachment)

	companies := protect("/companies", auth.RequireAction(access.ActionViewCompanies))
	companies.Get("/", cfg.Companies.List)
	companies.Post("/", cfg.Companies.Create)
	companies.Get("/:id", cfg.Companies.Get)
	companies.Put("/:id", cfg.Companies.Update)
	companies.Delete("/:id", cfg.Companies.Delete)
	companies.Put("/:id/credits", cfg.Companies.AddCredits)
	companies.Get("/:id/users", cfg.Companies.Users)
	companies.Get("/:id/tickets", cfg.Companies.Tickets)

	users := protect("/users", auth.RequireAction(access.ActionViewUsers))
	users.Get("/roles", cfg.Users.Roles)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
	users.Put("/:id/password", cfg.Users.ResetPassword)

	catalog := protect("/tickettypes")
	catalog.Get("/field-types", cfg.Catalog.FieldTypes)
	catalog.Get("/categories", cfg.Catalog.ListCategories)
	catalog.Post("/categories", cfg.Catalog.CreateCategory)
	catalog.Get("/categories/:id/modules", cfg.Catalog.ListModules)
	catalog.Post("/categories/:id/modules", cfg.Catalog.CreateModule)
	catalog.Get("/", cfg.Catalog.ListTicketTypes)
	catalog.Post("/", cfg.Catalog.CreateTicketType)
	catalog.Get("/:id", cfg.Catalog.GetTicketType)
	catalog.Put("/:id", cfg.Catalog.UpdateTicketType)
	catalog.Get("/:id/formfields", cfg.Catalog.ListFormFields)
	catalog.Post("/:id/formfields", cfg.Catalog.CreateFormField)
	catalog.Put("/:id/formfields/:fieldId", cfg.Catalog.UpdateFormField)
	catalog.Delete("/:id/formfields/:fieldId", cfg.Catalog.DeleteFormField)

	settings := protect("/systemsettings", auth.RequireAction(access.ActionViewSettings))
	settings.Get("/categories", cfg.Settings.Categories)
	settings.Get("/export", cfg.Settings.Export)
	settings.Put("/bulk", cfg.Settings.Bulk)
	settings.Post("/reset-defaults", cfg.Settings.ResetDefaults)
	settings.Post("/test-connection", cfg.Settings.TestConnection)
	settings.Get("/", cfg.Settings.List)
	settings.Post("/", cfg.Settings.Create)
	settings.Get("/:key", cfg.Settings.Get)
	settings.Put("/:key", cfg.Settings.Update)

	files := protect("/files", auth.RequireAction(access.ActionManageFiles))
	files.Post("/upload", cfg.Files.Upload)
	files.Get("/download/*", cfg.Files.Download)
	files.Get("/info/*", cfg.Files.Info)
	files.Get("/list", cfg.Files.List)
	files.Delete("/delete", cfg.Files.Delete)
}
