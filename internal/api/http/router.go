package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Contracts      *handlers.ContractsHandler
	ContractDrafts *handlers.ContractDraftsHandler
	Appointments   *handlers.AppointmentsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/password/change", cfg.Staff.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	staffOnly := auth.RequireStaffRole(domain.StaffRoleAgent, domain.StaffRoleTeamLead, domain.StaffRoleAdmin)
	adminOnly := auth.RequireStaffRole(domain.StaffRoleAdmin)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, staffOnly)

	staff.Get("/tickets", cfg.StaffTickets.ListStaffTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetStaffTicket)
	staff.Post("/tickets/:id/messages", cfg.StaffTickets.AddStaffMessage)
	staff.Post("/tickets/:id/status", cfg.StaffTickets.UpdateStatus)
	staff.Post("/tickets/:id/priority", cfg.StaffTickets.UpdatePriority)
	staff.Post("/tickets/:id/assign/self", cfg.StaffTickets.SelfAssign)
	staff.Post("/tickets/:id/assign", cfg.StaffTickets.Assign)

	staff.Post("/tickets/:id/appointments", cfg.Appointments.Schedule)
	staff.Get("/tickets/:id/appointments", cfg.Appointments.ListForTicket)
	staff.Post("/appointments/:id/complete", cfg.Appointments.Complete)
	staff.Post("/appointments/:id/cancel", cfg.Appointments.Cancel)

	staff.Get("/contracts/options", cfg.Catalog.ContractOptions)
	staff.Get("/contract-types", cfg.Catalog.ListContractTypes)
	staff.Get("/clients", cfg.Catalog.ListClients)

	staff.Post("/contracts", cfg.Contracts.CreateContract)
	staff.Get("/contracts", cfg.Contracts.ListContracts)
	staff.Get("/contracts/:id", cfg.Contracts.GetContract)
	staff.Put("/contracts/:id", cfg.Contracts.UpdateContract)
	staff.Post("/contracts/:id/addenda", cfg.Contracts.CreateAddendum)
	staff.Get("/contracts/:id/addenda", cfg.Contracts.ListAddenda)

	staff.Post("/contract-drafts", cfg.ContractDrafts.StartDraft)
	staff.Get("/contract-drafts/:session_id", cfg.ContractDrafts.GetDraft)
	staff.Put("/contract-drafts/:session_id/fields", cfg.ContractDrafts.UpdateFields)
	staff.Post("/contract-drafts/:session_id/items", cfg.ContractDrafts.AddItem)
	staff.Delete("/contract-drafts/:session_id/items/:index", cfg.ContractDrafts.RemoveItem)
	staff.Post("/contract-drafts/:session_id/submit", cfg.ContractDrafts.Submit)
	staff.Delete("/contract-drafts/:session_id", cfg.ContractDrafts.Discard)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, adminOnly)
	admin.Post("/departments", cfg.Staff.CreateDepartment)
	admin.Get("/departments", cfg.Staff.ListDepartments)
	admin.Get("/departments/:id", cfg.Staff.GetDepartment)
	admin.Put("/departments/:id", cfg.Staff.UpdateDepartment)
	admin.Post("/teams", cfg.Staff.CreateTeam)
	admin.Get("/teams", cfg.Staff.ListTeams)
	admin.Get("/teams/:id", cfg.Staff.GetTeam)
	admin.Put("/teams/:id", cfg.Staff.UpdateTeam)
	admin.Post("/staff", cfg.Staff.CreateStaff)
	admin.Get("/staff", cfg.Staff.ListStaff)
	admin.Get("/staff/:id", cfg.Staff.GetStaff)
	admin.Put("/staff/:id", cfg.Staff.UpdateStaff)
}
