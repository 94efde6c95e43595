package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Metrics         *handlers.MetricsHandler
	ServiceRequests *handlers.ServiceRequestsHandler
	Organization    *handlers.OrganizationHandler
	AuthMiddleware  *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	admin := auth.RequireRole(domain.ActorRoleAdmin)
	api.Get("/organization", admin, cfg.Organization.Get)
	api.Put("/organization", admin, cfg.Organization.Update)

	h := cfg.ServiceRequests
	requests := api.Group("/service-requests")
	anyone := auth.RequireAnyRole()
	requests.Get("/", anyone, h.List)
	requests.Get("/:id", anyone, h.Get)
	requests.Get("/:id/history", anyone, h.History)
	requests.Post("/:id/approval/respond", anyone, h.RespondToApproval)
	requests.Delete("/:id", admin, h.Delete)
	requests.Get("/:id/transitions", auth.RequireStaff(), h.ValidTransitions)
	requests.Post("/", auth.RequireStaff(), h.Create)

	staff := auth.RequireStaff()
	requests.Post("/:id/transition", staff, h.Transition)
	requests.Post("/:id/assign", staff, h.Move(domain.StateAssigned))
	requests.Post("/:id/accept", staff, h.Accept)
	requests.Post("/:id/decline", staff, h.Move(domain.StateDeclined))
	requests.Post("/:id/visits", staff, h.Move(domain.StateVisitScheduled))
	requests.Post("/:id/visits/start", staff, h.StartVisit)
	requests.Post("/:id/visits/complete", staff, h.Move(domain.StateVisitCompleted))
	requests.Patch("/:id/visits/:visitId", staff, h.UpdateVisit)
	requests.Post("/:id/parts", staff, h.Move(domain.StateAwaitingParts))
	requests.Post("/:id/parts/received", staff, h.ReceiveParts)
	requests.Post("/:id/approval", staff, h.Move(domain.StateAwaitingApproval))
	requests.Post("/:id/resolve", staff, h.Move(domain.StateResolved))
	requests.Post("/:id/cancel", staff, h.Move(domain.StateCancelled))
}
