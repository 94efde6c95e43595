package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/service"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// ServiceRequestsHandler exposes the request lifecycle over HTTP.
type ServiceRequestsHandler struct {
	requests  *service.RequestService
	lifecycle *service.LifecycleService
}

// NewServiceRequestsHandler constructs handler.
func NewServiceRequestsHandler(requests *service.RequestService, lifecycle *service.LifecycleService) *ServiceRequestsHandler {
	return &ServiceRequestsHandler{requests: requests, lifecycle: lifecycle}
}

// Create POST /service-requests.
func (h *ServiceRequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateServiceRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	record, err := h.requests.Create(c.UserContext(), principal.OrganizationID, principal.Actor, service.CreateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Customer:    req.Customer,
		Device:      req.Device,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
}

// List GET /service-requests.
func (h *ServiceRequestsHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter := parseListQuery(c)
	records, err := h.requests.List(c.UserContext(), principal.OrganizationID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ServiceRequestSummary, 0, len(records))
	for i := range records {
		items = append(items, dto.NewServiceRequestSummary(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /service-requests/:id.
func (h *ServiceRequestsHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	record, err := h.requests.Get(c.UserContext(), principal.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
}

// History GET /service-requests/:id/history.
func (h *ServiceRequestsHandler) History(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	history, err := h.requests.History(c.UserContext(), principal.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	if history == nil {
		history = []domain.StateTransition{}
	}
	return c.JSON(fiber.Map{"data": history})
}

// ValidTransitions GET /service-requests/:id/transitions.
func (h *ServiceRequestsHandler) ValidTransitions(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	descriptors, err := h.lifecycle.GetValidTransitions(c.UserContext(), principal.OrganizationID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": descriptors})
}

// Transition POST /service-requests/:id/transition.
func (h *ServiceRequestsHandler) Transition(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TargetState == "" {
		return apperrors.NewValidationError("target_state required", nil)
	}
	record, err := h.lifecycle.Transition(c.UserContext(), service.TransitionRequest{
		OrganizationID: principal.OrganizationID,
		RequestID:      c.Params("id"),
		Target:         req.TargetState,
		Actor:          principal.Actor,
		Reason:         req.Reason,
		Metadata:       req.Metadata,
		Data:           req.Data.ToDomain(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
}

// Move returns a handler that drives the request into target. The body uses
// the same keys as the transition data payload.
func (h *ServiceRequestsHandler) Move(target domain.ServiceRequestState) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := requirePrincipal(c)
		if err != nil {
			return err
		}
		var payload dto.TransitionDataPayload
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&payload); err != nil {
				return apperrors.NewValidationError("invalid payload", nil)
			}
		}
		reason := ""
		switch {
		case target == domain.StateDeclined && payload.DeclineReason != nil:
			reason = *payload.DeclineReason
		case target == domain.StateCancelled && payload.CancellationReason != nil:
			reason = *payload.CancellationReason
		}
		record, err := h.lifecycle.Transition(c.UserContext(), service.TransitionRequest{
			OrganizationID: principal.OrganizationID,
			RequestID:      c.Params("id"),
			Target:         target,
			Actor:          principal.Actor,
			Reason:         reason,
			Data:           payload.ToDomain(),
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
	}
}

// Accept POST /service-requests/:id/accept.
func (h *ServiceRequestsHandler) Accept(c *fiber.Ctx) error {
	return h.simple(c, h.lifecycle.Accept)
}

// StartVisit POST /service-requests/:id/visits/start.
func (h *ServiceRequestsHandler) StartVisit(c *fiber.Ctx) error {
	return h.simple(c, h.lifecycle.StartVisit)
}

// ReceiveParts POST /service-requests/:id/parts/received.
func (h *ServiceRequestsHandler) ReceiveParts(c *fiber.Ctx) error {
	return h.simple(c, h.lifecycle.ReceiveParts)
}

// RespondToApproval POST /service-requests/:id/approval/respond.
func (h *ServiceRequestsHandler) RespondToApproval(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ApprovalResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Approved == nil {
		return apperrors.NewValidationError("approved required", map[string]any{"approved": "required"})
	}
	record, err := h.lifecycle.RespondToApproval(c.UserContext(), refFrom(c, principal), principal.Actor, *req.Approved, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
}

// UpdateVisit PATCH /service-requests/:id/visits/:visitId.
func (h *ServiceRequestsHandler) UpdateVisit(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	record, err := h.requests.UpdateVisitDetails(c.UserContext(), principal.OrganizationID, c.Params("id"), c.Params("visitId"), principal.Actor, domain.VisitDetails{
		Diagnosis:     req.Diagnosis,
		WorkPerformed: req.WorkPerformed,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
}

// Delete DELETE /service-requests/:id.
func (h *ServiceRequestsHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.requests.SoftDelete(c.UserContext(), principal.OrganizationID, c.Params("id"), principal.Actor); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type lifecycleAction func(ctx context.Context, ref service.RequestRef, actor domain.Actor) (*domain.ServiceRequest, error)

func (h *ServiceRequestsHandler) simple(c *fiber.Ctx, action lifecycleAction) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	record, err := action(c.UserContext(), refFrom(c, principal), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(record)})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func refFrom(c *fiber.Ctx, principal *auth.Principal) service.RequestRef {
	return service.RequestRef{OrganizationID: principal.OrganizationID, RequestID: c.Params("id")}
}

func parseListQuery(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}
	for _, raw := range splitQuery(c.Query("state")) {
		filter.States = append(filter.States, domain.ServiceRequestState(strings.ToUpper(raw)))
	}
	for _, raw := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.ServiceRequestPriority(strings.ToUpper(raw)))
	}
	if assignee := strings.TrimSpace(c.Query("assignee")); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		filter.SearchTerm = &term
	}
	return filter
}

func splitQuery(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}
