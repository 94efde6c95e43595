package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/tenant"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// OrganizationStore is the writable source of tenant records.
type OrganizationStore interface {
	tenant.Provider
	Upsert(ctx context.Context, org *domain.Organization) error
}

// OrganizationHandler lets admins inspect and change their tenant.
type OrganizationHandler struct {
	store   OrganizationStore
	tenants *tenant.Service
}

// NewOrganizationHandler constructs handler.
func NewOrganizationHandler(store OrganizationStore, tenants *tenant.Service) *OrganizationHandler {
	return &OrganizationHandler{store: store, tenants: tenants}
}

// Get GET /organization.
func (h *OrganizationHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	org, err := h.tenants.Organization(c.UserContext(), principal.OrganizationID)
	if err != nil {
		return mapOrganizationError(principal.OrganizationID, err)
	}
	return c.JSON(fiber.Map{"data": org})
}

// Update PUT /organization. Status and module changes take effect on the
// next gate check because the cached copy is dropped.
func (h *OrganizationHandler) Update(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ctx := c.UserContext()

	org, err := h.store.GetOrganization(ctx, principal.OrganizationID)
	if err != nil {
		return mapOrganizationError(principal.OrganizationID, err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		org.Name = name
	}
	if req.Status != "" {
		status := domain.OrganizationStatus(strings.ToUpper(string(req.Status)))
		if !status.IsValid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": req.Status})
		}
		org.Status = status
	}
	if len(req.Modules) > 0 {
		if org.Modules == nil {
			org.Modules = make(map[string]bool, len(req.Modules))
		}
		for module, enabled := range req.Modules {
			org.Modules[module] = enabled
		}
	}
	if err := h.store.Upsert(ctx, org); err != nil {
		return err
	}
	h.tenants.Invalidate(ctx, org.ID)
	return c.JSON(fiber.Map{"data": org})
}

func mapOrganizationError(id string, err error) error {
	if errors.Is(err, tenant.ErrOrganizationNotFound) {
		return apperrors.NewNotFound("organization", map[string]any{"id": id})
	}
	return err
}
