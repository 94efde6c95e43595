package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/tenant"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// checkTenant runs the module gate, then the activity gate. target is the
// attempted state, empty for operations that are not transitions.
func checkTenant(ctx context.Context, gate tenant.Gate, organizationID string, target domain.ServiceRequestState) error {
	enabled, err := gate.IsModuleEnabled(ctx, organizationID, domain.ServiceRequestsModule)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("check module for organization %s: %w", organizationID, err))
	}
	if !enabled {
		return &ValidationError{
			Reason:  ReasonModuleDisabled,
			Message: "service requests module is not enabled for this organization",
			To:      target,
		}
	}

	active, err := gate.IsActive(ctx, organizationID)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("check status of organization %s: %w", organizationID, err))
	}
	if !active {
		return &ValidationError{
			Reason:  ReasonTenantInactive,
			Message: "organization is not active",
			To:      target,
		}
	}
	return nil
}
