package domain

import "time"

// ServiceRequestsModule is the feature flag key gating the lifecycle engine.
const ServiceRequestsModule = "service_requests"

// OrganizationStatus represents the subscription state of a tenant.
type OrganizationStatus string

const (
	OrganizationStatusTrial     OrganizationStatus = "TRIAL"
	OrganizationStatusActive    OrganizationStatus = "ACTIVE"
	OrganizationStatusPastDue   OrganizationStatus = "PAST_DUE"
	OrganizationStatusSuspended OrganizationStatus = "SUSPENDED"
	OrganizationStatusCancelled OrganizationStatus = "CANCELLED"
)

// IsValid reports whether the status is known.
func (s OrganizationStatus) IsValid() bool {
	switch s {
	case OrganizationStatusTrial, OrganizationStatusActive, OrganizationStatusPastDue,
		OrganizationStatusSuspended, OrganizationStatusCancelled:
		return true
	default:
		return false
	}
}

// Organization is the tenant boundary.
type Organization struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Status    OrganizationStatus `json:"status"`
	Modules   map[string]bool    `json:"modules,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ModuleEnabled reports the module flag. Modules without an explicit flag are
// enabled while the rollout is in progress.
func (o *Organization) ModuleEnabled(module string) bool {
	enabled, ok := o.Modules[module]
	if !ok {
		return true
	}
	return enabled
}
