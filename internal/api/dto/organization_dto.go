package dto

import "github.com/spec-kit/service-desk/internal/domain"

// UpdateOrganizationRequest changes the caller's organization.
type UpdateOrganizationRequest struct {
	Name    string                    `json:"name"`
	Status  domain.OrganizationStatus `json:"status"`
	Modules map[string]bool           `json:"modules"`
}
