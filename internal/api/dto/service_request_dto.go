package dto

import (
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// CreateServiceRequestRequest payload.
type CreateServiceRequestRequest struct {
	Title       string                        `json:"title"`
	Description string                        `json:"description"`
	Priority    domain.ServiceRequestPriority `json:"priority"`
	Customer    domain.CustomerSnapshot       `json:"customer"`
	Device      *domain.DeviceSnapshot        `json:"device"`
}

// TransitionRequest is the generic lifecycle payload.
type TransitionRequest struct {
	TargetState domain.ServiceRequestState `json:"target_state"`
	Reason      string                     `json:"reason"`
	Metadata    map[string]any             `json:"metadata"`
	Data        *TransitionDataPayload     `json:"data"`
}

// TransitionDataPayload mirrors the field paths reported by DATA_REQUIRED
// errors. Omitted keys are absent; zero values are present.
type TransitionDataPayload struct {
	AssignedStaffID    *string        `json:"assigned_staff_id"`
	AssignedStaffName  *string        `json:"assigned_staff_name"`
	DeclineReason      *string        `json:"decline_reason"`
	Visit              *VisitPayload  `json:"visit"`
	PartsRequired      []PartPayload  `json:"parts_required"`
	Approval           *ApprovalInput `json:"approval"`
	ResolutionNotes    *string        `json:"resolution_notes"`
	ResolutionCode     *string        `json:"resolution_code"`
	CancellationReason *string        `json:"cancellation_reason"`
}

// VisitPayload books or reports on a visit.
type VisitPayload struct {
	TechnicianID   *string    `json:"technician_id"`
	TechnicianName *string    `json:"technician_name"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
	Diagnosis      *string    `json:"diagnosis"`
	WorkPerformed  *string    `json:"work_performed"`
	Notes          *string    `json:"notes"`
}

// PartPayload requests one part.
type PartPayload struct {
	Name       string  `json:"name"`
	PartNumber *string `json:"part_number"`
	Quantity   int     `json:"quantity"`
}

// ApprovalInput carries a quote or the customer's answer to it.
type ApprovalInput struct {
	Amount      *float64 `json:"amount"`
	Currency    string   `json:"currency"`
	Description *string  `json:"description"`
	Approved    *bool    `json:"approved"`
	Notes       *string  `json:"notes"`
}

// ApprovalResponseRequest is the customer's answer.
type ApprovalResponseRequest struct {
	Approved *bool   `json:"approved"`
	Notes    *string `json:"notes"`
}

// UpdateVisitRequest edits the descriptive fields of a visit.
type UpdateVisitRequest struct {
	Diagnosis     *string `json:"diagnosis"`
	WorkPerformed *string `json:"work_performed"`
	Notes         *string `json:"notes"`
}

// ToDomain converts the payload; nil stays nil.
func (p *TransitionDataPayload) ToDomain() *domain.TransitionData {
	if p == nil {
		return nil
	}
	data := &domain.TransitionData{}
	if p.AssignedStaffID != nil || p.AssignedStaffName != nil {
		data.Assignment = &domain.AssignmentData{StaffID: p.AssignedStaffID, StaffName: p.AssignedStaffName}
	}
	if p.DeclineReason != nil {
		data.Decline = &domain.DeclineData{Reason: p.DeclineReason}
	}
	if v := p.Visit; v != nil {
		if v.TechnicianID != nil || v.TechnicianName != nil || v.ScheduledStart != nil || v.ScheduledEnd != nil {
			data.Visit = &domain.VisitData{
				TechnicianID:   v.TechnicianID,
				TechnicianName: v.TechnicianName,
				ScheduledStart: v.ScheduledStart,
				ScheduledEnd:   v.ScheduledEnd,
			}
		}
		if v.Diagnosis != nil || v.WorkPerformed != nil || v.Notes != nil {
			data.VisitReport = &domain.VisitReportData{Diagnosis: v.Diagnosis, WorkPerformed: v.WorkPerformed, Notes: v.Notes}
		}
	}
	for _, part := range p.PartsRequired {
		data.Parts = append(data.Parts, domain.PartInput{Name: part.Name, PartNumber: part.PartNumber, Quantity: part.Quantity})
	}
	if a := p.Approval; a != nil {
		if a.Amount != nil || a.Description != nil || a.Currency != "" {
			data.Approval = &domain.ApprovalData{Amount: a.Amount, Currency: a.Currency, Description: a.Description}
		}
		if a.Approved != nil {
			data.ApprovalResponse = &domain.ApprovalResponseData{Approved: *a.Approved, Notes: a.Notes}
		}
	}
	if p.ResolutionNotes != nil || p.ResolutionCode != nil {
		data.Resolution = &domain.ResolutionData{Notes: p.ResolutionNotes, Code: p.ResolutionCode}
	}
	if p.CancellationReason != nil {
		data.Cancellation = &domain.CancellationData{Reason: p.CancellationReason}
	}
	return data
}

// ServiceRequestResponse is the full record.
type ServiceRequestResponse struct {
	ID                 string                        `json:"id"`
	TicketNumber       string                        `json:"ticket_number"`
	OrganizationID     string                        `json:"organization_id"`
	Title              string                        `json:"title"`
	Description        string                        `json:"description"`
	Priority           domain.ServiceRequestPriority `json:"priority"`
	Customer           domain.CustomerSnapshot       `json:"customer"`
	Device             *domain.DeviceSnapshot        `json:"device,omitempty"`
	State              domain.ServiceRequestState    `json:"state"`
	StateHistory       []domain.StateTransition      `json:"state_history"`
	Visits             []domain.Visit                `json:"visits"`
	PartsRequired      []domain.PartRequirement      `json:"parts_required"`
	Approval           domain.ApprovalRequest        `json:"approval"`
	AssignedStaffID    *string                       `json:"assigned_staff_id"`
	AssignedStaffName  *string                       `json:"assigned_staff_name"`
	AssignedAt         *time.Time                    `json:"assigned_at"`
	AcceptedAt         *time.Time                    `json:"accepted_at"`
	DeclineReason      *string                       `json:"decline_reason"`
	ResolutionNotes    *string                       `json:"resolution_notes"`
	ResolutionCode     *string                       `json:"resolution_code"`
	ResolvedAt         *time.Time                    `json:"resolved_at"`
	CancellationReason *string                       `json:"cancellation_reason"`
	CancelledAt        *time.Time                    `json:"cancelled_at"`
	CreatedBy          string                        `json:"created_by"`
	Version            int64                         `json:"version"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// ServiceRequestSummary is the list view.
type ServiceRequestSummary struct {
	ID                string                        `json:"id"`
	TicketNumber      string                        `json:"ticket_number"`
	Title             string                        `json:"title"`
	Priority          domain.ServiceRequestPriority `json:"priority"`
	State             domain.ServiceRequestState    `json:"state"`
	CustomerName      string                        `json:"customer_name"`
	AssignedStaffID   *string                       `json:"assigned_staff_id"`
	AssignedStaffName *string                       `json:"assigned_staff_name"`
	UpdatedAt         time.Time                     `json:"updated_at"`
}

// NewServiceRequestResponse maps a record.
func NewServiceRequestResponse(r *domain.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:                 r.ID,
		TicketNumber:       r.TicketNumber,
		OrganizationID:     r.OrganizationID,
		Title:              r.Title,
		Description:        r.Description,
		Priority:           r.Priority,
		Customer:           r.Customer,
		Device:             r.Device,
		State:              r.State,
		StateHistory:       nonNil(r.StateHistory),
		Visits:             nonNil(r.Visits),
		PartsRequired:      nonNil(r.PartsRequired),
		Approval:           r.Approval,
		AssignedStaffID:    r.AssignedStaffID,
		AssignedStaffName:  r.AssignedStaffName,
		AssignedAt:         r.AssignedAt,
		AcceptedAt:         r.AcceptedAt,
		DeclineReason:      r.DeclineReason,
		ResolutionNotes:    r.ResolutionNotes,
		ResolutionCode:     r.ResolutionCode,
		ResolvedAt:         r.ResolvedAt,
		CancellationReason: r.CancellationReason,
		CancelledAt:        r.CancelledAt,
		CreatedBy:          r.CreatedBy,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// NewServiceRequestSummary maps a record to its list view.
func NewServiceRequestSummary(r *domain.ServiceRequest) ServiceRequestSummary {
	return ServiceRequestSummary{
		ID:                r.ID,
		TicketNumber:      r.TicketNumber,
		Title:             r.Title,
		Priority:          r.Priority,
		State:             r.State,
		CustomerName:      r.Customer.Name,
		AssignedStaffID:   r.AssignedStaffID,
		AssignedStaffName: r.AssignedStaffName,
		UpdatedAt:         r.UpdatedAt,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
