package domain

import (
	"maps"
	"slices"
	"time"
)

// ServiceRequestPriority enumerates urgency levels.
type ServiceRequestPriority string

const (
	PriorityLow    ServiceRequestPriority = "LOW"
	PriorityMedium ServiceRequestPriority = "MEDIUM"
	PriorityHigh   ServiceRequestPriority = "HIGH"
	PriorityUrgent ServiceRequestPriority = "URGENT"
)

// IsValid reports whether the priority is known.
func (p ServiceRequestPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// CustomerSnapshot is the customer as it looked when the request was logged.
type CustomerSnapshot struct {
	ID      *string `json:"id,omitempty"`
	Name    string  `json:"name"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address string  `json:"address,omitempty"`
}

// DeviceSnapshot describes the equipment under repair.
type DeviceSnapshot struct {
	Type         string `json:"type,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// StateTransition is an immutable history entry.
type StateTransition struct {
	ID         string              `json:"id"`
	FromState  ServiceRequestState `json:"from_state"`
	ToState    ServiceRequestState `json:"to_state"`
	ActorID    string              `json:"actor_id"`
	ActorName  string              `json:"actor_name"`
	ActorRole  ActorRole           `json:"actor_role"`
	Reason     string              `json:"reason,omitempty"`
	Metadata   map[string]any      `json:"metadata,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// ServiceRequest is the aggregate governed by the lifecycle engine.
type ServiceRequest struct {
	ID             string
	TicketNumber   string
	OrganizationID string
	Title          string
	Description    string
	Priority       ServiceRequestPriority
	Customer       CustomerSnapshot
	Device         *DeviceSnapshot

	State         ServiceRequestState
	StateHistory  []StateTransition
	Visits        []Visit
	PartsRequired []PartRequirement
	Approval      ApprovalRequest

	AssignedStaffID   *string
	AssignedStaffName *string
	AssignedAt        *time.Time
	AssignedBy        *string
	AcceptedAt        *time.Time

	DeclineReason *string
	DeclinedAt    *time.Time
	DeclinedBy    *string

	ResolutionNotes *string
	ResolutionCode  *string
	ResolvedAt      *time.Time
	ResolvedBy      *string

	CancellationReason *string
	CancelledAt        *time.Time
	CancelledBy        *string

	CreatedBy string
	IsDeleted bool
	DeletedAt *time.Time
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentVisit returns the most recently scheduled visit, or nil.
func (r *ServiceRequest) CurrentVisit() *Visit {
	if len(r.Visits) == 0 {
		return nil
	}
	return &r.Visits[len(r.Visits)-1]
}

// Visit looks a visit up by id.
func (r *ServiceRequest) Visit(id string) *Visit {
	for i := range r.Visits {
		if r.Visits[i].ID == id {
			return &r.Visits[i]
		}
	}
	return nil
}

// LastTransition returns the newest history entry, or nil for a fresh request.
func (r *ServiceRequest) LastTransition() *StateTransition {
	if len(r.StateHistory) == 0 {
		return nil
	}
	return &r.StateHistory[len(r.StateHistory)-1]
}

// Clone returns a deep copy so callers cannot alias stored state.
func (r *ServiceRequest) Clone() *ServiceRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.Customer.ID = clonePtr(r.Customer.ID)
	if r.Device != nil {
		device := *r.Device
		out.Device = &device
	}
	out.StateHistory = make([]StateTransition, len(r.StateHistory))
	for i, entry := range r.StateHistory {
		entry.Metadata = maps.Clone(entry.Metadata)
		out.StateHistory[i] = entry
	}
	out.Visits = make([]Visit, len(r.Visits))
	for i := range r.Visits {
		out.Visits[i] = r.Visits[i].clone()
	}
	out.PartsRequired = slices.Clone(r.PartsRequired)
	for i := range out.PartsRequired {
		out.PartsRequired[i].PartNumber = clonePtr(out.PartsRequired[i].PartNumber)
		out.PartsRequired[i].ReceivedAt = clonePtr(out.PartsRequired[i].ReceivedAt)
	}
	out.Approval = r.Approval.clone()

	out.AssignedStaffID = clonePtr(r.AssignedStaffID)
	out.AssignedStaffName = clonePtr(r.AssignedStaffName)
	out.AssignedAt = clonePtr(r.AssignedAt)
	out.AssignedBy = clonePtr(r.AssignedBy)
	out.AcceptedAt = clonePtr(r.AcceptedAt)
	out.DeclineReason = clonePtr(r.DeclineReason)
	out.DeclinedAt = clonePtr(r.DeclinedAt)
	out.DeclinedBy = clonePtr(r.DeclinedBy)
	out.ResolutionNotes = clonePtr(r.ResolutionNotes)
	out.ResolutionCode = clonePtr(r.ResolutionCode)
	out.ResolvedAt = clonePtr(r.ResolvedAt)
	out.ResolvedBy = clonePtr(r.ResolvedBy)
	out.CancellationReason = clonePtr(r.CancellationReason)
	out.CancelledAt = clonePtr(r.CancelledAt)
	out.CancelledBy = clonePtr(r.CancelledBy)
	out.DeletedAt = clonePtr(r.DeletedAt)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
