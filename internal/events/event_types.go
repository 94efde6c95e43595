package events

import (
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventServiceRequestCreated      EventType = "service_request_created"
	EventServiceRequestTransitioned EventType = "service_request_transitioned"
	EventServiceRequestVisitUpdated EventType = "service_request_visit_updated"
	EventServiceRequestDeleted      EventType = "service_request_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Name string           `json:"name,omitempty"`
	Role domain.ActorRole `json:"role"`
}

// ActorFrom converts the acting principal.
func ActorFrom(a domain.Actor) Actor {
	return Actor{ID: a.ID, Name: a.Name, Role: a.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	OrganizationID   string    `json:"organization_id"`
	ServiceRequestID string    `json:"service_request_id"`
	TicketNumber     string    `json:"ticket_number"`
	Actor            Actor     `json:"actor"`
	Timestamp        time.Time `json:"timestamp"`
	Payload          any       `json:"payload,omitempty"`
}

// ServiceRequestCreatedPayload payload.
type ServiceRequestCreatedPayload struct {
	Title    string                        `json:"title"`
	Priority domain.ServiceRequestPriority `json:"priority"`
	Customer string                        `json:"customer"`
}

// ServiceRequestTransitionedPayload payload.
type ServiceRequestTransitionedPayload struct {
	TransitionID    string                     `json:"transition_id"`
	FromState       domain.ServiceRequestState `json:"from_state"`
	ToState         domain.ServiceRequestState `json:"to_state"`
	Reason          string                     `json:"reason,omitempty"`
	AssignedStaffID *string                    `json:"assigned_staff_id,omitempty"`
}

// ServiceRequestVisitUpdatedPayload payload.
type ServiceRequestVisitUpdatedPayload struct {
	VisitID string `json:"visit_id"`
}
