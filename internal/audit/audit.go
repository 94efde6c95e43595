package audit

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

const (
	ResourceServiceRequest = "service_request"
	ActionStateTransition  = "state_transition"
)

var (
	// ErrSinkClosed is returned when recording after Close.
	ErrSinkClosed = errors.New("audit sink closed")
	// ErrBufferFull is returned when the queue is full and the direct write fallback also failed.
	ErrBufferFull = errors.New("audit buffer full")
)

// Event is one append-only audit record.
type Event struct {
	ID             string                     `json:"id"`
	OrganizationID string                     `json:"organization_id"`
	ResourceType   string                     `json:"resource_type"`
	ResourceID     string                     `json:"resource_id"`
	Action         string                     `json:"action"`
	ActorID        string                     `json:"actor_id"`
	ActorRole      domain.ActorRole           `json:"actor_role"`
	FromState      domain.ServiceRequestState `json:"from_state,omitempty"`
	ToState        domain.ServiceRequestState `json:"to_state,omitempty"`
	Reason         string                     `json:"reason,omitempty"`
	Metadata       map[string]any             `json:"metadata,omitempty"`
	OccurredAt     time.Time                  `json:"occurred_at"`
}

// TransitionEvent builds the audit record for a lifecycle change.
func TransitionEvent(request *domain.ServiceRequest, entry domain.StateTransition) Event {
	return Event{
		ID:             entry.ID,
		OrganizationID: request.OrganizationID,
		ResourceType:   ResourceServiceRequest,
		ResourceID:     request.ID,
		Action:         ActionStateTransition,
		ActorID:        entry.ActorID,
		ActorRole:      entry.ActorRole,
		FromState:      entry.FromState,
		ToState:        entry.ToState,
		Reason:         entry.Reason,
		Metadata:       entry.Metadata,
		OccurredAt:     entry.OccurredAt,
	}
}

// Sink accepts audit events. Callers treat failures as non-fatal.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// BatchWriter stores a batch of events atomically.
type BatchWriter interface {
	StoreBatch(ctx context.Context, events []Event) error
}
