package domain

import (
	"fmt"
	"slices"
)

// ServiceRequestState enumerates lifecycle states for service requests.
type ServiceRequestState string

const (
	StateCreated          ServiceRequestState = "CREATED"
	StateAssigned         ServiceRequestState = "ASSIGNED"
	StateAccepted         ServiceRequestState = "ACCEPTED"
	StateDeclined         ServiceRequestState = "DECLINED"
	StateVisitScheduled   ServiceRequestState = "VISIT_SCHEDULED"
	StateVisitInProgress  ServiceRequestState = "VISIT_IN_PROGRESS"
	StateVisitCompleted   ServiceRequestState = "VISIT_COMPLETED"
	StateAwaitingParts    ServiceRequestState = "AWAITING_PARTS"
	StatePartsReceived    ServiceRequestState = "PARTS_RECEIVED"
	StateAwaitingApproval ServiceRequestState = "AWAITING_APPROVAL"
	StateApproved         ServiceRequestState = "APPROVED"
	StateResolved         ServiceRequestState = "RESOLVED"
	StateCancelled        ServiceRequestState = "CANCELLED"
)

var allStates = [...]ServiceRequestState{
	StateCreated,
	StateAssigned,
	StateAccepted,
	StateDeclined,
	StateVisitScheduled,
	StateVisitInProgress,
	StateVisitCompleted,
	StateAwaitingParts,
	StatePartsReceived,
	StateAwaitingApproval,
	StateApproved,
	StateResolved,
	StateCancelled,
}

// transitions lists the directly reachable neighbours of every state.
// Loaded once and never mutated; accessors hand out copies.
var transitions = map[ServiceRequestState][]ServiceRequestState{
	StateCreated:          {StateAssigned, StateCancelled},
	StateAssigned:         {StateAccepted, StateDeclined, StateCancelled},
	StateDeclined:         {StateAssigned, StateCancelled},
	StateAccepted:         {StateVisitScheduled, StateCancelled},
	StateVisitScheduled:   {StateVisitInProgress, StateCancelled},
	StateVisitInProgress:  {StateVisitCompleted},
	StateVisitCompleted:   {StateVisitScheduled, StateAwaitingParts, StateAwaitingApproval, StateResolved, StateCancelled},
	StateAwaitingParts:    {StatePartsReceived, StateCancelled},
	StatePartsReceived:    {StateVisitScheduled, StateCancelled},
	StateAwaitingApproval: {StateApproved, StateCancelled},
	StateApproved:         {StateVisitScheduled, StateAwaitingParts, StateResolved, StateCancelled},
	StateResolved:         {},
	StateCancelled:        {},
}

// StateDescriptor carries display metadata for a state.
type StateDescriptor struct {
	State        ServiceRequestState `json:"state"`
	Label        string              `json:"label"`
	Description  string              `json:"description"`
	Terminal     bool                `json:"terminal"`
	RequiredData []string            `json:"required_data,omitempty"`
}

// AllStates returns every catalog state in lifecycle order.
func AllStates() []ServiceRequestState {
	return slices.Clone(allStates[:])
}

// IsValid reports whether s is a member of the catalog.
func (s ServiceRequestState) IsValid() bool {
	return slices.Contains(allStates[:], s)
}

// IsTerminal reports whether s has no outgoing transitions.
func (s ServiceRequestState) IsTerminal() bool {
	switch s {
	case StateResolved, StateCancelled:
		return true
	default:
		return false
	}
}

// ValidTransitions returns the states directly reachable from s.
func ValidTransitions(s ServiceRequestState) []ServiceRequestState {
	return slices.Clone(transitions[s])
}

// CanTransition reports whether the catalog allows moving from one state to another.
// Both states must be catalog members.
func CanTransition(from, to ServiceRequestState) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	return slices.Contains(transitions[from], to)
}

// StateMetadata describes a state for display. The boolean is false for states
// outside the catalog.
func StateMetadata(s ServiceRequestState) (StateDescriptor, bool) {
	if !s.IsValid() {
		return StateDescriptor{}, false
	}
	label, description := describe(s)
	return StateDescriptor{
		State:        s,
		Label:        label,
		Description:  description,
		Terminal:     s.IsTerminal(),
		RequiredData: RequiredData(s),
	}, true
}

func describe(s ServiceRequestState) (string, string) {
	switch s {
	case StateCreated:
		return "Created", "Request logged and waiting for assignment"
	case StateAssigned:
		return "Assigned", "An engineer has been assigned"
	case StateAccepted:
		return "Accepted", "The assigned engineer accepted the job"
	case StateDeclined:
		return "Declined", "The assigned engineer declined; needs reassignment"
	case StateVisitScheduled:
		return "Visit scheduled", "An on-site visit is booked"
	case StateVisitInProgress:
		return "Visit in progress", "The engineer is on site"
	case StateVisitCompleted:
		return "Visit completed", "The visit finished and a diagnosis is recorded"
	case StateAwaitingParts:
		return "Awaiting parts", "Work is blocked on parts"
	case StatePartsReceived:
		return "Parts received", "All requested parts arrived"
	case StateAwaitingApproval:
		return "Awaiting approval", "A quote is waiting for customer approval"
	case StateApproved:
		return "Approved", "The customer approved the quote"
	case StateResolved:
		return "Resolved", "Work is complete"
	case StateCancelled:
		return "Cancelled", "The request was cancelled"
	default:
		panic(fmt.Sprintf("domain: no metadata for state %q", s))
	}
}
