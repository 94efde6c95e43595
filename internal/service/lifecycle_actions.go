package service

import (
	"context"

	"github.com/spec-kit/service-desk/internal/domain"
)

// RequestRef addresses one service request inside an organization.
type RequestRef struct {
	OrganizationID string
	RequestID      string
}

const approvalRejectedReason = "customer rejected the quote"

func (s *LifecycleService) move(ctx context.Context, ref RequestRef, actor domain.Actor, target domain.ServiceRequestState, reason string, data *domain.TransitionData) (*domain.ServiceRequest, error) {
	return s.Transition(ctx, TransitionRequest{
		OrganizationID: ref.OrganizationID,
		RequestID:      ref.RequestID,
		Target:         target,
		Actor:          actor,
		Reason:         reason,
		Data:           data,
	})
}

// Assign hands the request to an engineer.
func (s *LifecycleService) Assign(ctx context.Context, ref RequestRef, actor domain.Actor, staffID string, staffName *string) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateAssigned, "", &domain.TransitionData{
		Assignment: &domain.AssignmentData{StaffID: &staffID, StaffName: staffName},
	})
}

// Accept records that the assigned engineer took the job.
func (s *LifecycleService) Accept(ctx context.Context, ref RequestRef, actor domain.Actor) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateAccepted, "", nil)
}

// Decline records that the assigned engineer turned the job down.
func (s *LifecycleService) Decline(ctx context.Context, ref RequestRef, actor domain.Actor, reason string) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateDeclined, reason, &domain.TransitionData{
		Decline: &domain.DeclineData{Reason: &reason},
	})
}

// ScheduleVisit books the next on-site visit.
func (s *LifecycleService) ScheduleVisit(ctx context.Context, ref RequestRef, actor domain.Actor, visit domain.VisitData) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateVisitScheduled, "", &domain.TransitionData{Visit: &visit})
}

// StartVisit starts the timer on the current visit.
func (s *LifecycleService) StartVisit(ctx context.Context, ref RequestRef, actor domain.Actor) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateVisitInProgress, "", nil)
}

// CompleteVisit stops the timer on the current visit and stores its report.
func (s *LifecycleService) CompleteVisit(ctx context.Context, ref RequestRef, actor domain.Actor, report domain.VisitReportData) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateVisitCompleted, "", &domain.TransitionData{VisitReport: &report})
}

// RequestParts puts the job on hold until parts arrive.
func (s *LifecycleService) RequestParts(ctx context.Context, ref RequestRef, actor domain.Actor, parts []domain.PartInput) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateAwaitingParts, "", &domain.TransitionData{Parts: parts})
}

// ReceiveParts marks every outstanding part as received.
func (s *LifecycleService) ReceiveParts(ctx context.Context, ref RequestRef, actor domain.Actor) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StatePartsReceived, "", nil)
}

// RequestApproval sends a quote to the customer.
func (s *LifecycleService) RequestApproval(ctx context.Context, ref RequestRef, actor domain.Actor, quote domain.ApprovalData) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateAwaitingApproval, "", &domain.TransitionData{Approval: &quote})
}

// RespondToApproval records the customer's answer. An approval moves the
// request to APPROVED; a rejection cancels it.
func (s *LifecycleService) RespondToApproval(ctx context.Context, ref RequestRef, actor domain.Actor, approved bool, notes *string) (*domain.ServiceRequest, error) {
	response := &domain.ApprovalResponseData{Approved: approved, Notes: notes}
	if approved {
		return s.move(ctx, ref, actor, domain.StateApproved, "", &domain.TransitionData{ApprovalResponse: response})
	}
	reason := approvalRejectedReason
	if notes != nil && *notes != "" {
		reason = *notes
	}
	return s.move(ctx, ref, actor, domain.StateCancelled, reason, &domain.TransitionData{
		ApprovalResponse: response,
		Cancellation:     &domain.CancellationData{Reason: &reason},
	})
}

// Resolve closes the request as done.
func (s *LifecycleService) Resolve(ctx context.Context, ref RequestRef, actor domain.Actor, notes string, code *string) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateResolved, "", &domain.TransitionData{
		Resolution: &domain.ResolutionData{Notes: &notes, Code: code},
	})
}

// Cancel closes the request without resolving it.
func (s *LifecycleService) Cancel(ctx context.Context, ref RequestRef, actor domain.Actor, reason string) (*domain.ServiceRequest, error) {
	return s.move(ctx, ref, actor, domain.StateCancelled, reason, &domain.TransitionData{
		Cancellation: &domain.CancellationData{Reason: &reason},
	})
}
