package service

import (
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// computePatch derives the field updates for entering req.Target. The store
// applies the patch inside its write.
func computePatch(req TransitionRequest, now time.Time, newID func() string) domain.Patch {
	data := req.Data
	if data == nil {
		data = &domain.TransitionData{}
	}
	by := req.Actor.ID
	patch := domain.Patch{State: req.Target, UpdatedAt: now}

	switch req.Target {
	case domain.StateCreated:
	case domain.StateAssigned:
		change := &domain.AssignmentChange{By: by, At: now}
		if data.Assignment != nil {
			change.StaffID = data.Assignment.StaffID
			change.StaffName = data.Assignment.StaffName
		}
		patch.Assign = change
	case domain.StateAccepted:
		patch.AcceptedAt = &now
	case domain.StateDeclined:
		patch.Decline = &domain.DeclineChange{Reason: *data.Decline.Reason, By: by, At: now}
	case domain.StateVisitScheduled:
		visit := data.Visit
		patch.ScheduleVisit = &domain.VisitBooking{
			VisitID:        newID(),
			TechnicianID:   visit.TechnicianID,
			TechnicianName: visit.TechnicianName,
			ScheduledStart: *visit.ScheduledStart,
			ScheduledEnd:   visit.ScheduledEnd,
			At:             now,
		}
	case domain.StateVisitInProgress:
		patch.StartVisitAt = &now
	case domain.StateVisitCompleted:
		completion := &domain.VisitCompletion{At: now}
		if report := data.VisitReport; report != nil {
			completion.Report = domain.VisitDetails{
				Diagnosis:     report.Diagnosis,
				WorkPerformed: report.WorkPerformed,
				Notes:         report.Notes,
			}
		}
		patch.CompleteVisit = completion
	case domain.StateAwaitingParts:
		for _, input := range data.Parts {
			quantity := input.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			patch.AddParts = append(patch.AddParts, domain.PartRequirement{
				ID:          newID(),
				Name:        input.Name,
				PartNumber:  input.PartNumber,
				Quantity:    quantity,
				Status:      domain.PartStatusPending,
				RequestedAt: now,
			})
		}
	case domain.StatePartsReceived:
		patch.PartsReceivedAt = &now
	case domain.StateAwaitingApproval:
		change := &domain.ApprovalChange{By: by, At: now}
		if quote := data.Approval; quote != nil {
			change.Quote = domain.ApprovalQuote{Amount: quote.Amount, Currency: quote.Currency, Description: quote.Description}
		}
		patch.RequestApproval = change
	case domain.StateApproved:
		decision := &domain.ApprovalDecision{Approved: true, By: by, At: now}
		if resp := data.ApprovalResponse; resp != nil {
			decision.Approved = resp.Approved
			decision.Notes = resp.Notes
		}
		patch.RespondApproval = decision
	case domain.StateResolved:
		change := &domain.ResolutionChange{By: by, At: now}
		if data.Resolution != nil {
			change.Notes = data.Resolution.Notes
			change.Code = data.Resolution.Code
		}
		patch.Resolve = change
	case domain.StateCancelled:
		change := &domain.CancellationChange{By: by, At: now}
		if data.Cancellation != nil {
			change.Reason = data.Cancellation.Reason
		}
		patch.Cancel = change
		// a rejected quote closes the request; with no pending quote the
		// approval refuses the answer and nothing is written
		if resp := data.ApprovalResponse; resp != nil {
			patch.RespondApproval = &domain.ApprovalDecision{Approved: resp.Approved, Notes: resp.Notes, By: by, At: now}
		}
	}
	return patch
}
