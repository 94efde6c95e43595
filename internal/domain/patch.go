package domain

import (
	"errors"
	"time"
)

// ErrMissingTechnician is returned when a visit is booked with no technician and no assignee to fall back on.
var ErrMissingTechnician = errors.New("visit has no technician")

// Patch is the set of field updates a single transition makes. It is computed
// without touching the record and applied by the store inside its write.
type Patch struct {
	State     ServiceRequestState
	UpdatedAt time.Time

	Assign          *AssignmentChange
	AcceptedAt      *time.Time
	Decline         *DeclineChange
	ScheduleVisit   *VisitBooking
	StartVisitAt    *time.Time
	CompleteVisit   *VisitCompletion
	AddParts        []PartRequirement
	PartsReceivedAt *time.Time
	RequestApproval *ApprovalChange
	RespondApproval *ApprovalDecision
	Resolve         *ResolutionChange
	Cancel          *CancellationChange
}

// AssignmentChange sets the assignee. A nil StaffID keeps the current one.
type AssignmentChange struct {
	StaffID   *string
	StaffName *string
	By        string
	At        time.Time
}

// DeclineChange records a decline and releases the assignee.
type DeclineChange struct {
	Reason string
	By     string
	At     time.Time
}

// VisitBooking appends a scheduled visit.
type VisitBooking struct {
	VisitID        string
	TechnicianID   *string
	TechnicianName *string
	ScheduledStart time.Time
	ScheduledEnd   *time.Time
	At             time.Time
}

// VisitCompletion stops the current visit and stores its report.
type VisitCompletion struct {
	At     time.Time
	Report VisitDetails
}

// ApprovalChange opens or revises the approval quote.
type ApprovalChange struct {
	Quote ApprovalQuote
	By    string
	At    time.Time
}

// ApprovalDecision records the customer's answer.
type ApprovalDecision struct {
	Approved bool
	Notes    *string
	By       string
	At       time.Time
}

// ResolutionChange stamps the resolution fields. A nil Notes keeps stored notes.
type ResolutionChange struct {
	Notes *string
	Code  *string
	By    string
	At    time.Time
}

// CancellationChange stamps the cancellation fields and closes open visits.
// A nil Reason keeps the stored reason.
type CancellationChange struct {
	Reason *string
	By     string
	At     time.Time
}

// Apply mutates r in place: effects first, then state, history and version.
// On error r may be partially modified, so callers apply to a clone.
func (p Patch) Apply(r *ServiceRequest, entry StateTransition) error {
	if p.Assign != nil {
		applyAssignment(r, p.Assign)
	}
	if p.AcceptedAt != nil {
		r.AcceptedAt = clonePtr(p.AcceptedAt)
	}
	if p.Decline != nil {
		r.DeclineReason = Ptr(p.Decline.Reason)
		r.DeclinedAt = Ptr(p.Decline.At)
		r.DeclinedBy = Ptr(p.Decline.By)
		r.AssignedStaffID = nil
		r.AssignedStaffName = nil
		r.AssignedAt = nil
		r.AssignedBy = nil
	}
	if p.ScheduleVisit != nil {
		if err := applyVisitBooking(r, p.ScheduleVisit); err != nil {
			return err
		}
	}
	if p.StartVisitAt != nil {
		visit := r.CurrentVisit()
		if visit == nil {
			return ErrVisitNotFound
		}
		if err := visit.Start(*p.StartVisitAt); err != nil {
			return err
		}
	}
	if p.CompleteVisit != nil {
		visit := r.CurrentVisit()
		if visit == nil {
			return ErrVisitNotFound
		}
		if err := visit.Stop(p.CompleteVisit.At); err != nil {
			return err
		}
		if err := visit.ApplyDetails(p.CompleteVisit.Report); err != nil {
			return err
		}
	}
	for _, part := range p.AddParts {
		part.PartNumber = clonePtr(part.PartNumber)
		r.PartsRequired = append(r.PartsRequired, part)
	}
	if p.PartsReceivedAt != nil {
		for i := range r.PartsRequired {
			if r.PartsRequired[i].Outstanding() {
				r.PartsRequired[i].Status = PartStatusReceived
				r.PartsRequired[i].ReceivedAt = clonePtr(p.PartsReceivedAt)
			}
		}
	}
	if p.RequestApproval != nil {
		if err := r.Approval.Request(p.RequestApproval.Quote, p.RequestApproval.By, p.RequestApproval.At); err != nil {
			return err
		}
	}
	if p.RespondApproval != nil {
		d := p.RespondApproval
		if d.Approved != (p.State == StateApproved) {
			return ErrApprovalDecisionMismatch
		}
		if err := r.Approval.Respond(d.Approved, d.By, d.Notes, d.At); err != nil {
			return err
		}
	}
	if p.Resolve != nil {
		if p.Resolve.Notes != nil {
			r.ResolutionNotes = clonePtr(p.Resolve.Notes)
		}
		r.ResolutionCode = clonePtr(p.Resolve.Code)
		r.ResolvedAt = Ptr(p.Resolve.At)
		r.ResolvedBy = Ptr(p.Resolve.By)
	}
	if p.Cancel != nil {
		for i := range r.Visits {
			if r.Visits[i].IsOpen() {
				_ = r.Visits[i].Cancel()
			}
		}
		// a quote left open by the cancellation is closed as rejected
		if r.Approval.Status == ApprovalPending {
			if err := r.Approval.Respond(false, p.Cancel.By, nil, p.Cancel.At); err != nil {
				return err
			}
		}
		if p.Cancel.Reason != nil {
			r.CancellationReason = clonePtr(p.Cancel.Reason)
		}
		r.CancelledAt = Ptr(p.Cancel.At)
		r.CancelledBy = Ptr(p.Cancel.By)
	}

	r.State = p.State
	r.StateHistory = append(r.StateHistory, entry)
	r.Version++
	r.UpdatedAt = p.UpdatedAt
	return nil
}

func applyAssignment(r *ServiceRequest, change *AssignmentChange) {
	if change.StaffID != nil {
		if r.AssignedStaffID == nil || *r.AssignedStaffID != *change.StaffID {
			r.AssignedStaffName = nil
		}
		r.AssignedStaffID = clonePtr(change.StaffID)
	}
	if change.StaffName != nil {
		r.AssignedStaffName = clonePtr(change.StaffName)
	}
	r.AssignedAt = Ptr(change.At)
	r.AssignedBy = Ptr(change.By)
}

func applyVisitBooking(r *ServiceRequest, booking *VisitBooking) error {
	technicianID := booking.TechnicianID
	technicianName := booking.TechnicianName
	if technicianID == nil {
		technicianID = r.AssignedStaffID
		if technicianName == nil {
			technicianName = r.AssignedStaffName
		}
	}
	if technicianID == nil {
		return ErrMissingTechnician
	}
	visit := Visit{
		ID:             booking.VisitID,
		Number:         len(r.Visits) + 1,
		TechnicianID:   *technicianID,
		ScheduledStart: booking.ScheduledStart,
		ScheduledEnd:   clonePtr(booking.ScheduledEnd),
		Status:         VisitStatusScheduled,
		CreatedAt:      booking.At,
	}
	if technicianName != nil {
		visit.TechnicianName = *technicianName
	}
	r.Visits = append(r.Visits, visit)
	return nil
}
