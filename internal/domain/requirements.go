package domain

import "fmt"

// Field paths reported when required data is missing.
const (
	FieldAssignedStaffID     = "assigned_staff_id"
	FieldDeclineReason       = "decline_reason"
	FieldVisitTechnicianID   = "visit.technician_id"
	FieldVisitScheduledStart = "visit.scheduled_start"
	FieldVisitDiagnosis      = "visit.diagnosis"
	FieldPartsRequired       = "parts_required"
	FieldApprovalAmount      = "approval.amount"
	FieldApprovalDescription = "approval.description"
	FieldResolutionNotes     = "resolution_notes"
	FieldCancellationReason  = "cancellation_reason"
)

// fieldRequirement is satisfied when either the payload or the stored record
// carries the field.
type fieldRequirement struct {
	path      string
	inPayload func(d *TransitionData) bool
	onRecord  func(r *ServiceRequest) bool
}

var (
	assignedStaffID = fieldRequirement{
		path:      FieldAssignedStaffID,
		inPayload: func(d *TransitionData) bool { return d.Assignment != nil && d.Assignment.StaffID != nil },
		onRecord:  func(r *ServiceRequest) bool { return r.AssignedStaffID != nil },
	}
	declineReason = fieldRequirement{
		path:      FieldDeclineReason,
		inPayload: func(d *TransitionData) bool { return d.Decline != nil && d.Decline.Reason != nil },
		onRecord:  func(r *ServiceRequest) bool { return false },
	}
	// the assignee doubles as the default technician
	visitTechnicianID = fieldRequirement{
		path:      FieldVisitTechnicianID,
		inPayload: func(d *TransitionData) bool { return d.Visit != nil && d.Visit.TechnicianID != nil },
		onRecord:  func(r *ServiceRequest) bool { return r.AssignedStaffID != nil },
	}
	visitScheduledStart = fieldRequirement{
		path:      FieldVisitScheduledStart,
		inPayload: func(d *TransitionData) bool { return d.Visit != nil && d.Visit.ScheduledStart != nil },
		onRecord:  func(r *ServiceRequest) bool { return false },
	}
	visitDiagnosis = fieldRequirement{
		path:      FieldVisitDiagnosis,
		inPayload: func(d *TransitionData) bool { return d.VisitReport != nil && d.VisitReport.Diagnosis != nil },
		onRecord: func(r *ServiceRequest) bool {
			visit := r.CurrentVisit()
			return visit != nil && visit.Diagnosis != nil
		},
	}
	partsRequired = fieldRequirement{
		path:      FieldPartsRequired,
		inPayload: func(d *TransitionData) bool { return len(d.Parts) > 0 },
		onRecord: func(r *ServiceRequest) bool {
			for _, part := range r.PartsRequired {
				if part.Outstanding() {
					return true
				}
			}
			return false
		},
	}
	approvalAmount = fieldRequirement{
		path:      FieldApprovalAmount,
		inPayload: func(d *TransitionData) bool { return d.Approval != nil && d.Approval.Amount != nil },
		onRecord:  func(r *ServiceRequest) bool { return r.Approval.Amount != nil },
	}
	approvalDescription = fieldRequirement{
		path:      FieldApprovalDescription,
		inPayload: func(d *TransitionData) bool { return d.Approval != nil && d.Approval.Description != nil },
		onRecord:  func(r *ServiceRequest) bool { return r.Approval.Description != nil },
	}
	resolutionNotes = fieldRequirement{
		path:      FieldResolutionNotes,
		inPayload: func(d *TransitionData) bool { return d.Resolution != nil && d.Resolution.Notes != nil },
		onRecord:  func(r *ServiceRequest) bool { return r.ResolutionNotes != nil },
	}
	cancellationReason = fieldRequirement{
		path:      FieldCancellationReason,
		inPayload: func(d *TransitionData) bool { return d.Cancellation != nil && d.Cancellation.Reason != nil },
		onRecord:  func(r *ServiceRequest) bool { return r.CancellationReason != nil },
	}
)

func requirementsFor(s ServiceRequestState) []fieldRequirement {
	switch s {
	case StateCreated, StateAccepted, StateVisitInProgress, StatePartsReceived:
		return nil
	case StateAssigned:
		return []fieldRequirement{assignedStaffID}
	case StateDeclined:
		return []fieldRequirement{declineReason}
	case StateVisitScheduled:
		return []fieldRequirement{visitTechnicianID, visitScheduledStart}
	case StateVisitCompleted:
		return []fieldRequirement{visitDiagnosis}
	case StateAwaitingParts:
		return []fieldRequirement{partsRequired}
	case StateAwaitingApproval:
		return []fieldRequirement{approvalAmount, approvalDescription}
	case StateApproved:
		return []fieldRequirement{approvalAmount}
	case StateResolved:
		return []fieldRequirement{resolutionNotes}
	case StateCancelled:
		return []fieldRequirement{cancellationReason}
	default:
		panic(fmt.Sprintf("domain: no requirements for state %q", s))
	}
}

// RequiredData lists the field paths that must be present before entering s.
func RequiredData(s ServiceRequestState) []string {
	if !s.IsValid() {
		return nil
	}
	reqs := requirementsFor(s)
	if len(reqs) == 0 {
		return nil
	}
	paths := make([]string, 0, len(reqs))
	for _, req := range reqs {
		paths = append(paths, req.path)
	}
	return paths
}

// MissingData returns the required paths for target found neither in data nor on record.
func MissingData(target ServiceRequestState, data *TransitionData, record *ServiceRequest) []string {
	if !target.IsValid() {
		return nil
	}
	if data == nil {
		data = &TransitionData{}
	}
	var missing []string
	for _, req := range requirementsFor(target) {
		if req.inPayload(data) {
			continue
		}
		if record != nil && req.onRecord(record) {
			continue
		}
		missing = append(missing, req.path)
	}
	return missing
}
