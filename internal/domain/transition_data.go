package domain

import "time"

// TransitionData is the typed payload accompanying a transition. A nil field
// means "not supplied"; any supplied value, including "" and 0, counts as present.
type TransitionData struct {
	Assignment       *AssignmentData
	Decline          *DeclineData
	Visit            *VisitData
	VisitReport      *VisitReportData
	Parts            []PartInput
	Approval         *ApprovalData
	ApprovalResponse *ApprovalResponseData
	Resolution       *ResolutionData
	Cancellation     *CancellationData
}

// AssignmentData names the engineer taking the job.
type AssignmentData struct {
	StaffID   *string
	StaffName *string
}

// DeclineData explains why an engineer turned the job down.
type DeclineData struct {
	Reason *string
}

// VisitData books a visit.
type VisitData struct {
	TechnicianID   *string
	TechnicianName *string
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// VisitReportData is written when a visit finishes.
type VisitReportData struct {
	Diagnosis     *string
	WorkPerformed *string
	Notes         *string
}

// PartInput describes a part to request.
type PartInput struct {
	Name       string
	PartNumber *string
	Quantity   int
}

// ApprovalData is the quote sent to the customer.
type ApprovalData struct {
	Amount      *float64
	Currency    string
	Description *string
}

// ApprovalResponseData is the customer's decision on a quote.
type ApprovalResponseData struct {
	Approved bool
	Notes    *string
}

// ResolutionData closes out the work.
type ResolutionData struct {
	Notes *string
	Code  *string
}

// CancellationData explains a cancellation.
type CancellationData struct {
	Reason *string
}
