package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func newRequest(state domain.ServiceRequestState) *domain.ServiceRequest {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &domain.ServiceRequest{
		ID:             "sr-1",
		TicketNumber:   "A9F2KQ",
		OrganizationID: "org-1",
		Title:          "Boiler leaking",
		Priority:       domain.PriorityHigh,
		State:          state,
		Approval:       domain.NewApprovalRequest(),
		Version:        1,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func entry(from, to domain.ServiceRequestState, at time.Time) domain.StateTransition {
	return domain.StateTransition{ID: "tr", FromState: from, ToState: to, ActorID: "u-1", OccurredAt: at}
}

func TestPatchApplyStampsStateHistoryAndVersion(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateCreated)
	p := domain.Patch{
		State:     domain.StateAssigned,
		UpdatedAt: at,
		Assign:    &domain.AssignmentChange{StaffID: domain.Ptr("eng-1"), StaffName: domain.Ptr("Ada"), By: "disp-1", At: at},
	}

	require.NoError(t, p.Apply(r, entry(domain.StateCreated, domain.StateAssigned, at)))
	assert.Equal(t, domain.StateAssigned, r.State)
	assert.Equal(t, int64(2), r.Version)
	assert.Equal(t, at, r.UpdatedAt)
	require.Len(t, r.StateHistory, 1)
	assert.Equal(t, domain.StateAssigned, r.LastTransition().ToState)
	assert.Equal(t, "eng-1", *r.AssignedStaffID)
	assert.Equal(t, "Ada", *r.AssignedStaffName)
	assert.Equal(t, "disp-1", *r.AssignedBy)
}

func TestPatchDeclineReleasesAssignee(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateAssigned)
	r.AssignedStaffID = domain.Ptr("eng-1")
	r.AssignedStaffName = domain.Ptr("Ada")

	p := domain.Patch{State: domain.StateDeclined, UpdatedAt: at, Decline: &domain.DeclineChange{Reason: "on leave", By: "eng-1", At: at}}
	require.NoError(t, p.Apply(r, entry(domain.StateAssigned, domain.StateDeclined, at)))

	assert.Nil(t, r.AssignedStaffID)
	assert.Nil(t, r.AssignedStaffName)
	assert.Equal(t, "on leave", *r.DeclineReason)
}

func TestPatchVisitRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateAccepted)
	r.AssignedStaffID = domain.Ptr("eng-1")
	r.AssignedStaffName = domain.Ptr("Ada")

	schedule := domain.Patch{State: domain.StateVisitScheduled, UpdatedAt: at, ScheduleVisit: &domain.VisitBooking{VisitID: "v-1", ScheduledStart: at.Add(time.Hour), At: at}}
	require.NoError(t, schedule.Apply(r, entry(domain.StateAccepted, domain.StateVisitScheduled, at)))
	visit := r.CurrentVisit()
	require.NotNil(t, visit)
	assert.Equal(t, 1, visit.Number)
	assert.Equal(t, "eng-1", visit.TechnicianID)
	assert.Equal(t, "Ada", visit.TechnicianName)

	startAt := at.Add(time.Hour)
	start := domain.Patch{State: domain.StateVisitInProgress, UpdatedAt: startAt, StartVisitAt: &startAt}
	require.NoError(t, start.Apply(r, entry(domain.StateVisitScheduled, domain.StateVisitInProgress, startAt)))

	stopAt := startAt.Add(45 * time.Minute)
	complete := domain.Patch{
		State:         domain.StateVisitCompleted,
		UpdatedAt:     stopAt,
		CompleteVisit: &domain.VisitCompletion{At: stopAt, Report: domain.VisitDetails{Diagnosis: domain.Ptr("seal failure")}},
	}
	require.NoError(t, complete.Apply(r, entry(domain.StateVisitInProgress, domain.StateVisitCompleted, stopAt)))

	visit = r.Visit("v-1")
	require.NotNil(t, visit)
	assert.Equal(t, domain.VisitStatusCompleted, visit.Status)
	assert.Equal(t, 45, *visit.DurationMinutes)
	assert.Equal(t, "seal failure", *visit.Diagnosis)
	assert.Equal(t, int64(4), r.Version)
	assert.Len(t, r.StateHistory, 3)
}

func TestPatchScheduleWithoutTechnician(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateAccepted)
	p := domain.Patch{State: domain.StateVisitScheduled, UpdatedAt: at, ScheduleVisit: &domain.VisitBooking{VisitID: "v-1", ScheduledStart: at, At: at}}
	assert.ErrorIs(t, p.Apply(r, entry(domain.StateAccepted, domain.StateVisitScheduled, at)), domain.ErrMissingTechnician)
}

func TestPatchCancelClosesOpenVisits(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateVisitScheduled)
	r.Visits = []domain.Visit{
		{ID: "v-1", Number: 1, Status: domain.VisitStatusCompleted},
		{ID: "v-2", Number: 2, Status: domain.VisitStatusScheduled},
	}
	p := domain.Patch{State: domain.StateCancelled, UpdatedAt: at, Cancel: &domain.CancellationChange{Reason: domain.Ptr("customer withdrew"), By: "disp-1", At: at}}
	require.NoError(t, p.Apply(r, entry(domain.StateVisitScheduled, domain.StateCancelled, at)))

	assert.Equal(t, domain.VisitStatusCompleted, r.Visits[0].Status)
	assert.Equal(t, domain.VisitStatusCancelled, r.Visits[1].Status)
	assert.Equal(t, "customer withdrew", *r.CancellationReason)
	assert.Equal(t, "disp-1", *r.CancelledBy)
}

func TestPatchPartsReceived(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateVisitCompleted)
	wait := domain.Patch{
		State:     domain.StateAwaitingParts,
		UpdatedAt: at,
		AddParts:  []domain.PartRequirement{{ID: "p-1", Name: "pump", Quantity: 1, Status: domain.PartStatusPending, RequestedAt: at}},
	}
	require.NoError(t, wait.Apply(r, entry(domain.StateVisitCompleted, domain.StateAwaitingParts, at)))

	arrived := at.Add(48 * time.Hour)
	recv := domain.Patch{State: domain.StatePartsReceived, UpdatedAt: arrived, PartsReceivedAt: &arrived}
	require.NoError(t, recv.Apply(r, entry(domain.StateAwaitingParts, domain.StatePartsReceived, arrived)))

	require.Len(t, r.PartsRequired, 1)
	assert.Equal(t, domain.PartStatusReceived, r.PartsRequired[0].Status)
	assert.Equal(t, arrived, *r.PartsRequired[0].ReceivedAt)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	r := newRequest(domain.StateVisitScheduled)
	r.AssignedStaffID = domain.Ptr("eng-1")
	r.Visits = []domain.Visit{{ID: "v-1", Status: domain.VisitStatusScheduled}}
	r.StateHistory = []domain.StateTransition{{ID: "t-1", Metadata: map[string]any{"k": "v"}}}

	c := r.Clone()
	*c.AssignedStaffID = "eng-2"
	c.Visits[0].Status = domain.VisitStatusCancelled
	c.StateHistory[0].Metadata["k"] = "changed"

	assert.Equal(t, "eng-1", *r.AssignedStaffID)
	assert.Equal(t, domain.VisitStatusScheduled, r.Visits[0].Status)
	assert.Equal(t, "v", r.StateHistory[0].Metadata["k"])
}

func TestPatchApprovalDecisionMustMatchTarget(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	quote := domain.ApprovalQuote{Amount: domain.Ptr(40.0), Description: domain.Ptr("fan")}

	r := newRequest(domain.StateAwaitingApproval)
	require.NoError(t, r.Approval.Request(quote, "eng-1", at))
	err := domain.Patch{
		State:           domain.StateApproved,
		RespondApproval: &domain.ApprovalDecision{Approved: false, By: "cust-1", At: at},
	}.Apply(r, entry(domain.StateAwaitingApproval, domain.StateApproved, at))
	assert.ErrorIs(t, err, domain.ErrApprovalDecisionMismatch)

	// a rejection with nothing pending is refused by the approval itself
	r = newRequest(domain.StateCreated)
	err = domain.Patch{
		State:           domain.StateCancelled,
		RespondApproval: &domain.ApprovalDecision{Approved: false, By: "cust-1", At: at},
		Cancel:          &domain.CancellationChange{Reason: domain.Ptr("rejected"), By: "cust-1", At: at},
	}.Apply(r, entry(domain.StateCreated, domain.StateCancelled, at))
	assert.ErrorIs(t, err, domain.ErrApprovalNotPending)
}

func TestPatchCancelRejectsPendingApproval(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := newRequest(domain.StateAwaitingApproval)
	require.NoError(t, r.Approval.Request(domain.ApprovalQuote{Amount: domain.Ptr(40.0)}, "eng-1", at))

	err := domain.Patch{
		State:  domain.StateCancelled,
		Cancel: &domain.CancellationChange{Reason: domain.Ptr("no reply"), By: "disp-1", At: at},
	}.Apply(r, entry(domain.StateAwaitingApproval, domain.StateCancelled, at))
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalRejected, r.Approval.Status)
	assert.Equal(t, "disp-1", *r.Approval.RespondedBy)
	assert.True(t, r.Approval.IsResponded())
}
