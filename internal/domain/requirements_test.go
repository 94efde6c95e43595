package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/service-desk/internal/domain"
)

func TestRequiredData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state domain.ServiceRequestState
		want  []string
	}{
		{domain.StateCreated, nil},
		{domain.StateAssigned, []string{domain.FieldAssignedStaffID}},
		{domain.StateAccepted, nil},
		{domain.StateDeclined, []string{domain.FieldDeclineReason}},
		{domain.StateVisitScheduled, []string{domain.FieldVisitTechnicianID, domain.FieldVisitScheduledStart}},
		{domain.StateVisitInProgress, nil},
		{domain.StateVisitCompleted, []string{domain.FieldVisitDiagnosis}},
		{domain.StateAwaitingParts, []string{domain.FieldPartsRequired}},
		{domain.StatePartsReceived, nil},
		{domain.StateAwaitingApproval, []string{domain.FieldApprovalAmount, domain.FieldApprovalDescription}},
		{domain.StateApproved, []string{domain.FieldApprovalAmount}},
		{domain.StateResolved, []string{domain.FieldResolutionNotes}},
		{domain.StateCancelled, []string{domain.FieldCancellationReason}},
		{"BOGUS", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.RequiredData(tt.state), tt.state)
	}
}

func TestMissingData(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target domain.ServiceRequestState
		data   *domain.TransitionData
		record *domain.ServiceRequest
		want   []string
	}{
		{
			name:   "no requirements",
			target: domain.StateAccepted,
			want:   nil,
		},
		{
			name:   "nil payload reports everything",
			target: domain.StateAwaitingApproval,
			record: &domain.ServiceRequest{},
			want:   []string{domain.FieldApprovalAmount, domain.FieldApprovalDescription},
		},
		{
			name:   "partial approval quote",
			target: domain.StateAwaitingApproval,
			data:   &domain.TransitionData{Approval: &domain.ApprovalData{Amount: domain.Ptr(120.0)}},
			record: &domain.ServiceRequest{},
			want:   []string{domain.FieldApprovalDescription},
		},
		{
			name:   "empty string counts as present",
			target: domain.StateResolved,
			data:   &domain.TransitionData{Resolution: &domain.ResolutionData{Notes: domain.Ptr("")}},
			record: &domain.ServiceRequest{},
			want:   nil,
		},
		{
			name:   "zero amount counts as present",
			target: domain.StateApproved,
			data:   &domain.TransitionData{Approval: &domain.ApprovalData{Amount: domain.Ptr(0.0)}},
			record: &domain.ServiceRequest{},
			want:   nil,
		},
		{
			name:   "record satisfies requirement",
			target: domain.StateApproved,
			record: &domain.ServiceRequest{Approval: domain.ApprovalRequest{Amount: domain.Ptr(50.0)}},
			want:   nil,
		},
		{
			name:   "assignee doubles as technician",
			target: domain.StateVisitScheduled,
			data:   &domain.TransitionData{Visit: &domain.VisitData{ScheduledStart: &start}},
			record: &domain.ServiceRequest{AssignedStaffID: domain.Ptr("eng-1")},
			want:   nil,
		},
		{
			name:   "visit without start",
			target: domain.StateVisitScheduled,
			data:   &domain.TransitionData{Visit: &domain.VisitData{TechnicianID: domain.Ptr("eng-1")}},
			record: &domain.ServiceRequest{},
			want:   []string{domain.FieldVisitScheduledStart},
		},
		{
			name:   "diagnosis already on current visit",
			target: domain.StateVisitCompleted,
			record: &domain.ServiceRequest{Visits: []domain.Visit{{Diagnosis: domain.Ptr("worn belt")}}},
			want:   nil,
		},
		{
			name:   "received parts do not satisfy a new parts wait",
			target: domain.StateAwaitingParts,
			record: &domain.ServiceRequest{PartsRequired: []domain.PartRequirement{{Name: "belt", Status: domain.PartStatusReceived}}},
			want:   []string{domain.FieldPartsRequired},
		},
		{
			name:   "empty parts list is missing",
			target: domain.StateAwaitingParts,
			data:   &domain.TransitionData{Parts: []domain.PartInput{}},
			record: &domain.ServiceRequest{},
			want:   []string{domain.FieldPartsRequired},
		},
		{
			name:   "decline reason never comes from the record",
			target: domain.StateDeclined,
			record: &domain.ServiceRequest{DeclineReason: domain.Ptr("busy")},
			want:   []string{domain.FieldDeclineReason},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.MissingData(tt.target, tt.data, tt.record))
		})
	}
}
