package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func sampleRequest(org, id, ticket string, updated time.Time) *domain.ServiceRequest {
	return &domain.ServiceRequest{
		ID:             id,
		TicketNumber:   ticket,
		OrganizationID: org,
		Title:          "Request " + id,
		Priority:       domain.PriorityMedium,
		Customer:       domain.CustomerSnapshot{Name: "Customer " + id},
		State:          domain.StateCreated,
		StateHistory:   []domain.StateTransition{},
		Approval:       domain.NewApprovalRequest(),
		Version:        1,
		CreatedAt:      updated,
		UpdatedAt:      updated,
	}
}

func TestMemoryRepositoryTicketNumbersAreScopedByTenant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryServiceRequestRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, sampleRequest("org-a", "1", "ABC234", now)))
	require.NoError(t, repo.Create(ctx, sampleRequest("org-b", "2", "ABC234", now)))
	assert.ErrorIs(t, repo.Create(ctx, sampleRequest("org-a", "3", "ABC234", now)), ErrDuplicateTicketNumber)

	exists, err := repo.TicketNumberExists(ctx, "org-a", "ABC234")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.TicketNumberExists(ctx, "org-c", "ABC234")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryServiceRequestRepository()

	original := sampleRequest("org-a", "1", "ABC234", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, original))
	original.Title = "changed after insert"

	found, err := repo.Find(ctx, "org-a", "1")
	require.NoError(t, err)
	assert.Equal(t, "Request 1", found.Title)

	found.State = domain.StateResolved
	again, err := repo.Find(ctx, "org-a", "1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCreated, again.State)

	_, err = repo.Find(ctx, "org-b", "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryApplyTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryServiceRequestRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, sampleRequest("org-a", "1", "ABC234", now)))

	staff := "eng-1"
	write := TransitionWrite{
		OrganizationID:  "org-a",
		ID:              "1",
		ExpectedState:   domain.StateCreated,
		ExpectedVersion: 1,
		Patch: domain.Patch{
			State:     domain.StateAssigned,
			UpdatedAt: now,
			Assign:    &domain.AssignmentChange{StaffID: &staff, By: "disp-1", At: now},
		},
		Entry: domain.StateTransition{ID: "t-1", FromState: domain.StateCreated, ToState: domain.StateAssigned, OccurredAt: now},
	}
	updated, err := repo.ApplyTransition(ctx, write)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAssigned, updated.State)
	assert.Equal(t, int64(2), updated.Version)

	// replaying the same write finds a newer version
	_, err = repo.ApplyTransition(ctx, write)
	assert.ErrorIs(t, err, ErrStateConflict)

	history, err := repo.History(ctx, "org-a", "1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "t-1", history[0].ID)

	// a patch the sub-records refuse leaves the stored record alone
	_, err = repo.ApplyTransition(ctx, TransitionWrite{
		OrganizationID:  "org-a",
		ID:              "1",
		ExpectedState:   domain.StateAssigned,
		ExpectedVersion: 2,
		Patch:           domain.Patch{State: domain.StateVisitInProgress, UpdatedAt: now, StartVisitAt: &now},
		Entry:           domain.StateTransition{ID: "t-2"},
	})
	assert.ErrorIs(t, err, domain.ErrVisitNotFound)
	stored, err := repo.Find(ctx, "org-a", "1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAssigned, stored.State)
	assert.Len(t, stored.StateHistory, 1)
}

func TestMemoryRepositoryListFiltersAndPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryServiceRequestRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		r := sampleRequest("org-a", fmt.Sprintf("r%d", i), fmt.Sprintf("ABC23%d", i+1), base.Add(time.Duration(i)*time.Hour))
		if i%2 == 0 {
			r.Priority = domain.PriorityHigh
		}
		require.NoError(t, repo.Create(ctx, r))
	}
	require.NoError(t, repo.Create(ctx, sampleRequest("org-b", "other", "ZZZ999", base)))
	require.NoError(t, repo.SoftDelete(ctx, "org-a", "r5", base.Add(6*time.Hour)))

	all, err := repo.List(ctx, ServiceRequestFilter{OrganizationID: "org-a"})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"r4", "r3", "r2", "r1"}, ids)

	high, err := repo.List(ctx, ServiceRequestFilter{OrganizationID: "org-a", Priorities: []domain.ServiceRequestPriority{domain.PriorityHigh}})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	page, err := repo.List(ctx, ServiceRequestFilter{OrganizationID: "org-a", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "r2", page[0].ID)

	empty, err := repo.List(ctx, ServiceRequestFilter{OrganizationID: "org-a", Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepositorySoftDeleteHidesRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryServiceRequestRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, sampleRequest("org-a", "1", "ABC234", now)))

	require.NoError(t, repo.SoftDelete(ctx, "org-a", "1", now))
	_, err := repo.Find(ctx, "org-a", "1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SoftDelete(ctx, "org-a", "1", now), ErrNotFound)

	_, err = repo.UpdateVisitDetails(ctx, "org-a", "1", "v-1", domain.VisitDetails{}, now)
	assert.ErrorIs(t, err, ErrNotFound)
}
