package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func TestAllStates(t *testing.T) {
	t.Parallel()

	states := domain.AllStates()
	require.Len(t, states, 13)
	assert.Equal(t, domain.StateCreated, states[0])

	states[0] = "MUTATED"
	assert.Equal(t, domain.StateCreated, domain.AllStates()[0], "callers must not alias the catalog")
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	t.Parallel()

	var terminal []domain.ServiceRequestState
	for _, s := range domain.AllStates() {
		if s.IsTerminal() {
			terminal = append(terminal, s)
			assert.Empty(t, domain.ValidTransitions(s), s)
		} else {
			assert.NotEmpty(t, domain.ValidTransitions(s), s)
		}
	}
	assert.ElementsMatch(t, []domain.ServiceRequestState{domain.StateResolved, domain.StateCancelled}, terminal)
}

func TestEveryTargetIsACatalogState(t *testing.T) {
	t.Parallel()

	for _, from := range domain.AllStates() {
		for _, to := range domain.ValidTransitions(from) {
			assert.True(t, to.IsValid(), "%s -> %s", from, to)
		}
	}
}

func TestOnlyVisitInProgressCannotCancel(t *testing.T) {
	t.Parallel()

	for _, s := range domain.AllStates() {
		if s.IsTerminal() {
			continue
		}
		want := s != domain.StateVisitInProgress
		assert.Equal(t, want, domain.CanTransition(s, domain.StateCancelled), s)
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to domain.ServiceRequestState
		want     bool
	}{
		{domain.StateCreated, domain.StateAssigned, true},
		{domain.StateCreated, domain.StateResolved, false},
		{domain.StateAssigned, domain.StateDeclined, true},
		{domain.StateDeclined, domain.StateAssigned, true},
		{domain.StateVisitInProgress, domain.StateVisitCompleted, true},
		{domain.StateVisitCompleted, domain.StateVisitScheduled, true},
		{domain.StateApproved, domain.StateAwaitingParts, true},
		{domain.StateAwaitingApproval, domain.StateResolved, false},
		{domain.StateResolved, domain.StateCreated, false},
		{domain.StateCancelled, domain.StateCreated, false},
		{"BOGUS", domain.StateCancelled, false},
		{domain.StateCreated, "BOGUS", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestValidTransitionsReturnsCopy(t *testing.T) {
	t.Parallel()

	got := domain.ValidTransitions(domain.StateCreated)
	require.NotEmpty(t, got)
	got[0] = domain.StateResolved
	assert.False(t, domain.CanTransition(domain.StateCreated, domain.StateResolved))
}

func TestStateMetadata(t *testing.T) {
	t.Parallel()

	for _, s := range domain.AllStates() {
		meta, ok := domain.StateMetadata(s)
		require.True(t, ok, s)
		assert.Equal(t, s, meta.State)
		assert.NotEmpty(t, meta.Label, s)
		assert.NotEmpty(t, meta.Description, s)
		assert.Equal(t, s.IsTerminal(), meta.Terminal, s)
	}

	meta, ok := domain.StateMetadata(domain.StateAwaitingApproval)
	require.True(t, ok)
	assert.Equal(t, []string{domain.FieldApprovalAmount, domain.FieldApprovalDescription}, meta.RequiredData)

	_, ok = domain.StateMetadata("BOGUS")
	assert.False(t, ok)
}
