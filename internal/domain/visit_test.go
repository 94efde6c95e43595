package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func TestVisitTimer(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := domain.Visit{Status: domain.VisitStatusScheduled}

	assert.ErrorIs(t, v.Stop(start), domain.ErrVisitNotInProgress)
	require.NoError(t, v.Start(start))
	assert.Equal(t, domain.VisitStatusInProgress, v.Status)
	assert.ErrorIs(t, v.Start(start), domain.ErrVisitNotScheduled)

	require.NoError(t, v.Stop(start.Add(95*time.Minute+40*time.Second)))
	assert.Equal(t, domain.VisitStatusCompleted, v.Status)
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 95, *v.DurationMinutes)
	assert.False(t, v.IsOpen())
}

func TestVisitStopBeforeStartClampsToZero(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := domain.Visit{Status: domain.VisitStatusScheduled}
	require.NoError(t, v.Start(start))
	require.NoError(t, v.Stop(start.Add(-time.Minute)))
	assert.Equal(t, 0, *v.DurationMinutes)
	assert.Equal(t, start, *v.EndTime)
}

func TestVisitDetailsLeaveTimerAlone(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := domain.Visit{Status: domain.VisitStatusScheduled}
	require.NoError(t, v.Start(start))

	require.NoError(t, v.ApplyDetails(domain.VisitDetails{Notes: domain.Ptr("customer absent for 10m")}))
	assert.Equal(t, domain.VisitStatusInProgress, v.Status)
	assert.Nil(t, v.EndTime)
	assert.Nil(t, v.Diagnosis)
	assert.Equal(t, "customer absent for 10m", *v.Notes)
}

func TestVisitCancel(t *testing.T) {
	t.Parallel()

	v := domain.Visit{Status: domain.VisitStatusScheduled}
	require.NoError(t, v.Cancel())
	assert.Equal(t, domain.VisitStatusCancelled, v.Status)
	assert.ErrorIs(t, v.Cancel(), domain.ErrVisitClosed)
	assert.ErrorIs(t, v.ApplyDetails(domain.VisitDetails{}), domain.ErrVisitClosed)
}
