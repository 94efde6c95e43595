package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func TestApprovalLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := domain.NewApprovalRequest()
	assert.Equal(t, domain.ApprovalNotRequired, a.Status)

	assert.ErrorIs(t, a.Respond(true, "cust-1", nil, now), domain.ErrApprovalNotPending)

	require.NoError(t, a.Request(domain.ApprovalQuote{Amount: domain.Ptr(180.0), Currency: "EUR", Description: domain.Ptr("new pump")}, "eng-1", now))
	assert.Equal(t, domain.ApprovalPending, a.Status)

	require.NoError(t, a.Request(domain.ApprovalQuote{Amount: domain.Ptr(150.0)}, "eng-1", now.Add(time.Hour)))
	assert.Equal(t, 150.0, *a.Amount)
	assert.Equal(t, "new pump", *a.Description, "revision keeps fields it does not mention")
	assert.Equal(t, "EUR", a.Currency)

	require.NoError(t, a.Respond(false, "cust-1", domain.Ptr("too expensive"), now.Add(2*time.Hour)))
	assert.Equal(t, domain.ApprovalRejected, a.Status)
	assert.True(t, a.IsResponded())

	assert.ErrorIs(t, a.Respond(true, "cust-1", nil, now), domain.ErrApprovalImmutable)
	assert.ErrorIs(t, a.Request(domain.ApprovalQuote{Amount: domain.Ptr(1.0)}, "eng-1", now), domain.ErrApprovalImmutable)
	assert.Equal(t, domain.ApprovalRejected, a.Status)
}
