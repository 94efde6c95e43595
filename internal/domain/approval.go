package domain

import (
	"errors"
	"time"
)

// ApprovalStatus enumerates customer approval outcomes.
type ApprovalStatus string

const (
	ApprovalNotRequired ApprovalStatus = "NOT_REQUIRED"
	ApprovalPending     ApprovalStatus = "PENDING"
	ApprovalApproved    ApprovalStatus = "APPROVED"
	ApprovalRejected    ApprovalStatus = "REJECTED"
)

var (
	// ErrApprovalImmutable is returned for any change to an approval that already has a response.
	ErrApprovalImmutable  = errors.New("approval already responded; it can no longer change")
	ErrApprovalNotPending = errors.New("approval is not pending")
	// ErrApprovalDecisionMismatch is returned when an answer contradicts the state it is recorded with.
	ErrApprovalDecisionMismatch = errors.New("approval decision does not match the target state")
)

// ApprovalRequest is the quote a customer must accept before work continues.
type ApprovalRequest struct {
	Status        ApprovalStatus `json:"status"`
	Amount        *float64       `json:"amount,omitempty"`
	Currency      string         `json:"currency,omitempty"`
	Description   *string        `json:"description,omitempty"`
	RequestedAt   *time.Time     `json:"requested_at,omitempty"`
	RequestedBy   *string        `json:"requested_by,omitempty"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty"`
	RespondedBy   *string        `json:"responded_by,omitempty"`
	ResponseNotes *string        `json:"response_notes,omitempty"`
}

// ApprovalQuote carries the fields of a new approval request.
type ApprovalQuote struct {
	Amount      *float64
	Currency    string
	Description *string
}

// NewApprovalRequest returns the default, not-required approval.
func NewApprovalRequest() ApprovalRequest {
	return ApprovalRequest{Status: ApprovalNotRequired}
}

// IsResponded reports whether a response has been recorded.
func (a *ApprovalRequest) IsResponded() bool {
	return a.RespondedAt != nil
}

// Request puts the approval into PENDING with the given quote. A pending quote
// may be revised; a responded one may not.
func (a *ApprovalRequest) Request(quote ApprovalQuote, by string, at time.Time) error {
	if a.IsResponded() {
		return ErrApprovalImmutable
	}
	a.Status = ApprovalPending
	if quote.Amount != nil {
		a.Amount = clonePtr(quote.Amount)
	}
	if quote.Currency != "" {
		a.Currency = quote.Currency
	}
	if quote.Description != nil {
		a.Description = clonePtr(quote.Description)
	}
	a.RequestedAt = &at
	a.RequestedBy = &by
	return nil
}

// Respond records the customer's decision.
func (a *ApprovalRequest) Respond(approved bool, by string, notes *string, at time.Time) error {
	if a.IsResponded() {
		return ErrApprovalImmutable
	}
	if a.Status != ApprovalPending {
		return ErrApprovalNotPending
	}
	if approved {
		a.Status = ApprovalApproved
	} else {
		a.Status = ApprovalRejected
	}
	a.RespondedAt = &at
	a.RespondedBy = &by
	a.ResponseNotes = clonePtr(notes)
	return nil
}

func (a ApprovalRequest) clone() ApprovalRequest {
	a.Amount = clonePtr(a.Amount)
	a.Description = clonePtr(a.Description)
	a.RequestedAt = clonePtr(a.RequestedAt)
	a.RequestedBy = clonePtr(a.RequestedBy)
	a.RespondedAt = clonePtr(a.RespondedAt)
	a.RespondedBy = clonePtr(a.RespondedBy)
	a.ResponseNotes = clonePtr(a.ResponseNotes)
	return a
}
