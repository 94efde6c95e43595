package service

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// ValidationReason says which gate refused a lifecycle change.
type ValidationReason string

const (
	ReasonModuleDisabled    ValidationReason = "MODULE_DISABLED"
	ReasonTenantInactive    ValidationReason = "TENANT_INACTIVE"
	ReasonNotFound          ValidationReason = "NOT_FOUND"
	ReasonIllegalTransition ValidationReason = "ILLEGAL_TRANSITION"
	ReasonInvalidState      ValidationReason = "INVALID_STATE"
	ReasonSubRecordRejected ValidationReason = "SUB_RECORD_REJECTED"
)

var (
	_ apperrors.Coder = (*ValidationError)(nil)
	_ apperrors.Coder = (*DataRequiredError)(nil)
	_ apperrors.Coder = (*ConflictError)(nil)
)

// ValidationError is returned when a change is refused before anything is written.
type ValidationError struct {
	Reason  ValidationReason
	Message string
	From    domain.ServiceRequestState
	To      domain.ServiceRequestState
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) ErrorCode() string { return string(e.Reason) }

func (e *ValidationError) StatusCode() int {
	switch e.Reason {
	case ReasonNotFound:
		return http.StatusNotFound
	case ReasonModuleDisabled, ReasonTenantInactive:
		return http.StatusForbidden
	case ReasonIllegalTransition, ReasonSubRecordRejected:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (e *ValidationError) ErrorDetails() map[string]any {
	details := map[string]any{}
	if e.From != "" {
		details["from_state"] = e.From
	}
	if e.To != "" {
		details["to_state"] = e.To
	}
	return details
}

// DataRequiredError lists the fields a target state needs that were neither
// supplied nor already on the record.
type DataRequiredError struct {
	Target  domain.ServiceRequestState
	Missing []string
}

func (e *DataRequiredError) Error() string {
	return fmt.Sprintf("transition to %s requires: %s", e.Target, strings.Join(e.Missing, ", "))
}

func (e *DataRequiredError) ErrorCode() string { return "DATA_REQUIRED" }

func (e *DataRequiredError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *DataRequiredError) ErrorDetails() map[string]any {
	return map[string]any{"to_state": e.Target, "missing": e.Missing}
}

// ConflictError means another writer changed the record first. The caller may
// reload and retry.
type ConflictError struct {
	RequestID       string
	ExpectedState   domain.ServiceRequestState
	ExpectedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("service request %s changed concurrently; reload and retry", e.RequestID)
}

func (e *ConflictError) ErrorCode() string { return "CONFLICT" }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

func (e *ConflictError) ErrorDetails() map[string]any {
	return map[string]any{
		"retryable":        true,
		"expected_state":   e.ExpectedState,
		"expected_version": e.ExpectedVersion,
	}
}

func notFoundError(id string, target domain.ServiceRequestState) *ValidationError {
	return &ValidationError{Reason: ReasonNotFound, Message: fmt.Sprintf("service request %s not found", id), To: target}
}
