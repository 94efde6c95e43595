package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/audit"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/tenant"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

// LifecycleService is the only writer of ServiceRequest.State.
type LifecycleService struct {
	requests   repository.ServiceRequestRepository
	gate       tenant.Gate
	audit      audit.Sink
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      func() time.Time
	newID      func() string
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Requests   repository.ServiceRequestRepository
	Gate       tenant.Gate
	Audit      audit.Sink
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
	NewID      func() string
}

// TransitionRequest asks to move one service request to Target.
type TransitionRequest struct {
	OrganizationID string
	RequestID      string
	Target         domain.ServiceRequestState
	Actor          domain.Actor
	Reason         string
	Metadata       map[string]any
	Data           *domain.TransitionData
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &LifecycleService{
		requests:   deps.Requests,
		gate:       deps.Gate,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      deps.Clock,
		newID:      deps.NewID,
	}
}

// Transition validates and applies a state change. Checks run in order and the
// first failure is returned with nothing written: module enabled, tenant active,
// record exists, transition legal, required data present.
func (s *LifecycleService) Transition(ctx context.Context, req TransitionRequest) (*domain.ServiceRequest, error) {
	record, err := s.validate(ctx, req)
	if err != nil {
		s.recordRejection(req, err)
		return nil, err
	}

	now := s.clock()
	entry := domain.StateTransition{
		ID:         s.newID(),
		FromState:  record.State,
		ToState:    req.Target,
		ActorID:    req.Actor.ID,
		ActorName:  req.Actor.Name,
		ActorRole:  req.Actor.Role,
		Reason:     req.Reason,
		Metadata:   maps.Clone(req.Metadata),
		OccurredAt: now,
	}
	patch := computePatch(req, now, s.newID)

	updated, err := s.requests.ApplyTransition(ctx, repository.TransitionWrite{
		OrganizationID:  req.OrganizationID,
		ID:              req.RequestID,
		ExpectedState:   record.State,
		ExpectedVersion: record.Version,
		Patch:           patch,
		Entry:           entry,
	})
	if err != nil {
		err = s.mapWriteError(record, req, err)
		s.recordRejection(req, err)
		return nil, err
	}

	s.recordAudit(ctx, updated, entry)
	s.publishEvent(ctx, events.Event{
		Type:             events.EventServiceRequestTransitioned,
		OrganizationID:   updated.OrganizationID,
		ServiceRequestID: updated.ID,
		TicketNumber:     updated.TicketNumber,
		Actor:            events.ActorFrom(req.Actor),
		Timestamp:        now,
		Payload: events.ServiceRequestTransitionedPayload{
			TransitionID:    entry.ID,
			FromState:       entry.FromState,
			ToState:         entry.ToState,
			Reason:          entry.Reason,
			AssignedStaffID: updated.AssignedStaffID,
		},
	})
	s.metrics.RecordTransition(string(entry.FromState), string(entry.ToState))
	s.logger.Info("service request transitioned",
		zap.String("organization_id", updated.OrganizationID),
		zap.String("service_request_id", updated.ID),
		zap.String("ticket_number", updated.TicketNumber),
		zap.String("from_state", string(entry.FromState)),
		zap.String("to_state", string(entry.ToState)),
		zap.String("actor_id", entry.ActorID),
		zap.Int64("version", updated.Version))
	return updated, nil
}

// GetValidTransitions describes the states the request can move to next.
func (s *LifecycleService) GetValidTransitions(ctx context.Context, organizationID, requestID string) ([]domain.StateDescriptor, error) {
	record, err := s.find(ctx, organizationID, requestID, "")
	if err != nil {
		return nil, err
	}
	targets := domain.ValidTransitions(record.State)
	result := make([]domain.StateDescriptor, 0, len(targets))
	for _, target := range targets {
		if meta, ok := domain.StateMetadata(target); ok {
			result = append(result, meta)
		}
	}
	return result, nil
}

func (s *LifecycleService) validate(ctx context.Context, req TransitionRequest) (*domain.ServiceRequest, error) {
	if err := checkTenant(ctx, s.gate, req.OrganizationID, req.Target); err != nil {
		return nil, err
	}
	record, err := s.find(ctx, req.OrganizationID, req.RequestID, req.Target)
	if err != nil {
		return nil, err
	}
	if !req.Target.IsValid() || !record.State.IsValid() {
		return nil, &ValidationError{
			Reason:  ReasonInvalidState,
			Message: fmt.Sprintf("unknown state in transition %s -> %s", record.State, req.Target),
			From:    record.State,
			To:      req.Target,
		}
	}
	if !domain.CanTransition(record.State, req.Target) {
		return nil, &ValidationError{
			Reason:  ReasonIllegalTransition,
			Message: fmt.Sprintf("cannot move service request from %s to %s", record.State, req.Target),
			From:    record.State,
			To:      req.Target,
		}
	}
	if missing := domain.MissingData(req.Target, req.Data, record); len(missing) > 0 {
		return nil, &DataRequiredError{Target: req.Target, Missing: missing}
	}
	return record, nil
}

func (s *LifecycleService) find(ctx context.Context, organizationID, requestID string, target domain.ServiceRequestState) (*domain.ServiceRequest, error) {
	record, err := s.requests.Find(ctx, organizationID, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError(requestID, target)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("load service request %s: %w", requestID, err))
	}
	return record, nil
}

func (s *LifecycleService) mapWriteError(record *domain.ServiceRequest, req TransitionRequest, err error) error {
	switch {
	case errors.Is(err, repository.ErrStateConflict):
		return &ConflictError{RequestID: record.ID, ExpectedState: record.State, ExpectedVersion: record.Version}
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError(req.RequestID, req.Target)
	case isSubRecordError(err):
		return &ValidationError{
			Reason:  ReasonSubRecordRejected,
			Message: "sub-record rejected the change",
			From:    record.State,
			To:      req.Target,
			Err:     err,
		}
	default:
		return apperrors.NewInternalError(fmt.Errorf("apply transition to %s: %w", req.RequestID, err))
	}
}

func isSubRecordError(err error) bool {
	for _, target := range []error{
		domain.ErrVisitNotFound,
		domain.ErrVisitNotScheduled,
		domain.ErrVisitNotInProgress,
		domain.ErrVisitClosed,
		domain.ErrMissingTechnician,
		domain.ErrApprovalImmutable,
		domain.ErrApprovalNotPending,
		domain.ErrApprovalDecisionMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// recordAudit is best effort: the state change is already committed.
func (s *LifecycleService) recordAudit(ctx context.Context, record *domain.ServiceRequest, entry domain.StateTransition) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, audit.TransitionEvent(record, entry)); err != nil {
		s.metrics.RecordAuditFailure()
		s.logger.Error("audit write failed",
			zap.String("organization_id", record.OrganizationID),
			zap.String("service_request_id", record.ID),
			zap.String("transition_id", entry.ID),
			zap.Error(err))
	}
}

func (s *LifecycleService) recordRejection(req TransitionRequest, err error) {
	code := apperrors.ToDomainError(err).Code
	s.metrics.RecordRejection(code)
	s.logger.Debug("service request transition rejected",
		zap.String("organization_id", req.OrganizationID),
		zap.String("service_request_id", req.RequestID),
		zap.String("to_state", string(req.Target)),
		zap.String("code", code),
		zap.Error(err))
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.newID, s.clock, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, newID func() string, clock func() time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = newID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = clock()
	}
	_ = dispatcher.Publish(ctx, event)
}
