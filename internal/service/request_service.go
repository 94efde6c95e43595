package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/tenant"
	"github.com/spec-kit/service-desk/internal/ticketnumber"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const createAttempts = 3

// RequestService covers everything around the lifecycle that does not change state.
type RequestService struct {
	requests      repository.ServiceRequestRepository
	gate          tenant.Gate
	numbers       *ticketnumber.Generator
	numberRetries int
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	clock         func() time.Time
	newID         func() string
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Requests            repository.ServiceRequestRepository
	Gate                tenant.Gate
	TicketNumbers       *ticketnumber.Generator
	TicketNumberRetries int
	Dispatcher          events.Dispatcher
	Logger              *zap.Logger
	Clock               func() time.Time
	NewID               func() string
}

// CreateRequestInput describes a new service request.
type CreateRequestInput struct {
	Title       string
	Description string
	Priority    domain.ServiceRequestPriority
	Customer    domain.CustomerSnapshot
	Device      *domain.DeviceSnapshot
}

// ListFilter narrows List results.
type ListFilter struct {
	States     []domain.ServiceRequestState
	Priorities []domain.ServiceRequestPriority
	AssigneeID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.TicketNumbers == nil {
		deps.TicketNumbers = ticketnumber.New(deps.Requests, deps.Logger)
	}
	if deps.TicketNumberRetries <= 0 {
		deps.TicketNumberRetries = ticketnumber.DefaultMaxRetries
	}
	return &RequestService{
		requests:      deps.Requests,
		gate:          deps.Gate,
		numbers:       deps.TicketNumbers,
		numberRetries: deps.TicketNumberRetries,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		clock:         deps.Clock,
		newID:         deps.NewID,
	}
}

// Create logs a new request in state CREATED with an empty history.
func (s *RequestService) Create(ctx context.Context, organizationID string, actor domain.Actor, input CreateRequestInput) (*domain.ServiceRequest, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Customer.Name = strings.TrimSpace(input.Customer.Name)
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := checkTenant(ctx, s.gate, organizationID, domain.StateCreated); err != nil {
		return nil, err
	}

	now := s.clock()
	record := &domain.ServiceRequest{
		ID:             s.newID(),
		OrganizationID: organizationID,
		Title:          input.Title,
		Description:    input.Description,
		Priority:       input.Priority,
		Customer:       input.Customer,
		Device:         input.Device,
		State:          domain.StateCreated,
		StateHistory:   []domain.StateTransition{},
		Approval:       domain.NewApprovalRequest(),
		CreatedBy:      actor.ID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// the uniqueness check and the insert are not atomic; the store's unique
	// index catches the race and we draw again
	for attempt := 1; ; attempt++ {
		code, err := s.numbers.GenerateUnique(ctx, organizationID, s.numberRetries)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("allocate ticket number: %w", err))
		}
		record.TicketNumber = code
		err = s.requests.Create(ctx, record)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateTicketNumber) || attempt == createAttempts {
			return nil, apperrors.NewInternalError(fmt.Errorf("create service request: %w", err))
		}
		s.logger.Warn("ticket number taken during insert; retrying",
			zap.String("organization_id", organizationID),
			zap.String("ticket_number", code))
	}

	publishEvent(ctx, s.dispatcher, s.newID, s.clock, events.Event{
		Type:             events.EventServiceRequestCreated,
		OrganizationID:   organizationID,
		ServiceRequestID: record.ID,
		TicketNumber:     record.TicketNumber,
		Actor:            events.ActorFrom(actor),
		Timestamp:        now,
		Payload: events.ServiceRequestCreatedPayload{
			Title:    record.Title,
			Priority: record.Priority,
			Customer: record.Customer.Name,
		},
	})
	s.logger.Info("service request created",
		zap.String("organization_id", organizationID),
		zap.String("service_request_id", record.ID),
		zap.String("ticket_number", record.TicketNumber))
	return record, nil
}

// Get returns one live request.
func (s *RequestService) Get(ctx context.Context, organizationID, id string) (*domain.ServiceRequest, error) {
	record, err := s.requests.Find(ctx, organizationID, id)
	if err != nil {
		return nil, mapLookupError(id, err)
	}
	return record, nil
}

// List returns live requests of the organization, most recently updated first.
func (s *RequestService) List(ctx context.Context, organizationID string, filter ListFilter) ([]domain.ServiceRequest, error) {
	for _, state := range filter.States {
		if !state.IsValid() {
			return nil, apperrors.NewValidationError("unknown state filter", map[string]any{"state": state})
		}
	}
	return s.requests.List(ctx, repository.ServiceRequestFilter{
		OrganizationID: organizationID,
		States:         filter.States,
		Priorities:     filter.Priorities,
		AssigneeID:     filter.AssigneeID,
		SearchTerm:     filter.SearchTerm,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
}

// History returns the transition log in order.
func (s *RequestService) History(ctx context.Context, organizationID, id string) ([]domain.StateTransition, error) {
	history, err := s.requests.History(ctx, organizationID, id)
	if err != nil {
		return nil, mapLookupError(id, err)
	}
	return history, nil
}

// UpdateVisitDetails edits the descriptive fields of a visit. Status and timer
// fields only change through lifecycle transitions.
func (s *RequestService) UpdateVisitDetails(ctx context.Context, organizationID, id, visitID string, actor domain.Actor, details domain.VisitDetails) (*domain.ServiceRequest, error) {
	if err := checkTenant(ctx, s.gate, organizationID, ""); err != nil {
		return nil, err
	}
	now := s.clock()
	record, err := s.requests.UpdateVisitDetails(ctx, organizationID, id, visitID, details, now)
	switch {
	case errors.Is(err, domain.ErrVisitNotFound):
		return nil, apperrors.NewNotFound("visit", map[string]any{"visit_id": visitID})
	case errors.Is(err, domain.ErrVisitClosed):
		return nil, &ValidationError{Reason: ReasonSubRecordRejected, Message: "visit is cancelled", Err: err}
	case err != nil:
		return nil, mapLookupError(id, err)
	}

	publishEvent(ctx, s.dispatcher, s.newID, s.clock, events.Event{
		Type:             events.EventServiceRequestVisitUpdated,
		OrganizationID:   organizationID,
		ServiceRequestID: record.ID,
		TicketNumber:     record.TicketNumber,
		Actor:            events.ActorFrom(actor),
		Timestamp:        now,
		Payload:          events.ServiceRequestVisitUpdatedPayload{VisitID: visitID},
	})
	return record, nil
}

// SoftDelete hides the request from every lookup.
func (s *RequestService) SoftDelete(ctx context.Context, organizationID, id string, actor domain.Actor) error {
	if err := checkTenant(ctx, s.gate, organizationID, ""); err != nil {
		return err
	}
	record, err := s.requests.Find(ctx, organizationID, id)
	if err != nil {
		return mapLookupError(id, err)
	}
	now := s.clock()
	if err := s.requests.SoftDelete(ctx, organizationID, id, now); err != nil {
		return mapLookupError(id, err)
	}

	publishEvent(ctx, s.dispatcher, s.newID, s.clock, events.Event{
		Type:             events.EventServiceRequestDeleted,
		OrganizationID:   organizationID,
		ServiceRequestID: id,
		TicketNumber:     record.TicketNumber,
		Actor:            events.ActorFrom(actor),
		Timestamp:        now,
	})
	s.logger.Info("service request deleted",
		zap.String("organization_id", organizationID),
		zap.String("service_request_id", id),
		zap.String("actor_id", actor.ID))
	return nil
}

func validateCreate(input CreateRequestInput) error {
	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	}
	if input.Customer.Name == "" {
		details["customer.name"] = "required"
	}
	if !input.Priority.IsValid() {
		details["priority"] = "must be one of LOW, MEDIUM, HIGH, URGENT"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid service request", details)
	}
	return nil
}

func mapLookupError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("service request", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(err)
}
