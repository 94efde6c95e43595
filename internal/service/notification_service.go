package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// EventTypes lists the events that produce notifications.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventServiceRequestCreated,
		events.EventServiceRequestTransitioned,
		events.EventServiceRequestDeleted,
	}
}

// RegisterHandlers subscribes Handle synchronously on the dispatcher.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range n.EventTypes() {
		n.dispatcher.Subscribe(eventType, n.Handle)
	}
}

// Handle sends the notifications for one event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventServiceRequestCreated:
		return n.handleCreated(ctx, event)
	case events.EventServiceRequestTransitioned:
		return n.handleTransitioned(ctx, event)
	case events.EventServiceRequestDeleted:
		return n.handleDeleted(ctx, event)
	default:
		return nil
	}
}

func (n *NotificationService) handleCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ServiceRequestCreated",
		zap.String("service_request_id", event.ServiceRequestID),
		zap.String("ticket_number", event.TicketNumber))
	n.sendEmailNotificationStub(ctx, event, "")
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ServiceRequestTransitionedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ServiceRequestTransitioned",
		zap.String("service_request_id", event.ServiceRequestID),
		zap.String("from_state", string(payload.FromState)),
		zap.String("to_state", string(payload.ToState)))

	switch payload.ToState {
	case domain.StateAssigned:
		// the engineer hears about new work by email
		if payload.AssignedStaffID != nil {
			n.sendEmailNotificationStub(ctx, event, *payload.AssignedStaffID)
		}
	case domain.StateAwaitingApproval, domain.StateResolved, domain.StateCancelled:
		n.sendEmailNotificationStub(ctx, event, "")
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("ServiceRequestDeleted", zap.String("service_request_id", event.ServiceRequestID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, recipient string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient", recipient),
		zap.String("service_request_id", event.ServiceRequestID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("service_request_id", event.ServiceRequestID),
		zap.String("event_type", string(event.Type)))
}
