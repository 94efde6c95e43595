package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
)

func TestNotificationsDeliveredSynchronously(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	notifications := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "desk@example.com"})
	notifications.RegisterHandlers()

	staffID := "eng-7"
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:             events.EventServiceRequestTransitioned,
		ServiceRequestID: "sr-1",
		Payload: events.ServiceRequestTransitionedPayload{
			FromState:       domain.StateCreated,
			ToState:         domain.StateAssigned,
			AssignedStaffID: &staffID,
		},
	}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:             events.EventServiceRequestTransitioned,
		ServiceRequestID: "sr-1",
		Payload: events.ServiceRequestTransitionedPayload{
			FromState: domain.StateAssigned,
			ToState:   domain.StateAccepted,
		},
	}))

	emails := logs.FilterMessage("sendEmailNotificationStub").All()
	require.Len(t, emails, 1)
	assert.Equal(t, "eng-7", emails[0].ContextMap()["recipient"])
	assert.Equal(t, 2, logs.FilterMessage("ServiceRequestTransitioned").Len())
	assert.Zero(t, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationsIgnoreUnknownEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	notifications := NewNotificationService(nil, zap.New(core), config.NotificationConfig{})
	notifications.RegisterHandlers()

	require.NoError(t, notifications.Handle(context.Background(), events.Event{Type: events.EventServiceRequestVisitUpdated}))
	assert.Zero(t, logs.Len())
}
