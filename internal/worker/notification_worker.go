package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/service"
)

const defaultQueueSize = 256

// NotificationWorker moves notification delivery off the request path. The
// dispatcher only enqueues; one goroutine drains the queue.
type NotificationWorker struct {
	notifications *service.NotificationService
	logger        *zap.Logger
	queue         chan events.Event

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(notifications *service.NotificationService, logger *zap.Logger, queueSize int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &NotificationWorker{
		notifications: notifications,
		logger:        logger,
		queue:         make(chan events.Event, queueSize),
		done:          make(chan struct{}),
	}
}

// Start subscribes to the dispatcher and begins draining the queue.
func (w *NotificationWorker) Start(dispatcher events.Dispatcher) {
	for _, eventType := range w.notifications.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	go w.run()
}

// Stop stops accepting events and waits until queued ones are handled or ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("service_request_id", event.ServiceRequestID))
	}
	return nil
}

func (w *NotificationWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		// the request that produced the event is gone by now
		if err := w.notifications.Handle(context.Background(), event); err != nil {
			w.logger.Warn("notification failed",
				zap.String("event_type", string(event.Type)),
				zap.String("service_request_id", event.ServiceRequestID),
				zap.Error(err))
		}
	}
}
