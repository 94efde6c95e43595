package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/service-desk/internal/audit"
	"github.com/spec-kit/service-desk/internal/domain"
)

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]audit.Event
	err     error
}

func (w *recordingWriter) StoreBatch(_ context.Context, events []audit.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, append([]audit.Event(nil), events...))
	return nil
}

func (w *recordingWriter) events() []audit.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []audit.Event
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

func event(id string) audit.Event {
	return audit.Event{ID: id, OrganizationID: "org-1", ResourceType: audit.ResourceServiceRequest, Action: audit.ActionStateTransition}
}

func TestAsyncSinkBatchesAndDrainsOnClose(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	sink := audit.NewAsyncSink(writer, audit.AsyncOptions{BatchSize: 2, BatchTimeout: time.Hour}, nil)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, sink.Record(context.Background(), event(id)))
	}
	require.NoError(t, sink.Close(context.Background()))

	got := writer.events()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[2].ID)

	assert.ErrorIs(t, sink.Record(context.Background(), event("d")), audit.ErrSinkClosed)
	assert.NoError(t, sink.Close(context.Background()), "close is idempotent")
}

func TestAsyncSinkFlushesOnTimer(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	sink := audit.NewAsyncSink(writer, audit.AsyncOptions{BatchSize: 100, BatchTimeout: 10 * time.Millisecond}, nil)
	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	require.NoError(t, sink.Record(context.Background(), event("a")))
	assert.Eventually(t, func() bool { return len(writer.events()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestAsyncSinkLogsWriteFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	writer := &recordingWriter{err: errors.New("disk full")}
	sink := audit.NewAsyncSink(writer, audit.AsyncOptions{BatchSize: 1}, zap.New(core))

	require.NoError(t, sink.Record(context.Background(), event("a")))
	require.NoError(t, sink.Close(context.Background()))

	require.Equal(t, 1, logs.FilterMessage("audit batch write failed").Len())
}

type gatedWriter struct {
	entered chan struct{}
	release chan struct{}
	err     error
}

func (w *gatedWriter) StoreBatch(context.Context, []audit.Event) error {
	select {
	case w.entered <- struct{}{}:
	default:
	}
	<-w.release
	return w.err
}

func TestAsyncSinkWritesDirectlyWhenBufferFull(t *testing.T) {
	t.Parallel()

	writer := &gatedWriter{entered: make(chan struct{}, 1), release: make(chan struct{}), err: errors.New("unavailable")}
	sink := audit.NewAsyncSink(writer, audit.AsyncOptions{BufferSize: 1, BatchSize: 1, StorageTimeout: time.Second}, nil)

	require.NoError(t, sink.Record(context.Background(), event("a")))
	<-writer.entered // worker is stuck writing "a"
	require.NoError(t, sink.Record(context.Background(), event("b")))

	errCh := make(chan error, 1)
	go func() { errCh <- sink.Record(context.Background(), event("c")) }()
	<-writer.entered // "c" bypassed the full queue
	close(writer.release)

	assert.ErrorIs(t, <-errCh, audit.ErrBufferFull)
	require.NoError(t, sink.Close(context.Background()))
}

func TestTransitionEvent(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	request := &domain.ServiceRequest{ID: "sr-1", OrganizationID: "org-1"}
	entry := domain.StateTransition{
		ID: "tr-1", FromState: domain.StateCreated, ToState: domain.StateAssigned,
		ActorID: "u-1", ActorRole: domain.ActorRoleDispatcher, Reason: "triage", OccurredAt: at,
	}

	e := audit.TransitionEvent(request, entry)
	assert.Equal(t, "tr-1", e.ID)
	assert.Equal(t, "sr-1", e.ResourceID)
	assert.Equal(t, audit.ActionStateTransition, e.Action)
	assert.Equal(t, domain.StateAssigned, e.ToState)
	assert.Equal(t, at, e.OccurredAt)
}
