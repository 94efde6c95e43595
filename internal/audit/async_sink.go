package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AsyncOptions controls batching and buffering.
type AsyncOptions struct {
	BufferSize     int
	BatchSize      int
	BatchTimeout   time.Duration
	StorageTimeout time.Duration
}

// AsyncSink queues events and writes them in batches from one goroutine.
// Record never waits for storage unless the queue is full.
type AsyncSink struct {
	writer BatchWriter
	logger *zap.Logger
	opts   AsyncOptions

	mu     sync.RWMutex
	closed bool
	events chan Event
	wg     sync.WaitGroup
}

var _ Sink = (*AsyncSink)(nil)

// NewAsyncSink starts the batching worker. Close must be called on shutdown.
func NewAsyncSink(writer BatchWriter, opts AsyncOptions, logger *zap.Logger) *AsyncSink {
	if writer == nil {
		panic("audit: batch writer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	s := &AsyncSink{
		writer: writer,
		logger: logger,
		opts:   opts,
		events: make(chan Event, opts.BufferSize),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Record enqueues the event. When the queue is full the event is written
// directly so it is not dropped silently.
func (s *AsyncSink) Record(ctx context.Context, event Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.events <- event:
		return nil
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StorageTimeout)
	defer cancel()
	if err := s.writer.StoreBatch(ctx, []Event{event}); err != nil {
		return fmt.Errorf("%w: %v", ErrBufferFull, err)
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be written.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) worker() {
	defer s.wg.Done()

	batch := make([]Event, 0, s.opts.BatchSize)
	ticker := time.NewTicker(s.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.StorageTimeout)
		defer cancel()
		if err := s.writer.StoreBatch(ctx, batch); err != nil {
			s.logger.Error("audit batch write failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-s.events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= s.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
