package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Errors returned by Dispatcher.HandleEvent.
var (
	ErrQueueFull         = errors.New("event queue is full")
	ErrDispatcherStopped = errors.New("event dispatcher is stopped")
)

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	// WorkerCount is the number of goroutines handing events to the
	// wrapped handler. With more than one, events for the same task may be
	// delivered out of order. Defaults to 1.
	WorkerCount int

	// QueueSize is the buffer for events waiting to be handled. Defaults to 100.
	QueueSize int

	// HandleTimeout bounds each call to the wrapped handler. Defaults to 10s.
	HandleTimeout time.Duration
}

// Dispatcher is an EventHandler that queues events and hands them to
// another handler on background workers, so slow publishing never delays
// the request that produced the event.
type Dispatcher struct {
	next    EventHandler
	queue   chan *TaskEvent
	config  DispatcherConfig
	logger  *slog.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewDispatcher creates a Dispatcher in front of next. Call Start before
// emitting and Stop on shutdown.
func NewDispatcher(next EventHandler, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.HandleTimeout <= 0 {
		config.HandleTimeout = 10 * time.Second
	}

	return &Dispatcher{
		next:   next,
		queue:  make(chan *TaskEvent, config.QueueSize),
		config: config,
		logger: logger.With(slog.String("component", "event_dispatcher")),
	}
}

// Start launches the workers. Calling it twice has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// HandleEvent enqueues event without blocking.
func (d *Dispatcher) HandleEvent(_ context.Context, event *TaskEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.queue <- event:
		d.logger.Debug("event enqueued",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type),
			slog.Int("queue_len", len(d.queue)))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(d.queue))
	}
}

// Stop refuses new events, waits for queued ones to be handled and stops
// the workers. Events queued on a dispatcher that was never started are
// handled on the calling goroutine.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		if pending := len(d.queue); pending > 0 {
			d.logger.Warn("dispatcher stopped before start, handling queued events inline",
				slog.Int("pending", pending))
		}
		for event := range d.queue {
			d.process(event, -1)
		}
	}

	d.wg.Wait()
	d.logger.Info("event dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	d.logger.Debug("starting worker", slog.Int("worker_id", id))

	for event := range d.queue {
		d.process(event, id)
	}
	d.logger.Debug("event queue closed, stopping worker", slog.Int("worker_id", id))
}

func (d *Dispatcher) process(event *TaskEvent, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.HandleTimeout)
	defer cancel()

	if err := d.next.HandleEvent(ctx, event); err != nil {
		d.logger.Error("event handling failed",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type),
			slog.Int("worker_id", workerID))
	}
}

var _ EventHandler = (*Dispatcher)(nil)
