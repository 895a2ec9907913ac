package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// Sink receives events drained from the dispatcher queue.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Publisher queues events without blocking the caller.
type Publisher interface {
	Publish(events ...Event)
}

// Dispatcher is a bounded in-process queue in front of one or more sinks.
// Publish never blocks; when the queue is full the event is dropped and logged.
type Dispatcher struct {
	events chan Event
	sinks  []Sink
	logger *slog.Logger

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewDispatcher creates a dispatcher holding up to size pending events.
func NewDispatcher(size int, logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		events: make(chan Event, size),
		sinks:  sinks,
		logger: logger,
	}
}

// Publish queues events for delivery.
func (d *Dispatcher) Publish(events ...Event) {
	d.shutdownMu.RLock()
	defer d.shutdownMu.RUnlock()

	if d.shutdown {
		return
	}

	for _, evt := range events {
		select {
		case d.events <- evt:
		default:
			d.logger.Error("realtime queue full, dropping event",
				slog.String("event_type", string(evt.Type)),
				slog.String("channel", evt.Channel))
		}
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.events)
}

// Run drains the queue until ctx is done, then delivers what is left.
// This should be called once at server startup in a goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("realtime dispatcher starting", slog.Int("sinks", len(d.sinks)))

	for {
		select {
		case evt := <-d.events:
			d.deliver(ctx, evt)
		case <-ctx.Done():
			d.drain()
			d.logger.Info("realtime dispatcher stopped")
			return
		}
	}
}

func (d *Dispatcher) drain() {
	d.shutdownMu.Lock()
	d.shutdown = true
	close(d.events)
	d.shutdownMu.Unlock()

	for evt := range d.events {
		d.deliver(context.Background(), evt)
	}
}

// deliver hands evt to every sink. Failures are logged and dropped.
func (d *Dispatcher) deliver(ctx context.Context, evt Event) {
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, evt); err != nil {
			d.logger.Warn("realtime delivery failed",
				slog.String("event_type", string(evt.Type)),
				slog.String("channel", evt.Channel),
				slog.String("error", err.Error()))
		}
	}
}
