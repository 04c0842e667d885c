// Package dispatcher routes named game actions to their handlers. The HTTP
// layer dispatches through it so action throughput, failures, and any buffered
// queue depth stay observable via OTel metrics.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Action represents one incoming game operation.
type Action struct {
	Name      string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an action and returns a result.
type HandlerFunc func(Action) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes actions to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan Action
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan Action),
		logger:   logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of actions in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for name, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("action", name)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.actions.processed",
		metric.WithDescription("Total actions processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.actions.failed",
		metric.WithDescription("Total actions whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.actions.dropped",
		metric.WithDescription("Total actions dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given action name with optional configuration.
func (d *Dispatcher) Register(name string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(name, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(name, handler)
	}

	d.handlers[name] = handler
}

// Dispatch routes an action to its registered handler. Synchronous handlers
// are counted here; buffered handlers are counted by their drain goroutine
// when the action is actually processed.
func (d *Dispatcher) Dispatch(a Action) (any, error) {
	h, ok := d.handlers[a.Name]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", a.Name)
	}

	result, err := h(a)
	if d.isBuffered(a.Name) {
		return result, err
	}

	nameAttr := attribute.String("action", a.Name)
	if err != nil {
		d.failed.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
	} else {
		d.processed.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
	}
	return result, err
}

func (d *Dispatcher) isBuffered(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.buffers[name]
	return ok
}

// HasHandler returns true if a handler is registered for the action name.
func (d *Dispatcher) HasHandler(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

func (d *Dispatcher) withBuffer(name string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Action, size)

	d.mu.Lock()
	d.buffers[name] = buffer
	d.mu.Unlock()

	nameAttr := attribute.String("action", name)

	go func() {
		for a := range buffer {
			if _, err := h(a); err != nil {
				d.failed.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
			} else {
				d.processed.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
			}
		}
	}()

	if blocking {
		return func(a Action) (any, error) {
			buffer <- a
			return "queued", nil
		}
	}

	return func(a Action) (any, error) {
		select {
		case buffer <- a:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(nameAttr))
			return nil, fmt.Errorf("queue full: %s", name)
		}
	}
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(a Action) (any, error) {
		start := time.Now()
		d.logger.Debug("handling action", "action", name)

		result, err := h(a)

		if err != nil {
			d.logger.Error("action failed", "action", name, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("action complete", "action", name, "duration", time.Since(start))
		}

		return result, err
	}
}
