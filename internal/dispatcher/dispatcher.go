package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event kinds produced while recording a run.
const (
	KindRunStart = "run.start"
	KindFrame    = "frame"
	KindRunEnd   = "run.end"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("dispatcher closed")

// ErrQueueFull is returned when a non-blocking buffered handler drops an event.
var ErrQueueFull = errors.New("queue full")

// Event is one unit of work routed by Kind.
type Event struct {
	Kind      string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

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

// queue is the buffer behind one async handler.
type queue struct {
	ch      chan Event
	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	exited  chan struct{}
}

func newQueue(size int) *queue {
	q := &queue{
		ch:     make(chan Event, size),
		exited: make(chan struct{}),
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

func (q *queue) add(n int) {
	q.mu.Lock()
	q.pending += n
	if q.pending == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()
}

func (q *queue) wait() {
	q.mu.Lock()
	for q.pending > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	mu      sync.RWMutex
	closed  bool
	buffers map[string]*queue
	drops   map[string]uint64
}

const instrumentationName = "github.com/OCAP2/drivesim/internal/dispatcher"

// New creates a Dispatcher. A nil meter falls back to the global OTel
// meter, which is a no-op when nothing is configured.
func New(logger Logger, m metric.Meter) (*Dispatcher, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]*queue),
		drops:    make(map[string]uint64),
		logger:   logger,
	}
	if err := d.instrument(m); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) instrument(m metric.Meter) error {
	var err error
	if d.processed, err = m.Int64Counter("drivesim.dispatcher.events.processed",
		metric.WithDescription("Events handled by buffered handlers")); err != nil {
		return fmt.Errorf("creating processed counter: %w", err)
	}
	if d.dropped, err = m.Int64Counter("drivesim.dispatcher.events.dropped",
		metric.WithDescription("Events discarded on a full queue")); err != nil {
		return fmt.Errorf("creating dropped counter: %w", err)
	}
	if d.queueSize, err = m.Int64ObservableGauge("drivesim.dispatcher.queue.size",
		metric.WithDescription("Events waiting in each queue")); err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(d.observeQueues, d.queueSize)
	if err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}
	return nil
}

func (d *Dispatcher) observeQueues(_ context.Context, o metric.Observer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for kind, q := range d.buffers {
		o.ObserveInt64(d.queueSize, int64(len(q.ch)), metric.WithAttributes(attribute.String("kind", kind)))
	}
	return nil
}

// Register adds a handler for the given kind with optional configuration.
func (d *Dispatcher) Register(kind string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(kind, cfg.bufferSize, cfg.blocking, handler)
	}

	d.mu.Lock()
	d.handlers[kind] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[e.Kind]
	closed := d.closed
	d.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("unknown event kind: %s", e.Kind)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[kind]
	return ok
}

// Pending returns the number of queued or in-flight events for kind.
func (d *Dispatcher) Pending(kind string) int {
	d.mu.RLock()
	q, ok := d.buffers[kind]
	d.mu.RUnlock()
	if !ok {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Dropped returns how many events of kind were discarded on a full queue.
func (d *Dispatcher) Dropped(kind string) uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.drops[kind]
}

// Drain blocks until every queued event of kind has been handled.
func (d *Dispatcher) Drain(kind string) {
	d.mu.RLock()
	q, ok := d.buffers[kind]
	d.mu.RUnlock()
	if ok {
		q.wait()
	}
}

// Close stops accepting events, lets every queue finish and waits for the
// workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	queues := make([]*queue, 0, len(d.buffers))
	for _, q := range d.buffers {
		queues = append(queues, q)
	}
	d.mu.Unlock()

	for _, q := range queues {
		q.wait()
		close(q.ch)
		<-q.exited
	}
}

func (d *Dispatcher) withBuffer(kind string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := newQueue(size)

	d.mu.Lock()
	d.buffers[kind] = q
	d.mu.Unlock()

	kindAttr := attribute.String("kind", kind)

	go func() {
		defer close(q.exited)
		for e := range q.ch {
			h(e)
			d.processed.Add(context.Background(), 1, metric.WithAttributes(kindAttr))
			q.add(-1)
		}
	}()

	if blocking {
		return func(e Event) (any, error) {
			q.add(1)
			q.ch <- e
			return "queued", nil
		}
	}

	return func(e Event) (any, error) {
		q.add(1)
		select {
		case q.ch <- e:
			return "queued", nil
		default:
			q.add(-1)
			d.mu.Lock()
			d.drops[kind]++
			d.mu.Unlock()
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(kindAttr))
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, kind)
		}
	}
}

func (d *Dispatcher) withLogging(kind string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind)

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "kind", kind, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "kind", kind, "duration", time.Since(start))
		}

		return result, err
	}
}
