package event

import (
	"context"
	"time"

	"github.com/dshills/typebus/internal/event/typeinfo"
)

// Common handler priorities. Lower values execute first; any int is valid.
const (
	// PriorityCritical is for handlers that must observe an event before anyone else.
	PriorityCritical = 0

	// PriorityHigh is for handlers that gate or transform later processing.
	PriorityHigh = 100

	// PriorityNormal is the default priority.
	PriorityNormal = 200

	// PriorityLow is for metrics, logging handlers that run last.
	PriorityLow = 300
)

// Event is a value that can be posted to a bus.
type Event interface {
	// Type returns the event's concrete type. It must not be a wildcard.
	Type() *typeinfo.Descriptor
}

// Handler receives events from a bus.
type Handler interface {
	// Priority orders delivery. It must not change once the handler is registered.
	Priority() int

	// Handle processes an event. Returning ErrInterrupt stops delivery of this
	// post; any other error is a handler failure.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is a function adapter for Handler. It runs at PriorityNormal.
type HandlerFunc func(ctx context.Context, event Event) error

// Priority implements the Handler interface.
func (f HandlerFunc) Priority() int {
	return PriorityNormal
}

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type prioritized struct {
	priority int
	fn       HandlerFunc
}

func (p prioritized) Priority() int {
	return p.priority
}

func (p prioritized) Handle(ctx context.Context, event Event) error {
	return p.fn(ctx, event)
}

// NewHandler returns a Handler that runs fn at the given priority.
func NewHandler(priority int, fn HandlerFunc) Handler {
	return prioritized{priority: priority, fn: fn}
}

// Typed adapts a function over a concrete event type to a Handler.
// Events whose Go type is not E are skipped silently.
func Typed[E Event](priority int, fn func(ctx context.Context, event E) error) Handler {
	return NewHandler(priority, func(ctx context.Context, event Event) error {
		if e, ok := event.(E); ok {
			return fn(ctx, e)
		}
		return nil
	})
}

// Outcome reports how a post ended.
type Outcome int

const (
	// Completed means every eligible handler was invoked.
	Completed Outcome = iota

	// Interrupted means delivery stopped before every eligible handler ran.
	Interrupted
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// ErrorPolicy decides what happens after a handler failure. Returning true
// continues with the next handler; false aborts the post.
type ErrorPolicy func(err *HandlerError) bool

// Bus is the common surface of every bus variant.
type Bus interface {
	// Register adds a handler for events of type t.
	Register(t *typeinfo.Descriptor, h Handler) error

	// Post delivers an event synchronously.
	Post(ctx context.Context, event Event) (Outcome, error)

	// Stats returns delivery statistics.
	Stats() Stats
}

// Stats contains event bus statistics.
type Stats struct {
	// Posts is the total number of Post calls that reached delivery.
	Posts uint64

	// Completed is the number of posts that delivered to every eligible handler.
	Completed uint64

	// Interrupted is the number of posts stopped by ErrInterrupt.
	Interrupted uint64

	// Failed is the number of posts aborted by a handler failure or a done context.
	Failed uint64

	// Deliveries is the total number of handler invocations.
	Deliveries uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// CacheHits is the number of assignability decisions served from a cache.
	CacheHits uint64

	// CacheMisses is the number of assignability decisions computed.
	CacheMisses uint64

	// Handlers is the number of registered handlers.
	Handlers int

	// AvgHandlerTime is the average handler execution time.
	AvgHandlerTime time.Duration
}

// PanicHandler is called when a handler panic is recovered.
type PanicHandler func(event Event, handler Handler, recovered any)
