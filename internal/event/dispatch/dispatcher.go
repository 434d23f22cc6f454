package dispatch

import (
	"context"
	"time"
)

// Handler is the interface for event handlers.
// The parent package's Handler satisfies it for its Event type.
type Handler[E any] interface {
	Handle(ctx context.Context, event E) error
}

// Result represents the outcome of a handler execution.
type Result struct {
	// Success is true if the handler completed without error, interruption or panic.
	Success bool

	// Interrupted is true if the handler asked to stop delivery.
	Interrupted bool

	// Error is the error returned by the handler, if any. Interruptions are not errors.
	Error error

	// Panicked is true if the handler panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the handler took to execute.
	Duration time.Duration

	// Skipped is true if the handler was not executed because the context was done.
	Skipped bool
}

// IsSuccess returns true if the result indicates successful execution.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// IsError returns true if the result indicates an error (not panic, not skip).
func (r Result) IsError() bool {
	return r.Error != nil && !r.Panicked && !r.Skipped
}

// IsPanic returns true if the result indicates a panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when a handler panics during execution.
// It receives the event being processed, the panic value, and the stack trace.
type PanicHandler[E any] func(event E, panicValue any, stack []byte)
