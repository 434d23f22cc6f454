package event

import (
	"errors"
	"fmt"

	"github.com/dshills/typebus/internal/event/dispatch"
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// ErrInterrupt is returned by a handler to stop delivery of the current post.
// Handlers may wrap it.
var ErrInterrupt = dispatch.ErrInterrupt

// Sentinel errors for the event buses.
var (
	// ErrTypeMismatch is returned when a fixed-type bus sees a different type.
	ErrTypeMismatch = errors.New("type does not match bus type")

	// ErrNotEventType is returned when a type does not descend from a
	// hierarchy bus's root type.
	ErrNotEventType = errors.New("type is not an event type of this bus")

	// ErrInvalidEvent is returned when an event is nil or has no concrete type.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidType is returned when a registration type is nil.
	ErrInvalidType = errors.New("invalid type")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// HandlerError wraps an error from a handler with additional context.
type HandlerError struct {
	// HandlerID is the registration ID of the handler that failed.
	HandlerID string

	// Declared is the type the handler was registered for.
	Declared *typeinfo.Descriptor

	// EventType is the concrete type of the event being delivered.
	EventType *typeinfo.Descriptor

	// Priority is the handler's priority.
	Priority int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s for %s failed on %s: %v", e.HandlerID, e.Declared, e.EventType, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic value as an error.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
