package dispatch

import (
	"context"
	"errors"
	"runtime/debug"
	"time"
)

// Executor handles the actual execution of event handlers with
// panic recovery and timing.
type Executor[E any] struct {
	panicHandler PanicHandler[E]
	recover      bool
}

// NewExecutor creates a new executor with the given options.
func NewExecutor[E any](opts ...ExecutorOption[E]) *Executor[E] {
	e := &Executor[E]{recover: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption[E any] func(*Executor[E])

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler[E any](h PanicHandler[E]) ExecutorOption[E] {
	return func(e *Executor[E]) {
		e.panicHandler = h
	}
}

// WithExecutorRecover controls whether handler panics are recovered.
func WithExecutorRecover[E any](enabled bool) ExecutorOption[E] {
	return func(e *Executor[E]) {
		e.recover = enabled
	}
}

// Execute runs a handler with the given event and returns the result.
func (e *Executor[E]) Execute(ctx context.Context, event E, handler Handler[E]) (result Result) {
	// Check context before starting
	select {
	case <-ctx.Done():
		return Result{
			Success: false,
			Error:   ctx.Err(),
			Skipped: true,
		}
	default:
	}

	start := time.Now()

	if e.recover {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				result.Success = false
				result.Interrupted = false
				result.Panicked = true
				result.PanicValue = r
				result.PanicStack = stack
				result.Duration = time.Since(start)

				// Protect the panic handler call - don't let it crash the process
				if e.panicHandler != nil {
					func() {
						defer func() {
							_ = recover()
						}()
						e.panicHandler(event, r, stack)
					}()
				}
			}
		}()
	}

	err := handler.Handle(ctx, event)
	result.Duration = time.Since(start)

	switch {
	case err == nil:
		result.Success = true
	case errors.Is(err, ErrInterrupt):
		result.Interrupted = true
	default:
		result.Error = err
	}
	return result
}
