// Package dispatch executes event handlers for the event bus.
//
// The dispatch package runs a single handler synchronously on the caller's
// goroutine, classifying the outcome as success, interruption, error, panic or
// skip. The buses in the parent package build their delivery loops on top of it.
//
// # Interruption
//
// A handler halts delivery of the current post by returning ErrInterrupt (or an
// error wrapping it). Interruption is a normal control outcome, not a failure.
//
// # Panic Recovery
//
// By default the Executor recovers panics raised by handlers and reports them
// through Result and an optional PanicHandler callback. Recovery can be turned
// off with WithRecover(false), in which case a panic unwinds into the poster.
//
// # Context Support
//
// If the context is already done when a handler is about to run, the handler is
// skipped and the Result carries ctx.Err(). There is no timeout primitive; a
// caller wanting one wraps the context or the handler.
//
// # Usage
//
//	dispatcher := dispatch.NewSyncDispatcher[event.Event](
//	    dispatch.WithPanicHandler[event.Event](func(e event.Event, v any, stack []byte) {
//	        log.Printf("panic in handler: %v\n%s", v, stack)
//	    }),
//	)
//	result := dispatcher.Dispatch(ctx, evt, handler)
//	switch {
//	case result.Interrupted:
//	    // stop delivering this post
//	case !result.IsSuccess():
//	    // handler failure
//	}
package dispatch
