// Package event routes posted events to handlers by type.
//
// Every event carries a typeinfo.Descriptor describing its concrete type.
// Handlers register against a descriptor and a priority; a post delivers the
// event synchronously, on the caller's goroutine, to every handler whose
// registration matches, lowest priority first. Handlers with equal priority run
// in registration order.
//
// # Bus Variants
//
// Three buses share the same Register/Post surface:
//
//   - FlatBus accepts exactly one type. Registering or posting any other type
//     fails with ErrTypeMismatch.
//   - HierarchyBus keeps one chain node per type, linked toward a root event
//     type. A post walks the chain from the event's own type up to the root, so
//     handlers registered at a subtype run before those registered at any of
//     its supertypes.
//   - CachedTypeBus keeps a single priority-ordered list. A handler receives an
//     event when the event's type is assignable to the handler's declared type.
//     Each handler memoizes those decisions in a private cache.
//
// HierarchyBus is cheapest when posts vastly outnumber registrations.
// CachedTypeBus preserves strict priority order across unrelated types.
//
// # Interruption and Failure
//
// A handler halts the current post by returning ErrInterrupt. Later handlers are
// not invoked and Post reports Interrupted. Interruption is an outcome, not an
// error.
//
// Any other error, or a recovered panic, is a handler failure. By default a
// failure aborts the post and Post returns a *HandlerError. An ErrorPolicy can
// elect to continue with the next handler instead:
//
//	bus := event.NewCachedTypeBus(
//	    event.WithLogger(logger),
//	    event.WithErrorPolicy(func(err *event.HandlerError) bool {
//	        return !errors.Is(err, event.ErrHandlerPanic)
//	    }),
//	)
//
// # Thread Safety
//
// All buses are safe for concurrent use. Registration takes the bus's
// exclusive lock. Posting takes the shared lock only while it snapshots the
// handler lists; handlers run without any bus lock held and may register
// further handlers. A registration racing with a post may or may not be seen by
// that post, but no handler is ever skipped or delivered to twice.
//
// # Usage
//
//	reg := typeinfo.NewRegistry()
//	reg.MustDeclare(typeinfo.Decl{Name: "Event", Interface: true})
//	reg.MustDeclare(typeinfo.Decl{Name: "Saved", Implements: []string{"Event"}})
//
//	bus := event.NewHierarchyBus(reg.MustResolve("Event"))
//	_ = bus.Register(reg.MustResolve("Saved"), event.NewHandler(event.PriorityNormal,
//	    func(ctx context.Context, e event.Event) error {
//	        return nil
//	    }))
//
//	outcome, err := bus.Post(ctx, event.NewMessage(reg.MustResolve("Saved"), payload, "editor"))
package event
