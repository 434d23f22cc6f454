package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/typebus/internal/event/prioset"
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// FlatBus delivers events of exactly one type to every registered handler.
type FlatBus struct {
	*core
	typ *typeinfo.Descriptor

	mu       sync.RWMutex
	handlers *prioset.Set[*entry]
}

// NewFlatBus creates a bus that accepts only type t.
// t must not be nil.
func NewFlatBus(t *typeinfo.Descriptor, opts ...BusOption) *FlatBus {
	if t == nil {
		panic("event: NewFlatBus called with a nil descriptor")
	}
	return newFlatBus(newCore("flat_bus", opts), t)
}

func newFlatBus(c *core, t *typeinfo.Descriptor) *FlatBus {
	return &FlatBus{
		core:     c,
		typ:      t,
		handlers: newEntrySet(c.config.initialCapacity),
	}
}

// Type returns the bus type.
func (b *FlatBus) Type() *typeinfo.Descriptor {
	return b.typ
}

// Len returns the number of registered handlers.
func (b *FlatBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.handlers.Len()
}

// Register adds a handler. t must equal the bus type.
func (b *FlatBus) Register(t *typeinfo.Descriptor, h Handler) error {
	if err := checkRegistration(t, h); err != nil {
		return err
	}
	if !t.Equal(b.typ) {
		return fmt.Errorf("%w: bus accepts %s, got %s", ErrTypeMismatch, b.typ, t)
	}

	en := newEntry(t, h)
	b.add(en)
	b.registered(en)
	return nil
}

// Post delivers event to every handler in priority order.
//
// It returns Completed once every handler has run. It returns Interrupted when a
// handler returns ErrInterrupt, when a handler failure aborts the post (the
// error is a *HandlerError), or when ctx is done before a handler runs. Failures
// an ErrorPolicy chose to continue past are joined into the returned error
// alongside a Completed outcome.
func (b *FlatBus) Post(ctx context.Context, event Event) (Outcome, error) {
	t, err := checkEvent(event)
	if err != nil {
		return Interrupted, err
	}
	if !t.Equal(b.typ) {
		return Interrupted, fmt.Errorf("%w: bus accepts %s, got %s", ErrTypeMismatch, b.typ, t)
	}
	return b.deliver(ctx, event, t, b.snapshot(), nil)
}

// Stats returns current bus statistics.
func (b *FlatBus) Stats() Stats {
	return b.stats()
}

func (b *FlatBus) add(en *entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers.Add(en)
}

// snapshot returns the current handlers. The slice is never mutated by later
// registrations.
func (b *FlatBus) snapshot() []*entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.handlers.Items()
}
