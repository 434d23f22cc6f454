package event

import (
	"context"
	"sync"

	"github.com/dshills/typebus/internal/event/prioset"
	"github.com/dshills/typebus/internal/event/typecache"
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// CachedTypeBus keeps every handler in one priority-ordered list. A handler
// receives an event when the event's type is assignable to the handler's
// declared type. Each handler caches those decisions per concrete event type.
type CachedTypeBus struct {
	*core

	mu       sync.RWMutex
	handlers *prioset.Set[*entry]
}

// NewCachedTypeBus creates an empty bus.
func NewCachedTypeBus(opts ...BusOption) *CachedTypeBus {
	c := newCore("cached_type_bus", opts)
	return &CachedTypeBus{
		core:     c,
		handlers: newEntrySet(c.config.initialCapacity),
	}
}

// Register adds a handler for events assignable to t. t may be any
// descriptor, including a wildcard.
func (b *CachedTypeBus) Register(t *typeinfo.Descriptor, h Handler) error {
	if err := checkRegistration(t, h); err != nil {
		return err
	}

	en := newEntry(t, h)
	en.cache = typecache.New(b.config.initialCapacity)

	b.mu.Lock()
	b.handlers.Add(en)
	b.mu.Unlock()

	b.registered(en)
	return nil
}

// Post delivers event to every handler whose declared type accepts it, in
// priority order. Outcome and error follow FlatBus.Post.
func (b *CachedTypeBus) Post(ctx context.Context, event Event) (Outcome, error) {
	t, err := checkEvent(event)
	if err != nil {
		return Interrupted, err
	}

	b.mu.RLock()
	entries := b.handlers.Items()
	b.mu.RUnlock()

	return b.deliver(ctx, event, t, entries, func(ctx context.Context, en *entry) bool {
		return b.accepts(ctx, en, t)
	})
}

// Stats returns current bus statistics.
func (b *CachedTypeBus) Stats() Stats {
	return b.stats()
}

// Len returns the number of registered handlers.
func (b *CachedTypeBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.handlers.Len()
}

func (b *CachedTypeBus) accepts(ctx context.Context, en *entry, t *typeinfo.Descriptor) bool {
	if t == en.declared {
		return true
	}
	ok, hit := en.cache.Resolve(t, func() bool {
		return t.AssignableTo(en.declared)
	})
	if hit {
		b.cacheHits.Add(1)
	} else {
		b.cacheMisses.Add(1)
	}
	b.ins.recordCacheLookup(ctx, hit)
	return ok
}
