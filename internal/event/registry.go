package event

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/typebus/internal/event/prioset"
	"github.com/dshills/typebus/internal/event/typecache"
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// entry is a registered handler.
type entry struct {
	id       string
	handler  Handler
	declared *typeinfo.Descriptor
	priority int

	// cache is only set on CachedTypeBus entries.
	cache *typecache.Cache
}

func newEntry(t *typeinfo.Descriptor, h Handler) *entry {
	return &entry{
		id:       uuid.NewString(),
		handler:  h,
		declared: t,
		priority: h.Priority(),
	}
}

func entryPriority(e *entry) int {
	return e.priority
}

func newEntrySet(capacity int) *prioset.Set[*entry] {
	return prioset.New(capacity, entryPriority)
}

// Registration pairs a handler with the type it is registered for.
type Registration struct {
	Type    *typeinfo.Descriptor
	Handler Handler
}

// RegisterAll registers every pair in order, stopping at the first failure.
func RegisterAll(bus Bus, regs ...Registration) error {
	for i, r := range regs {
		if err := bus.Register(r.Type, r.Handler); err != nil {
			return &RegistrationError{Index: i, Type: r.Type, Err: err}
		}
	}
	return nil
}

// RegistrationError reports which registration of a batch failed.
type RegistrationError struct {
	Index int
	Type  *typeinfo.Descriptor
	Err   error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration %d (%v): %v", e.Index, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
