package event

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/typebus/internal/event/typeinfo"
)

// newTestRegistry declares an event lattice plus a few library types.
func newTestRegistry(t testing.TB) *typeinfo.Registry {
	t.Helper()

	r := typeinfo.NewRegistry()
	decls := []typeinfo.Decl{
		{Name: "CharSequence", Interface: true},
		{Name: "String", Implements: []string{"CharSequence"}},
		{Name: "Number"},
		{Name: "Integer", Extends: "Number"},
		{Name: "List", Params: []string{"E"}, Interface: true},
		{Name: "ArrayList", Params: []string{"E"}, Implements: []string{"List<E>"}},
		{Name: "Event", Interface: true},
		{Name: "BaseEvent", Interface: true, Implements: []string{"Event"}},
		{Name: "ParentEvent", Implements: []string{"BaseEvent"}},
		{Name: "ChildEvent", Extends: "ParentEvent"},
		{Name: "GrandChildEvent", Extends: "ChildEvent"},
		{Name: "SiblingEvent", Extends: "ParentEvent"},
	}
	for _, d := range decls {
		_, err := r.Declare(d)
		require.NoError(t, err, "declaring %s", d.Name)
	}
	return r
}

// testEvent is a minimal Event.
type testEvent struct {
	kind *typeinfo.Descriptor
	seq  int
}

func (e testEvent) Type() *typeinfo.Descriptor {
	return e.kind
}

// recorder collects handler invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// handler returns a Handler that records name and then returns err.
func (r *recorder) handler(name string, priority int, err error) Handler {
	return NewHandler(priority, func(ctx context.Context, event Event) error {
		r.add(name)
		return err
	})
}

func (r *recorder) panicking(name string, priority int, v any) Handler {
	return NewHandler(priority, func(ctx context.Context, event Event) error {
		r.add(name)
		panic(v)
	})
}

func typeinfoDecl(name string, params []string, extends string, implements ...string) typeinfo.Decl {
	return typeinfo.Decl{Name: name, Params: params, Extends: extends, Implements: implements}
}
