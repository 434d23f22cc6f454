package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/typebus/internal/event/typeinfo"
)

// node is one link of a HierarchyBus chain.
type node struct {
	bus    *FlatBus
	parent *node
}

// HierarchyBus keeps a chain node per event type, each linked to the node of
// its supertype, up to a root event type. A post delivers to the handlers of
// the event's own type first, then to each ancestor's in turn.
type HierarchyBus struct {
	*core
	root *typeinfo.Descriptor

	mu       sync.RWMutex
	nodes    map[*typeinfo.Descriptor]*node
	rootNode *node
}

// NewHierarchyBus creates a bus rooted at root. Only types assignable to root
// may be registered.
func NewHierarchyBus(root *typeinfo.Descriptor, opts ...BusOption) *HierarchyBus {
	if root == nil || root.IsWildcard() {
		panic("event: NewHierarchyBus needs a concrete root descriptor")
	}
	c := newCore("hierarchy_bus", opts)
	rootNode := &node{bus: newFlatBus(c, root)}
	return &HierarchyBus{
		core:     c,
		root:     root,
		nodes:    map[*typeinfo.Descriptor]*node{root: rootNode},
		rootNode: rootNode,
	}
}

// Root returns the root event type.
func (b *HierarchyBus) Root() *typeinfo.Descriptor {
	return b.root
}

// Nodes returns the number of chain nodes, including the root.
func (b *HierarchyBus) Nodes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.nodes)
}

// Register adds a handler at the chain node for t, creating t's node and any
// missing ancestors. t must descend from the root type.
func (b *HierarchyBus) Register(t *typeinfo.Descriptor, h Handler) error {
	if err := checkRegistration(t, h); err != nil {
		return err
	}

	path := b.pathToRoot(t)
	if path == nil {
		return fmt.Errorf("%w: %s does not descend from %s", ErrNotEventType, t, b.root)
	}

	en := newEntry(t, h)

	b.mu.Lock()
	n := b.ensureLocked(path)
	n.bus.add(en)
	b.mu.Unlock()

	b.registered(en)
	return nil
}

// Post delivers event along the chain from its concrete type to the root.
// Types that do not descend from the root are delivered to the root's handlers
// only. Outcome and error follow FlatBus.Post; an interrupt at any level stops
// the whole walk.
func (b *HierarchyBus) Post(ctx context.Context, event Event) (Outcome, error) {
	t, err := checkEvent(event)
	if err != nil {
		return Interrupted, err
	}
	return b.deliver(ctx, event, t, b.chain(t), nil)
}

// Stats returns current bus statistics.
func (b *HierarchyBus) Stats() Stats {
	return b.stats()
}

// chain snapshots the handlers of every node from t's node to the root.
func (b *HierarchyBus) chain(t *typeinfo.Descriptor) []*entry {
	b.mu.RLock()
	n, ok := b.nodes[t]
	b.mu.RUnlock()

	if !ok {
		if path := b.pathToRoot(t); path != nil {
			b.mu.Lock()
			n = b.ensureLocked(path)
			b.mu.Unlock()
		} else {
			n = b.rootNode
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var entries []*entry
	for ; n != nil; n = n.parent {
		entries = append(entries, n.bus.snapshot()...)
	}
	return entries
}

// pathToRoot returns the supertype path from t to the root, or nil when t does
// not descend from it.
func (b *HierarchyBus) pathToRoot(t *typeinfo.Descriptor) []*typeinfo.Descriptor {
	if t.Registry() != b.root.Registry() {
		return nil
	}
	path := t.Registry().PathTo(t, b.root.Class())
	if path == nil || !path[len(path)-1].Equal(b.root) {
		return nil
	}
	return path
}

// ensureLocked returns the node for path[0], creating it and any missing
// ancestors. The last element of path is the root.
func (b *HierarchyBus) ensureLocked(path []*typeinfo.Descriptor) *node {
	parent := b.rootNode
	for i := len(path) - 2; i >= 0; i-- {
		t := path[i]
		n, ok := b.nodes[t]
		if !ok {
			n = &node{bus: newFlatBus(b.core, t), parent: parent}
			b.nodes[t] = n
			b.logger.Debug().
				Stringer("type", t).
				Stringer("parent", parent.bus.Type()).
				Msg("chain node created")
		}
		parent = n
	}
	return parent
}
