package scenario

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dshills/typebus/internal/event"
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// Option configures Build and Run.
type Option func(*config)

type config struct {
	logger  zerolog.Logger
	busOpts []event.BusOption
}

// WithLogger sets the logger for the runner and the bus.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBusOptions passes extra options to the bus constructor.
func WithBusOptions(opts ...event.BusOption) Option {
	return func(c *config) {
		c.busOpts = append(c.busOpts, opts...)
	}
}

func newConfig(opts []Option) config {
	c := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Harness is a built scenario, ready to run.
type Harness struct {
	Scenario *Scenario
	Registry *typeinfo.Registry
	Bus      event.Bus

	logger zerolog.Logger
	posts  []event.Message[int]
	counts map[string]*atomic.Uint64

	// trace records invocation order for single-worker runs.
	traceMu sync.Mutex
	trace   []string
	tracing bool
}

// Build declares the scenario's types, constructs its bus and registers its
// handlers.
func Build(s *Scenario, opts ...Option) (*Harness, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	reg := typeinfo.NewRegistry()
	for _, d := range s.Types {
		if _, err := reg.Declare(d); err != nil {
			return nil, fmt.Errorf("declaring type %s: %w", d.Name, err)
		}
	}

	h := &Harness{
		Scenario: s,
		Registry: reg,
		logger:   cfg.logger,
		counts:   make(map[string]*atomic.Uint64, len(s.Handlers)),
		tracing:  s.workers() == 1,
	}

	busOpts := append([]event.BusOption{
		event.WithLogger(cfg.logger),
		event.WithInitialCapacity(len(s.Handlers)),
	}, cfg.busOpts...)
	if s.ContinueOnError {
		busOpts = append(busOpts, event.WithContinueOnError())
	}

	bus, err := newBus(s, reg, busOpts)
	if err != nil {
		return nil, err
	}
	h.Bus = bus

	regs := make([]event.Registration, 0, len(s.Handlers))
	for _, hs := range s.Handlers {
		t, err := reg.Resolve(hs.Type)
		if err != nil {
			return nil, fmt.Errorf("handler %s: %w", hs.Name, err)
		}
		h.counts[hs.Name] = new(atomic.Uint64)
		regs = append(regs, event.Registration{Type: t, Handler: h.scripted(hs)})
	}
	if err := event.RegisterAll(bus, regs...); err != nil {
		return nil, err
	}

	for _, es := range s.Events {
		t, err := reg.Resolve(es.Type)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", es.Type, err)
		}
		for range es.repeat() {
			h.posts = append(h.posts, event.NewMessage(t, len(h.posts), "scenario"))
		}
	}

	return h, nil
}

func newBus(s *Scenario, reg *typeinfo.Registry, opts []event.BusOption) (event.Bus, error) {
	if s.Bus == BusCached {
		return event.NewCachedTypeBus(opts...), nil
	}

	root, err := reg.Resolve(s.Root)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	if root.IsWildcard() {
		return nil, fmt.Errorf("root: %s is not a concrete type", root)
	}
	if s.Bus == BusFlat {
		return event.NewFlatBus(root, opts...), nil
	}
	return event.NewHierarchyBus(root, opts...), nil
}

// scripted returns a handler that records its invocation and then performs
// the configured action.
func (h *Harness) scripted(hs HandlerSpec) event.Handler {
	count := h.counts[hs.Name]
	name := hs.Name
	action := hs.action()

	return event.NewHandler(hs.Priority, func(ctx context.Context, e event.Event) error {
		count.Add(1)
		if h.tracing {
			h.traceMu.Lock()
			h.trace = append(h.trace, name)
			h.traceMu.Unlock()
		}

		switch action {
		case ActionInterrupt:
			return event.ErrInterrupt
		case ActionFail:
			return fmt.Errorf("%w: %s", ErrScripted, name)
		case ActionPanic:
			panic("scripted panic: " + name)
		}
		return nil
	})
}

// Posts returns the number of events a run posts.
func (h *Harness) Posts() int {
	return len(h.posts)
}
