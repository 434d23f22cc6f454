package scenario

import (
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// BusKind selects the bus variant a scenario runs against.
type BusKind string

const (
	// BusFlat accepts only the root type.
	BusFlat BusKind = "flat"

	// BusHierarchy delivers along the supertype chain up to the root type.
	BusHierarchy BusKind = "hierarchy"

	// BusCached delivers by assignability with per-handler caches.
	BusCached BusKind = "cached"
)

// Action is what a scripted handler does after recording its invocation.
type Action string

const (
	// ActionContinue returns normally. It is the default.
	ActionContinue Action = "continue"

	// ActionInterrupt stops delivery of the current post.
	ActionInterrupt Action = "interrupt"

	// ActionFail returns an error.
	ActionFail Action = "fail"

	// ActionPanic panics.
	ActionPanic Action = "panic"
)

// Scenario is a scripted bus run.
type Scenario struct {
	// Name is a human-readable label.
	Name string `toml:"name" yaml:"name" json:"name"`

	// Bus is the bus variant.
	Bus BusKind `toml:"bus" yaml:"bus" json:"bus"`

	// Root is the bus type for flat buses and the root event type for
	// hierarchy buses. Cached buses ignore it.
	Root string `toml:"root,omitempty" yaml:"root,omitempty" json:"root,omitempty"`

	// Types are declared in order; each may only reference earlier ones.
	Types []typeinfo.Decl `toml:"types" yaml:"types" json:"types"`

	// Handlers are registered in order.
	Handlers []HandlerSpec `toml:"handlers" yaml:"handlers" json:"handlers"`

	// Events are posted in order when Workers is 1.
	Events []EventSpec `toml:"events" yaml:"events" json:"events"`

	// Workers is the number of posting goroutines. Zero means one.
	Workers int `toml:"workers,omitempty" yaml:"workers,omitempty" json:"workers,omitempty"`

	// ContinueOnError makes handler failures continue with the next handler.
	ContinueOnError bool `toml:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`

	// Expect optionally checks the run's results.
	Expect *Expectation `toml:"expect,omitempty" yaml:"expect,omitempty" json:"expect,omitempty"`
}

// HandlerSpec describes one scripted handler.
type HandlerSpec struct {
	Name     string `toml:"name" yaml:"name" json:"name"`
	Type     string `toml:"type" yaml:"type" json:"type"`
	Priority int    `toml:"priority,omitempty" yaml:"priority,omitempty" json:"priority,omitempty"`
	Action   Action `toml:"action,omitempty" yaml:"action,omitempty" json:"action,omitempty"`
}

// EventSpec describes events to post.
type EventSpec struct {
	Type string `toml:"type" yaml:"type" json:"type"`

	// Repeat is how many events of this type to post. Zero means one.
	Repeat int `toml:"repeat,omitempty" yaml:"repeat,omitempty" json:"repeat,omitempty"`
}

// Expectation lists results a run must reproduce. Unset fields are not checked.
type Expectation struct {
	// Order is the exact sequence of handler invocations. It requires a single worker.
	Order []string `toml:"order,omitempty" yaml:"order,omitempty" json:"order,omitempty"`

	Completed   *int `toml:"completed,omitempty" yaml:"completed,omitempty" json:"completed,omitempty"`
	Interrupted *int `toml:"interrupted,omitempty" yaml:"interrupted,omitempty" json:"interrupted,omitempty"`
	Failed      *int `toml:"failed,omitempty" yaml:"failed,omitempty" json:"failed,omitempty"`

	// Invocations maps handler names to their expected invocation counts.
	Invocations map[string]int `toml:"invocations,omitempty" yaml:"invocations,omitempty" json:"invocations,omitempty"`
}

// workers returns the effective worker count.
func (s *Scenario) workers() int {
	return max(1, s.Workers)
}

// action returns the effective action.
func (h HandlerSpec) action() Action {
	if h.Action == "" {
		return ActionContinue
	}
	return h.Action
}

// repeat returns the effective repeat count.
func (e EventSpec) repeat() int {
	return max(1, e.Repeat)
}
