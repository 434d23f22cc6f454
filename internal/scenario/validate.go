package scenario

import "fmt"

// Validate checks the scenario for structural problems. Type signatures are
// resolved later by Build.
func (s *Scenario) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch s.Bus {
	case BusFlat, BusHierarchy:
		if s.Root == "" {
			addf("bus %q requires a root type", s.Bus)
		}
	case BusCached:
	case "":
		addf("bus is required")
	default:
		addf("unknown bus %q (must be flat, hierarchy, or cached)", s.Bus)
	}

	for i, d := range s.Types {
		if d.Name == "" {
			addf("types[%d]: name is required", i)
		}
	}

	names := make(map[string]bool, len(s.Handlers))
	for i, h := range s.Handlers {
		switch {
		case h.Name == "":
			addf("handlers[%d]: name is required", i)
		case names[h.Name]:
			addf("handlers[%d]: duplicate name %q", i, h.Name)
		}
		names[h.Name] = true

		if h.Type == "" {
			addf("handlers[%d]: type is required", i)
		}
		switch h.action() {
		case ActionContinue, ActionInterrupt, ActionFail, ActionPanic:
		default:
			addf("handlers[%d]: unknown action %q", i, h.Action)
		}
	}

	if len(s.Events) == 0 {
		addf("at least one event is required")
	}
	for i, e := range s.Events {
		if e.Type == "" {
			addf("events[%d]: type is required", i)
		}
		if e.Repeat < 0 {
			addf("events[%d]: repeat must not be negative", i)
		}
	}

	if s.Workers < 0 {
		addf("workers must not be negative")
	}

	if x := s.Expect; x != nil {
		if len(x.Order) > 0 && s.workers() > 1 {
			addf("expect.order requires a single worker")
		}
		for name := range x.Invocations {
			if !names[name] {
				addf("expect.invocations: unknown handler %q", name)
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
