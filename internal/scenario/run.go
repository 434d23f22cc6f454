package scenario

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/typebus/internal/event"
)

// maxReportedErrors caps the handler failures kept on a Report.
const maxReportedErrors = 20

// Report summarizes a scenario run.
type Report struct {
	RunID    string  `json:"run_id"`
	Scenario string  `json:"scenario,omitempty"`
	Bus      BusKind `json:"bus"`
	Workers  int     `json:"workers"`
	Posts    int     `json:"posts"`

	Completed   uint64 `json:"completed"`
	Interrupted uint64 `json:"interrupted"`
	Failed      uint64 `json:"failed"`

	// Invocations counts calls per handler name.
	Invocations map[string]uint64 `json:"invocations"`

	// Trace is the invocation order. It is only recorded for single-worker runs.
	Trace []string `json:"trace,omitempty"`

	// Errors holds the first handler failures, formatted.
	Errors []string `json:"errors,omitempty"`

	// Mismatches lists every unmet expectation.
	Mismatches []string `json:"mismatches,omitempty"`

	Stats   event.Stats   `json:"stats"`
	Elapsed time.Duration `json:"elapsed"`
}

// OK reports whether the run met every expectation.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Run builds and runs a scenario.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Report, error) {
	h, err := Build(s, opts...)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx)
}

// Run posts every event and collects the results. Handler failures are
// reported, not returned; the error is non-nil only when ctx ends the run.
// Invocation counts start from zero on every call; bus stats accumulate.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	s := h.Scenario
	workers := s.workers()

	report := &Report{
		RunID:    uuid.NewString(),
		Scenario: s.Name,
		Bus:      s.Bus,
		Workers:  workers,
		Posts:    len(h.posts),
	}
	logger := h.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().
		Str("scenario", s.Name).
		Str("bus", string(s.Bus)).
		Int("posts", len(h.posts)).
		Int("workers", workers).
		Msg("scenario run started")

	h.reset()

	var (
		completed   atomic.Uint64
		interrupted atomic.Uint64
		failed      atomic.Uint64
		errMu       sync.Mutex
	)
	recordErr := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if len(report.Errors) < maxReportedErrors {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			for i := w; i < len(h.posts); i += workers {
				outcome, err := h.Bus.Post(gctx, h.posts[i].WithCorrelation(report.RunID))
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}

				switch {
				case err != nil && outcome == event.Interrupted:
					failed.Add(1)
					recordErr(err)
				case outcome == event.Interrupted:
					interrupted.Add(1)
				default:
					completed.Add(1)
					if err != nil {
						recordErr(err)
					}
				}
			}
			return nil
		})
	}
	runErr := g.Wait()
	report.Elapsed = time.Since(start)

	report.Completed = completed.Load()
	report.Interrupted = interrupted.Load()
	report.Failed = failed.Load()
	report.Invocations = make(map[string]uint64, len(h.counts))
	for name, c := range h.counts {
		report.Invocations[name] = c.Load()
	}
	report.Stats = h.Bus.Stats()
	if h.tracing {
		h.traceMu.Lock()
		report.Trace = slices.Clone(h.trace)
		h.traceMu.Unlock()
	}

	if runErr != nil {
		logger.Warn().Err(runErr).Msg("scenario run cancelled")
		return report, fmt.Errorf("scenario run %s: %w", report.RunID, runErr)
	}

	report.Mismatches = check(s.Expect, report)
	logger.Info().
		Uint64("completed", report.Completed).
		Uint64("interrupted", report.Interrupted).
		Uint64("failed", report.Failed).
		Int("mismatches", len(report.Mismatches)).
		Dur("elapsed", report.Elapsed).
		Msg("scenario run finished")
	return report, nil
}

func (h *Harness) reset() {
	for _, c := range h.counts {
		c.Store(0)
	}
	h.traceMu.Lock()
	h.trace = nil
	h.traceMu.Unlock()
}

// check compares a report against an expectation.
func check(x *Expectation, r *Report) []string {
	if x == nil {
		return nil
	}

	var out []string
	if x.Order != nil && !slices.Equal(x.Order, r.Trace) {
		out = append(out, fmt.Sprintf("order: want %v, got %v", x.Order, r.Trace))
	}

	counts := []struct {
		name string
		want *int
		got  uint64
	}{
		{"completed", x.Completed, r.Completed},
		{"interrupted", x.Interrupted, r.Interrupted},
		{"failed", x.Failed, r.Failed},
	}
	for _, c := range counts {
		if c.want != nil && uint64(*c.want) != c.got {
			out = append(out, fmt.Sprintf("%s: want %d, got %d", c.name, *c.want, c.got))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(x.Invocations)) {
		want := x.Invocations[name]
		if got := r.Invocations[name]; uint64(want) != got {
			out = append(out, fmt.Sprintf("invocations[%s]: want %d, got %d", name, want, got))
		}
	}
	return out
}

// IsCancelled reports whether err ended a run early because its context was done.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
