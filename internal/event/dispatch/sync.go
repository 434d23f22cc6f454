package dispatch

import (
	"context"
	"sync/atomic"
	"time"
)

// SyncDispatcher executes handlers synchronously in the caller's goroutine.
// It provides panic recovery, context support and execution statistics.
type SyncDispatcher[E any] struct {
	executor *Executor[E]

	// Stats
	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	interrupted atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// SyncOption configures a SyncDispatcher.
type SyncOption[E any] func(*syncConfig[E])

type syncConfig[E any] struct {
	executorOpts []ExecutorOption[E]
}

// NewSyncDispatcher creates a new synchronous dispatcher.
func NewSyncDispatcher[E any](opts ...SyncOption[E]) *SyncDispatcher[E] {
	var cfg syncConfig[E]
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SyncDispatcher[E]{
		executor: NewExecutor(cfg.executorOpts...),
	}
}

// WithPanicHandler sets the panic handler for the dispatcher.
func WithPanicHandler[E any](h PanicHandler[E]) SyncOption[E] {
	return func(c *syncConfig[E]) {
		c.executorOpts = append(c.executorOpts, WithExecutorPanicHandler(h))
	}
}

// WithRecover controls whether handler panics are recovered. When disabled a
// panicking handler unwinds into the caller of Dispatch.
func WithRecover[E any](enabled bool) SyncOption[E] {
	return func(c *syncConfig[E]) {
		c.executorOpts = append(c.executorOpts, WithExecutorRecover[E](enabled))
	}
}

// Dispatch executes a handler synchronously with the given event.
// It blocks until the handler returns or panics.
func (d *SyncDispatcher[E]) Dispatch(ctx context.Context, event E, handler Handler[E]) Result {
	d.dispatched.Add(1)

	result := d.executor.Execute(ctx, event, handler)

	d.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.Skipped:
		d.skipped.Add(1)
	case result.Panicked:
		d.panicked.Add(1)
	case result.Interrupted:
		d.interrupted.Add(1)
	case result.Error != nil:
		d.failed.Add(1)
	case result.Success:
		d.succeeded.Add(1)
	}

	return result
}

// Stats returns dispatch statistics.
// Note: Stats are read without a mutex, so values may be slightly inconsistent
// if stats are being updated concurrently.
func (d *SyncDispatcher[E]) Stats() SyncDispatcherStats {
	dispatched := d.dispatched.Load()
	totalNs := d.totalTimeNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return SyncDispatcherStats{
		Dispatched:    dispatched,
		Succeeded:     d.succeeded.Load(),
		Interrupted:   d.interrupted.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Skipped:       d.skipped.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// SyncDispatcherStats contains statistics for a sync dispatcher.
type SyncDispatcherStats struct {
	// Dispatched is the total number of dispatch calls.
	Dispatched uint64

	// Succeeded is the number of successful handler executions.
	Succeeded uint64

	// Interrupted is the number of handlers that stopped delivery.
	Interrupted uint64

	// Failed is the number of handlers that returned errors.
	Failed uint64

	// Panicked is the number of handlers that panicked.
	Panicked uint64

	// Skipped is the number of handlers skipped because the context was done.
	Skipped uint64

	// TotalDuration is the cumulative time spent in handlers.
	TotalDuration time.Duration

	// AvgDuration is the average handler execution time.
	AvgDuration time.Duration
}
