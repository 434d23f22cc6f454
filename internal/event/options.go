package event

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// BusOption configures an event bus.
type BusOption func(*busConfig)

// busConfig contains configuration shared by every bus variant.
type busConfig struct {
	// logger receives registration and failure logs.
	logger zerolog.Logger

	// tracer starts a span around every post.
	tracer trace.Tracer

	// meter creates the bus's counters.
	meter metric.Meter

	// errorPolicy decides whether a failure aborts the post. Nil aborts.
	errorPolicy ErrorPolicy

	// initialCapacity pre-sizes handler lists and caches.
	initialCapacity int

	// recoverPanics controls whether handler panics are recovered.
	recoverPanics bool

	// panicHandler is called when a handler panics.
	panicHandler PanicHandler
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:          zerolog.Nop(),
		tracer:          tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:           metricnoop.NewMeterProvider().Meter(instrumentationName),
		initialCapacity: 8,
		recoverPanics:   true,
	}
}

// WithLogger sets the bus logger.
func WithLogger(logger zerolog.Logger) BusOption {
	return func(c *busConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for post spans.
func WithTracer(tracer trace.Tracer) BusOption {
	return func(c *busConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithMeter sets the meter used for bus counters.
func WithMeter(meter metric.Meter) BusOption {
	return func(c *busConfig) {
		if meter != nil {
			c.meter = meter
		}
	}
}

// WithErrorPolicy sets the policy consulted after every handler failure.
func WithErrorPolicy(policy ErrorPolicy) BusOption {
	return func(c *busConfig) {
		c.errorPolicy = policy
	}
}

// WithContinueOnError makes every handler failure continue with the next handler.
func WithContinueOnError() BusOption {
	return WithErrorPolicy(func(*HandlerError) bool { return true })
}

// WithInitialCapacity pre-sizes handler lists and assignability caches.
func WithInitialCapacity(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.initialCapacity = n
		}
	}
}

// WithPanicRecovery enables or disables handler panic recovery. When disabled a
// panicking handler unwinds into the caller of Post.
func WithPanicRecovery(enabled bool) BusOption {
	return func(c *busConfig) {
		c.recoverPanics = enabled
	}
}

// WithPanicHandler sets a callback for recovered handler panics.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}
