package event

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/dshills/typebus/internal/event"

// instruments mirrors the bus's atomic stats to OpenTelemetry counters.
type instruments struct {
	posts        metric.Int64Counter
	deliveries   metric.Int64Counter
	failures     metric.Int64Counter
	cacheLookups metric.Int64Counter
	handlers     metric.Int64UpDownCounter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	ins := new(instruments)
	var err error

	if ins.posts, err = meter.Int64Counter(
		"typebus_posts_total",
		metric.WithDescription("Total number of posts by outcome"),
	); err != nil {
		return nil, err
	}

	if ins.deliveries, err = meter.Int64Counter(
		"typebus_deliveries_total",
		metric.WithDescription("Total number of handler invocations"),
	); err != nil {
		return nil, err
	}

	if ins.failures, err = meter.Int64Counter(
		"typebus_handler_failures_total",
		metric.WithDescription("Total number of handler errors and panics"),
	); err != nil {
		return nil, err
	}

	if ins.cacheLookups, err = meter.Int64Counter(
		"typebus_cache_lookups_total",
		metric.WithDescription("Total number of assignability cache lookups"),
	); err != nil {
		return nil, err
	}

	if ins.handlers, err = meter.Int64UpDownCounter(
		"typebus_handlers",
		metric.WithDescription("Number of registered handlers"),
	); err != nil {
		return nil, err
	}

	return ins, nil
}

// mustInstruments builds instruments from meter, falling back to a noop meter
// when the configured one rejects an instrument.
func mustInstruments(meter metric.Meter, logger zerolog.Logger) *instruments {
	ins, err := newInstruments(meter)
	if err == nil {
		return ins
	}
	logger.Warn().Err(err).Msg("metric instruments unavailable, falling back to noop")
	ins, err = newInstruments(metricnoop.NewMeterProvider().Meter(instrumentationName))
	if err != nil {
		panic(err)
	}
	return ins
}

func (ins *instruments) recordPost(ctx context.Context, kind string, outcome string) {
	ins.posts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bus", kind),
		attribute.String("outcome", outcome),
	))
}

func (ins *instruments) recordDelivery(ctx context.Context, kind string) {
	ins.deliveries.Add(ctx, 1, metric.WithAttributes(attribute.String("bus", kind)))
}

func (ins *instruments) recordFailure(ctx context.Context, kind string, panicked bool) {
	ins.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bus", kind),
		attribute.Bool("panic", panicked),
	))
}

func (ins *instruments) recordCacheLookup(ctx context.Context, hit bool) {
	ins.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

func (ins *instruments) recordRegistration(kind string) {
	ins.handlers.Add(context.Background(), 1, metric.WithAttributes(attribute.String("bus", kind)))
}
