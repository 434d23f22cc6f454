package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/typebus/internal/event/dispatch"
	"github.com/dshills/typebus/internal/event/typeinfo"
)

// core holds the delivery loop, configuration and statistics shared by the bus
// variants.
type core struct {
	kind   string
	config busConfig
	logger zerolog.Logger
	ins    *instruments

	dispatcher *dispatch.SyncDispatcher[Event]

	// Stats
	posts         atomic.Uint64
	completed     atomic.Uint64
	interrupted   atomic.Uint64
	failed        atomic.Uint64
	deliveries    atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	handlerCount  atomic.Int64
}

func newCore(kind string, opts []BusOption) *core {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.logger.With().Str("component", kind).Logger()
	c := &core{
		kind:   kind,
		config: config,
		logger: logger,
		ins:    mustInstruments(config.meter, logger),
	}

	c.dispatcher = dispatch.NewSyncDispatcher(
		dispatch.WithRecover[Event](config.recoverPanics),
		dispatch.WithPanicHandler(func(e Event, v any, stack []byte) {
			logger.Error().
				Stringer("event_type", e.Type()).
				Interface("panic", v).
				Bytes("stack", stack).
				Msg("handler panicked")
		}),
	)
	return c
}

// checkEvent returns the concrete type of a postable event.
func checkEvent(event Event) (*typeinfo.Descriptor, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	t := event.Type()
	if t == nil {
		return nil, fmt.Errorf("%w: event has no type", ErrInvalidEvent)
	}
	if t.IsWildcard() {
		return nil, fmt.Errorf("%w: wildcard %s is not a concrete type", ErrInvalidEvent, t)
	}
	return t, nil
}

func checkRegistration(t *typeinfo.Descriptor, h Handler) error {
	if t == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidType)
	}
	if h == nil {
		return ErrNilHandler
	}
	return nil
}

// registered records a successful registration.
func (c *core) registered(en *entry) {
	c.handlerCount.Add(1)
	c.ins.recordRegistration(c.kind)
	c.logger.Debug().
		Str("handler_id", en.id).
		Stringer("type", en.declared).
		Int("priority", en.priority).
		Msg("handler registered")
}

// deliver invokes entries in order. When accept is non-nil, entries it rejects
// are skipped without being invoked.
func (c *core) deliver(
	ctx context.Context,
	event Event,
	t *typeinfo.Descriptor,
	entries []*entry,
	accept func(ctx context.Context, en *entry) bool,
) (Outcome, error) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", t.String()),
		attribute.Int("candidates", len(entries)),
	}
	meta, hasMeta := metadataOf(event)
	if hasMeta {
		attrs = append(attrs, attribute.String("event_id", meta.ID))
		if meta.CorrelationID != "" {
			attrs = append(attrs, attribute.String("correlation_id", meta.CorrelationID))
		}
	}

	ctx, span := c.config.tracer.Start(ctx, c.kind+".post", trace.WithAttributes(attrs...))
	defer span.End()

	c.posts.Add(1)

	var continued []error
	for _, en := range entries {
		if accept != nil && !accept(ctx, en) {
			continue
		}

		result := c.dispatcher.Dispatch(ctx, event, en.handler)
		if result.Skipped {
			c.failed.Add(1)
			c.ins.recordPost(ctx, c.kind, "cancelled")
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, result.Error.Error())
			return Interrupted, result.Error
		}

		c.deliveries.Add(1)
		c.ins.recordDelivery(ctx, c.kind)

		switch {
		case result.Interrupted:
			c.interrupted.Add(1)
			c.ins.recordPost(ctx, c.kind, Interrupted.String())
			span.AddEvent("interrupted", trace.WithAttributes(attribute.String("handler_id", en.id)))
			span.SetStatus(codes.Ok, "delivery interrupted")
			return Interrupted, nil

		case result.Panicked || result.Error != nil:
			herr := c.failure(ctx, event, t, en, result)
			span.RecordError(herr)

			if c.config.errorPolicy != nil && c.config.errorPolicy(herr) {
				c.failureLog(herr, en, meta, hasMeta).Msg("handler failed, continuing")
				continued = append(continued, herr)
				continue
			}

			c.failureLog(herr, en, meta, hasMeta).Msg("handler failed, aborting post")
			c.failed.Add(1)
			c.ins.recordPost(ctx, c.kind, "failed")
			span.SetStatus(codes.Error, herr.Error())
			return Interrupted, herr
		}
	}

	c.completed.Add(1)
	c.ins.recordPost(ctx, c.kind, Completed.String())
	span.SetStatus(codes.Ok, "delivery completed")
	return Completed, errors.Join(continued...)
}

func metadataOf(event Event) (Metadata, bool) {
	mp, ok := event.(MetadataProvider)
	if !ok {
		return Metadata{}, false
	}
	return mp.EventMetadata(), true
}

// failureLog starts a warning for a failed handler, tagged with the event's
// metadata when it carries any.
func (c *core) failureLog(herr *HandlerError, en *entry, meta Metadata, hasMeta bool) *zerolog.Event {
	ev := c.logger.Warn().Err(herr).Str("handler_id", en.id)
	if hasMeta {
		ev = ev.Str("event_id", meta.ID)
		if meta.CorrelationID != "" {
			ev = ev.Str("correlation_id", meta.CorrelationID)
		}
	}
	return ev
}

// failure converts a failed dispatch into a HandlerError and records it.
func (c *core) failure(ctx context.Context, event Event, t *typeinfo.Descriptor, en *entry, result dispatch.Result) *HandlerError {
	cause := result.Error
	if result.Panicked {
		c.handlerPanics.Add(1)
		cause = &PanicError{Value: result.PanicValue, Stack: string(result.PanicStack)}
		c.notifyPanic(event, en.handler, result.PanicValue)
	} else {
		c.handlerErrors.Add(1)
	}
	c.ins.recordFailure(ctx, c.kind, result.Panicked)

	return &HandlerError{
		HandlerID: en.id,
		Declared:  en.declared,
		EventType: t,
		Priority:  en.priority,
		Err:       cause,
	}
}

func (c *core) notifyPanic(event Event, h Handler, v any) {
	if c.config.panicHandler == nil {
		return
	}
	// Don't let the panic handler crash the poster.
	defer func() {
		_ = recover()
	}()
	c.config.panicHandler(event, h, v)
}

// stats returns current statistics.
// Values are read without a mutex and may be slightly inconsistent under load.
func (c *core) stats() Stats {
	return Stats{
		Posts:          c.posts.Load(),
		Completed:      c.completed.Load(),
		Interrupted:    c.interrupted.Load(),
		Failed:         c.failed.Load(),
		Deliveries:     c.deliveries.Load(),
		HandlerErrors:  c.handlerErrors.Load(),
		HandlerPanics:  c.handlerPanics.Load(),
		CacheHits:      c.cacheHits.Load(),
		CacheMisses:    c.cacheMisses.Load(),
		Handlers:       int(c.handlerCount.Load()),
		AvgHandlerTime: c.dispatcher.Stats().AvgDuration,
	}
}
