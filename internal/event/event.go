package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/typebus/internal/event/typeinfo"
)

// Message is a general-purpose Event carrying a typed payload.
// Messages are immutable once created.
type Message[T any] struct {
	// Kind is the event's concrete type.
	Kind *typeinfo.Descriptor

	// Payload contains the event-specific data.
	Payload T

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every message.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that posted the event.
	Source string

	// CorrelationID links related events.
	CorrelationID string
}

// NewMessage creates a message of the given type.
func NewMessage[T any](kind *typeinfo.Descriptor, payload T, source string) Message[T] {
	return Message[T]{
		Kind:    kind,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Type implements the Event interface.
func (m Message[T]) Type() *typeinfo.Descriptor {
	return m.Kind
}

// WithCorrelation returns a copy of the message with a correlation ID set.
func (m Message[T]) WithCorrelation(correlationID string) Message[T] {
	m.Metadata.CorrelationID = correlationID
	return m
}

// MetadataProvider is implemented by events that carry Metadata.
type MetadataProvider interface {
	EventMetadata() Metadata
}

// EventMetadata implements MetadataProvider.
func (m Message[T]) EventMetadata() Metadata {
	return m.Metadata
}
