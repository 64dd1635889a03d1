package events

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/propagation"
)

var _ Publisher = (*EventPublisher)(nil)

var propagator = propagation.TraceContext{}

// EventPublisher marshals domain events and hands them to a broker transport
type EventPublisher struct {
	transport MessagePublisher
}

func NewPublisher(transport MessagePublisher) *EventPublisher {
	return &EventPublisher{transport: transport}
}

// Publish encodes every event before writing any of them, so a contract
// violation never produces a partial publish.
func (p *EventPublisher) Publish(ctx context.Context, evts ...Event) error {
	if len(evts) == 0 {
		return nil
	}

	messages := make([]*Message, 0, len(evts))
	for _, event := range evts {
		message, err := Marshal(event)
		if err != nil {
			return errors.Wrap(err, "failed to encode event")
		}
		InjectTraceContext(ctx, message)
		messages = append(messages, message)
	}

	if err := p.transport.PublishMessages(ctx, messages...); err != nil {
		return errors.Wrap(err, "failed to publish messages")
	}

	return nil
}

// metadataCarrier exposes Metadata as an otel TextMapCarrier
type metadataCarrier Metadata

func (c metadataCarrier) Get(key string) string {
	return c[key]
}

func (c metadataCarrier) Set(key string, value string) {
	c[key] = value
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// InjectTraceContext writes the active span context into the message metadata
func InjectTraceContext(ctx context.Context, message *Message) {
	if message.Metadata == nil {
		message.Metadata = make(Metadata)
	}
	propagator.Inject(ctx, metadataCarrier(message.Metadata))
}

// ExtractTraceContext returns ctx carrying the remote span context found in
// the message metadata, if any.
func ExtractTraceContext(ctx context.Context, message *Message) context.Context {
	if message == nil || len(message.Metadata) == 0 {
		return ctx
	}
	return propagator.Extract(ctx, metadataCarrier(message.Metadata))
}
