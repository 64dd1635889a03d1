package saga

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/telemetry"
)

// DefaultMaxDeliveries bounds redelivery of a message that keeps failing
// transiently; the next failure after it is dead-lettered.
const DefaultMaxDeliveries = 10

// Handler runs a stage's business operation for one decoded event. It must
// commit local state and publish downstream events before returning nil.
// Returned errors are transient unless wrapped with Permanent.
type Handler interface {
	Handle(ctx context.Context, event events.Event) error
}

type HandlerFunc func(ctx context.Context, event events.Event) error

func (f HandlerFunc) Handle(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}

var _ events.MessageHandler = (*Runtime)(nil)

// Runtime is the consumer loop body for one stage and topic
type Runtime struct {
	stage         string
	topic         events.Topic
	handler       Handler
	deadLetters   DeadLetterSink
	logger        *zap.Logger
	maxDeliveries int
}

type Option func(*Runtime)

func WithMaxDeliveries(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxDeliveries = n
		}
	}
}

func NewRuntime(stage string, topic events.Topic, handler Handler, deadLetters DeadLetterSink, logger *zap.Logger, opts ...Option) *Runtime {
	r := &Runtime{
		stage:         stage,
		topic:         topic,
		handler:       handler,
		deadLetters:   deadLetters,
		logger:        logger.With(zap.String("stage", stage), zap.String("topic", topic.String())),
		maxDeliveries: DefaultMaxDeliveries,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runtime) Topic() events.Topic {
	return r.topic
}

// Handle adapts the runtime to a broker subscription: only a Redelivered
// outcome is reported as an error, everything else is acknowledged.
func (r *Runtime) Handle(ctx context.Context, message *events.Message) error {
	state := r.Process(ctx, message)
	if state == StateRedelivered {
		return errors.Wrapf(ErrRedeliver, "stage %s topic %s", r.stage, r.topic)
	}
	return nil
}

// Process drives one delivery through the message state machine and returns
// the terminal state.
func (r *Runtime) Process(ctx context.Context, message *events.Message) State {
	ctx = events.ExtractTraceContext(ctx, message)
	ctx, span := telemetry.StartSpan(ctx, "consume "+r.topic.String(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("saga.stage", r.stage),
			attribute.String("messaging.destination", r.topic.String()),
		),
	)
	defer span.End()

	state, err := r.process(ctx, message)

	span.SetAttributes(attribute.String("saga.state", string(state)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	telemetry.RecordCounter(ctx, "saga_messages_total", "Messages processed by the saga runtime", 1,
		attribute.String("stage", r.stage),
		attribute.String("topic", r.topic.String()),
		attribute.String("state", string(state)),
	)

	return state
}

func (r *Runtime) process(ctx context.Context, message *events.Message) (State, error) {
	if message == nil {
		err := errors.Wrap(events.ErrMalformedEvent, "nil message")
		r.deadLetter(ctx, message, err)
		return StateDeadLettered, err
	}

	fields := []zap.Field{
		zap.String("message_id", message.ID),
		zap.String("key", message.Key),
		zap.Int("delivery_attempt", message.DeliveryAttempt),
	}
	logger.Debug(ctx, r.logger, "message received", fields...)

	event, err := events.Unmarshal(message)
	if err != nil {
		r.deadLetter(ctx, message, err)
		return StateDeadLettered, err
	}

	if event.Topic() != r.topic {
		err := errors.Wrapf(events.ErrMalformedEvent, "%s event delivered to %s consumer", event.Topic(), r.topic)
		r.deadLetter(ctx, message, err)
		return StateDeadLettered, err
	}

	logger.Debug(ctx, r.logger, "message deserialized", fields...)

	err = r.dispatch(ctx, event)
	switch {
	case err == nil:
		logger.Debug(ctx, r.logger, "message acknowledged", fields...)
		return StateAcknowledged, nil
	case IsPermanent(err):
		r.deadLetter(ctx, message, err)
		return StateDeadLettered, err
	case message.DeliveryAttempt >= r.maxDeliveries:
		err = errors.Wrapf(err, "giving up after %d deliveries", message.DeliveryAttempt)
		r.deadLetter(ctx, message, err)
		return StateDeadLettered, err
	default:
		logger.Warn(ctx, r.logger, "transient failure, leaving message for redelivery",
			append(fields, zap.Error(err))...)
		return StateRedelivered, err
	}
}

// dispatch runs the handler, turning a panic into a permanent failure so a
// poison message cannot crash the consumer loop.
func (r *Runtime) dispatch(ctx context.Context, event events.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, r.logger, "handler panicked",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			err = Permanent(fmt.Errorf("handler panic: %v", rec))
		}
	}()

	return r.handler.Handle(ctx, event)
}

func (r *Runtime) deadLetter(ctx context.Context, message *events.Message, cause error) {
	if message == nil {
		message = &events.Message{Topic: r.topic}
	}
	r.deadLetters.Route(ctx, message, r.stage, cause.Error())
}
