package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
)

// DeadLetter is the diagnostic record published to the dead-letter topic
type DeadLetter struct {
	OriginalTopic   events.Topic `json:"originalTopic"`
	OriginalKey     string       `json:"originalKey"`
	OriginalMessage string       `json:"originalMessage"`
	ErrorReason     string       `json:"errorReason"`
	Timestamp       time.Time    `json:"timestamp"`
	Stage           string       `json:"stage,omitempty"`
	DeliveryAttempt int          `json:"deliveryAttempt,omitempty"`
}

// DeadLetterSink accepts messages that will never be processed
type DeadLetterSink interface {
	Route(ctx context.Context, message *events.Message, stage string, reason string)
}

// DeadLetterRouter publishes dead letters to events.TopicPaymentDLQ. Route
// never fails: a sink that cannot be written is logged and the message is
// dropped, there is nothing further to escalate to.
type DeadLetterRouter struct {
	transport events.MessagePublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewDeadLetterRouter(transport events.MessagePublisher, logger *zap.Logger) *DeadLetterRouter {
	return &DeadLetterRouter{
		transport: transport,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *DeadLetterRouter) Route(ctx context.Context, message *events.Message, stage string, reason string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, r.logger, "dead-letter router panicked",
				zap.String("stage", stage),
				zap.Any("panic", rec),
			)
		}
	}()

	if message == nil {
		logger.Error(ctx, r.logger, "dead-letter router received nil message", zap.String("reason", reason))
		return
	}

	record := DeadLetter{
		OriginalTopic:   message.Topic,
		OriginalKey:     message.Key,
		OriginalMessage: string(message.Payload),
		ErrorReason:     reason,
		Timestamp:       r.now(),
		Stage:           stage,
		DeliveryAttempt: message.DeliveryAttempt,
	}

	body, err := json.Marshal(record)
	if err != nil {
		logger.Error(ctx, r.logger, "failed to encode dead letter", zap.Error(err))
		return
	}

	out := &events.Message{
		ID:        deadLetterID(message, stage),
		Topic:     events.TopicPaymentDLQ,
		Key:       message.Key,
		Payload:   body,
		Metadata:  make(events.Metadata),
		Timestamp: record.Timestamp,
	}
	events.InjectTraceContext(ctx, out)

	if err := r.transport.PublishMessages(ctx, out); err != nil {
		logger.Error(ctx, r.logger, "failed to publish dead letter, message dropped",
			zap.String("original_topic", message.Topic.String()),
			zap.String("original_key", message.Key),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}

	logger.Warn(ctx, r.logger, "message dead-lettered",
		zap.String("stage", stage),
		zap.String("original_topic", message.Topic.String()),
		zap.String("original_key", message.Key),
		zap.String("reason", reason),
	)
}

// deadLetterID is stable per original message and stage so a redelivered
// poison message collapses into one dead letter on deduplicating brokers.
func deadLetterID(message *events.Message, stage string) string {
	name := fmt.Sprintf("%s|%s|%s|%s", stage, message.Topic, message.Key, message.ID)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
