package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/draftea/order-saga/shared/events"
)

var _ events.MessagePublisher = (*KafkaPublisher)(nil)

const messageIDHeader = "message_id"

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes messages to the topic of the same name. The hash
// balancer maps a key to a fixed partition, which gives per-order ordering.
type KafkaPublisher struct {
	writer kafkaWriter
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishMessages(ctx context.Context, messages ...*events.Message) error {
	if len(messages) == 0 {
		return nil
	}

	out := make([]kafka.Message, 0, len(messages))
	for _, message := range messages {
		out = append(out, toKafkaMessage(message))
	}

	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return errors.Wrap(err, "failed to write messages to kafka")
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toKafkaMessage(message *events.Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(message.Metadata)+1)
	headers = append(headers, kafka.Header{Key: messageIDHeader, Value: []byte(message.ID)})
	for k, v := range message.Metadata {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Topic:   message.Topic.String(),
		Key:     []byte(message.Key),
		Value:   message.Payload,
		Headers: headers,
		Time:    message.Timestamp,
	}
}

func fromKafkaMessage(m kafka.Message) *events.Message {
	metadata := make(events.Metadata, len(m.Headers))
	id := ""
	for _, h := range m.Headers {
		if h.Key == messageIDHeader {
			id = string(h.Value)
			continue
		}
		metadata.Set(h.Key, string(h.Value))
	}

	return &events.Message{
		ID:              id,
		Topic:           events.Topic(m.Topic),
		Key:             string(m.Key),
		Payload:         m.Value,
		Metadata:        metadata,
		Timestamp:       m.Time,
		DeliveryAttempt: 1,
	}
}
