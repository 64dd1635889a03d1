package events

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrMalformedEvent = errors.New("malformed event")
)

// Topic represents an event topic with pattern matching support
type Topic string

const (
	TopicOrderCreated      Topic = "order.created"
	TopicOrderFulfilled    Topic = "order.fulfilled"
	TopicOrderCancelled    Topic = "order.cancelled"
	TopicPaymentSucceeded  Topic = "payment.succeeded"
	TopicPaymentFailed     Topic = "payment.failed"
	TopicInventoryReserved Topic = "inventory.reserved"
	TopicInventoryRejected Topic = "inventory.rejected"

	// TopicPaymentDLQ is the dead-letter sink shared by every stage.
	TopicPaymentDLQ Topic = "payment.dlq"
)

// DomainTopics lists the topics that carry one of the domain event kinds.
func DomainTopics() []Topic {
	return []Topic{
		TopicOrderCreated,
		TopicPaymentSucceeded,
		TopicPaymentFailed,
		TopicInventoryReserved,
		TopicInventoryRejected,
		TopicOrderFulfilled,
		TopicOrderCancelled,
	}
}

func NewTopic(topic string) (Topic, error) {
	t := Topic(topic)
	if t == TopicPaymentDLQ {
		return t, nil
	}
	for _, known := range DomainTopics() {
		if known == t {
			return t, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidTopic, "unknown topic %q", topic)
}

// Matches reports whether the topic matches a pattern. "*" matches one
// segment, a leading or trailing "#" matches any suffix or prefix.
func (t Topic) Matches(pattern Topic) bool {
	topicStr := t.String()
	patternStr := pattern.String()

	if patternStr == "#" {
		return true
	}

	if strings.HasPrefix(patternStr, "#") && strings.HasSuffix(patternStr, "#") {
		return strings.Contains(
			topicStr,
			strings.TrimSuffix(strings.TrimPrefix(patternStr, "#"), "#"),
		)
	}

	if strings.HasPrefix(patternStr, "#") {
		return strings.HasSuffix(topicStr, strings.TrimPrefix(patternStr, "#"))
	}

	if strings.HasSuffix(patternStr, "#") {
		return strings.HasPrefix(topicStr, strings.TrimSuffix(patternStr, "#"))
	}

	return matchPattern(strings.Split(patternStr, "."), strings.Split(topicStr, "."))
}

func (t Topic) String() string {
	return string(t)
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) != len(topicParts) {
		return false
	}

	if len(patternParts) == 0 {
		return true
	}

	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}

	return false
}

// Metadata carries transport attributes and propagated trace context
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Set stores a value. Setting on a nil Metadata is a no-op.
func (m Metadata) Set(key string, value string) {
	if m == nil {
		return
	}
	m[key] = value
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Message is the unit exchanged with the broker. Key is always the order id.
type Message struct {
	ID              string
	Topic           Topic
	Key             string
	Payload         []byte
	Metadata        Metadata
	Timestamp       time.Time
	DeliveryAttempt int
}

// Clone returns a deep copy so that brokers can hand out independent deliveries.
func (m *Message) Clone() *Message {
	payload := make([]byte, len(m.Payload))
	copy(payload, m.Payload)
	return &Message{
		ID:              m.ID,
		Topic:           m.Topic,
		Key:             m.Key,
		Payload:         payload,
		Metadata:        m.Metadata.Clone(),
		Timestamp:       m.Timestamp,
		DeliveryAttempt: m.DeliveryAttempt,
	}
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// MessagePublisher writes raw messages to the broker
type MessagePublisher interface {
	PublishMessages(ctx context.Context, messages ...*Message) error
}

// MessageHandler handles a delivered message. A nil error acknowledges it,
// any error leaves it to the broker for redelivery.
type MessageHandler interface {
	Handle(ctx context.Context, message *Message) error
}

// MessageHandlerFunc adapts a function to MessageHandler
type MessageHandlerFunc func(ctx context.Context, message *Message) error

func (f MessageHandlerFunc) Handle(ctx context.Context, message *Message) error {
	return f(ctx, message)
}

// Subscriber subscribes handlers to topics
type Subscriber interface {
	Subscribe(ctx context.Context, topic Topic, handler MessageHandler) error
	Close() error
}
