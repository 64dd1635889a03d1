package events

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// envelope is the JSON document carried as the message body
type envelope struct {
	ID        string          `json:"id"`
	Topic     Topic           `json:"topic"`
	Version   int             `json:"version"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Marshal encodes a domain event into a broker message. The message id is
// derived from topic, key and timestamp, so re-emitting the same decided
// event produces an identical message.
func Marshal(event Event) (*Message, error) {
	if event == nil {
		return nil, errors.New("nil event")
	}

	if err := validate.Struct(event); err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "%s: %v", event.Topic(), err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	timestamp := event.OccurredAt().UTC()
	env := envelope{
		ID:        messageID(event.Topic(), event.Key(), timestamp),
		Topic:     event.Topic(),
		Version:   SchemaVersion,
		Key:       event.Key(),
		Payload:   payload,
		Timestamp: timestamp,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal envelope")
	}

	return &Message{
		ID:        env.ID,
		Topic:     env.Topic,
		Key:       env.Key,
		Payload:   body,
		Metadata:  make(Metadata),
		Timestamp: timestamp,
	}, nil
}

// Unmarshal decodes a broker message into its domain event. Every failure
// wraps ErrMalformedEvent.
func Unmarshal(message *Message) (Event, error) {
	if message == nil || len(message.Payload) == 0 {
		return nil, errors.Wrap(ErrMalformedEvent, "empty message")
	}

	var env envelope
	if err := json.Unmarshal(message.Payload, &env); err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "invalid envelope: %v", err)
	}

	if env.Version < 1 {
		return nil, errors.Wrapf(ErrMalformedEvent, "unsupported version %d", env.Version)
	}

	if message.Topic != "" && env.Topic != message.Topic {
		return nil, errors.Wrapf(ErrMalformedEvent, "envelope topic %q delivered on %q", env.Topic, message.Topic)
	}

	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, errors.Wrap(ErrMalformedEvent, "missing payload")
	}

	var (
		event Event
		err   error
	)

	switch env.Topic {
	case TopicOrderCreated:
		event, err = decode[OrderCreated](payload)
	case TopicPaymentSucceeded:
		event, err = decode[PaymentSucceeded](payload)
	case TopicPaymentFailed:
		event, err = decode[PaymentFailed](payload)
	case TopicInventoryReserved:
		event, err = decode[InventoryReserved](payload)
	case TopicInventoryRejected:
		event, err = decode[InventoryRejected](payload)
	case TopicOrderFulfilled:
		event, err = decode[OrderFulfilled](payload)
	case TopicOrderCancelled:
		event, err = decode[OrderCancelled](payload)
	default:
		return nil, errors.Wrapf(ErrMalformedEvent, "unknown topic %q", env.Topic)
	}
	if err != nil {
		return nil, err
	}

	if env.Key != "" && env.Key != event.Key() {
		return nil, errors.Wrapf(ErrMalformedEvent, "envelope key %q does not match order %q", env.Key, event.Key())
	}

	return event, nil
}

func decode[T Event](payload []byte) (Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "invalid %s payload: %v", event.Topic(), err)
	}

	if err := validate.Struct(event); err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "invalid %s payload: %v", event.Topic(), err)
	}

	return event, nil
}

func messageID(topic Topic, key string, timestamp time.Time) string {
	name := topic.String() + "|" + key + "|" + timestamp.Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
