package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/config"
	"github.com/draftea/order-saga/shared/events"
)

// Broker is the messaging connection of one stage, acquired at start-up and
// released with Close.
type Broker struct {
	Publisher  events.MessagePublisher
	Subscriber events.Subscriber
	closers    []func() error
}

// NewBroker connects to the broker selected by cfg.Driver. The memory driver
// only connects stages running in the same process.
func NewBroker(ctx context.Context, stage string, cfg config.Broker, logger *zap.Logger) (*Broker, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		memory := NewMemoryBroker(logger)
		return NewBrokerFrom(memory, memory), nil

	case config.DriverSNSSQS:
		snsClient, sqsClient, err := NewAWSClients(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}

		publisher := NewSNSEventPublisher(snsClient, cfg.AWS.TopicArn, logger)
		subscriber := NewSQSSubscriberAdapter(sqsClient, func(topic events.Topic) string {
			return cfg.AWS.QueueURL(stage, topic)
		}, logger, WithWorkers(cfg.AWS.Workers))

		return &Broker{
			Publisher:  publisher,
			Subscriber: subscriber,
			closers:    []func() error{subscriber.Close},
		}, nil

	case config.DriverKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, errors.New("kafka driver needs at least one broker address")
		}

		publisher := NewKafkaPublisher(cfg.Kafka.Brokers)
		subscriber := NewKafkaSubscriber(cfg.Kafka.Brokers, func(topic events.Topic) string {
			return cfg.Kafka.GroupID(stage, topic)
		}, logger)

		return &Broker{
			Publisher:  publisher,
			Subscriber: subscriber,
			closers:    []func() error{subscriber.Close, publisher.Close},
		}, nil

	default:
		return nil, errors.Errorf("unknown broker driver %q", cfg.Driver)
	}
}

// NewBrokerFrom wraps an existing transport, e.g. a memory broker shared by
// several stages of one process. Closing the result closes the subscriber.
func NewBrokerFrom(publisher events.MessagePublisher, subscriber events.Subscriber) *Broker {
	return &Broker{
		Publisher:  publisher,
		Subscriber: subscriber,
		closers:    []func() error{subscriber.Close},
	}
}

// Close stops consumers first so no handler publishes on a closed writer
func (b *Broker) Close() error {
	var firstErr error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
