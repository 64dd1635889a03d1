package infrastructure

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
)

var _ events.Subscriber = (*SQSSubscriberAdapter)(nil)

// SQSSubscriberAdapter implements events.Subscriber on top of one FIFO queue
// per subscribed topic, named after the stage.
type SQSSubscriberAdapter struct {
	mux         sync.Mutex
	client      SQSAPI
	queueURL    func(events.Topic) string
	logger      *zap.Logger
	opts        []SQSSubscriberOption
	subscribers []*SQSEventSubscriber
}

func NewSQSSubscriberAdapter(client SQSAPI, queueURL func(events.Topic) string, logger *zap.Logger, opts ...SQSSubscriberOption) *SQSSubscriberAdapter {
	return &SQSSubscriberAdapter{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		opts:     opts,
	}
}

func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, topic events.Topic, handler events.MessageHandler) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	subscriber := NewSQSEventSubscriber(s.client, s.queueURL(topic), topic, handler, s.logger, s.opts...)
	if err := subscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.subscribers = append(s.subscribers, subscriber)
	return nil
}

// Close stops every queue consumer
func (s *SQSSubscriberAdapter) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, subscriber := range s.subscribers {
		subscriber.Stop()
	}
	s.subscribers = nil

	return nil
}
