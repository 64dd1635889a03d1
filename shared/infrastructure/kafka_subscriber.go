package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
)

var _ events.Subscriber = (*KafkaSubscriber)(nil)

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubscriber runs one consumer-group reader per topic. A message is
// committed only after the handler accepted it; a failed message is retried
// in place with backoff, so later messages of the partition wait behind it.
type KafkaSubscriber struct {
	brokers []string
	groupID func(events.Topic) string
	logger  *zap.Logger

	newReader func(kafka.ReaderConfig) kafkaReader

	mu      sync.Mutex
	wg      sync.WaitGroup
	cancels []context.CancelFunc
	readers []kafkaReader
}

func NewKafkaSubscriber(brokers []string, groupID func(events.Topic) string, logger *zap.Logger) *KafkaSubscriber {
	return &KafkaSubscriber{
		brokers: brokers,
		groupID: groupID,
		logger:  logger,
		newReader: func(cfg kafka.ReaderConfig) kafkaReader {
			return kafka.NewReader(cfg)
		},
	}
}

func (s *KafkaSubscriber) Subscribe(ctx context.Context, topic events.Topic, handler events.MessageHandler) error {
	reader := s.newReader(kafka.ReaderConfig{
		Brokers:  s.brokers,
		GroupID:  s.groupID(topic),
		Topic:    topic.String(),
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.readers = append(s.readers, reader)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(ctx, topic, reader, handler)
	}()

	return nil
}

func (s *KafkaSubscriber) consume(ctx context.Context, topic events.Topic, reader kafkaReader, handler events.MessageHandler) {
	logger := s.logger.With(zap.String("topic", topic.String()))

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to fetch kafka message", zap.Error(err))
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		message := fromKafkaMessage(m)
		if message.Topic == "" {
			message.Topic = topic
		}

		if !s.handleUntilAccepted(ctx, handler, message) {
			return
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			logger.Error("failed to commit kafka message",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
		}
	}
}

// handleUntilAccepted reports false when ctx ended before the handler
// accepted the message; the offset then stays uncommitted.
func (s *KafkaSubscriber) handleUntilAccepted(ctx context.Context, handler events.MessageHandler, message *events.Message) bool {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	for {
		if err := handler.Handle(ctx, message); err == nil {
			return true
		}

		message.DeliveryAttempt++
		if !sleepCtx(ctx, b.NextBackOff()) {
			return false
		}
	}
}

func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	readers := s.readers
	s.cancels, s.readers = nil, nil
	s.mu.Unlock()

	s.wg.Wait()

	var firstErr error
	for _, reader := range readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
