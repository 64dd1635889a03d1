package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
)

func TestKafkaMessageConversion(t *testing.T) {
	original := &events.Message{
		ID:        "m-1",
		Topic:     events.TopicInventoryReserved,
		Key:       "order-1",
		Payload:   []byte(`{}`),
		Metadata:  events.Metadata{"traceparent": "tp"},
		Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	km := toKafkaMessage(original)
	assert.Equal(t, "inventory.reserved", km.Topic)
	assert.Equal(t, []byte("order-1"), km.Key)

	back := fromKafkaMessage(km)
	assert.Equal(t, original.ID, back.ID)
	assert.Equal(t, original.Key, back.Key)
	assert.Equal(t, original.Metadata, back.Metadata)
	assert.Equal(t, 1, back.DeliveryAttempt)
}

type fakeWriter struct {
	written []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_WritesAllMessages(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &KafkaPublisher{writer: writer}

	require.NoError(t, publisher.PublishMessages(context.Background(),
		&events.Message{ID: "1", Topic: events.TopicOrderCreated, Key: "a"},
		&events.Message{ID: "2", Topic: events.TopicOrderCancelled, Key: "a"},
	))

	require.Len(t, writer.written, 2)
	assert.Equal(t, "order.cancelled", writer.written[1].Topic)
}

type fakeReader struct {
	mu        sync.Mutex
	messages  chan kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestKafkaSubscriber_CommitsAfterHandlerAccepts(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 2)}
	reader.messages <- kafka.Message{Topic: "order.created", Key: []byte("k"), Offset: 7}

	s := NewKafkaSubscriber(nil, func(events.Topic) string { return "g" }, zap.NewNop())
	s.newReader = func(kafka.ReaderConfig) kafkaReader { return reader }

	var mu sync.Mutex
	var attempts []int
	done := make(chan struct{})

	err := s.Subscribe(context.Background(), events.TopicOrderCreated, events.MessageHandlerFunc(
		func(_ context.Context, m *events.Message) error {
			mu.Lock()
			defer mu.Unlock()
			attempts = append(attempts, m.DeliveryAttempt)
			if m.DeliveryAttempt < 2 {
				return errors.New("busy")
			}
			close(done)
			return nil
		}))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not redelivered")
	}

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 1
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close())
	assert.Equal(t, []int{1, 2}, attempts)
	assert.Equal(t, []int64{7}, reader.committed)
}
