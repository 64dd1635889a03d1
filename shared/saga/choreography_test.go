package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/mocks"
)

type recordingSubscriber struct {
	handlers map[events.Topic]events.MessageHandler
}

func (s *recordingSubscriber) Subscribe(_ context.Context, topic events.Topic, handler events.MessageHandler) error {
	s.handlers[topic] = handler
	return nil
}

func (s *recordingSubscriber) Close() error { return nil }

func TestChoreography_RegisterAndStart(t *testing.T) {
	noop := HandlerFunc(func(context.Context, events.Event) error { return nil })

	c := NewChoreography("orders", mocks.NewMockDeadLetterSink(t), zap.NewNop(), WithMaxDeliveries(4))
	require.NoError(t, c.RegisterHandler(events.TopicPaymentFailed, noop))
	require.NoError(t, c.RegisterHandler(events.TopicInventoryRejected, noop))

	err := c.RegisterHandler(events.TopicPaymentFailed, noop)
	assert.ErrorIs(t, err, ErrHandlerExists)

	assert.Equal(t, []events.Topic{events.TopicPaymentFailed, events.TopicInventoryRejected}, c.Topics())

	runtime, ok := c.Runtime(events.TopicInventoryRejected)
	require.True(t, ok)
	assert.Equal(t, 4, runtime.maxDeliveries)

	subscriber := &recordingSubscriber{handlers: map[events.Topic]events.MessageHandler{}}
	require.NoError(t, c.Start(context.Background(), subscriber))
	assert.Len(t, subscriber.handlers, 2)
	assert.Same(t, runtime, subscriber.handlers[events.TopicInventoryRejected])
}
