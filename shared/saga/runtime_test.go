package saga

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/mocks"
	"github.com/draftea/order-saga/shared/models"
)

const testOrderID = "7f1c6c1e-2b1d-4d7e-9a43-1f1d8c0c0a01"

func orderCreatedMessage(t *testing.T, attempt int) *events.Message {
	t.Helper()
	msg, err := events.Marshal(events.OrderCreated{
		OrderID:    testOrderID,
		CustomerID: "customer-1",
		Items: []events.LineItem{
			{ProductID: "product-1", Quantity: 1, UnitPrice: models.NewMoney(500, "USD")},
		},
		TotalAmount: models.NewMoney(500, "USD"),
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	msg.DeliveryAttempt = attempt
	return msg
}

func TestRuntime_Process(t *testing.T) {
	errTransient := errors.New("version conflict")

	tests := []struct {
		name          string
		message       func(t *testing.T) *events.Message
		handlerErr    error
		handlerPanics bool
		wantCalled    bool
		wantState     State
		wantDLQReason string
	}{
		{
			name:       "success is acknowledged",
			message:    func(t *testing.T) *events.Message { return orderCreatedMessage(t, 1) },
			wantCalled: true,
			wantState:  StateAcknowledged,
		},
		{
			name:       "transient failure is redelivered",
			message:    func(t *testing.T) *events.Message { return orderCreatedMessage(t, 1) },
			handlerErr: errTransient,
			wantCalled: true,
			wantState:  StateRedelivered,
		},
		{
			name:          "transient failure on last delivery is dead-lettered",
			message:       func(t *testing.T) *events.Message { return orderCreatedMessage(t, 3) },
			handlerErr:    errTransient,
			wantCalled:    true,
			wantState:     StateDeadLettered,
			wantDLQReason: "giving up after 3 deliveries",
		},
		{
			name:          "permanent failure is dead-lettered",
			message:       func(t *testing.T) *events.Message { return orderCreatedMessage(t, 1) },
			handlerErr:    Permanent(errors.New("unsupported currency")),
			wantCalled:    true,
			wantState:     StateDeadLettered,
			wantDLQReason: "unsupported currency",
		},
		{
			name:          "panic is dead-lettered",
			message:       func(t *testing.T) *events.Message { return orderCreatedMessage(t, 1) },
			handlerPanics: true,
			wantCalled:    true,
			wantState:     StateDeadLettered,
			wantDLQReason: "handler panic",
		},
		{
			name: "malformed payload is dead-lettered without dispatch",
			message: func(t *testing.T) *events.Message {
				return &events.Message{ID: "m-1", Topic: events.TopicOrderCreated, Key: testOrderID, Payload: []byte("{oops"), DeliveryAttempt: 1}
			},
			wantState:     StateDeadLettered,
			wantDLQReason: "malformed event",
		},
		{
			name: "event for another topic is dead-lettered",
			message: func(t *testing.T) *events.Message {
				msg, err := events.Marshal(events.OrderCancelled{OrderID: testOrderID, Reason: "x", Timestamp: time.Now()})
				require.NoError(t, err)
				msg.Topic = ""
				return msg
			},
			wantState:     StateDeadLettered,
			wantDLQReason: "delivered to order.created consumer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := mocks.NewMockDeadLetterSink(t)
			msg := tt.message(t)

			called := false
			handler := HandlerFunc(func(ctx context.Context, event events.Event) error {
				called = true
				_, ok := event.(events.OrderCreated)
				assert.True(t, ok)
				if tt.handlerPanics {
					panic("boom")
				}
				return tt.handlerErr
			})

			if tt.wantDLQReason != "" {
				sink.EXPECT().Route(mock.Anything, msg, "payments", mock.MatchedBy(func(reason string) bool {
					return assert.Contains(t, reason, tt.wantDLQReason)
				})).Return().Once()
			}

			runtime := NewRuntime("payments", events.TopicOrderCreated, handler, sink, zap.NewNop(), WithMaxDeliveries(3))
			state := runtime.Process(context.Background(), msg)

			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantCalled, called)
			assert.True(t, state.IsTerminal())
		})
	}
}

func TestRuntime_HandleReportsOnlyRedelivery(t *testing.T) {
	sink := mocks.NewMockDeadLetterSink(t)
	sink.EXPECT().Route(mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	failing := NewRuntime("inventory", events.TopicOrderCreated,
		HandlerFunc(func(context.Context, events.Event) error { return errors.New("busy") }),
		sink, zap.NewNop())

	err := failing.Handle(context.Background(), orderCreatedMessage(t, 1))
	assert.ErrorIs(t, err, ErrRedeliver)

	err = failing.Handle(context.Background(), &events.Message{Topic: events.TopicOrderCreated, Payload: []byte("null")})
	assert.NoError(t, err)
}

func TestDeadLetterRouter_MalformedOrderCreated(t *testing.T) {
	transport := mocks.NewMockMessagePublisher(t)

	var published *events.Message
	transport.EXPECT().PublishMessages(mock.Anything, mock.Anything).
		Run(func(_ context.Context, messages ...*events.Message) {
			published = messages[0]
		}).
		Return(nil).Once()

	router := NewDeadLetterRouter(transport, zap.NewNop())
	runtime := NewRuntime("payments", events.TopicOrderCreated,
		HandlerFunc(func(context.Context, events.Event) error {
			t.Fatal("handler must not run for malformed input")
			return nil
		}),
		router, zap.NewNop())

	raw := &events.Message{
		ID:              "m-42",
		Topic:           events.TopicOrderCreated,
		Key:             testOrderID,
		Payload:         []byte(`{"topic": "order.created", "payload": `),
		DeliveryAttempt: 1,
	}

	err := runtime.Handle(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, published)

	assert.Equal(t, events.TopicPaymentDLQ, published.Topic)
	assert.Equal(t, testOrderID, published.Key)

	var record DeadLetter
	require.NoError(t, json.Unmarshal(published.Payload, &record))
	assert.Equal(t, events.TopicOrderCreated, record.OriginalTopic)
	assert.Equal(t, testOrderID, record.OriginalKey)
	assert.Equal(t, string(raw.Payload), record.OriginalMessage)
	assert.Contains(t, record.ErrorReason, "malformed event")
	assert.Equal(t, "payments", record.Stage)
	assert.False(t, record.Timestamp.IsZero())
}

func TestDeadLetterRouter_SwallowsFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mocks.MockMessagePublisher)
	}{
		{
			name: "publish error",
			setup: func(transport *mocks.MockMessagePublisher) {
				transport.EXPECT().PublishMessages(mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
		},
		{
			name: "publish panic",
			setup: func(transport *mocks.MockMessagePublisher) {
				transport.EXPECT().PublishMessages(mock.Anything, mock.Anything).
					RunAndReturn(func(context.Context, ...*events.Message) error { panic("nil client") }).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := mocks.NewMockMessagePublisher(t)
			tt.setup(transport)

			router := NewDeadLetterRouter(transport, zap.NewNop())
			assert.NotPanics(t, func() {
				router.Route(context.Background(), &events.Message{ID: "m-1", Topic: events.TopicOrderCreated, Key: "k"}, "payments", "bad")
			})
		})
	}
}

func TestDeadLetterID_IsStable(t *testing.T) {
	msg := &events.Message{ID: "m-1", Topic: events.TopicOrderCreated, Key: "k"}
	assert.Equal(t, deadLetterID(msg, "payments"), deadLetterID(msg.Clone(), "payments"))
	assert.NotEqual(t, deadLetterID(msg, "payments"), deadLetterID(msg, "notifications"))
}
