package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/shared/models"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func validOrderCreated() OrderCreated {
	return OrderCreated{
		OrderID:    "7f1c6c1e-2b1d-4d7e-9a43-1f1d8c0c0a01",
		CustomerID: "c2b6f1a0-55e4-4a0b-8f3a-0bde3b7a9e10",
		Items: []LineItem{
			{ProductID: "p-1", Quantity: 2, UnitPrice: models.NewMoney(1000, "USD")},
		},
		TotalAmount: models.NewMoney(2000, "USD"),
		Timestamp:   fixedTime,
	}
}

func TestMarshalUnmarshal_AllVariants(t *testing.T) {
	orderID := models.ID("7f1c6c1e-2b1d-4d7e-9a43-1f1d8c0c0a01")

	tests := []struct {
		name  string
		event Event
	}{
		{name: "order created", event: validOrderCreated()},
		{name: "payment succeeded", event: PaymentSucceeded{
			OrderID: orderID, PaymentID: "pay-1", CustomerID: "cus-1",
			Amount: models.NewMoney(2000, "USD"), PaymentMethod: "credit_card", TransactionID: "TXN-1",
			Items:     []LineItem{{ProductID: "p-1", Quantity: 2, UnitPrice: models.NewMoney(1000, "USD")}},
			Timestamp: fixedTime,
		}},
		{name: "payment failed", event: PaymentFailed{OrderID: orderID, PaymentID: "pay-1", Reason: "Insufficient funds", Timestamp: fixedTime}},
		{name: "inventory reserved", event: InventoryReserved{
			OrderID: orderID, ReservationID: "res-1",
			Items:     []ReservedItem{{ProductID: "p-1", Quantity: 2}},
			Timestamp: fixedTime,
		}},
		{name: "inventory rejected", event: InventoryRejected{OrderID: orderID, Reason: "out of stock", Timestamp: fixedTime}},
		{name: "order fulfilled", event: OrderFulfilled{OrderID: orderID, FulfillmentID: "ful-1", TrackingNumber: "TRK-ABCDEF12", Timestamp: fixedTime}},
		{name: "order cancelled", event: OrderCancelled{OrderID: orderID, Reason: "payment failed", Timestamp: fixedTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Marshal(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.event.Topic(), msg.Topic)
			assert.Equal(t, orderID.String(), msg.Key)

			decoded, err := Unmarshal(msg)
			require.NoError(t, err)
			assert.Equal(t, tt.event, decoded)
		})
	}
}

func TestMarshal_IsDeterministic(t *testing.T) {
	first, err := Marshal(validOrderCreated())
	require.NoError(t, err)
	second, err := Marshal(validOrderCreated())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Payload, second.Payload)
}

func TestMarshal_RejectsInvalidEvent(t *testing.T) {
	event := validOrderCreated()
	event.Items = nil

	_, err := Marshal(event)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestUnmarshal_Malformed(t *testing.T) {
	envelopeFor := func(topic Topic, version int, payload string) []byte {
		body, err := json.Marshal(map[string]any{
			"id":        "m-1",
			"topic":     topic,
			"version":   version,
			"key":       "order-1",
			"payload":   json.RawMessage(payload),
			"timestamp": fixedTime,
		})
		require.NoError(t, err)
		return body
	}

	missingTotalAmount := `{"orderId":"order-1","customerId":"customer-1",` +
		`"items":[{"productId":"product-1","quantity":1,"unitPrice":{"amount":100,"currency":"USD"}}],` +
		`"totalAmount":{"currency":"USD"},"timestamp":"2024-05-01T12:00:00Z"}`
	missingUnitPriceAmount := `{"orderId":"order-1","customerId":"customer-1",` +
		`"items":[{"productId":"product-1","quantity":1,"unitPrice":{"currency":"USD"}}],` +
		`"totalAmount":{"amount":100,"currency":"USD"},"timestamp":"2024-05-01T12:00:00Z"}`

	tests := []struct {
		name    string
		message *Message
	}{
		{name: "nil message", message: nil},
		{name: "not json", message: &Message{Topic: TopicOrderCreated, Payload: []byte("{not json")}},
		{name: "zero version", message: &Message{
			Topic:   TopicOrderCreated,
			Payload: envelopeFor(TopicOrderCreated, 0, `{"orderId":"order-1"}`),
		}},
		{name: "unknown topic", message: &Message{
			Payload: envelopeFor("order.shipped", 1, `{"orderId":"order-1"}`),
		}},
		{name: "topic mismatch", message: &Message{
			Topic:   TopicPaymentFailed,
			Payload: envelopeFor(TopicOrderCancelled, 1, `{"orderId":"order-1","reason":"x","timestamp":"2024-05-01T12:00:00Z"}`),
		}},
		{name: "missing required field", message: &Message{
			Topic:   TopicOrderCancelled,
			Payload: envelopeFor(TopicOrderCancelled, 1, `{"orderId":"order-1","timestamp":"2024-05-01T12:00:00Z"}`),
		}},
		{name: "null payload", message: &Message{
			Topic:   TopicOrderCancelled,
			Payload: envelopeFor(TopicOrderCancelled, 1, `null`),
		}},
		{name: "missing total amount", message: &Message{
			Topic:   TopicOrderCreated,
			Payload: envelopeFor(TopicOrderCreated, 1, missingTotalAmount),
		}},
		{name: "missing unit price amount", message: &Message{
			Topic:   TopicOrderCreated,
			Payload: envelopeFor(TopicOrderCreated, 1, missingUnitPriceAmount),
		}},
		{name: "key mismatch", message: &Message{
			Topic:   TopicOrderCancelled,
			Payload: envelopeFor(TopicOrderCancelled, 1, `{"orderId":"order-2","reason":"x","timestamp":"2024-05-01T12:00:00Z"}`),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := Unmarshal(tt.message)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestUnmarshal_IgnoresUnknownFields(t *testing.T) {
	body := []byte(`{
		"id": "m-1",
		"topic": "order.cancelled",
		"version": 2,
		"key": "order-1",
		"payload": {"orderId": "order-1", "reason": "customer request", "refundId": "r-9", "timestamp": "2024-05-01T12:00:00Z"},
		"timestamp": "2024-05-01T12:00:00Z",
		"producer": "order-service"
	}`)

	event, err := Unmarshal(&Message{Topic: TopicOrderCancelled, Payload: body})
	require.NoError(t, err)

	cancelled, ok := event.(OrderCancelled)
	require.True(t, ok)
	assert.Equal(t, "customer request", cancelled.Reason)
}
