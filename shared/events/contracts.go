package events

import (
	"time"

	"github.com/draftea/order-saga/shared/models"
)

// SchemaVersion is the envelope version written by this build. Consumers
// accept any version >= 1 and ignore fields they do not know.
const SchemaVersion = 1

// Event is the closed set of domain events exchanged between stages.
// Only the types in this file implement it.
type Event interface {
	Topic() Topic
	// Key returns the partition and idempotency key, the order id.
	Key() string
	OccurredAt() time.Time
	isDomainEvent()
}

// LineItem is an ordered product line
type LineItem struct {
	ProductID models.ID    `json:"productId" validate:"required"`
	Quantity  int          `json:"quantity" validate:"gt=0"`
	UnitPrice models.Money `json:"unitPrice"`
}

// ReservedItem is a product quantity moved from available to reserved
type ReservedItem struct {
	ProductID models.ID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type OrderCreated struct {
	OrderID     models.ID    `json:"orderId" validate:"required"`
	CustomerID  models.ID    `json:"customerId" validate:"required"`
	Items       []LineItem   `json:"items" validate:"required,min=1,dive"`
	TotalAmount models.Money `json:"totalAmount"`
	Timestamp   time.Time    `json:"timestamp" validate:"required"`
}

type PaymentSucceeded struct {
	OrderID       models.ID    `json:"orderId" validate:"required"`
	PaymentID     models.ID    `json:"paymentId" validate:"required"`
	CustomerID    models.ID    `json:"customerId" validate:"required"`
	Amount        models.Money `json:"amount"`
	PaymentMethod string       `json:"paymentMethod" validate:"required"`
	TransactionID string       `json:"transactionId" validate:"required"`
	Items         []LineItem   `json:"items" validate:"required,min=1,dive"`
	Timestamp     time.Time    `json:"timestamp" validate:"required"`
}

type PaymentFailed struct {
	OrderID   models.ID `json:"orderId" validate:"required"`
	PaymentID models.ID `json:"paymentId" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

type InventoryReserved struct {
	OrderID       models.ID      `json:"orderId" validate:"required"`
	ReservationID models.ID      `json:"reservationId" validate:"required"`
	Items         []ReservedItem `json:"items" validate:"required,min=1,dive"`
	Timestamp     time.Time      `json:"timestamp" validate:"required"`
}

type InventoryRejected struct {
	OrderID   models.ID `json:"orderId" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

type OrderFulfilled struct {
	OrderID        models.ID `json:"orderId" validate:"required"`
	FulfillmentID  models.ID `json:"fulfillmentId" validate:"required"`
	TrackingNumber string    `json:"trackingNumber" validate:"required"`
	Timestamp      time.Time `json:"timestamp" validate:"required"`
}

type OrderCancelled struct {
	OrderID   models.ID `json:"orderId" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

func (e OrderCreated) Topic() Topic      { return TopicOrderCreated }
func (e PaymentSucceeded) Topic() Topic  { return TopicPaymentSucceeded }
func (e PaymentFailed) Topic() Topic     { return TopicPaymentFailed }
func (e InventoryReserved) Topic() Topic { return TopicInventoryReserved }
func (e InventoryRejected) Topic() Topic { return TopicInventoryRejected }
func (e OrderFulfilled) Topic() Topic    { return TopicOrderFulfilled }
func (e OrderCancelled) Topic() Topic    { return TopicOrderCancelled }

func (e OrderCreated) Key() string      { return e.OrderID.String() }
func (e PaymentSucceeded) Key() string  { return e.OrderID.String() }
func (e PaymentFailed) Key() string     { return e.OrderID.String() }
func (e InventoryReserved) Key() string { return e.OrderID.String() }
func (e InventoryRejected) Key() string { return e.OrderID.String() }
func (e OrderFulfilled) Key() string    { return e.OrderID.String() }
func (e OrderCancelled) Key() string    { return e.OrderID.String() }

func (e OrderCreated) OccurredAt() time.Time      { return e.Timestamp }
func (e PaymentSucceeded) OccurredAt() time.Time  { return e.Timestamp }
func (e PaymentFailed) OccurredAt() time.Time     { return e.Timestamp }
func (e InventoryReserved) OccurredAt() time.Time { return e.Timestamp }
func (e InventoryRejected) OccurredAt() time.Time { return e.Timestamp }
func (e OrderFulfilled) OccurredAt() time.Time    { return e.Timestamp }
func (e OrderCancelled) OccurredAt() time.Time    { return e.Timestamp }

func (OrderCreated) isDomainEvent()      {}
func (PaymentSucceeded) isDomainEvent()  {}
func (PaymentFailed) isDomainEvent()     {}
func (InventoryReserved) isDomainEvent() {}
func (InventoryRejected) isDomainEvent() {}
func (OrderFulfilled) isDomainEvent()    {}
func (OrderCancelled) isDomainEvent()    {}
