// Package sandbox runs every stage of the order saga in one process, on a
// shared in-memory broker and in-memory storage.
package sandbox

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	fulfillmentconfig "github.com/draftea/order-saga/fulfillment-service/config"
	inventoryconfig "github.com/draftea/order-saga/inventory-service/config"
	notificationconfig "github.com/draftea/order-saga/notification-service/config"
	orderconfig "github.com/draftea/order-saga/order-service/config"
	paymentconfig "github.com/draftea/order-saga/payments-service/config"
	sharedconfig "github.com/draftea/order-saga/shared/config"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/saga"
)

type Config struct {
	Order        *orderconfig.Config
	Payment      *paymentconfig.Config
	Inventory    *inventoryconfig.Config
	Fulfillment  *fulfillmentconfig.Config
	Notification *notificationconfig.Config
}

// DefaultConfig returns stage configs with no latency, no random failures
// and short retry intervals
func DefaultConfig() Config {
	common := func(service string) sharedconfig.Common {
		return sharedconfig.Common{
			ServiceName: service,
			Env:         "sandbox",
			Database:    sharedconfig.Database{Driver: sharedconfig.DriverMemory},
			Broker:      sharedconfig.Broker{Driver: sharedconfig.DriverMemory, MaxDeliveries: 5},
		}
	}

	return Config{
		Order: &orderconfig.Config{
			Common: common(orderconfig.Stage),
			Order:  orderconfig.Order{Currency: "USD"},
		},
		Payment: &paymentconfig.Config{
			Common: common(paymentconfig.Stage),
			Payment: paymentconfig.Payment{
				Method:      "credit_card",
				CallTimeout: time.Second,
				Provider:    paymentconfig.Provider{Type: paymentconfig.ProviderSimulated},
				Retry:       paymentconfig.Retry{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond},
				Breaker:     paymentconfig.Breaker{FailureThreshold: 5, CoolDown: time.Second, HalfOpenRequests: 1},
			},
		},
		Inventory: &inventoryconfig.Config{
			Common: common(inventoryconfig.Stage),
			Inventory: inventoryconfig.Inventory{
				AutoProvision: true,
				DefaultStock:  100,
				MaxAttempts:   5,
			},
		},
		Fulfillment: &fulfillmentconfig.Config{
			Common: common(fulfillmentconfig.Stage),
			Fulfillment: fulfillmentconfig.Fulfillment{
				CallTimeout: time.Second,
				Retry:       fulfillmentconfig.Retry{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond},
			},
		},
		Notification: &notificationconfig.Config{
			Common: common(notificationconfig.Stage),
			Notification: notificationconfig.Notification{
				Sender: notificationconfig.SenderLog,
				Guard:  notificationconfig.GuardMemory,
				Retry:  notificationconfig.Retry{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond},
			},
		},
	}
}

// UseMemory points every stage at in-memory storage and the in-memory broker
func (c Config) UseMemory() Config {
	for _, common := range []*sharedconfig.Common{
		&c.Order.Common,
		&c.Payment.Common,
		&c.Inventory.Common,
		&c.Fulfillment.Common,
		&c.Notification.Common,
	} {
		common.Database.Driver = sharedconfig.DriverMemory
		common.Broker.Driver = sharedconfig.DriverMemory
	}
	return c
}

type Sandbox struct {
	Broker *sharedinfra.MemoryBroker

	Order        *orderconfig.Dependencies
	Payment      *paymentconfig.Dependencies
	Inventory    *inventoryconfig.Dependencies
	Fulfillment  *fulfillmentconfig.Dependencies
	Notification *notificationconfig.Dependencies

	broker *sharedinfra.Broker
	logger *zap.Logger
}

// New wires every stage on one memory broker. Consumers start with Start.
func New(ctx context.Context, config Config, logger *zap.Logger, opts ...sharedinfra.MemoryBrokerOption) (*Sandbox, error) {
	memory := sharedinfra.NewMemoryBroker(logger, opts...)
	s := &Sandbox{
		Broker: memory,
		broker: sharedinfra.NewBrokerFrom(memory, memory),
		logger: logger,
	}

	var err error
	if s.Order, err = orderconfig.BuildDependencies(ctx, config.Order, s.broker, logger); err != nil {
		return nil, s.fail(errors.Wrap(err, "order stage"))
	}
	if s.Payment, err = paymentconfig.BuildDependencies(ctx, config.Payment, s.broker, logger); err != nil {
		return nil, s.fail(errors.Wrap(err, "payment stage"))
	}
	if s.Inventory, err = inventoryconfig.BuildDependencies(ctx, config.Inventory, s.broker, logger); err != nil {
		return nil, s.fail(errors.Wrap(err, "inventory stage"))
	}
	if s.Fulfillment, err = fulfillmentconfig.BuildDependencies(ctx, config.Fulfillment, s.broker, logger); err != nil {
		return nil, s.fail(errors.Wrap(err, "fulfillment stage"))
	}
	if s.Notification, err = notificationconfig.BuildDependencies(ctx, config.Notification, s.broker, logger); err != nil {
		return nil, s.fail(errors.Wrap(err, "notification stage"))
	}

	return s, nil
}

func (s *Sandbox) choreographies() []*saga.Choreography {
	var choreographies []*saga.Choreography
	if s.Order != nil {
		choreographies = append(choreographies, s.Order.Choreography)
	}
	if s.Payment != nil {
		choreographies = append(choreographies, s.Payment.Choreography)
	}
	if s.Inventory != nil {
		choreographies = append(choreographies, s.Inventory.Choreography)
	}
	if s.Fulfillment != nil {
		choreographies = append(choreographies, s.Fulfillment.Choreography)
	}
	if s.Notification != nil {
		choreographies = append(choreographies, s.Notification.Choreography)
	}
	return choreographies
}

// Start subscribes every stage's consumers
func (s *Sandbox) Start(ctx context.Context) error {
	for _, choreography := range s.choreographies() {
		if err := choreography.Start(ctx, s.broker.Subscriber); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRoutes mounts the HTTP API of every stage
func (s *Sandbox) RegisterRoutes(r chi.Router) {
	s.Order.OrderHandlers.RegisterRoutes(r)
	s.Payment.PaymentHandlers.RegisterRoutes(r)
	s.Inventory.InventoryHandlers.RegisterRoutes(r)
	s.Fulfillment.FulfillmentHandlers.RegisterRoutes(r)
	s.Notification.NotificationHandlers.RegisterRoutes(r)
}

// WaitIdle blocks until the saga has settled: no delivery is queued or
// being handled
func (s *Sandbox) WaitIdle(ctx context.Context) error {
	return s.Broker.WaitIdle(ctx)
}

// Close stops the consumers before releasing stage resources
func (s *Sandbox) Close() error {
	closers := []func() error{s.broker.Close}
	if s.Order != nil {
		closers = append(closers, s.Order.Close)
	}
	if s.Payment != nil {
		closers = append(closers, s.Payment.Close)
	}
	if s.Inventory != nil {
		closers = append(closers, s.Inventory.Close)
	}
	if s.Fulfillment != nil {
		closers = append(closers, s.Fulfillment.Close)
	}
	if s.Notification != nil {
		closers = append(closers, s.Notification.Close)
	}

	var firstErr error
	for _, closeFn := range closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Sandbox) fail(err error) error {
	if closeErr := s.Close(); closeErr != nil {
		s.logger.Error("failed to close sandbox", zap.Error(closeErr))
	}
	return err
}
