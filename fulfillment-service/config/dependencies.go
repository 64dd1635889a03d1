package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/fulfillment-service/application"
	"github.com/draftea/order-saga/fulfillment-service/domain"
	"github.com/draftea/order-saga/fulfillment-service/handlers"
	"github.com/draftea/order-saga/fulfillment-service/infrastructure"
	"github.com/draftea/order-saga/fulfillment-service/infrastructure/migrations"
	sharedconfig "github.com/draftea/order-saga/shared/config"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/resilience"
	"github.com/draftea/order-saga/shared/saga"
)

const Stage = "fulfillment-service"

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	FulfillmentRepository domain.FulfillmentRepository

	// External
	Shipper domain.Shipper

	// Use Cases
	FulfillOrder   *application.FulfillOrder
	GetFulfillment *application.GetFulfillment

	// HTTP Handlers
	FulfillmentHandlers *handlers.FulfillmentHandlers

	// Event Handlers
	FulfillmentEventHandlers *handlers.FulfillmentEventHandlers
	Choreography             *saga.Choreography
}

// BuildDependencies wires the stage on top of broker, which the caller owns
func BuildDependencies(ctx context.Context, config *Config, broker *sharedinfra.Broker, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}
	logger = logger.With(zap.String("stage", Stage))

	switch config.Database.Driver {
	case sharedconfig.DriverPostgres:
		db, err := sharedinfra.NewPostgresDB(ctx, config.Database)
		if err != nil {
			return nil, err
		}
		deps.DB = db

		if err := sharedinfra.Migrate(ctx, db, migrations.FS, logger); err != nil {
			_ = db.Close()
			return nil, err
		}

		deps.FulfillmentRepository = infrastructure.NewPostgresFulfillmentRepository(db)
	case "", sharedconfig.DriverMemory:
		deps.FulfillmentRepository = infrastructure.NewMemoryFulfillmentRepository()
	default:
		return nil, errors.Errorf("unknown database driver %q", config.Database.Driver)
	}

	deps.Shipper = infrastructure.NewSimulatedShipper(infrastructure.SimulatedShipperConfig{
		MinLatency:  config.Fulfillment.Shipper.MinLatency,
		MaxLatency:  config.Fulfillment.Shipper.MaxLatency,
		FailureRate: config.Fulfillment.Shipper.FailureRate,
		ErrorRate:   config.Fulfillment.Shipper.ErrorRate,
	}, logger)

	eventPublisher := events.NewPublisher(broker.Publisher)

	// Initialize use cases
	deps.FulfillOrder = application.NewFulfillOrder(deps.FulfillmentRepository, deps.Shipper, eventPublisher, application.FulfillOrderConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:     config.Fulfillment.Retry.MaxAttempts,
			InitialInterval: config.Fulfillment.Retry.InitialInterval,
			MaxInterval:     config.Fulfillment.Retry.MaxInterval,
		},
		CallTimeout: config.Fulfillment.CallTimeout,
	}, logger)
	deps.GetFulfillment = application.NewGetFulfillment(deps.FulfillmentRepository)

	// Initialize handlers
	deps.FulfillmentHandlers = handlers.NewFulfillmentHandlers(deps.GetFulfillment)
	deps.FulfillmentEventHandlers = handlers.NewFulfillmentEventHandlers(deps.FulfillOrder)

	deps.Choreography = saga.NewChoreography(Stage,
		saga.NewDeadLetterRouter(broker.Publisher, logger),
		logger,
		saga.WithMaxDeliveries(config.Broker.MaxDeliveries),
	)
	if err := deps.FulfillmentEventHandlers.Register(deps.Choreography); err != nil {
		_ = deps.Close()
		return nil, err
	}

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database")
		}
	}
	return nil
}
