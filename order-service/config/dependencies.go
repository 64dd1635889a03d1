package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/order-service/handlers"
	"github.com/draftea/order-saga/order-service/infrastructure"
	"github.com/draftea/order-saga/order-service/infrastructure/migrations"
	sharedconfig "github.com/draftea/order-saga/shared/config"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/saga"
)

const Stage = "order-service"

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository domain.OrderRepository

	// Use Cases
	CreateOrder       *application.CreateOrder
	GetOrder          *application.GetOrder
	ListOrders        *application.ListOrders
	CancelOrder       *application.CancelOrder
	UpdateOrderStatus *application.UpdateOrderStatus

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers
	Choreography       *saga.Choreography
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

		deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	case "", sharedconfig.DriverMemory:
		deps.OrderRepository = infrastructure.NewMemoryOrderRepository()
	default:
		return nil, errors.Errorf("unknown database driver %q", config.Database.Driver)
	}

	eventPublisher := events.NewPublisher(broker.Publisher)

	// Initialize use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, eventPublisher, config.Order.Currency, logger)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.ListOrders = application.NewListOrders(deps.OrderRepository)
	deps.CancelOrder = application.NewCancelOrder(deps.OrderRepository, eventPublisher, logger)
	deps.UpdateOrderStatus = application.NewUpdateOrderStatus(deps.OrderRepository, eventPublisher, logger)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.GetOrder, deps.ListOrders, deps.CancelOrder)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.UpdateOrderStatus)

	deps.Choreography = saga.NewChoreography(Stage,
		saga.NewDeadLetterRouter(broker.Publisher, logger),
		logger,
		saga.WithMaxDeliveries(config.Broker.MaxDeliveries),
	)
	if err := deps.OrderEventHandlers.Register(deps.Choreography); err != nil {
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
