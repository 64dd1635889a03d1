package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/inventory-service/application"
	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/inventory-service/handlers"
	"github.com/draftea/order-saga/inventory-service/infrastructure"
	"github.com/draftea/order-saga/inventory-service/infrastructure/migrations"
	sharedconfig "github.com/draftea/order-saga/shared/config"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/saga"
)

const Stage = "inventory-service"

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	InventoryRepository   domain.InventoryRepository
	ReservationRepository domain.ReservationRepository

	// Use Cases
	ReservationEngine *application.ReservationEngine
	ReserveInventory  *application.ReserveInventory
	ReleaseInventory  *application.ReleaseInventory
	GetInventoryItem  *application.GetInventoryItem
	RestockItem       *application.RestockItem

	// HTTP Handlers
	InventoryHandlers *handlers.InventoryHandlers

	// Event Handlers
	InventoryEventHandlers *handlers.InventoryEventHandlers
	Choreography           *saga.Choreography
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

		deps.InventoryRepository = infrastructure.NewPostgresInventoryRepository(db)
		deps.ReservationRepository = infrastructure.NewPostgresReservationRepository(db)
	case "", sharedconfig.DriverMemory:
		deps.InventoryRepository = infrastructure.NewMemoryInventoryRepository()
		deps.ReservationRepository = infrastructure.NewMemoryReservationRepository()
	default:
		return nil, errors.Errorf("unknown database driver %q", config.Database.Driver)
	}

	eventPublisher := events.NewPublisher(broker.Publisher)

	// Initialize use cases
	deps.ReservationEngine = application.NewReservationEngine(deps.InventoryRepository, application.EngineConfig{
		MaxAttempts:        config.Inventory.MaxAttempts,
		AutoProvision:      config.Inventory.AutoProvision,
		DefaultStock:       config.Inventory.DefaultStock,
		DefaultProductName: config.Inventory.DefaultProductName,
	}, logger)
	deps.ReserveInventory = application.NewReserveInventory(deps.ReservationEngine, deps.ReservationRepository, eventPublisher, logger)
	deps.ReleaseInventory = application.NewReleaseInventory(deps.ReservationEngine, deps.ReservationRepository, logger)
	deps.GetInventoryItem = application.NewGetInventoryItem(deps.InventoryRepository)
	deps.RestockItem = application.NewRestockItem(deps.ReservationEngine, deps.InventoryRepository)

	// Initialize handlers
	deps.InventoryHandlers = handlers.NewInventoryHandlers(deps.GetInventoryItem, deps.RestockItem)
	deps.InventoryEventHandlers = handlers.NewInventoryEventHandlers(deps.ReserveInventory, deps.ReleaseInventory)

	deps.Choreography = saga.NewChoreography(Stage,
		saga.NewDeadLetterRouter(broker.Publisher, logger),
		logger,
		saga.WithMaxDeliveries(config.Broker.MaxDeliveries),
	)
	if err := deps.InventoryEventHandlers.Register(deps.Choreography); err != nil {
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
